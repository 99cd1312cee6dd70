package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/feedcast/feedcast/constant"
	"github.com/feedcast/feedcast/filesystem"
	"github.com/feedcast/feedcast/util"
)

// MaxDocumentSize caps how much of a feed document is read.
const MaxDocumentSize = 10 * 1024 * 1024

// ErrTooLarge is returned when a document exceeds MaxDocumentSize.
var ErrTooLarge = errors.New("document exceeds the 10MiB limit")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch failed with status %d", e.Status)
}

// IsRemote reports whether source is an http(s) url.
func IsRemote(source string) bool {
	u, err := url.Parse(source)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// LocalPath returns the filesystem path of a local source (a plain path or a file:// url).
func LocalPath(source string) (string, bool) {
	if strings.HasPrefix(source, "file://") {
		u, err := url.Parse(source)
		if err != nil {
			return "", false
		}
		return u.Path, u.Path != ""
	}

	if IsRemote(source) {
		return "", false
	}

	if u, err := url.Parse(source); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		// some other scheme (ftp:, data:...)
		return "", false
	}

	return source, source != ""
}

// Read returns the body of a feed source. Remote sources are fetched with the shared client,
// local ones are read from the active filesystem.
func Read(ctx context.Context, source string) ([]byte, error) {
	if path, ok := LocalPath(source); ok {
		return readLocal(path)
	}

	if !IsRemote(source) {
		return nil, fmt.Errorf("unsupported feed source %q", source)
	}

	return fetch(ctx, source)
}

func fetch(ctx context.Context, source string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", constant.UserAgent)
	req.Header.Set("Accept", "application/json, application/rss+xml, application/xml;q=0.9, */*;q=0.5")

	resp, err := Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer util.Ignore(resp.Body.Close)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: source, Status: resp.StatusCode}
	}

	return readLimited(resp.Body)
}

func readLocal(path string) ([]byte, error) {
	f, err := filesystem.API().Open(path)
	if err != nil {
		return nil, err
	}
	defer util.Ignore(f.Close)

	return readLimited(f)
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxDocumentSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxDocumentSize {
		return nil, ErrTooLarge
	}
	return data, nil
}
