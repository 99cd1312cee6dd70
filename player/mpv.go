package player

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/feedcast/feedcast/log"
	"github.com/feedcast/feedcast/where"
	"github.com/google/uuid"
)

const (
	socketWaitRetries = 10
	socketWaitDelay   = 300 * time.Millisecond
	quitTimeout       = 3 * time.Second
)

// Options configures an mpv transport.
type Options struct {
	// Binary is the mpv executable, "mpv" when empty.
	Binary string

	// Video opens a video window without audio. Otherwise mpv plays audio only.
	Video bool

	// Title is the window title.
	Title string
}

// MPV is a Player backed by an mpv process started on first Load.
type MPV struct {
	opts       Options
	socketPath string
	cmd        *exec.Cmd
	exited     chan struct{}
	listener   *EventListener
	observers  []Observer

	life sync.Mutex // guards process start and stop
	mu   sync.Mutex // serializes socket writes
}

// NewMPV returns an mpv transport. No process is started until media is loaded.
func NewMPV(opts Options) *MPV {
	if opts.Binary == "" {
		opts.Binary = "mpv"
	}

	exited := make(chan struct{})
	close(exited)

	return &MPV{opts: opts, exited: exited}
}

// Available reports whether the mpv binary can be found.
func Available(binary string) (string, error) {
	if binary == "" {
		binary = "mpv"
	}
	return exec.LookPath(binary)
}

// Subscribe registers an observer. Observers added after the process started
// receive events from the next start on.
func (m *MPV) Subscribe(o Observer) {
	m.life.Lock()
	defer m.life.Unlock()

	m.observers = append(m.observers, o)
}

// arguments builds the mpv command line. Media is never passed here, it is loaded over IPC.
func (m *MPV) arguments() []string {
	args := []string{
		"--no-terminal",
		"--really-quiet",
		"--idle=yes",
		"--keep-open=no",
		"--input-ipc-server=" + m.socketPath,
	}

	if m.opts.Title != "" {
		args = append(args, "--title="+sanitizeTitle(m.opts.Title))
	}

	if m.opts.Video {
		args = append(args, "--aid=no", "--force-window=yes")
	} else {
		args = append(args, "--vid=no", "--force-window=no")
	}

	return args
}

func (m *MPV) running() bool {
	select {
	case <-m.exited:
		return false
	default:
		return true
	}
}

// ensureRunning starts mpv and its event listener when no live process exists.
func (m *MPV) ensureRunning() error {
	m.life.Lock()
	defer m.life.Unlock()

	if m.running() {
		return nil
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate socket name: %w", err)
	}
	m.socketPath = filepath.Join(where.Temp(), "mpv-"+id.String()+".sock")

	m.cmd = exec.Command(m.opts.Binary, m.arguments()...)
	m.cmd.SysProcAttr = sysProcAttr()
	m.cmd.Stdout = nil
	m.cmd.Stderr = nil
	m.cmd.Stdin = nil

	if err := m.cmd.Start(); err != nil {
		return fmt.Errorf("start mpv: %w", err)
	}

	exited := make(chan struct{})
	m.exited = exited
	cmd := m.cmd
	go func() {
		_ = cmd.Wait()
		close(exited)
	}()

	if err := m.waitForSocket(); err != nil {
		select {
		case <-exited:
		default:
			log.Warnf("killing mpv: socket never became ready")
			_ = killProcess(cmd)
		}
		return fmt.Errorf("mpv socket not ready: %w", err)
	}

	observers := append([]Observer(nil), m.observers...)
	m.listener = NewEventListener(m.socketPath, observers)
	if err := m.listener.Start(); err != nil {
		_ = killProcess(cmd)
		return err
	}

	go m.watch(exited, m.listener, observers)
	return nil
}

// watch reports an unexpected process exit, e.g. the user closing the window.
func (m *MPV) watch(exited <-chan struct{}, listener *EventListener, observers []Observer) {
	<-exited
	if listener.Stop() {
		for _, o := range observers {
			o.OnPlaybackStateChanged(false)
			o.OnError(ErrExited)
		}
	}
}

func (m *MPV) waitForSocket() error {
	for i := 0; i < socketWaitRetries; i++ {
		time.Sleep(socketWaitDelay)

		if !m.running() {
			return fmt.Errorf("mpv exited before socket was ready")
		}

		conn, err := net.Dial("unix", m.socketPath)
		if err == nil {
			conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", m.socketPath, socketWaitRetries)
}

// Load replaces the current media. The media starts paused at start seconds.
func (m *MPV) Load(rawURL, title string, start float64) error {
	target, err := sanitizeMediaTarget(rawURL)
	if err != nil {
		return fmt.Errorf("invalid media target: %w", err)
	}

	if err = m.ensureRunning(); err != nil {
		return err
	}

	if start < 0 {
		start = 0
	}

	for _, prop := range []struct {
		name  string
		value any
	}{
		{"pause", true},
		{"start", strconv.FormatFloat(start, 'f', 3, 64)},
		{"force-media-title", sanitizeTitle(title)},
	} {
		if err = m.set(prop.name, prop.value); err != nil {
			return err
		}
	}

	_, err = m.sendCommand([]any{"loadfile", target, "replace"})
	return err
}

func (m *MPV) Play() error {
	if !m.running() {
		return ErrExited
	}
	return m.set("pause", false)
}

func (m *MPV) Pause() error {
	if !m.running() {
		return nil
	}
	return m.set("pause", true)
}

func (m *MPV) Stop() error {
	if !m.running() {
		return nil
	}
	_, err := m.sendCommand([]any{"stop"})
	return err
}

func (m *MPV) Seek(seconds float64) error {
	if !m.running() {
		return ErrExited
	}
	_, err := m.sendCommand([]any{"seek", seconds, "absolute"})
	return err
}

func (m *MPV) SetRate(rate float64) error {
	if !m.running() {
		return nil
	}
	return m.set("speed", rate)
}

func (m *MPV) TimePos() (float64, error) {
	return m.getFloatProperty("time-pos")
}

// Close quits mpv, killing it when it does not exit in time.
func (m *MPV) Close() error {
	m.life.Lock()
	defer m.life.Unlock()

	if !m.running() {
		return nil
	}

	if m.listener != nil {
		m.listener.Stop()
	}

	_, _ = m.sendCommand([]any{"quit"})

	select {
	case <-m.exited:
	case <-time.After(quitTimeout):
		_ = killProcess(m.cmd)
	}

	_ = os.Remove(m.socketPath)
	return nil
}

func (m *MPV) set(property string, value any) error {
	_, err := m.sendCommand([]any{"set_property", property, value})
	return err
}

func (m *MPV) getFloatProperty(name string) (float64, error) {
	data, err := m.sendCommand([]any{"get_property", name})
	if err != nil {
		return 0, err
	}

	val, ok := data.(float64)
	if !ok {
		return 0, fmt.Errorf("property %s: expected float64, got %T", name, data)
	}

	return val, nil
}

// sanitizeMediaTarget validates that a feed-provided url is safe to pass to mpv.
func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", fmt.Errorf("empty URL")
	}

	if strings.ContainsAny(l, "\x00\n\r") {
		return "", fmt.Errorf("invalid control characters in URL")
	}

	if strings.HasPrefix(l, "-") {
		return "", fmt.Errorf("url must not start with '-' (looks like a flag)")
	}

	if strings.Contains(l, "://") {
		u, err := url.Parse(l)
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return l, nil
		case "file":
			return filepath.Clean(u.Path), nil
		default:
			return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
		}
	}

	return filepath.Clean(l), nil
}

func sanitizeTitle(title string) string {
	t := strings.NewReplacer("\n", " ", "\r", " ", "\t", " ", "\x00", "").Replace(title)
	return strings.TrimSpace(t)
}
