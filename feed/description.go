package feed

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/feedcast/feedcast/log"
)

var htmlTag = regexp.MustCompile(`<\s*(p|div|span|a|br|img|h[1-6]|ul|ol|li|strong|em|b|i|code|pre|blockquote)[^>]*>`)

// Describe turns an item description into terminal friendly text.
// Show notes are usually HTML, they are converted to markdown.
func Describe(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !htmlTag.MatchString(raw) {
		return raw
	}

	markdown, err := htmltomarkdown.ConvertString(raw)
	if err != nil {
		log.Debugf("description is not convertible html: %s", err)
		return raw
	}

	return strings.TrimSpace(markdown)
}
