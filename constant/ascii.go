package constant

import _ "embed"

// AsciiArtLogo is the application's ASCII art banner, loaded at compile time.
//
//go:embed ascii.txt
var AsciiArtLogo string

// FallbackFeeds is the feed document used when the default feed source is unreachable or invalid.
//
//go:embed fallback.json
var FallbackFeeds []byte
