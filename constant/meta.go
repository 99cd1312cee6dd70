// Package constant defines immutable application-level identifiers and configuration defaults.
package constant

const (
	// Feedcast is the canonical application identifier used for filesystem paths and CLI branding.
	Feedcast = "feedcast"

	// Version is the current application semantic version string.
	Version = "0.3.1"

	// UserAgent is sent with every feed request.
	UserAgent = Feedcast + "/" + Version + " (+https://github.com/feedcast/feedcast)"
)

// Build metadata, overridden with -ldflags "-X" by the release pipeline.
var (
	BuiltAt  = "unknown"
	BuiltBy  = "unknown"
	Revision = "unknown"
)
