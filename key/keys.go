// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// DefinedFieldsCount represents the total cardinality of the application configuration schema.
const DefinedFieldsCount = 13

// Feed Sources - these keys control where the catalog is loaded from.
const (
	FeedsDefaultURL   = "feeds.default_url"
	FeedsFetchTimeout = "feeds.fetch_timeout"
)

// Media Playback - these keys configure the external player driven by the playback controller.
const (
	Player            = "player.default"
	PlayerVideoWindow = "player.video_window"
	PlayerSeekStep    = "player.seek_step"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Terminal User Interface (TUI) - these keys define the primary interactive environment's styling.
const (
	TUIItemSpacing = "tui.item_spacing"
	TUIShowURLs    = "tui.show_urls"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these flags and settings govern the non-TUI application behavior.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)
