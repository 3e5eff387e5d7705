// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Logging Infrastructure - these keys manage the application's internal diagnostics.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these flags and settings govern terminal output.
const (
	CliColored   = "cli.colored"
	IconsVariant = "icons.variant"
)

// Execution Surface - these keys configure the shared scripting environment modules run in.
const (
	SurfaceHeadless      = "surface.headless"
	SurfaceStealth       = "surface.stealth"
	SurfaceRemoteURL     = "surface.remote_url"
	SurfaceReadyTimeout  = "surface.ready_timeout"
	SurfaceScriptTimeout = "surface.script_timeout"
)

// Network - these keys tune the HTTP client used for module requests and downloads.
const (
	HTTPTimeout     = "http.timeout"
	HTTPFingerprint = "http.fingerprint"
	HTTPUserAgent   = "http.user_agent"
)

// Module Management - these keys govern installation and updates of modules.
const (
	ModulesAllowDowngrade = "modules.allow_downgrade"
)

// Search - these keys control the search command.
const (
	SearchSuggestions = "search.suggestions"
)

// Media Playback - these keys select the external player that consumes resolved sources.
const (
	Player = "player.default"
)
