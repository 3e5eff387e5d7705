// Package constant defines immutable application-level identifiers and configuration defaults.
package constant

const (
	// Modhost is the canonical application identifier used for filesystem paths and CLI branding.
	Modhost = "modhost"

	// Version is the current application semantic version string.
	Version = "0.3.0"

	// UserAgent is the default HTTP User-Agent string used for module requests.
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Build metadata, overridden with -ldflags at release time.
var (
	BuiltAt  = "unknown"
	BuiltBy  = "unknown"
	Revision = "unknown"
)

// Logo is printed above the root command help.
const Logo = `                    _ _               _
 _ __ ___   ___   __| | |__   ___  ___| |_
| '_ ` + "`" + ` _ \ / _ \ / _` + "`" + ` | '_ \ / _ \/ __| __|
| | | | | | (_) | (_| | | | | (_) \__ \ |_
|_| |_| |_|\___/ \__,_|_| |_|\___/|___/\__|`
