package constant

// Module package layout.
const (
	ManifestJSON = "manifest.json"
	ManifestYAML = "manifest.yaml"

	// FormatVersion is the highest manifest format version this host understands.
	FormatVersion = 2
)

// Script engines a module may declare.
const (
	EngineWeb = "web"
	EngineLua = "lua"
)

// Request URL placeholders substituted per call.
const (
	QueryPlaceholder = "{{query}}"
	InputPlaceholder = "{{input}}"
)

// ContainerID is the id of the reserved element module scripts publish their output into.
const ContainerID = "__modhost_output"
