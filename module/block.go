package module

import (
	"encoding/json"
	"fmt"

	"github.com/samber/mo"
)

// ScriptBlock is one unit of module code plus the flags that control how it runs.
type ScriptBlock struct {
	// Name identifies the block inside its module, e.g. "anime/search1".
	Name string
	Code string

	// RemoveScripts strips the loaded document's own <script> elements before Code runs.
	RemoveScripts bool
	// AllowExternalScripts lets the document load scripts from other origins.
	AllowExternalScripts bool
	// UsesAPI marks a block that issues its own network requests while running.
	UsesAPI bool
	// Imports are module-relative paths or http(s) URLs evaluated before Code.
	Imports []string

	Request mo.Option[Request]
}

// Bundle is the ordered list of blocks implementing one feature.
type Bundle []ScriptBlock

// Empty reports whether the bundle has no blocks.
func (b Bundle) Empty() bool {
	return len(b) == 0
}

// Bundles holds the resolved bundle of every feature for one subtype.
type Bundles struct {
	Home   Bundle
	Search Bundle
	Info   Bundle
	Media  Bundle
}

// Get returns the bundle for a feature.
func (b Bundles) Get(f Feature) Bundle {
	switch f {
	case FeatureHome:
		return b.Home
	case FeatureSearch:
		return b.Search
	case FeatureInfo:
		return b.Info
	case FeatureMedia:
		return b.Media
	default:
		return nil
	}
}

func (b *Bundles) set(f Feature, bundle Bundle) {
	switch f {
	case FeatureHome:
		b.Home = bundle
	case FeatureSearch:
		b.Search = bundle
	case FeatureInfo:
		b.Info = bundle
	case FeatureMedia:
		b.Media = bundle
	}
}

// blockMeta is the on-disk form of the metadata file next to each script file.
type blockMeta struct {
	RemoveScripts        bool         `json:"removeScripts"`
	AllowExternalScripts bool         `json:"allowExternalScripts"`
	UsesAPI              bool         `json:"usesApi"`
	Imports              []string     `json:"imports"`
	Request              *requestMeta `json:"request"`
}

type requestMeta struct {
	Method  string   `json:"method"`
	URL     string   `json:"url"`
	Headers []Header `json:"headers"`
	Body    *string  `json:"body"`
}

func parseBlock(name, code string, meta []byte) (ScriptBlock, error) {
	block := ScriptBlock{Name: name, Code: code}
	if meta == nil {
		return block, nil
	}

	var m blockMeta
	if err := json.Unmarshal(meta, &m); err != nil {
		return block, fmt.Errorf("block %s: parse metadata: %w", name, err)
	}

	block.RemoveScripts = m.RemoveScripts
	block.AllowExternalScripts = m.AllowExternalScripts
	block.UsesAPI = m.UsesAPI
	block.Imports = m.Imports

	if m.Request != nil {
		body := mo.None[string]()
		if m.Request.Body != nil {
			body = mo.Some(*m.Request.Body)
		}
		req := NewRequest(m.Request.Method, m.Request.URL, m.Request.Headers, body)
		if !req.Usable() {
			return block, fmt.Errorf("block %s: unsupported method %q", name, m.Request.Method)
		}
		block.Request = mo.Some(req)
	}

	return block, nil
}
