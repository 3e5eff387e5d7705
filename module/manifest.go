// Package module describes installable modules: their manifest, the script blocks
// bundled per feature, and the request descriptors those blocks declare.
package module

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/anisan-cli/modhost/constant"
	"github.com/anisan-cli/modhost/version"
	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// Feature is one area of functionality a module bundles script for.
type Feature string

const (
	FeatureHome   Feature = "home"
	FeatureSearch Feature = "search"
	FeatureInfo   Feature = "info"
	FeatureMedia  Feature = "media"
)

// Features lists every feature in resolution order.
func Features() []Feature {
	return []Feature{FeatureHome, FeatureSearch, FeatureInfo, FeatureMedia}
}

// Meta is descriptive module metadata shown to the user.
type Meta struct {
	Author          string   `json:"author,omitempty" yaml:"author,omitempty"`
	Description     string   `json:"description,omitempty" yaml:"description,omitempty"`
	Icon            string   `json:"icon,omitempty" yaml:"icon,omitempty"`
	Lang            []string `json:"lang,omitempty" yaml:"lang,omitempty"`
	BaseURL         string   `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty"`
	BackgroundColor string   `json:"backgroundColor,omitempty" yaml:"backgroundColor,omitempty"`
	ForegroundColor string   `json:"foregroundColor,omitempty" yaml:"foregroundColor,omitempty"`
}

// Manifest is the parsed manifest file at the root of a module package.
type Manifest struct {
	ID            string   `json:"id" yaml:"id" jsonschema:"required,pattern=^[A-Za-z0-9._-]+$"`
	Type          string   `json:"type" yaml:"type"`
	Subtypes      []string `json:"subtypes" yaml:"subtypes" jsonschema:"required,minItems=1"`
	Name          string   `json:"name" yaml:"name" jsonschema:"required"`
	Version       string   `json:"version" yaml:"version" jsonschema:"required"`
	FormatVersion int      `json:"formatVersion" yaml:"formatVersion" jsonschema:"required,minimum=1"`
	UpdateURL     string   `json:"updateUrl,omitempty" yaml:"updateUrl,omitempty"`
	Engine        string   `json:"engine,omitempty" yaml:"engine,omitempty" jsonschema:"enum=web,enum=lua"`
	Meta          Meta     `json:"meta" yaml:"meta"`

	// Code maps a subtype to the bundle path prefix of each feature,
	// relative to the module root (e.g. "anime/search").
	Code map[string]map[Feature]string `json:"code" yaml:"code" jsonschema:"required"`
}

var idPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ErrNoManifest is returned when a package has neither manifest.json nor manifest.yaml.
var ErrNoManifest = errors.New("manifest not found")

// ParseManifest decodes a manifest; the format is chosen by the file name extension.
func ParseManifest(data []byte, name string) (Manifest, error) {
	var m Manifest

	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &m); err != nil {
			return m, fmt.Errorf("parse %s: %w", name, err)
		}
	default:
		if err := json.Unmarshal(data, &m); err != nil {
			return m, fmt.Errorf("parse %s: %w", name, err)
		}
	}

	return m, nil
}

// EngineName returns the declared script engine, defaulting to the web surface.
func (m *Manifest) EngineName() string {
	if m.Engine == "" {
		return constant.EngineWeb
	}
	return m.Engine
}

// Validate checks the fields the host relies on.
func (m *Manifest) Validate() error {
	var errs []error

	if !idPattern.MatchString(m.ID) || m.ID == "." || m.ID == ".." {
		errs = append(errs, fmt.Errorf("invalid id %q", m.ID))
	}
	if strings.TrimSpace(m.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if !version.Valid(m.Version) {
		errs = append(errs, fmt.Errorf("invalid version %q", m.Version))
	}
	if m.FormatVersion < 1 || m.FormatVersion > constant.FormatVersion {
		errs = append(errs, fmt.Errorf("unsupported format version %d", m.FormatVersion))
	}
	if !lo.Contains([]string{constant.EngineWeb, constant.EngineLua}, m.EngineName()) {
		errs = append(errs, fmt.Errorf("unknown engine %q", m.Engine))
	}
	if len(m.Subtypes) == 0 {
		errs = append(errs, errors.New("at least one subtype is required"))
	}

	for _, subtype := range m.Subtypes {
		features, ok := m.Code[subtype]
		if !ok {
			errs = append(errs, fmt.Errorf("subtype %q has no code", subtype))
			continue
		}
		for feature, prefix := range features {
			if !lo.Contains(Features(), feature) {
				errs = append(errs, fmt.Errorf("subtype %q: unknown feature %q", subtype, feature))
			}
			if !isLocalPath(prefix) {
				errs = append(errs, fmt.Errorf("subtype %q: feature %q points outside the module", subtype, feature))
			}
		}
	}

	return errors.Join(errs...)
}

// Schema returns the JSON schema of the manifest format.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{ExpandedStruct: true}
	return r.Reflect(&Manifest{})
}

func isLocalPath(p string) bool {
	if p == "" || filepath.IsAbs(p) {
		return false
	}
	clean := filepath.Clean(filepath.FromSlash(p))
	return clean != ".." && !strings.HasPrefix(clean, ".."+string(filepath.Separator))
}
