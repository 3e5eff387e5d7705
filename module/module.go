package module

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"

	"github.com/anisan-cli/modhost/constant"
	"github.com/anisan-cli/modhost/filesystem"
	"github.com/samber/lo"
)

// Module is an installed (or freshly unpacked) module rooted at Dir.
type Module struct {
	Manifest Manifest
	Dir      string
}

func (m *Module) String() string {
	return m.Manifest.Name
}

// ID returns the module identity.
func (m *Module) ID() string {
	return m.Manifest.ID
}

// FindManifest returns the path of the manifest inside dir.
func FindManifest(dir string) (string, error) {
	for _, name := range []string{constant.ManifestJSON, constant.ManifestYAML} {
		path := filepath.Join(dir, name)
		if exists, _ := filesystem.API().Exists(path); exists {
			return path, nil
		}
	}
	return "", ErrNoManifest
}

// Load reads and validates the manifest of the module rooted at dir.
func Load(dir string) (*Module, error) {
	path, err := FindManifest(dir)
	if err != nil {
		return nil, err
	}

	data, err := filesystem.API().ReadFile(path)
	if err != nil {
		return nil, err
	}

	manifest, err := ParseManifest(data, path)
	if err != nil {
		return nil, err
	}

	if err := manifest.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}

	return &Module{Manifest: manifest, Dir: dir}, nil
}

func (m *Module) scriptExt() string {
	if m.Manifest.EngineName() == constant.EngineLua {
		return ".lua"
	}
	return ".js"
}

// Resolve loads the bundles of every feature for subtype. Features the
// manifest does not declare resolve to empty bundles.
func (m *Module) Resolve(subtype string) (Bundles, error) {
	var bundles Bundles

	features, ok := m.Manifest.Code[subtype]
	if !ok || !lo.Contains(m.Manifest.Subtypes, subtype) {
		return bundles, fmt.Errorf("module %s has no subtype %q", m.ID(), subtype)
	}

	for _, feature := range Features() {
		prefix, declared := features[feature]
		if !declared {
			bundles.set(feature, Bundle{})
			continue
		}

		bundle, err := m.resolveBundle(prefix)
		if err != nil {
			return bundles, fmt.Errorf("%s: %w", feature, err)
		}
		bundles.set(feature, bundle)
	}

	return bundles, nil
}

// resolveBundle reads prefix1.ext, prefix2.ext, ... until the first gap.
func (m *Module) resolveBundle(prefix string) (Bundle, error) {
	bundle := Bundle{}
	base := filepath.Join(m.Dir, filepath.FromSlash(prefix))

	for i := 1; ; i++ {
		stem := base + strconv.Itoa(i)
		codePath := stem + m.scriptExt()

		exists, err := filesystem.API().Exists(codePath)
		if err != nil {
			return nil, err
		}
		if !exists {
			break
		}

		code, err := filesystem.API().ReadFile(codePath)
		if err != nil {
			return nil, err
		}

		var meta []byte
		metaPath := stem + ".json"
		if ok, _ := filesystem.API().Exists(metaPath); ok {
			if meta, err = filesystem.API().ReadFile(metaPath); err != nil {
				return nil, err
			}
		}

		block, err := parseBlock(prefix+strconv.Itoa(i), string(code), meta)
		if err != nil {
			return nil, err
		}
		bundle = append(bundle, block)
	}

	return bundle, nil
}

// Import is a resolved import: either inline code or a remote script URL.
type Import struct {
	Spec string
	Code string
	URL  string
}

// Remote reports whether the import must be fetched by the surface itself.
func (i Import) Remote() bool {
	return i.URL != ""
}

// ResolveImport turns an import specifier into code read from the module or a remote URL.
func (m *Module) ResolveImport(spec string) (Import, error) {
	if u, err := url.Parse(spec); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return Import{Spec: spec, URL: spec}, nil
	}

	if !isLocalPath(spec) {
		return Import{}, fmt.Errorf("import %q points outside the module", spec)
	}

	code, err := filesystem.API().ReadFile(filepath.Join(m.Dir, filepath.FromSlash(spec)))
	if err != nil {
		return Import{}, fmt.Errorf("import %q: %w", spec, err)
	}

	return Import{Spec: spec, Code: string(code)}, nil
}
