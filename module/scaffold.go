package module

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/anisan-cli/modhost/constant"
	"github.com/anisan-cli/modhost/filesystem"
	"github.com/samber/lo"
)

// ScaffoldOptions describe a new module skeleton.
type ScaffoldOptions struct {
	ID      string
	Name    string
	Subtype string
	Engine  string
	Author  string
	URL     string
}

var scaffoldFuncs = template.FuncMap{
	"json": func(v any) (string, error) {
		b, err := json.Marshal(v)
		return string(b), err
	},
}

var (
	manifestTmpl    = lo.Must(template.New("manifest").Funcs(scaffoldFuncs).Parse(constant.ManifestTemplate))
	webSearchTmpl   = lo.Must(template.New("search.js").Parse(constant.SearchScriptTemplate))
	luaSearchTmpl   = lo.Must(template.New("search.lua").Parse(constant.LuaSearchScriptTemplate))
	searchBlockTmpl = lo.Must(template.New("search.json").Funcs(scaffoldFuncs).Parse(constant.SearchBlockTemplate))
)

// Scaffold writes a minimal module into dir: a manifest and a first search
// block for opts.Subtype. dir must not exist yet. The result loads with Load.
func Scaffold(dir string, opts ScaffoldOptions) (*Module, error) {
	opts.Name = strings.Join(strings.Fields(opts.Name), " ")
	if opts.Name == "" {
		return nil, errors.New("name is required")
	}
	if opts.Engine == "" {
		opts.Engine = constant.EngineWeb
	}
	if opts.Subtype == "" {
		return nil, errors.New("subtype is required")
	}
	if !idPattern.MatchString(opts.Subtype) || strings.Trim(opts.Subtype, ".") == "" {
		return nil, fmt.Errorf("invalid subtype %q", opts.Subtype)
	}

	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(opts.URL), "/"))
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", opts.URL)
	}
	opts.URL = base.String()

	if exists, _ := filesystem.API().Exists(dir); exists {
		return nil, fmt.Errorf("%s already exists", dir)
	}

	data := struct {
		ScaffoldOptions
		FormatVersion int
		ContainerID   string
		SearchURL     string
	}{
		ScaffoldOptions: opts,
		FormatVersion:   constant.FormatVersion,
		ContainerID:     constant.ContainerID,
		SearchURL:       opts.URL + "/search?q=" + constant.QueryPlaceholder,
	}

	script := webSearchTmpl
	if opts.Engine == constant.EngineLua {
		script = luaSearchTmpl
	}

	m := &Module{Dir: dir}
	m.Manifest.Engine = opts.Engine

	stem := filepath.Join(dir, opts.Subtype, "search1")
	files := []struct {
		path string
		tmpl *template.Template
	}{
		{filepath.Join(dir, constant.ManifestJSON), manifestTmpl},
		{stem + m.scriptExt(), script},
		{stem + ".json", searchBlockTmpl},
	}

	for _, f := range files {
		if err := writeTemplate(f.path, f.tmpl, data); err != nil {
			_ = filesystem.API().RemoveAll(dir)
			return nil, err
		}
	}

	loaded, err := Load(dir)
	if err != nil {
		_ = filesystem.API().RemoveAll(dir)
		return nil, err
	}

	return loaded, nil
}

func writeTemplate(path string, tmpl *template.Template, data any) error {
	if err := filesystem.API().MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return err
	}

	f, err := filesystem.API().Create(path)
	if err != nil {
		return err
	}

	if err := tmpl.Execute(f, data); err != nil {
		_ = f.Close()
		return fmt.Errorf("render %s: %w", filepath.Base(path), err)
	}

	return f.Close()
}
