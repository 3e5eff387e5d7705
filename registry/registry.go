// Package registry tracks installed modules and the single selected one, and
// installs new modules from packaged archives.
package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/anisan-cli/modhost/failure"
	"github.com/anisan-cli/modhost/filesystem"
	"github.com/anisan-cli/modhost/log"
	"github.com/anisan-cli/modhost/module"
	"github.com/anisan-cli/modhost/prefs"
	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/samber/lo"
)

// ErrNotInstalled is returned for an id with no installed module.
var ErrNotInstalled = errors.New("module is not installed")

// Selection is the selected module together with its resolved bundles.
type Selection struct {
	Module  *module.Module
	Subtype string
	Bundles module.Bundles
}

// Registry lists installed modules under a directory and keeps at most one selected.
type Registry struct {
	dir   string
	prefs *prefs.Store

	mu       sync.Mutex
	selected *Selection
	restored bool
}

// New returns a registry over dir. The persisted selection is restored on first use.
func New(dir string, store *prefs.Store) *Registry {
	return &Registry{dir: dir, prefs: store}
}

// Dir returns the directory modules are installed into.
func (r *Registry) Dir() string {
	return r.dir
}

func (r *Registry) path(id string) string {
	return filepath.Join(r.dir, id)
}

// List loads every installed module, sorted by name. Directories that do not
// hold a valid module are logged and skipped.
func (r *Registry) List() ([]*module.Module, error) {
	entries, err := filesystem.API().ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var modules []*module.Module
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}

		m, err := module.Load(r.path(e.Name()))
		if err != nil {
			log.Warnf("skipping module directory %s: %v", e.Name(), err)
			continue
		}
		modules = append(modules, m)
	}

	sort.Slice(modules, func(i, j int) bool {
		return modules[i].Manifest.Name < modules[j].Manifest.Name
	})
	return modules, nil
}

// Get loads the installed module with the given id.
func (r *Registry) Get(id string) (*module.Module, bool) {
	if id == "" {
		return nil, false
	}

	m, err := module.Load(r.path(id))
	if err != nil {
		return nil, false
	}
	return m, true
}

// Remove uninstalls a module, deselecting it first if needed.
func (r *Registry) Remove(id string) error {
	if _, ok := r.Get(id); !ok {
		return fmt.Errorf("%w: %s", ErrNotInstalled, id)
	}

	if s, ok := r.Selected(); ok && s.Module.ID() == id {
		if err := r.Deselect(); err != nil {
			return err
		}
	}

	if err := filesystem.API().RemoveAll(r.path(id)); err != nil {
		return failure.New(failure.Package, "registry.remove", err)
	}

	log.Infof("removed module %s", id)
	return nil
}

// Select makes id the selected module. Every feature bundle of the subtype
// is resolved before the selection changes; an empty subtype picks the
// module's first one.
func (r *Registry) Select(id, subtype string) (*Selection, error) {
	m, ok := r.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotInstalled, id)
	}

	if subtype == "" {
		subtype = m.Manifest.Subtypes[0]
	}

	bundles, err := m.Resolve(subtype)
	if err != nil {
		return nil, failure.New(failure.Package, "registry.select", err)
	}

	if err := r.prefs.SetMany(map[string]string{
		prefs.Selected: id,
		prefs.Subtype:  subtype,
	}); err != nil {
		return nil, err
	}

	selection := &Selection{Module: m, Subtype: subtype, Bundles: bundles}

	r.mu.Lock()
	r.selected = selection
	r.restored = true
	r.mu.Unlock()

	log.Infof("selected module %s (%s)", id, subtype)
	return selection, nil
}

// Deselect clears the selection. Installed modules are not touched.
func (r *Registry) Deselect() error {
	r.mu.Lock()
	r.selected = nil
	r.restored = true
	r.mu.Unlock()

	return r.prefs.Delete(prefs.Selected, prefs.Subtype)
}

// Selected returns the current selection, restoring a persisted one on first call.
func (r *Registry) Selected() (*Selection, bool) {
	r.mu.Lock()
	if r.restored {
		s := r.selected
		r.mu.Unlock()
		return s, s != nil
	}
	r.restored = true
	r.mu.Unlock()

	id, ok, err := r.prefs.Get(prefs.Selected)
	if err != nil || !ok {
		return nil, false
	}

	s, err := r.Select(id, r.prefs.GetOr(prefs.Subtype, ""))
	if err != nil {
		log.Warnf("dropping persisted selection %s: %v", id, err)
		_ = r.Deselect()
		return nil, false
	}
	return s, true
}

// refresh re-resolves the selection after the selected module was replaced.
func (r *Registry) refresh(id string) error {
	r.mu.Lock()
	current := r.selected
	r.mu.Unlock()

	if current == nil || current.Module.ID() != id {
		return nil
	}

	_, err := r.Select(id, current.Subtype)
	return err
}

// Suggest returns the installed module id closest to name.
func (r *Registry) Suggest(name string) (string, bool) {
	modules, err := r.List()
	if err != nil || len(modules) == 0 {
		return "", false
	}

	closest := lo.MinBy(modules, func(a, b *module.Module) bool {
		return levenshtein.Distance(name, a.ID()) < levenshtein.Distance(name, b.ID())
	})
	return closest.ID(), true
}
