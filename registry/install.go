package registry

import (
	"archive/zip"
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/anisan-cli/modhost/failure"
	"github.com/anisan-cli/modhost/filesystem"
	"github.com/anisan-cli/modhost/log"
	"github.com/anisan-cli/modhost/module"
	"github.com/anisan-cli/modhost/network"
	"github.com/anisan-cli/modhost/version"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/spf13/afero/zipfs"
)

// State is a step of the install state machine.
type State uint8

const (
	Uninstalled State = iota
	Downloading
	Unpacking
	MetadataValidated
	Installed
	Selected
)

func (s State) String() string {
	switch s {
	case Uninstalled:
		return "uninstalled"
	case Downloading:
		return "downloading"
	case Unpacking:
		return "unpacking"
	case MetadataValidated:
		return "metadata validated"
	case Installed:
		return "installed"
	case Selected:
		return "selected"
	default:
		return "unknown"
	}
}

// Observer is told about every state the install passes through.
type Observer func(state State, detail string)

// Options control a single install.
type Options struct {
	// Replace allows installing over a module with the same id.
	Replace bool
	// Select selects the module once installed.
	Select   bool
	Observer Observer
}

// Fetcher downloads module archives.
type Fetcher interface {
	Do(ctx context.Context, req module.Resolved) (*network.Response, error)
}

// Installer unpacks module archives into a registry.
type Installer struct {
	registry       *Registry
	fetcher        Fetcher
	temp           string
	allowDowngrade bool
}

// NewInstaller returns an installer that works in temp and installs into registry.
func NewInstaller(registry *Registry, fetcher Fetcher, temp string, allowDowngrade bool) *Installer {
	return &Installer{
		registry:       registry,
		fetcher:        fetcher,
		temp:           temp,
		allowDowngrade: allowDowngrade,
	}
}

// Install fetches the archive at src, a URL or a local path, and installs the
// module it contains. On any failure the downloaded archive and the unpacked
// working directory are removed and nothing is added to the registry.
func (i *Installer) Install(ctx context.Context, src string, opts Options) (*module.Module, error) {
	observe := func(s State, detail string) {
		log.Infof("install %s: %s %s", src, s, detail)
		if opts.Observer != nil {
			opts.Observer(s, detail)
		}
	}

	id := uuid.NewString()
	archive := filepath.Join(i.temp, id+".zip")
	work := filepath.Join(i.temp, id)

	defer func() {
		_ = filesystem.API().RemoveAll(archive)
		_ = filesystem.API().RemoveAll(work)
	}()

	m, err := i.install(ctx, src, archive, work, opts, observe)
	if err != nil {
		observe(Uninstalled, err.Error())
		if failure.KindOf(err) == failure.Unknown {
			err = failure.New(failure.Package, "install", err)
		}
		return nil, err
	}

	if opts.Select {
		if _, err := i.registry.Select(m.ID(), ""); err != nil {
			return m, err
		}
		observe(Selected, m.ID())
	}

	return m, nil
}

func (i *Installer) install(ctx context.Context, src, archive, work string, opts Options, observe Observer) (*module.Module, error) {
	observe(Downloading, src)
	if err := i.fetchArchive(ctx, src, archive); err != nil {
		return nil, err
	}

	observe(Unpacking, work)
	if err := unzip(archive, work); err != nil {
		return nil, fmt.Errorf("unpack: %w", err)
	}

	root, err := promote(work)
	if err != nil {
		return nil, err
	}

	m, err := module.Load(root)
	if err != nil {
		return nil, err
	}
	observe(MetadataValidated, m.ID())

	existing, installed := i.registry.Get(m.ID())
	if installed {
		if !opts.Replace {
			return nil, fmt.Errorf("module %s is already installed", m.ID())
		}
		if err := i.checkVersion(existing, m); err != nil {
			return nil, err
		}
	}

	target := i.registry.path(m.ID())
	if installed {
		err = replace(root, target, filepath.Join(i.temp, uuid.NewString()))
	} else {
		err = filesystem.Move(root, target)
	}
	if err != nil {
		return nil, err
	}

	m, err = module.Load(target)
	if err != nil {
		return nil, err
	}
	observe(Installed, m.ID())

	if installed {
		if err := i.registry.refresh(m.ID()); err != nil {
			log.Warnf("refresh selection of %s: %v", m.ID(), err)
		}
	}
	return m, nil
}

func (i *Installer) checkVersion(existing, incoming *module.Module) error {
	cmp, err := version.Compare(incoming.Manifest.Version, existing.Manifest.Version)
	if err != nil {
		return err
	}
	if cmp < 0 && !i.allowDowngrade {
		return fmt.Errorf("refusing to downgrade %s from %s to %s",
			existing.ID(), existing.Manifest.Version, incoming.Manifest.Version)
	}
	return nil
}

// Update reinstalls a module from its manifest's update URL.
func (i *Installer) Update(ctx context.Context, id string, opts Options) (*module.Module, error) {
	m, ok := i.registry.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotInstalled, id)
	}
	if m.Manifest.UpdateURL == "" {
		return nil, failure.Newf(failure.Package, "update", "module %s has no update url", id)
	}

	opts.Replace = true
	return i.Install(ctx, m.Manifest.UpdateURL, opts)
}

func (i *Installer) fetchArchive(ctx context.Context, src, archive string) error {
	if err := filesystem.API().MkdirAll(filepath.Dir(archive), os.ModePerm); err != nil {
		return err
	}

	u, err := url.Parse(src)
	if err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		resp, err := i.fetcher.Do(ctx, module.Resolved{Method: module.MethodGet, URL: src})
		if err != nil {
			return err
		}
		return filesystem.API().WriteFile(archive, resp.Body, 0o644)
	}

	path := strings.TrimPrefix(src, "file://")
	data, err := filesystem.API().ReadFile(path)
	if err != nil {
		return fmt.Errorf("read archive: %w", err)
	}
	return filesystem.API().WriteFile(archive, data, 0o644)
}

// unzip extracts archive into dir. Entry names are rooted before joining so
// no entry can escape dir.
func unzip(archive, dir string) error {
	f, err := filesystem.API().Open(archive)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		return err
	}

	if err := filesystem.API().MkdirAll(dir, os.ModePerm); err != nil {
		return err
	}

	zfs := zipfs.New(zr)
	for _, entry := range zr.File {
		if entry.FileInfo().IsDir() {
			continue
		}

		name := filepath.Clean(string(filepath.Separator) + filepath.FromSlash(entry.Name))
		if err := filesystem.CopyFile(zfs, name, filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("extract %s: %w", entry.Name, err)
		}
	}

	return nil
}

// promote returns the directory holding the manifest: dir itself, or its
// only subdirectory when the archive wrapped everything in a folder.
func promote(dir string) (string, error) {
	if _, err := module.FindManifest(dir); err == nil {
		return dir, nil
	}

	entries, err := filesystem.API().ReadDir(dir)
	if err != nil {
		return "", err
	}

	entries = lo.Filter(entries, func(e os.FileInfo, _ int) bool {
		return e.Name() != "__MACOSX" && !strings.HasPrefix(e.Name(), ".")
	})

	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(dir, entries[0].Name()), nil
	}
	return dir, nil
}

// replace swaps target for src, keeping the old tree in backup until the swap succeeded.
func replace(src, target, backup string) error {
	if err := filesystem.Move(target, backup); err != nil {
		return err
	}

	if err := filesystem.Move(src, target); err != nil {
		if restoreErr := filesystem.Move(backup, target); restoreErr != nil {
			log.Errorf("restore %s: %v", target, restoreErr)
		}
		return err
	}

	return filesystem.API().RemoveAll(backup)
}
