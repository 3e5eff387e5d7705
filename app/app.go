// Package app wires the host's services together. Commands build one App and
// pass it down instead of reaching for package level singletons.
package app

import (
	"sync"
	"time"

	"github.com/anisan-cli/modhost/auth"
	"github.com/anisan-cli/modhost/gate"
	"github.com/anisan-cli/modhost/key"
	"github.com/anisan-cli/modhost/media"
	"github.com/anisan-cli/modhost/network"
	"github.com/anisan-cli/modhost/notify"
	"github.com/anisan-cli/modhost/prefs"
	"github.com/anisan-cli/modhost/registry"
	"github.com/anisan-cli/modhost/runner"
	"github.com/anisan-cli/modhost/surface"
	"github.com/anisan-cli/modhost/where"
	"github.com/spf13/viper"
)

// Options is everything App needs from configuration.
type Options struct {
	ModulesDir     string
	TempDir        string
	PrefsPath      string
	AllowDowngrade bool

	Network  network.Options
	Surface  surface.Config
	Timeouts runner.Timeouts
}

func seconds(k string) time.Duration {
	return time.Duration(viper.GetInt(k)) * time.Second
}

// FromConfig reads Options from viper and the standard paths.
func FromConfig() Options {
	return Options{
		ModulesDir:     where.Modules(),
		TempDir:        where.Temp(),
		PrefsPath:      where.Preferences(),
		AllowDowngrade: viper.GetBool(key.ModulesAllowDowngrade),
		Network: network.Options{
			Timeout:     seconds(key.HTTPTimeout),
			Fingerprint: viper.GetBool(key.HTTPFingerprint),
			UserAgent:   viper.GetString(key.HTTPUserAgent),
		},
		Surface: surface.Config{
			Headless:  viper.GetBool(key.SurfaceHeadless),
			Stealth:   viper.GetBool(key.SurfaceStealth),
			RemoteURL: viper.GetString(key.SurfaceRemoteURL),
		},
		Timeouts: runner.Timeouts{
			Ready:  seconds(key.SurfaceReadyTimeout),
			Script: seconds(key.SurfaceScriptTimeout),
			HTTP:   seconds(key.HTTPTimeout),
		},
	}
}

// App holds the services of one host process.
type App struct {
	Prefs     *prefs.Store
	Notifier  *notify.Notifier
	Client    *network.Client
	Registry  *registry.Registry
	Installer *registry.Installer
	Surfaces  *surface.Pool
	Runner    *runner.Runner
	Media     *media.Service

	closeOnce sync.Once
}

// New builds an App. The DNS preference, when set, overrides opts.Network.DNS.
// Nothing is launched until a module actually runs.
func New(opts Options) *App {
	store := prefs.New(opts.PrefsPath)
	if dns, ok, err := store.Get(prefs.DNS); err == nil && ok {
		opts.Network.DNS = dns
	}

	notifier := notify.New()
	client := network.New(opts.Network)
	reg := registry.New(opts.ModulesDir, store)
	pool := surface.NewPool(opts.Surface, client)

	run := runner.New(gate.New(), pool, client, runner.Options{
		Timeouts: opts.Timeouts,
		Secrets:  auth.Lookup,
	})

	return &App{
		Prefs:     store,
		Notifier:  notifier,
		Client:    client,
		Registry:  reg,
		Installer: registry.NewInstaller(reg, client, opts.TempDir, opts.AllowDowngrade),
		Surfaces:  pool,
		Runner:    run,
		Media:     media.New(run, reg, notifier),
	}
}

// Close shuts down any launched surface and the notifier.
func (a *App) Close() error {
	var err error
	a.closeOnce.Do(func() {
		err = a.Surfaces.Close()
		a.Notifier.Close()
	})
	return err
}
