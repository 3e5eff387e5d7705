// Package main is the entry point for the modhost application.
package main

import (
	"github.com/anisan-cli/modhost/cmd"
	"github.com/anisan-cli/modhost/config"
	"github.com/anisan-cli/modhost/internal/cache"
	"github.com/anisan-cli/modhost/log"
	"github.com/anisan-cli/modhost/where"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	// leftovers of installs interrupted in earlier runs
	go func() {
		_, _ = cache.CollectGarbage(where.Temp(), cache.TTL)
	}()

	cmd.Execute()
}
