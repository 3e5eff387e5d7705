package cmd

import (
	"fmt"
	"os"

	"github.com/anisan-cli/modhost/color"
	"github.com/anisan-cli/modhost/icon"
	"github.com/anisan-cli/modhost/style"
	"github.com/anisan-cli/modhost/util"
	"github.com/anisan-cli/modhost/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

type clearTarget struct {
	name  string
	flag  string
	short string
	path  func() string
}

// Installed modules and preferences are not here: they have their own commands.
var clearTargets = []clearTarget{
	{"cache", "cache", "c", where.Cache},
	{"search history", "queries", "q", where.Queries},
	{"temporary downloads", "temp", "t", where.Temp},
}

func init() {
	rootCmd.AddCommand(clearCmd)

	for _, t := range clearTargets {
		clearCmd.Flags().BoolP(t.flag, t.short, false, "Clear the "+t.name)
	}
	clearCmd.Flags().BoolP("all", "a", false, "Clear everything listed above")
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear cached and temporary files",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		all := lo.Must(cmd.Flags().GetBool("all"))
		chosen := lo.Filter(clearTargets, func(t clearTarget, _ int) bool {
			return all || lo.Must(cmd.Flags().GetBool(t.flag))
		})

		if len(chosen) == 0 {
			handleErr(cmd.Help())
			return
		}

		for _, t := range chosen {
			erase := util.PrintErasable(fmt.Sprintf("%s clearing %s", icon.Get(icon.Progress), t.name))
			err := util.Delete(t.path())
			erase()
			if err != nil && !os.IsNotExist(err) {
				handleErr(err)
			}

			fmt.Printf("%s %s cleared\n", style.Fg(color.Green)(icon.Get(icon.Success)), util.Capitalize(t.name))
		}
	},
}
