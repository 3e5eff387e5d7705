package cmd

import (
	"os"

	"github.com/anisan-cli/modhost/color"
	"github.com/anisan-cli/modhost/filesystem"
	"github.com/anisan-cli/modhost/style"
	"github.com/anisan-cli/modhost/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// wherePath is a location modhost keeps state in. Paths without a short
// flag are internal and only listed with --all.
type wherePath struct {
	name  string
	flag  string
	short string
	path  func() string
}

func (p wherePath) internal() bool {
	return p.short == ""
}

var wherePaths = []wherePath{
	{"Config", "config", "c", where.Config},
	{"Modules", "modules", "m", where.Modules},
	{"Logs", "logs", "l", where.Logs},
	{"Cache", "cache", "", where.Cache},
	{"Temp", "temp", "", where.Temp},
	{"Preferences", "prefs", "", where.Preferences},
	{"Queries", "queries", "", where.Queries},
}

func init() {
	rootCmd.AddCommand(whereCmd)

	for _, p := range wherePaths {
		if p.internal() {
			whereCmd.Flags().Bool(p.flag, false, "Print the "+p.name+" path")
			lo.Must0(whereCmd.Flags().MarkHidden(p.flag))
		} else {
			whereCmd.Flags().BoolP(p.flag, p.short, false, "Print the "+p.name+" path")
		}
	}
	whereCmd.Flags().BoolP("all", "a", false, "Also list internal paths")

	whereCmd.MarkFlagsMutuallyExclusive(lo.Map(wherePaths, func(p wherePath, _ int) string {
		return p.flag
	})...)
	whereCmd.SetOut(os.Stdout)
}

var whereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where modhost keeps its files",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, p := range wherePaths {
			if lo.Must(cmd.Flags().GetBool(p.flag)) {
				cmd.Println(p.path())
				return
			}
		}

		all := lo.Must(cmd.Flags().GetBool("all"))
		shown := lo.Filter(wherePaths, func(p wherePath, _ int) bool {
			return all || !p.internal()
		})

		header := style.New().Bold(true).Foreground(color.HiPurple).Render
		for i, p := range shown {
			path := p.path()
			cmd.Printf("%s %s\n", header(p.name+"?"), style.Fg(color.Yellow)("--"+p.flag))

			if exists, _ := filesystem.API().Exists(path); exists {
				cmd.Println(path)
			} else {
				cmd.Println(path + " " + style.Faint("(missing)"))
			}

			if i < len(shown)-1 {
				cmd.Println()
			}
		}
	},
}
