package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/anisan-cli/modhost/color"
	"github.com/anisan-cli/modhost/config"
	"github.com/anisan-cli/modhost/style"
	"github.com/anisan-cli/modhost/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

type envVar struct {
	name string
	// fallback is shown when the variable is unset.
	fallback string
}

func envVars() []envVar {
	vars := lo.MapToSlice(config.Default, func(_ string, f config.Field) envVar {
		return envVar{name: f.Env(), fallback: fmt.Sprint(f.Value)}
	})
	vars = append(vars, envVar{name: where.EnvConfigPath, fallback: where.Config()})

	sort.Slice(vars, func(i, j int) bool { return vars[i].name < vars[j].name })
	return vars
}

func init() {
	rootCmd.AddCommand(envCmd)
	envCmd.Flags().BoolP("set-only", "s", false, "Only show variables that are set")
	envCmd.Flags().BoolP("unset-only", "u", false, "Only show variables that are not set")
	envCmd.MarkFlagsMutuallyExclusive("set-only", "unset-only")
	envCmd.SetOut(os.Stdout)
}

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Show the environment variables modhost reads",
	Long:  "Show the environment variables modhost reads. Each one overrides the config key of the same name.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			setOnly   = lo.Must(cmd.Flags().GetBool("set-only"))
			unsetOnly = lo.Must(cmd.Flags().GetBool("unset-only"))
			name      = style.New().Bold(true).Foreground(color.Purple).Render
		)

		for _, v := range envVars() {
			value, present := os.LookupEnv(v.name)
			if (setOnly && !present) || (unsetOnly && present) {
				continue
			}

			if present {
				cmd.Printf("%s=%s\n", name(v.name), style.Fg(color.Green)(value))
			} else {
				cmd.Printf("%s=%s\n", name(v.name), style.Faint(v.fallback+" (unset)"))
			}
		}
	},
}
