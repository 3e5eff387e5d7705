package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/anisan-cli/modhost/app"
	"github.com/anisan-cli/modhost/decode"
	"github.com/anisan-cli/modhost/failure"
	"github.com/anisan-cli/modhost/module"
	"github.com/anisan-cli/modhost/runner"
	"github.com/anisan-cli/modhost/style"
	"github.com/anisan-cli/modhost/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("subtype", "t", "", "Subtype to run, defaults to the module's first one")
	runCmd.Flags().BoolP("raw", "r", false, "Print the collected text without decoding it")
	runCmd.Flags().BoolP("json", "j", false, "Print the decoded result as JSON")
	runCmd.SetOut(os.Stdout)
}

// runCmd runs one feature of a module that is not installed, for development.
var runCmd = &cobra.Command{
	Use:   "run <dir> <feature> [input]",
	Short: "Run a feature of a local module directory",
	Long: `Load the module in a directory, run one feature bundle on the execution surface and print the result.
Features are home, search, info and media. The input is a search query or a url.`,
	Args:    cobra.RangeArgs(2, 3),
	Example: "  modhost run ./example search \"one piece\"",
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 1 {
			return lo.Map(module.Features(), func(f module.Feature, _ int) string { return string(f) }), cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveFilterDirs
	},
	Run: func(cmd *cobra.Command, args []string) {
		var (
			subtype = lo.Must(cmd.Flags().GetString("subtype"))
			raw     = lo.Must(cmd.Flags().GetBool("raw"))
			asJSON  = lo.Must(cmd.Flags().GetBool("json"))
		)

		m, err := module.Load(args[0])
		handleErr(err)

		family, ok := decode.ParseFamily(args[1])
		if !ok {
			handleErr(fmt.Errorf("unknown feature %q, expected one of %s", args[1], strings.Join(
				lo.Map(module.Features(), func(f module.Feature, _ int) string { return string(f) }), ", ")))
		}

		if subtype == "" {
			subtype = m.Manifest.Subtypes[0]
		}
		bundles, err := m.Resolve(subtype)
		handleErr(err)

		bundle := bundles.Get(module.Feature(args[1]))
		if bundle.Empty() {
			handleErr(fmt.Errorf("%s has no %s blocks for %s", m.ID(), args[1], subtype))
		}

		var in runner.Input
		if len(args) == 3 {
			in.Query = args[2]
		}

		handleErr(withApp(cmd, func(ctx context.Context, a *app.App) error {
			if raw {
				text, err := a.Runner.Run(ctx, m, bundle, in)
				if err != nil {
					return err
				}
				cmd.Println(text)
				return nil
			}

			res, err := a.Runner.Exec(ctx, m, bundle, in, family)
			var ferr *failure.Error
			if errors.As(err, &ferr) && ferr.Kind == failure.Decode && ferr.Text != "" {
				cmd.PrintErrln(style.Faint(ferr.Text))
			}
			if err != nil {
				return err
			}
			if asJSON {
				return renderJSON(cmd.OutOrStdout(), res.Payload)
			}

			render(cmd.OutOrStdout(), res.Payload, util.TerminalWidth(80))
			if next, ok := res.NextURL.Get(); ok {
				cmd.Println(style.Faint("next: " + next))
			}
			return nil
		}))
	},
}
