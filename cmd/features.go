package cmd

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/anisan-cli/modhost/app"
	"github.com/anisan-cli/modhost/decode"
	"github.com/anisan-cli/modhost/failure"
	"github.com/anisan-cli/modhost/key"
	"github.com/anisan-cli/modhost/prefs"
	"github.com/anisan-cli/modhost/query"
	"github.com/anisan-cli/modhost/runner"
	"github.com/anisan-cli/modhost/util"
	"github.com/anisan-cli/modhost/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// reportErr exits on err. Classified failures were already printed by the
// notifier, so only the exit status is left to set.
func reportErr(err error) {
	if err == nil {
		return
	}
	if failure.KindOf(err) != failure.Unknown {
		err = errReported
	}
	handleErr(err)
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false, "Print the decoded result as JSON")
	cmd.Flags().IntP("pages", "p", 1, "Follow the next page link up to this many pages")
	cmd.SetOut(os.Stdout)
}

// runFeature runs first and then follows next page links while asked to,
// printing every page it gets.
func runFeature(cmd *cobra.Command, family decode.Family, first func(ctx context.Context, a *app.App) (decode.Payload, error)) error {
	asJSON := lo.Must(cmd.Flags().GetBool("json"))
	pages := lo.Must(cmd.Flags().GetInt("pages"))

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		payload, err := first(ctx, a)
		if err != nil {
			return err
		}

		for page := 1; ; page++ {
			if asJSON {
				if err := renderJSON(cmd.OutOrStdout(), payload); err != nil {
					return err
				}
			} else {
				render(cmd.OutOrStdout(), payload, util.TerminalWidth(80))
			}

			if page >= pages {
				return nil
			}

			payload, err = a.Media.More(ctx, family)
			if errors.Is(err, runner.ErrNoNextPage) {
				return nil
			}
			if err != nil {
				return err
			}
		}
	})
}

func init() {
	rootCmd.AddCommand(homeCmd)
	addOutputFlags(homeCmd)
}

var homeCmd = &cobra.Command{
	Use:   "home",
	Short: "Show the home feed of the selected module",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		reportErr(runFeature(cmd, decode.Home, func(ctx context.Context, a *app.App) (decode.Payload, error) {
			return a.Media.Home(ctx)
		}))
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	addOutputFlags(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:     "search [query]",
	Short:   "Search with the selected module",
	Long:    "Search with the selected module. Without a query an interactive prompt suggests previous queries.",
	Example: "  modhost search one piece --pages 2",
	Run: func(cmd *cobra.Command, args []string) {
		history := query.New(where.Queries())

		q := strings.TrimSpace(strings.Join(args, " "))
		if q == "" {
			var err error
			q, err = promptQuery(history)
			handleErr(err)
		}

		reportErr(runFeature(cmd, decode.Search, func(ctx context.Context, a *app.App) (decode.Payload, error) {
			if selection, ok := a.Registry.Selected(); ok {
				if err := history.Remember(selection.Module.ID(), q, 1); err != nil {
					a.Notifier.Warn("could not save query: " + err.Error())
				}
			}
			return a.Media.Search(ctx, q)
		}))
	},
}

// promptQuery asks for a search query, suggesting from the history of the selected module.
func promptQuery(history *query.History) (string, error) {
	moduleID := prefs.New(where.Preferences()).GetOr(prefs.Selected, "")

	prompt := &survey.Input{Message: "Search"}
	if viper.GetBool(key.SearchSuggestions) && moduleID != "" {
		prompt.Suggest = func(toComplete string) []string {
			return history.SuggestMany(moduleID, toComplete)
		}
	}

	var q string
	err := survey.AskOne(prompt, &q, survey.WithValidator(survey.Required))
	return strings.TrimSpace(q), err
}

func init() {
	rootCmd.AddCommand(infoCmd)
	addOutputFlags(infoCmd)
}

var infoCmd = &cobra.Command{
	Use:   "info <url>",
	Short: "Show the info page behind a result url",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		reportErr(runFeature(cmd, decode.Info, func(ctx context.Context, a *app.App) (decode.Payload, error) {
			return a.Media.Info(ctx, args[0])
		}))
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	addOutputFlags(resolveCmd)
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <url>",
	Short: "Resolve the servers or streams behind an episode url",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		reportErr(runFeature(cmd, decode.Media, func(ctx context.Context, a *app.App) (decode.Payload, error) {
			return a.Media.Resolve(ctx, args[0])
		}))
	},
}
