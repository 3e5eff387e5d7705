package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/anisan-cli/modhost/color"
	"github.com/anisan-cli/modhost/icon"
	"github.com/anisan-cli/modhost/prefs"
	"github.com/anisan-cli/modhost/style"
	"github.com/anisan-cli/modhost/util"
	"github.com/anisan-cli/modhost/where"
	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func errUnknownPref(key string) error {
	closest := lo.MinBy(prefs.Keys(), func(a, b string) bool {
		return levenshtein.Distance(key, a) < levenshtein.Distance(key, b)
	})
	return fmt.Errorf(
		"unknown preference %s, did you mean %s?",
		style.Fg(color.Red)(key),
		style.Fg(color.Yellow)(closest),
	)
}

func completionPrefKeys(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return prefs.Keys(), cobra.ShellCompDirectiveNoFileComp
}

func checkPref(key string) {
	if _, ok := prefs.Describe(key); !ok {
		handleErr(errUnknownPref(key))
	}
}

func init() {
	rootCmd.AddCommand(prefsCmd)
	prefsCmd.AddCommand(prefsListCmd, prefsGetCmd, prefsSetCmd, prefsDeleteCmd)
	prefsListCmd.SetOut(os.Stdout)
	prefsGetCmd.SetOut(os.Stdout)
}

// prefsCmd manages the persisted preference store, separate from the config file.
var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Manage persisted preferences such as the selected module and DNS resolver",
}

var prefsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every known preference and its stored value",
	Run: func(cmd *cobra.Command, args []string) {
		values, err := prefs.New(where.Preferences()).All()
		handleErr(err)

		for i, key := range prefs.Keys() {
			description, _ := prefs.Describe(key)
			cmd.Println(style.Faint(description))
			cmd.Printf("%s %s\n", style.Fg(color.Blue)("Key:"), style.Fg(color.Purple)(key))

			if value, ok := values[key]; ok {
				cmd.Printf("%s %s\n", style.Fg(color.Blue)("Value:"), style.Fg(color.Yellow)(value))
			} else {
				cmd.Printf("%s %s\n", style.Fg(color.Blue)("Value:"), style.Fg(color.Red)("unset"))
			}

			if i < len(prefs.Keys())-1 {
				cmd.Println()
			}
		}
	},
}

var prefsGetCmd = &cobra.Command{
	Use:               "get <key>",
	Short:             "Print a stored preference",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completionPrefKeys,
	Run: func(cmd *cobra.Command, args []string) {
		checkPref(args[0])

		value, ok, err := prefs.New(where.Preferences()).Get(args[0])
		handleErr(err)
		if !ok {
			handleErr(fmt.Errorf("%s is not set", args[0]))
		}
		cmd.Println(value)
	},
}

var prefsSetCmd = &cobra.Command{
	Use:               "set <key> <value>",
	Short:             "Store a preference",
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completionPrefKeys,
	Run: func(cmd *cobra.Command, args []string) {
		checkPref(args[0])
		if args[0] == prefs.Selected || args[0] == prefs.Subtype {
			handleErr(errors.New("use modhost modules select to change the selection"))
		}

		handleErr(prefs.New(where.Preferences()).Set(args[0], args[1]))
		fmt.Printf(
			"%s set %s to %s\n",
			style.Fg(color.Green)(icon.Get(icon.Success)),
			style.Fg(color.Purple)(args[0]),
			style.Fg(color.Yellow)(args[1]),
		)
	},
}

var prefsDeleteCmd = &cobra.Command{
	Use:               "delete <key>...",
	Aliases:           []string{"unset"},
	Short:             "Remove stored preferences",
	Args:              cobra.MinimumNArgs(1),
	ValidArgsFunction: completionPrefKeys,
	Run: func(cmd *cobra.Command, args []string) {
		for _, key := range args {
			checkPref(key)
		}

		handleErr(prefs.New(where.Preferences()).Delete(args...))
		fmt.Printf("%s deleted %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), util.Quantify(len(args), "preference", "preferences"))
	},
}
