package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/anisan-cli/modhost/color"
	"github.com/anisan-cli/modhost/config"
	"github.com/anisan-cli/modhost/constant"
	"github.com/anisan-cli/modhost/filesystem"
	"github.com/anisan-cli/modhost/icon"
	"github.com/anisan-cli/modhost/key"
	"github.com/anisan-cli/modhost/player"
	"github.com/anisan-cli/modhost/style"
	"github.com/anisan-cli/modhost/where"
	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// configChoices lists the accepted values of keys that take one of a fixed set.
var configChoices = map[string]func() []string{
	key.Player:       player.Names,
	key.IconsVariant: icon.AvailableVariants,
	key.LogsLevel: func() []string {
		return lo.Map(logrus.AllLevels, func(l logrus.Level, _ int) string { return l.String() })
	},
}

func configFile() string {
	return filepath.Join(where.Config(), constant.Modhost+".toml")
}

func lookupField(name string) (config.Field, error) {
	if field, ok := config.Default[name]; ok {
		return field, nil
	}

	closest := lo.MinBy(lo.Keys(config.Default), func(a, b string) bool {
		return levenshtein.Distance(name, a) < levenshtein.Distance(name, b)
	})
	return config.Field{}, fmt.Errorf(
		"unknown key %s, did you mean %s?",
		style.Fg(color.Red)(name),
		style.Fg(color.Yellow)(closest),
	)
}

// parseConfigValue converts raw into the type of the field's default.
func parseConfigValue(field config.Field, raw []string) (any, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%s needs a value", field.Key)
	}

	var value any
	switch field.Value.(type) {
	case []string:
		return raw, nil
	case bool:
		b, err := strconv.ParseBool(raw[0])
		if err != nil {
			return nil, fmt.Errorf("%s expects true or false, got %q", field.Key, raw[0])
		}
		value = b
	case int:
		n, err := strconv.Atoi(raw[0])
		if err != nil {
			return nil, fmt.Errorf("%s expects a whole number, got %q", field.Key, raw[0])
		}
		if n <= 0 && strings.HasSuffix(field.Key, "timeout") {
			return nil, fmt.Errorf("%s must be positive", field.Key)
		}
		value = n
	default:
		value = strings.Join(raw, " ")
	}

	if choices, ok := configChoices[field.Key]; ok {
		if s, isString := value.(string); isString && !slices.Contains(choices(), s) {
			return nil, fmt.Errorf("%s must be one of %s", field.Key, strings.Join(choices(), ", "))
		}
	}
	return value, nil
}

// saveConfig writes the viper state, creating the file on first use.
func saveConfig() error {
	err := viper.WriteConfig()
	if _, missing := err.(viper.ConfigFileNotFoundError); missing {
		return viper.SafeWriteConfig()
	}
	return err
}

func completionConfigKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 1 {
		if choices, ok := configChoices[args[0]]; ok {
			return choices(), cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return lo.Keys(config.Default), cobra.ShellCompDirectiveNoFileComp
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInfoCmd, configGetCmd, configSetCmd, configResetCmd, configWriteCmd, configDeleteCmd)

	configInfoCmd.Flags().StringSliceP("key", "k", nil, "Only describe these keys")
	configInfoCmd.Flags().StringP("prefix", "p", "", "Only describe keys in this section, e.g. surface")
	configInfoCmd.Flags().BoolP("json", "j", false, "Print the fields as JSON")
	lo.Must0(configInfoCmd.RegisterFlagCompletionFunc("key", completionConfigKeys))
	configInfoCmd.SetOut(os.Stdout)

	configGetCmd.SetOut(os.Stdout)

	configResetCmd.Flags().BoolP("all", "a", false, "Reset every key")

	configWriteCmd.Flags().BoolP("force", "f", false, "Overwrite an existing config file")
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and change configuration",
	Long:  "Inspect and change configuration.\nEvery key can also be set with an environment variable, see " + style.Bold(constant.Modhost+" env") + ".",
}

var configInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Describe configuration keys with their defaults",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			keys   = lo.Must(cmd.Flags().GetStringSlice("key"))
			prefix = lo.Must(cmd.Flags().GetString("prefix"))
			asJSON = lo.Must(cmd.Flags().GetBool("json"))
		)

		fields := lo.Values(config.Default)
		if len(keys) > 0 {
			fields = lo.Map(keys, func(name string, _ int) config.Field {
				field, err := lookupField(name)
				handleErr(err)
				return field
			})
		}
		if prefix != "" {
			prefix = strings.TrimSuffix(prefix, ".") + "."
			fields = lo.Filter(fields, func(f config.Field, _ int) bool {
				return strings.HasPrefix(f.Key, prefix)
			})
		}

		sort.Slice(fields, func(i, j int) bool {
			return fields[i].Key < fields[j].Key
		})

		if asJSON {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			handleErr(encoder.Encode(lo.ToSlicePtr(fields)))
			return
		}

		for i := range fields {
			cmd.Println(fields[i].Pretty())
			if choices, ok := configChoices[fields[i].Key]; ok {
				cmd.Printf("%s %s\n", style.Fg(color.Blue)("Choices:"), strings.Join(choices(), ", "))
			}
			if i < len(fields)-1 {
				cmd.Println()
			}
		}
	},
}

var configGetCmd = &cobra.Command{
	Use:               "get <key>",
	Short:             "Print the current value of a key",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completionConfigKeys,
	Run: func(cmd *cobra.Command, args []string) {
		_, err := lookupField(args[0])
		handleErr(err)
		cmd.Println(viper.Get(args[0]))
	},
}

var configSetCmd = &cobra.Command{
	Use:               "set <key> <value>...",
	Short:             "Set a key and save it to the config file",
	Example:           "  modhost config set player.default iina\n  modhost config set surface.ready_timeout 45",
	Args:              cobra.MinimumNArgs(2),
	ValidArgsFunction: completionConfigKeys,
	Run: func(cmd *cobra.Command, args []string) {
		field, err := lookupField(args[0])
		handleErr(err)

		value, err := parseConfigValue(field, args[1:])
		handleErr(err)

		viper.Set(field.Key, value)
		handleErr(saveConfig())

		fmt.Printf(
			"%s set %s to %s\n",
			style.Fg(color.Green)(icon.Get(icon.Success)),
			style.Fg(color.Purple)(field.Key),
			style.Fg(color.Yellow)(fmt.Sprint(value)),
		)
	},
}

var configResetCmd = &cobra.Command{
	Use:               "reset [key]...",
	Short:             "Restore keys to their defaults",
	ValidArgsFunction: completionConfigKeys,
	Run: func(cmd *cobra.Command, args []string) {
		all := lo.Must(cmd.Flags().GetBool("all"))
		if all == (len(args) > 0) {
			handleErr(fmt.Errorf("name keys to reset or pass --all"))
		}

		fields := lo.Values(config.Default)
		if !all {
			fields = lo.Map(args, func(name string, _ int) config.Field {
				field, err := lookupField(name)
				handleErr(err)
				return field
			})
		}

		for _, field := range fields {
			viper.Set(field.Key, field.Value)
		}
		handleErr(saveConfig())

		if all {
			fmt.Printf("%s reset every key\n", style.Fg(color.Green)(icon.Get(icon.Success)))
			return
		}
		for _, field := range fields {
			fmt.Printf(
				"%s reset %s to %s\n",
				style.Fg(color.Green)(icon.Get(icon.Success)),
				style.Fg(color.Purple)(field.Key),
				style.Fg(color.Yellow)(fmt.Sprint(field.Value)),
			)
		}
	},
}

var configWriteCmd = &cobra.Command{
	Use:   "write",
	Short: "Write the current configuration to the config file",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		path := configFile()
		if lo.Must(cmd.Flags().GetBool("force")) {
			if err := filesystem.API().Remove(path); err != nil && !os.IsNotExist(err) {
				handleErr(err)
			}
		}

		handleErr(viper.SafeWriteConfig())
		fmt.Printf("%s wrote %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), path)
	},
}

var configDeleteCmd = &cobra.Command{
	Use:     "delete",
	Aliases: []string{"remove"},
	Short:   "Delete the config file, falling back to defaults",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		handleErr(filesystem.API().Remove(configFile()))
		fmt.Printf("%s deleted %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), configFile())
	},
}
