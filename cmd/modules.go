package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/anisan-cli/modhost/app"
	"github.com/anisan-cli/modhost/auth"
	"github.com/anisan-cli/modhost/color"
	"github.com/anisan-cli/modhost/constant"
	"github.com/anisan-cli/modhost/icon"
	"github.com/anisan-cli/modhost/internal/ui"
	"github.com/anisan-cli/modhost/module"
	"github.com/anisan-cli/modhost/open"
	"github.com/anisan-cli/modhost/registry"
	"github.com/anisan-cli/modhost/style"
	"github.com/anisan-cli/modhost/util"
	"github.com/anisan-cli/modhost/where"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(modulesCmd)
}

// modulesCmd groups module management.
var modulesCmd = &cobra.Command{
	Use:     "modules",
	Aliases: []string{"mod", "m"},
	Short:   "Install, select and manage modules",
}

// errNotInstalled suggests the closest installed id.
func errNotInstalled(reg *registry.Registry, id string) error {
	if closest, ok := reg.Suggest(id); ok {
		return fmt.Errorf(
			"module %s is not installed, did you mean %s?",
			style.Fg(color.Red)(id),
			style.Fg(color.Yellow)(closest),
		)
	}
	return fmt.Errorf("module %s is not installed", style.Fg(color.Red)(id))
}

func completionModuleIDs(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	entries, err := os.ReadDir(where.Modules())
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	return lo.FilterMap(entries, func(e os.DirEntry, _ int) (string, bool) {
		return e.Name(), e.IsDir()
	}), cobra.ShellCompDirectiveNoFileComp
}

func init() {
	modulesCmd.AddCommand(modulesListCmd)

	modulesListCmd.Flags().BoolP("raw", "r", false, "Print only module ids")
	modulesListCmd.Flags().StringP("filter", "f", "", "Fuzzy filter modules by id or name")
	modulesListCmd.SetOut(os.Stdout)
}

var modulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed modules",
	Run: func(cmd *cobra.Command, args []string) {
		raw := lo.Must(cmd.Flags().GetBool("raw"))
		filter := lo.Must(cmd.Flags().GetString("filter"))

		handleErr(withApp(cmd, func(_ context.Context, a *app.App) error {
			modules, err := a.Registry.List()
			if err != nil {
				return err
			}

			if filter != "" {
				modules = lo.Filter(modules, func(m *module.Module, _ int) bool {
					return fuzzy.MatchFold(filter, m.ID()) || fuzzy.MatchFold(filter, m.Manifest.Name)
				})
			}

			selectedID := ""
			if s, ok := a.Registry.Selected(); ok {
				selectedID = s.Module.ID()
			}

			if len(modules) == 0 && !raw {
				cmd.Println(style.Faint("no modules installed"))
				return nil
			}

			for _, m := range modules {
				if raw {
					cmd.Println(m.ID())
					continue
				}

				marker := " "
				if m.ID() == selectedID {
					marker = icon.Get(icon.Selected)
				}

				engine := icon.Get(icon.Web)
				if m.Manifest.EngineName() == constant.EngineLua {
					engine = icon.Get(icon.Lua)
				}

				cmd.Printf(
					"%s %s %s %s %s %s\n",
					marker,
					engine,
					style.Bold(m.Manifest.Name),
					style.Fg(color.Purple)(m.ID()),
					style.Fg(color.Yellow)(m.Manifest.Version),
					style.Faint(strings.Join(m.Manifest.Subtypes, ", ")),
				)
			}
			return nil
		}))
	},
}

func init() {
	modulesCmd.AddCommand(modulesInstallCmd)

	modulesInstallCmd.Flags().BoolP("select", "s", false, "Select the module once installed")
	modulesInstallCmd.Flags().BoolP("replace", "r", false, "Replace an installed module with the same id")
}

var modulesInstallCmd = &cobra.Command{
	Use:     "install <url|path>",
	Short:   "Install a module from a packaged archive",
	Args:    cobra.ExactArgs(1),
	Example: "  modhost modules install https://modules.example.com/site.zip --select",
	Run: func(cmd *cobra.Command, args []string) {
		opts := registry.Options{
			Select:  lo.Must(cmd.Flags().GetBool("select")),
			Replace: lo.Must(cmd.Flags().GetBool("replace")),
		}

		handleErr(withApp(cmd, func(ctx context.Context, a *app.App) error {
			return install(ctx, a, args[0], opts, func(ctx context.Context, opts registry.Options) (*module.Module, error) {
				return a.Installer.Install(ctx, args[0], opts)
			})
		}))
	},
}

func init() {
	modulesCmd.AddCommand(modulesUpdateCmd)
	modulesUpdateCmd.Flags().BoolP("select", "s", false, "Select the module once updated")
}

var modulesUpdateCmd = &cobra.Command{
	Use:               "update <id>",
	Short:             "Reinstall a module from its update url",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completionModuleIDs,
	Run: func(cmd *cobra.Command, args []string) {
		opts := registry.Options{Select: lo.Must(cmd.Flags().GetBool("select"))}

		handleErr(withApp(cmd, func(ctx context.Context, a *app.App) error {
			if _, ok := a.Registry.Get(args[0]); !ok {
				return errNotInstalled(a.Registry, args[0])
			}
			return install(ctx, a, args[0], opts, func(ctx context.Context, opts registry.Options) (*module.Module, error) {
				return a.Installer.Update(ctx, args[0], opts)
			})
		}))
	},
}

type installFunc func(ctx context.Context, opts registry.Options) (*module.Module, error)

// install runs fn with a spinner on terminals and plain state lines elsewhere.
func install(ctx context.Context, a *app.App, src string, opts registry.Options, fn installFunc) error {
	if !util.IsTerminal() {
		opts.Observer = func(state registry.State, detail string) {
			if state != registry.Uninstalled {
				_, _ = fmt.Fprintf(os.Stderr, "%s %s %s\n", icon.Get(icon.Progress), state, style.Faint(detail))
			}
		}

		m, err := fn(ctx, opts)
		if err != nil {
			return err
		}
		fmt.Printf("%s installed %s %s\n", icon.Get(icon.Success), style.Bold(m.String()), style.Fg(color.Yellow)(m.Manifest.Version))
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := ui.New(src, cancel)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))

	opts.Observer = func(state registry.State, detail string) {
		program.Send(ui.StateMsg{State: state, Detail: detail})

		if state == registry.MetadataValidated {
			if existing, ok := a.Registry.Get(detail); ok {
				program.Send(ui.NotificationMsg(fmt.Sprintf("replacing %s %s", existing.ID(), existing.Manifest.Version)))
			}
		}
	}

	go func() {
		m, err := fn(ctx, opts)
		program.Send(ui.DoneMsg{Module: m, Err: err})
	}()

	if _, err := program.Run(); err != nil {
		return err
	}

	if _, err := model.Result(); err != nil {
		return errReported
	}
	return nil
}

func init() {
	modulesCmd.AddCommand(modulesRemoveCmd)
	modulesRemoveCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
}

var modulesRemoveCmd = &cobra.Command{
	Use:               "remove <id>...",
	Aliases:           []string{"rm"},
	Short:             "Uninstall modules",
	Args:              cobra.MinimumNArgs(1),
	ValidArgsFunction: completionModuleIDs,
	Run: func(cmd *cobra.Command, args []string) {
		yes := lo.Must(cmd.Flags().GetBool("yes"))

		handleErr(withApp(cmd, func(_ context.Context, a *app.App) error {
			for _, id := range args {
				m, ok := a.Registry.Get(id)
				if !ok {
					return errNotInstalled(a.Registry, id)
				}

				if !yes {
					confirmed := false
					prompt := &survey.Confirm{Message: fmt.Sprintf("Remove %s (%s)?", m.Manifest.Name, id)}
					if err := survey.AskOne(prompt, &confirmed); err != nil {
						return err
					}
					if !confirmed {
						continue
					}
				}

				if err := a.Registry.Remove(id); err != nil {
					return err
				}
				fmt.Printf("%s removed %s\n", icon.Get(icon.Success), style.Fg(color.Yellow)(id))
			}
			return nil
		}))
	},
}

func init() {
	modulesCmd.AddCommand(modulesSelectCmd)
	modulesSelectCmd.Flags().StringP("subtype", "t", "", "Subtype to run the module with, defaults to its first one")
}

var modulesSelectCmd = &cobra.Command{
	Use:               "select [id]",
	Short:             "Select the module features run with",
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completionModuleIDs,
	Run: func(cmd *cobra.Command, args []string) {
		subtype := lo.Must(cmd.Flags().GetString("subtype"))

		handleErr(withApp(cmd, func(_ context.Context, a *app.App) error {
			var id string
			if len(args) == 1 {
				id = args[0]
				if _, ok := a.Registry.Get(id); !ok {
					return errNotInstalled(a.Registry, id)
				}
			} else {
				picked, err := pickModule(a.Registry)
				if err != nil {
					return err
				}
				id = picked
			}

			selection, err := a.Registry.Select(id, subtype)
			if err != nil {
				return err
			}

			fmt.Printf(
				"%s selected %s %s\n",
				icon.Get(icon.Success),
				style.Bold(selection.Module.Manifest.Name),
				style.Faint(selection.Subtype),
			)
			return nil
		}))
	},
}

// pickModule asks the user to choose among installed modules.
func pickModule(reg *registry.Registry) (string, error) {
	modules, err := reg.List()
	if err != nil {
		return "", err
	}
	if len(modules) == 0 {
		return "", errors.New("no modules installed")
	}

	options := lo.Map(modules, func(m *module.Module, _ int) string {
		return fmt.Sprintf("%s (%s)", m.Manifest.Name, m.ID())
	})

	var index int
	prompt := &survey.Select{Message: "Module", Options: options}
	if err := survey.AskOne(prompt, &index); err != nil {
		return "", err
	}
	return modules[index].ID(), nil
}

func init() {
	modulesCmd.AddCommand(modulesDeselectCmd)
}

var modulesDeselectCmd = &cobra.Command{
	Use:   "deselect",
	Short: "Clear the selected module",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		handleErr(withApp(cmd, func(_ context.Context, a *app.App) error {
			if err := a.Registry.Deselect(); err != nil {
				return err
			}
			fmt.Printf("%s no module selected\n", icon.Get(icon.Success))
			return nil
		}))
	},
}

func init() {
	modulesCmd.AddCommand(modulesInfoCmd)
	modulesInfoCmd.Flags().BoolP("json", "j", false, "Print the manifest as JSON")
	modulesInfoCmd.SetOut(os.Stdout)
}

var modulesInfoCmd = &cobra.Command{
	Use:               "info <id>",
	Short:             "Show the manifest of an installed module",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completionModuleIDs,
	Run: func(cmd *cobra.Command, args []string) {
		asJSON := lo.Must(cmd.Flags().GetBool("json"))

		handleErr(withApp(cmd, func(_ context.Context, a *app.App) error {
			m, ok := a.Registry.Get(args[0])
			if !ok {
				return errNotInstalled(a.Registry, args[0])
			}

			if asJSON {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(m.Manifest)
			}

			printManifest(cmd, m)
			return nil
		}))
	},
}

func printManifest(cmd *cobra.Command, m *module.Module) {
	label := style.Fg(color.Blue)
	row := func(name, value string) {
		if value != "" {
			cmd.Printf("%s %s\n", label(fmt.Sprintf("%-10s", name+":")), value)
		}
	}

	cmd.Println(style.Title(m.Manifest.Name))
	row("ID", style.Fg(color.Purple)(m.ID()))
	row("Version", style.Fg(color.Yellow)(m.Manifest.Version))
	row("Engine", m.Manifest.EngineName())
	row("Subtypes", strings.Join(m.Manifest.Subtypes, ", "))
	row("Author", plain(m.Manifest.Meta.Author))
	row("Languages", strings.Join(m.Manifest.Meta.Lang, ", "))
	row("Website", m.Manifest.Meta.BaseURL)
	row("Updates", m.Manifest.UpdateURL)
	row("Path", style.Faint(m.Dir))

	if m.Manifest.Meta.Description != "" {
		cmd.Println()
		renderer{w: cmd.OutOrStdout(), width: util.TerminalWidth(80)}.paragraph(m.Manifest.Meta.Description, 0)
	}
}

func init() {
	modulesCmd.AddCommand(modulesWebCmd)
}

var modulesWebCmd = &cobra.Command{
	Use:               "web <id>",
	Short:             "Open the website a module targets",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completionModuleIDs,
	Run: func(cmd *cobra.Command, args []string) {
		handleErr(withApp(cmd, func(_ context.Context, a *app.App) error {
			m, ok := a.Registry.Get(args[0])
			if !ok {
				return errNotInstalled(a.Registry, args[0])
			}
			if m.Manifest.Meta.BaseURL == "" {
				return fmt.Errorf("module %s declares no website", m.ID())
			}

			fmt.Printf("%s %s\n", icon.Get(icon.Link), m.Manifest.Meta.BaseURL)
			return open.URL(m.Manifest.Meta.BaseURL)
		}))
	},
}

func init() {
	modulesCmd.AddCommand(modulesSchemaCmd)
	modulesSchemaCmd.SetOut(os.Stdout)
}

var modulesSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of module manifests",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		handleErr(encoder.Encode(module.Schema()))
	},
}

func init() {
	modulesCmd.AddCommand(modulesNewCmd)

	modulesNewCmd.Flags().StringP("name", "n", "", "Display name of the new module")
	modulesNewCmd.Flags().StringP("url", "u", "", "Base URL of the site the module targets")
	modulesNewCmd.Flags().StringP("id", "i", "", "Module id, derived from the name when empty")
	modulesNewCmd.Flags().StringP("subtype", "t", "anime", "Subtype the first feature bundles are written for")
	modulesNewCmd.Flags().StringP("engine", "e", constant.EngineWeb, "Script engine: web or lua")
	modulesNewCmd.Flags().StringP("dir", "d", ".", "Directory the module directory is created in")

	lo.Must0(modulesNewCmd.MarkFlagRequired("name"))
	lo.Must0(modulesNewCmd.MarkFlagRequired("url"))
	lo.Must0(modulesNewCmd.RegisterFlagCompletionFunc("engine", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{constant.EngineWeb, constant.EngineLua}, cobra.ShellCompDirectiveNoFileComp
	}))
}

var modulesNewCmd = &cobra.Command{
	Use:     "new",
	Short:   "Scaffold a new module with a first search block",
	Example: "  modhost modules new --name \"Example\" --url https://example.com --engine lua",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.SetOut(os.Stdout)

		author := "Anonymous"
		if usr, err := user.Current(); err == nil {
			author = usr.Username
		}

		opts := module.ScaffoldOptions{
			ID:      lo.Must(cmd.Flags().GetString("id")),
			Name:    lo.Must(cmd.Flags().GetString("name")),
			Subtype: lo.Must(cmd.Flags().GetString("subtype")),
			Engine:  lo.Must(cmd.Flags().GetString("engine")),
			URL:     lo.Must(cmd.Flags().GetString("url")),
			Author:  author,
		}
		if opts.ID == "" {
			opts.ID = util.Slug(opts.Name)
		}

		m, err := module.Scaffold(filepath.Join(lo.Must(cmd.Flags().GetString("dir")), opts.ID), opts)
		handleErr(err)

		cmd.Println(m.Dir)
	},
}

func init() {
	modulesCmd.AddCommand(modulesSecretCmd)
	modulesSecretCmd.AddCommand(modulesSecretSetCmd, modulesSecretDeleteCmd)
}

var modulesSecretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Manage secrets module requests reference as ${secret:NAME}",
}

var modulesSecretSetCmd = &cobra.Command{
	Use:               "set <id> <name>",
	Short:             "Store a secret in the system keyring",
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completionModuleIDs,
	Run: func(cmd *cobra.Command, args []string) {
		var value string
		prompt := &survey.Password{Message: fmt.Sprintf("%s for %s", args[1], args[0])}
		handleErr(survey.AskOne(prompt, &value, survey.WithValidator(survey.Required)))

		handleErr(auth.SetSecret(args[0], args[1], value))
		fmt.Printf("%s stored %s for %s\n", icon.Get(icon.Secret), style.Fg(color.Purple)(args[1]), args[0])
	},
}

var modulesSecretDeleteCmd = &cobra.Command{
	Use:               "delete <id> <name>",
	Aliases:           []string{"rm"},
	Short:             "Remove a secret from the system keyring",
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completionModuleIDs,
	Run: func(cmd *cobra.Command, args []string) {
		handleErr(auth.DeleteSecret(args[0], args[1]))
		fmt.Printf("%s deleted %s for %s\n", icon.Get(icon.Success), style.Fg(color.Purple)(args[1]), args[0])
	},
}
