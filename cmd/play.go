package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/anisan-cli/modhost/app"
	"github.com/anisan-cli/modhost/decode"
	"github.com/anisan-cli/modhost/icon"
	"github.com/anisan-cli/modhost/key"
	"github.com/anisan-cli/modhost/player"
	"github.com/anisan-cli/modhost/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringP("player", "P", "", "Player to use instead of the configured one")
	playCmd.Flags().StringP("title", "T", "", "Title shown by the player")
	playCmd.Flags().IntP("source", "s", 0, "1-based source to play, asks when there is more than one")
	playCmd.Flags().StringToStringP("header", "H", nil, "Extra HTTP header sent with the stream, e.g. Referer=https://example.com")

	lo.Must0(playCmd.RegisterFlagCompletionFunc("player", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return player.Names(), cobra.ShellCompDirectiveNoFileComp
	}))
}

var playCmd = &cobra.Command{
	Use:   "play <url>",
	Short: "Resolve an episode url and play it",
	Long:  "Resolve an episode url with the selected module and hand the chosen stream to an external player.\nWhen the module answers with servers, the chosen server is resolved in turn.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name := lo.Must(cmd.Flags().GetString("player"))
		if name == "" {
			name = viper.GetString(key.Player)
		}
		handleErr(checkPlayer(name))

		title := lo.Must(cmd.Flags().GetString("title"))
		if title == "" {
			title = args[0]
		}
		headers := lo.Must(cmd.Flags().GetStringToString("header"))
		source := lo.Must(cmd.Flags().GetInt("source"))

		reportErr(withApp(cmd, func(ctx context.Context, a *app.App) error {
			bundle, err := resolveBundle(ctx, a, args[0])
			if err != nil {
				return err
			}

			index, err := pickSource(bundle, source)
			if err != nil {
				return err
			}

			stream, err := player.StreamFrom(bundle, index, title, headers)
			if err != nil {
				return err
			}

			p, err := player.New(name)
			if err != nil {
				return err
			}

			return play(ctx, p, stream)
		}))
	},
}

// resolveBundle resolves url until the module answers with streams, asking
// the user to pick a server on the way.
func resolveBundle(ctx context.Context, a *app.App, url string) (decode.MediaBundle, error) {
	for {
		payload, err := a.Media.Resolve(ctx, url)
		if err != nil {
			return decode.MediaBundle{}, err
		}

		switch p := payload.(type) {
		case decode.MediaBundle:
			if len(p.Sources) == 0 {
				return p, errors.New("the module found no playable sources")
			}
			return p, nil
		case decode.ServerList:
			server, err := pickServer(p)
			if err != nil {
				return decode.MediaBundle{}, err
			}
			url = server.URL
		default:
			return decode.MediaBundle{}, fmt.Errorf("unexpected %T while resolving media", payload)
		}
	}
}

func pickServer(list decode.ServerList) (decode.Server, error) {
	servers := lo.FlatMap(list.Groups, func(g decode.ServerGroup, _ int) []decode.Server {
		return g.List
	})
	if len(servers) == 0 {
		return decode.Server{}, errors.New("the module found no servers")
	}
	if len(servers) == 1 {
		return servers[0], nil
	}

	var options []string
	for _, group := range list.Groups {
		for _, s := range group.List {
			options = append(options, strings.TrimSpace(group.Title+" "+plain(s.Name)))
		}
	}

	var index int
	if err := survey.AskOne(&survey.Select{Message: "Server", Options: options}, &index); err != nil {
		return decode.Server{}, err
	}
	return servers[index], nil
}

// pickSource returns the 0-based source index. A positive flag value wins.
func pickSource(bundle decode.MediaBundle, flag int) (int, error) {
	if flag > 0 {
		if flag > len(bundle.Sources) {
			return 0, fmt.Errorf("source %d out of range, %d available", flag, len(bundle.Sources))
		}
		return flag - 1, nil
	}
	if len(bundle.Sources) == 1 {
		return 0, nil
	}

	options := lo.Map(bundle.Sources, func(s decode.Source, i int) string {
		if s.Type != "" {
			return fmt.Sprintf("%d. %s (%s)", i+1, s.File, s.Type)
		}
		return fmt.Sprintf("%d. %s", i+1, s.File)
	})

	var index int
	err := survey.AskOne(&survey.Select{Message: "Source", Options: options}, &index)
	return index, err
}

// play starts p and blocks until it exits or ctx is cancelled.
func play(ctx context.Context, p player.Player, stream player.Stream) error {
	if err := p.Play(ctx, stream); err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	fmt.Printf("%s playing %s\n", icon.Get(icon.Play), style.Bold(stream.Title))

	select {
	case <-p.Wait():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
