package cmd

import (
	"encoding/json"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/anisan-cli/modhost/color"
	"github.com/anisan-cli/modhost/constant"
	"github.com/anisan-cli/modhost/style"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

type buildInfo struct {
	Version       string `json:"version"`
	Revision      string `json:"revision"`
	BuiltAt       string `json:"builtAt"`
	BuiltBy       string `json:"builtBy"`
	Go            string `json:"go"`
	Platform      string `json:"platform"`
	FormatVersion int    `json:"moduleFormat"`
	Engines       string `json:"engines"`
}

func currentBuild() buildInfo {
	return buildInfo{
		Version:       constant.Version,
		Revision:      constant.Revision,
		BuiltAt:       strings.TrimSpace(constant.BuiltAt),
		BuiltBy:       constant.BuiltBy,
		Go:            runtime.Version(),
		Platform:      runtime.GOOS + "/" + runtime.GOARCH,
		FormatVersion: constant.FormatVersion,
		Engines:       constant.EngineWeb + ", " + constant.EngineLua,
	}
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolP("short", "s", false, "Only print the version")
	versionCmd.Flags().BoolP("json", "j", false, "Print build information as JSON")
	versionCmd.MarkFlagsMutuallyExclusive("short", "json")
	versionCmd.SetOut(os.Stdout)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build information",
	Long:  "Print the version, build information and the module format and engines this build can run.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		info := currentBuild()

		switch {
		case lo.Must(cmd.Flags().GetBool("short")):
			cmd.Println(info.Version)
		case lo.Must(cmd.Flags().GetBool("json")):
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			handleErr(encoder.Encode(info))
		default:
			rows := [][2]string{
				{"Version", info.Version},
				{"Revision", info.Revision},
				{"Built at", info.BuiltAt},
				{"Built by", info.BuiltBy},
				{"Go", info.Go},
				{"Platform", info.Platform},
				{"Module format", strconv.Itoa(info.FormatVersion)},
				{"Engines", info.Engines},
			}

			label := lipgloss.NewStyle().Width(15)
			cmd.Println(style.Fg(color.Purple)(constant.Modhost))
			cmd.Println()
			for _, row := range rows {
				cmd.Printf("  %s%s\n", label.Render(style.Faint(row[0])), style.Bold(row[1]))
			}
		}
	},
}
