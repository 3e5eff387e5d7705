package cmd

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/anisan-cli/modhost/color"
	"github.com/anisan-cli/modhost/constant"
	"github.com/anisan-cli/modhost/icon"
	"github.com/anisan-cli/modhost/player"
	"github.com/anisan-cli/modhost/style"
	"github.com/charmbracelet/lipgloss"
)

// binaries maps a player name to the executable it needs on PATH.
var binaries = map[string]string{
	player.NameMPV:  "mpv",
	player.NameIINA: "open",
}

// checkPlayer verifies the executable behind the named player is available.
func checkPlayer(name string) error {
	bin, ok := binaries[strings.ToLower(name)]
	if !ok {
		return fmt.Errorf("unknown player %q, available: %s", name, strings.Join(player.Names(), ", "))
	}

	if _, err := exec.LookPath(bin); err != nil {
		printMissingDependencyError(bin)
		return fmt.Errorf("%s is not installed", bin)
	}

	return nil
}

func installHint(dep string) string {
	if dep != "mpv" {
		return ""
	}

	switch runtime.GOOS {
	case constant.Darwin:
		return "brew install mpv"
	case constant.Linux:
		return "sudo apt install mpv"
	case constant.Windows:
		return "scoop install mpv"
	default:
		return ""
	}
}

func printMissingDependencyError(dep string) {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color.HiRed).
		Padding(1, 2).
		Margin(1, 0)

	title := style.New().Bold(true).Foreground(color.HiRed).Render(fmt.Sprintf("%s Error: Missing Dependency", icon.Get(icon.Fail)))
	body := style.New().Foreground(color.Text).Render(fmt.Sprintf("The required dependency '%s' was not found in your PATH.", dep))

	suggestion := ""
	if hint := installHint(dep); hint != "" {
		suggestion = fmt.Sprintf("\n\nTo install it, try running:\n  %s", style.New().Foreground(color.Accent).Bold(true).Render(hint))
	}

	fmt.Println(box.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			title,
			"\n",
			body,
			suggestion,
		),
	))
}
