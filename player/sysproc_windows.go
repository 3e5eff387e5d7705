//go:build windows

package player

import (
	"os/exec"
	"syscall"
)

// sysProcAttr is nil on windows, where children do not share a process group with the shell.
func sysProcAttr() *syscall.SysProcAttr {
	return nil
}

func killProcess(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}
