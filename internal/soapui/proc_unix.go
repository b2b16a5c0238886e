//go:build !windows

package soapui

import (
	"os/exec"
	"syscall"
)

// setProcessGroup starts cmd in its own process group so the SoapUI launcher
// script and the JVM it spawns can be signalled together.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killProcessGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
}
