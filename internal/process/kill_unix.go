//go:build !windows

// Package process terminates headless browser process trees.
package process

import "syscall"

// KillProcessGroup sends SIGKILL to the whole process group of pid so that
// Chrome helper processes do not outlive a closed renderer.
func KillProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	// Best effort: launcher.Kill() runs afterwards as a fallback.
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
