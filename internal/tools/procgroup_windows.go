//go:build windows

package tools

import "os/exec"

// killProcessGroupOnCancel keeps the default cancellation, which kills
// only cmd's process; WaitDelay still closes pipes held by children.
func killProcessGroupOnCancel(cmd *exec.Cmd) {}
