//go:build windows

package main

import (
	"apcqueue/process"
	"apcqueue/process_windows"
)

func newSystem() (process.System, process.AlertTrigger, error) {
	sys := process_windows.New()
	return sys, sys, nil
}
