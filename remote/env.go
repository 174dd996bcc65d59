// Package remote implements the controllers that attach to a target process,
// place a payload in its address space and queue it on its threads.
package remote

import (
	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"

	"apcqueue/process"
)

// Env carries the process-wide collaborators every controller needs.
// It is built once at start-up and passed down explicitly.
type Env struct {
	System process.System

	// Alert is invoked after each successful queuing; nil disables it.
	Alert process.AlertTrigger
}

func newLogger(name string) *logger.Logger {
	return logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, name))
}

func newIdleLogger(name string) *logger.Logger {
	return logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, name))
}
