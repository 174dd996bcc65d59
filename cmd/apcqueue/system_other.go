//go:build !windows

package main

import (
	"fmt"
	"runtime"

	"apcqueue/process"
)

func newSystem() (process.System, process.AlertTrigger, error) {
	return nil, nil, fmt.Errorf("incompatible platform: %s has no deferred-call mechanism", runtime.GOOS)
}
