package remote

import (
	"sync"

	"apcqueue/process"
)

// Handle owns one OS handle and releases it exactly once, however many times
// Release is called.
type Handle struct {
	sys      process.System
	value    process.Handle
	mu       sync.Mutex
	released bool
}

func newHandle(sys process.System, value process.Handle) *Handle {
	return &Handle{sys: sys, value: value}
}

// Value returns the raw handle; zero once released
func (h *Handle) Value() process.Handle {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return 0
	}
	return h.value
}

func (h *Handle) Release() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released {
		return nil
	}
	h.released = true
	return h.sys.CloseHandle(h.value)
}

func (h *Handle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}
