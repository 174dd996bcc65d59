package remote

import (
	"fmt"

	"github.com/Moonlight-Companies/gologger/logger"

	"apcqueue/process"
)

// Thread represents one thread of the target process
type Thread struct {
	ThreadID process.ThreadID
	OwnerPID process.ProcessID

	env    Env
	handle *Handle
	log    *logger.Logger
}

func newThread(env Env, entry process.ThreadEntry) *Thread {
	return &Thread{
		ThreadID: entry.TID,
		OwnerPID: entry.OwnerPID,
		env:      env,
		log:      newLogger(fmt.Sprintf("thread-%d", entry.TID)),
	}
}

// CreateHandle opens a full-access handle to the thread. Calling it again on an
// open Thread is a no-op.
func (t *Thread) CreateHandle() error {
	if t.handle != nil {
		return nil
	}

	h, err := t.env.System.OpenThread(t.ThreadID)
	if err != nil {
		return fmt.Errorf("%w: OpenThread(%d): %w", process.ErrHandleCreationFailed, t.ThreadID, err)
	}
	if h == 0 {
		return fmt.Errorf("%w: OpenThread(%d) returned a null handle", process.ErrHandleCreationFailed, t.ThreadID)
	}

	t.handle = newHandle(t.env.System, h)
	t.log.Debugln("Handle opened")
	return nil
}

// QueueDeferredCall queues address as a deferred call on the thread. It runs once the
// thread itself enters an alertable wait. The alert trigger fired afterwards only
// affects the calling thread and its failure is ignored.
func (t *Thread) QueueDeferredCall(address process.ProcessMemoryAddress) error {
	if t.handle == nil || t.handle.Released() {
		return fmt.Errorf("%w: %w", process.ErrQueueFailed, process.ErrThreadNotOpen)
	}
	if address == 0 {
		return fmt.Errorf("%w: %w", process.ErrQueueFailed, process.ErrNotAllocated)
	}

	if err := t.env.System.QueueDeferredCall(t.handle.Value(), address); err != nil {
		return fmt.Errorf("%w: thread %d: %w", process.ErrQueueFailed, t.ThreadID, err)
	}
	t.log.Infoln("Queued deferred call to", address.ToString())

	if t.env.Alert != nil {
		if err := t.env.Alert.TriggerAlert(); err != nil {
			t.log.Debugln("Alert trigger unavailable:", err)
		}
	}
	return nil
}

// Close releases the thread handle. It is safe to call more than once.
func (t *Thread) Close() error {
	if t.handle == nil {
		return nil
	}
	return t.handle.Release()
}

// IsOpen reports whether a live handle is held
func (t *Thread) IsOpen() bool {
	return t.handle != nil && !t.handle.Released()
}
