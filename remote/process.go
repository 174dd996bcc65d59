package remote

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/Moonlight-Companies/gologger/logger"

	"apcqueue/process"
)

// Process represents one attached target process and the single region
// allocated in it.
type Process struct {
	env        Env
	identifier process.TargetIdentifier
	handle     *Handle
	address    process.ProcessMemoryAddress
	size       process.ProcessMemorySize
	allocated  bool
	log        *logger.Logger
	mu         sync.Mutex
}

// New creates a Process controller without opening anything
func New(env Env, id process.TargetIdentifier) *Process {
	return &Process{
		env:        env,
		identifier: id,
		log:        newIdleLogger("process-not-open"),
	}
}

// Attach creates a Process controller and opens the target.
// Resolution and open failures are returned unchanged.
func Attach(env Env, id process.TargetIdentifier) (*Process, error) {
	p := New(env, id)
	if err := p.CreateHandle(); err != nil {
		return nil, err
	}
	return p, nil
}

// CreateHandle resolves the identifier and opens the process. A ByName identifier
// is rewritten to ByPID on success. Calling it on an open Process is a no-op.
func (p *Process) CreateHandle() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.handle != nil {
		return nil
	}

	h, pid, err := Resolve(p.env.System, p.identifier)
	if err != nil {
		return err
	}

	p.handle = newHandle(p.env.System, h)
	p.identifier = process.ByPID(pid)
	p.log = newLogger(fmt.Sprintf("process-%d", pid))

	p.log.Infoln("Handle opened to PID", pid)
	return nil
}

// AllocateMemory commits an executable, readable and writable region of at least
// size bytes in the target. Only one allocation is allowed per Process.
func (p *Process) AllocateMemory(size process.ProcessMemorySize) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.isOpenLocked() {
		return fmt.Errorf("%w: %w", process.ErrAllocationFailed, process.ErrProcessNotOpen)
	}
	if p.allocated {
		return fmt.Errorf("%w: %w at %s", process.ErrAllocationFailed, process.ErrAlreadyAllocated, p.address.ToString())
	}
	if size == 0 {
		return fmt.Errorf("%w: zero-length region", process.ErrAllocationFailed)
	}

	// RWX on purpose: one region, written once, executed in place
	addr, err := p.env.System.AllocateMemory(p.handle.Value(), size)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", process.ErrAllocationFailed, size.ToString(), err)
	}
	if addr == 0 {
		return fmt.Errorf("%w: OS returned a null address", process.ErrAllocationFailed)
	}

	p.address = addr
	p.size = size
	p.allocated = true

	p.log.Infoln("Allocated", size.ToString(), "at", addr.ToString())
	return nil
}

// WriteMemory writes payload to the allocated region. A short write is a failure;
// nothing is retried.
func (p *Process) WriteMemory(payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.isOpenLocked() {
		return fmt.Errorf("%w: %w", process.ErrWriteFailed, process.ErrProcessNotOpen)
	}
	if !p.allocated {
		return fmt.Errorf("%w: %w", process.ErrWriteFailed, process.ErrNotAllocated)
	}
	if len(payload) == 0 {
		return fmt.Errorf("%w: empty payload", process.ErrWriteFailed)
	}
	if process.ProcessMemorySize(len(payload)) > p.size {
		return fmt.Errorf("%w: payload of %d bytes exceeds %s region", process.ErrWriteFailed, len(payload), p.size.ToString())
	}

	written, err := p.env.System.WriteMemory(p.handle.Value(), p.address, payload)
	if err != nil {
		return fmt.Errorf("%w: at %s: %w", process.ErrWriteFailed, p.address.ToString(), err)
	}
	if written != process.ProcessMemorySize(len(payload)) {
		return fmt.Errorf("%w: %w: expected %d, got %d", process.ErrWriteFailed, process.ErrShortWrite, len(payload), written)
	}

	p.log.Infoln("Wrote", len(payload), "bytes at", p.address.ToString())
	return nil
}

// VerifyMemory reads the region back and compares it with payload
func (p *Process) VerifyMemory(payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.isOpenLocked() {
		return fmt.Errorf("%w: %w", process.ErrVerifyFailed, process.ErrProcessNotOpen)
	}
	if !p.allocated {
		return fmt.Errorf("%w: %w", process.ErrVerifyFailed, process.ErrNotAllocated)
	}

	data, err := p.env.System.ReadMemory(p.handle.Value(), p.address, process.ProcessMemorySize(len(payload)))
	if err != nil {
		return fmt.Errorf("%w: read back at %s: %w", process.ErrVerifyFailed, p.address.ToString(), err)
	}
	if !bytes.Equal(data, payload) {
		return fmt.Errorf("%w: at %s", process.ErrVerifyFailed, p.address.ToString())
	}

	p.log.Debugln("Verified", len(payload), "bytes at", p.address.ToString())
	return nil
}

// Close releases the process handle. It is safe to call more than once.
func (p *Process) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.isOpenLocked() {
		return nil
	}

	err := p.handle.Release()
	p.log.Infoln("Process handle closed")
	if err != nil {
		return fmt.Errorf("CloseHandle failed: %w", err)
	}
	return nil
}

// PID returns the resolved process ID, or zero while unresolved
func (p *Process) PID() process.ProcessID {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.identifier.Kind() != process.ByPIDKind {
		return 0
	}
	return p.identifier.PID()
}

func (p *Process) Identifier() process.TargetIdentifier {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.identifier
}

// Address returns the allocated region, zero before AllocateMemory succeeds
func (p *Process) Address() process.ProcessMemoryAddress {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.address
}

func (p *Process) Size() process.ProcessMemorySize {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.size
}

// IsOpen reports whether a live handle is held
func (p *Process) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.isOpenLocked()
}

// Internal helper function that assumes the mutex is already locked
func (p *Process) isOpenLocked() bool {
	return p.handle != nil && !p.handle.Released()
}
