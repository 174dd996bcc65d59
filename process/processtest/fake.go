// Package processtest provides an in-memory process.System for tests
package processtest

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"apcqueue/process"
)

// ErrAccessDenied is returned by denied opens
var ErrAccessDenied = errors.New("access denied")

// SliceSnapshot is a process.Snapshot over an in-memory table
type SliceSnapshot[T any] struct {
	Entries []T
	pos     int
	closed  int
}

func NewSliceSnapshot[T any](entries ...T) *SliceSnapshot[T] {
	return &SliceSnapshot[T]{Entries: entries}
}

func (s *SliceSnapshot[T]) First() (T, error) {
	s.pos = 0
	return s.Next()
}

func (s *SliceSnapshot[T]) Next() (T, error) {
	var zero T
	if s.closed > 0 || s.pos >= len(s.Entries) {
		return zero, process.ErrNoMoreEntries
	}
	entry := s.Entries[s.pos]
	s.pos++
	return entry, nil
}

func (s *SliceSnapshot[T]) Close() error {
	s.closed++
	return nil
}

// Closes reports how many times Close has been called
func (s *SliceSnapshot[T]) Closes() int {
	return s.closed
}

var (
	_ process.System       = (*System)(nil)
	_ process.AlertTrigger = (*Alert)(nil)
)

// System is a scripted process.System. Zero value is usable: every process and
// thread listed in the tables can be opened, allocation and writes succeed.
type System struct {
	Processes []process.ProcessEntry
	Threads   []process.ThreadEntry

	DenyProcess map[process.ProcessID]bool
	DenyThread  map[process.ThreadID]bool
	QueueErr    map[process.ThreadID]error

	AllocErr         error
	WriteErr         error
	ShortWrite       bool
	CorruptRead      bool
	ProcessSnapErr   error
	ThreadSnapErr    error
	OpenUnknownPIDs  bool
	ProcessSnapshots []*SliceSnapshot[process.ProcessEntry]
	ThreadSnapshots  []*SliceSnapshot[process.ThreadEntry]

	mu         sync.Mutex
	calls      []string
	nextHandle process.Handle
	handles    map[process.Handle]string
	threadOf   map[process.Handle]process.ThreadID
	closes     map[process.Handle]int
	memory     map[process.ProcessMemoryAddress][]byte
	nextAddr   process.ProcessMemoryAddress
	queued     []process.ThreadID
}

func (s *System) record(format string, args ...any) {
	s.calls = append(s.calls, fmt.Sprintf(format, args...))
}

func (s *System) newHandle(kind string) process.Handle {
	if s.handles == nil {
		s.handles = make(map[process.Handle]string)
		s.threadOf = make(map[process.Handle]process.ThreadID)
		s.closes = make(map[process.Handle]int)
		s.nextHandle = 0x100
	}
	s.nextHandle += 4
	s.handles[s.nextHandle] = kind
	return s.nextHandle
}

func (s *System) hasProcess(pid process.ProcessID) bool {
	for _, p := range s.Processes {
		if p.PID == pid {
			return true
		}
	}
	return false
}

func (s *System) OpenProcess(pid process.ProcessID) (process.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("OpenProcess(%d)", pid)

	if s.DenyProcess[pid] || (!s.OpenUnknownPIDs && !s.hasProcess(pid)) {
		return 0, ErrAccessDenied
	}
	return s.newHandle(fmt.Sprintf("process-%d", pid)), nil
}

func (s *System) OpenThread(tid process.ThreadID) (process.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("OpenThread(%d)", tid)

	if s.DenyThread[tid] {
		return 0, ErrAccessDenied
	}
	h := s.newHandle(fmt.Sprintf("thread-%d", tid))
	s.threadOf[h] = tid
	return h, nil
}

func (s *System) CloseHandle(h process.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("CloseHandle(%d)", h)

	if _, ok := s.handles[h]; !ok {
		return fmt.Errorf("invalid handle %d", h)
	}
	s.closes[h]++
	return nil
}

func (s *System) AllocateMemory(h process.Handle, size process.ProcessMemorySize) (process.ProcessMemoryAddress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("AllocateMemory(%d)", size)

	if s.AllocErr != nil {
		return 0, s.AllocErr
	}
	if s.memory == nil {
		s.memory = make(map[process.ProcessMemoryAddress][]byte)
		s.nextAddr = 0x1F0000
	}
	s.nextAddr += 0x10000
	s.memory[s.nextAddr] = make([]byte, size)
	return s.nextAddr, nil
}

func (s *System) WriteMemory(h process.Handle, addr process.ProcessMemoryAddress, data []byte) (process.ProcessMemorySize, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("WriteMemory(%d)", len(data))

	if s.WriteErr != nil {
		return 0, s.WriteErr
	}
	region, ok := s.memory[addr]
	if !ok {
		return 0, fmt.Errorf("address %s not allocated", addr.ToString())
	}
	n := copy(region, data)
	if s.ShortWrite && n > 0 {
		n--
	}
	return process.ProcessMemorySize(n), nil
}

func (s *System) ReadMemory(h process.Handle, addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("ReadMemory(%d)", size)

	region, ok := s.memory[addr]
	if !ok || uint(len(region)) < uint(size) {
		return nil, fmt.Errorf("address %s not readable", addr.ToString())
	}
	out := make([]byte, size)
	copy(out, region)
	if s.CorruptRead && len(out) > 0 {
		out[0] ^= 0xFF
	}
	return out, nil
}

func (s *System) QueueDeferredCall(h process.Handle, addr process.ProcessMemoryAddress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tid := s.threadOf[h]
	s.record("QueueDeferredCall(%d)", tid)

	if err := s.QueueErr[tid]; err != nil {
		return err
	}
	s.queued = append(s.queued, tid)
	return nil
}

func (s *System) ProcessSnapshot() (process.Snapshot[process.ProcessEntry], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("ProcessSnapshot()")

	if s.ProcessSnapErr != nil {
		return nil, s.ProcessSnapErr
	}
	snap := NewSliceSnapshot(s.Processes...)
	s.ProcessSnapshots = append(s.ProcessSnapshots, snap)
	return snap, nil
}

func (s *System) ThreadSnapshot() (process.Snapshot[process.ThreadEntry], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("ThreadSnapshot()")

	if s.ThreadSnapErr != nil {
		return nil, s.ThreadSnapErr
	}
	snap := NewSliceSnapshot(s.Threads...)
	s.ThreadSnapshots = append(s.ThreadSnapshots, snap)
	return snap, nil
}

// Calls returns every recorded call in order
func (s *System) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallCount returns how many recorded calls start with name
func (s *System) CallCount(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, c := range s.calls {
		if strings.HasPrefix(c, name+"(") {
			count++
		}
	}
	return count
}

// CloseCount returns how many times h was closed
func (s *System) CloseCount(h process.Handle) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes[h]
}

// OpenHandles returns the handles that were opened but never closed
func (s *System) OpenHandles() []process.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []process.Handle
	for h := range s.handles {
		if s.closes[h] == 0 {
			out = append(out, h)
		}
	}
	return out
}

// Queued returns the threads a deferred call was queued on, in order
func (s *System) Queued() []process.ThreadID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]process.ThreadID, len(s.queued))
	copy(out, s.queued)
	return out
}

// Memory returns the bytes currently held at addr
func (s *System) Memory(addr process.ProcessMemoryAddress) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memory[addr]
}

// Alert counts TriggerAlert invocations
type Alert struct {
	Err   error
	Calls int
}

func (a *Alert) TriggerAlert() error {
	a.Calls++
	return a.Err
}
