//go:build windows

package process_windows

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"apcqueue/process"
)

var (
	modkernel32        = windows.NewLazySystemDLL("kernel32.dll")
	modntdll           = windows.NewLazySystemDLL("ntdll.dll")
	procVirtualAllocEx = modkernel32.NewProc("VirtualAllocEx")
	procQueueUserAPC   = modkernel32.NewProc("QueueUserAPC")

	// not exposed by any typed binding, looked up by name on first use
	procNtTestAlert = modntdll.NewProc("NtTestAlert")
)

const (
	PROCESS_ALL_ACCESS = windows.PROCESS_ALL_ACCESS
	THREAD_ALL_ACCESS  = 0x1FFFFF
)

var (
	_ process.System       = (*System)(nil)
	_ process.AlertTrigger = (*System)(nil)
)

// System implements process.System and process.AlertTrigger on top of the Win32 API
type System struct{}

// New creates a new System instance
func New() *System {
	return &System{}
}

func (s *System) OpenProcess(pid process.ProcessID) (process.Handle, error) {
	handle, err := windows.OpenProcess(PROCESS_ALL_ACCESS, false, uint32(pid))
	if err != nil {
		return 0, err
	}
	return process.Handle(handle), nil
}

func (s *System) OpenThread(tid process.ThreadID) (process.Handle, error) {
	handle, err := windows.OpenThread(THREAD_ALL_ACCESS, false, uint32(tid))
	if err != nil {
		return 0, err
	}
	return process.Handle(handle), nil
}

func (s *System) CloseHandle(h process.Handle) error {
	return windows.CloseHandle(windows.Handle(h))
}

func (s *System) AllocateMemory(h process.Handle, size process.ProcessMemorySize) (process.ProcessMemoryAddress, error) {
	addr, _, err := procVirtualAllocEx.Call(
		uintptr(h),
		0,
		uintptr(size),
		uintptr(windows.MEM_COMMIT|windows.MEM_RESERVE),
		uintptr(windows.PAGE_EXECUTE_READWRITE),
	)
	if addr == 0 {
		return 0, fmt.Errorf("VirtualAllocEx failed: %w", err)
	}
	return process.ProcessMemoryAddress(addr), nil
}

func (s *System) WriteMemory(h process.Handle, addr process.ProcessMemoryAddress, data []byte) (process.ProcessMemorySize, error) {
	if len(data) == 0 {
		return 0, nil
	}

	var written uintptr
	err := windows.WriteProcessMemory(windows.Handle(h), uintptr(addr), &data[0], uintptr(len(data)), &written)
	if err != nil {
		return process.ProcessMemorySize(written), fmt.Errorf("WriteProcessMemory failed: %w", err)
	}
	return process.ProcessMemorySize(written), nil
}

func (s *System) ReadMemory(h process.Handle, addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	if size == 0 {
		return []byte{}, nil
	}

	buf := make([]byte, size)
	var bytesRead uintptr
	err := windows.ReadProcessMemory(windows.Handle(h), uintptr(addr), &buf[0], uintptr(size), &bytesRead)
	if err != nil {
		return nil, fmt.Errorf("ReadProcessMemory failed: %w", err)
	}

	if bytesRead != uintptr(size) {
		return nil, fmt.Errorf("read incomplete: expected %d, got %d", size, bytesRead)
	}

	return buf, nil
}

// apcRoutine reinterprets a remote address as the PAPCFUNC argument of QueueUserAPC.
// Unchecked: nothing here can tell whether addr holds code. The target thread calls it
// with the system calling convention and one pointer-sized argument.
func apcRoutine(addr process.ProcessMemoryAddress) uintptr {
	return uintptr(addr)
}

func (s *System) QueueDeferredCall(h process.Handle, addr process.ProcessMemoryAddress) error {
	ret, _, err := procQueueUserAPC.Call(apcRoutine(addr), uintptr(h), 0)
	if ret == 0 {
		return fmt.Errorf("QueueUserAPC failed: %w", err)
	}
	return nil
}

// TriggerAlert calls ntdll!NtTestAlert, dispatching APCs pending on the calling thread
func (s *System) TriggerAlert() error {
	if err := procNtTestAlert.Find(); err != nil {
		return err
	}
	status, _, _ := procNtTestAlert.Call()
	if status != 0 {
		return fmt.Errorf("NtTestAlert returned status 0x%X", status)
	}
	return nil
}

func (s *System) ProcessSnapshot() (process.Snapshot[process.ProcessEntry], error) {
	handle, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return nil, fmt.Errorf("CreateToolhelp32Snapshot failed: %w", err)
	}
	return &processSnapshot{handle: handle}, nil
}

func (s *System) ThreadSnapshot() (process.Snapshot[process.ThreadEntry], error) {
	handle, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPTHREAD, 0)
	if err != nil {
		return nil, fmt.Errorf("CreateToolhelp32Snapshot failed: %w", err)
	}
	return &threadSnapshot{handle: handle}, nil
}

func snapshotErr(call string, err error) error {
	if errors.Is(err, windows.ERROR_NO_MORE_FILES) {
		return process.ErrNoMoreEntries
	}
	return fmt.Errorf("%s failed: %w", call, err)
}

type processSnapshot struct {
	handle windows.Handle
	entry  windows.ProcessEntry32
}

func (ps *processSnapshot) First() (process.ProcessEntry, error) {
	ps.entry = windows.ProcessEntry32{Size: uint32(unsafe.Sizeof(ps.entry))}
	if err := windows.Process32First(ps.handle, &ps.entry); err != nil {
		return process.ProcessEntry{}, snapshotErr("Process32First", err)
	}
	return ps.convert(), nil
}

func (ps *processSnapshot) Next() (process.ProcessEntry, error) {
	if err := windows.Process32Next(ps.handle, &ps.entry); err != nil {
		return process.ProcessEntry{}, snapshotErr("Process32Next", err)
	}
	return ps.convert(), nil
}

func (ps *processSnapshot) convert() process.ProcessEntry {
	return process.ProcessEntry{
		PID:     process.ProcessID(ps.entry.ProcessID),
		PPID:    process.ProcessID(ps.entry.ParentProcessID),
		Name:    windows.UTF16ToString(ps.entry.ExeFile[:]),
		Threads: ps.entry.Threads,
	}
}

func (ps *processSnapshot) Close() error {
	return windows.CloseHandle(ps.handle)
}

type threadSnapshot struct {
	handle windows.Handle
	entry  windows.ThreadEntry32
}

func (ts *threadSnapshot) First() (process.ThreadEntry, error) {
	ts.entry = windows.ThreadEntry32{Size: uint32(unsafe.Sizeof(ts.entry))}
	if err := windows.Thread32First(ts.handle, &ts.entry); err != nil {
		return process.ThreadEntry{}, snapshotErr("Thread32First", err)
	}
	return ts.convert(), nil
}

func (ts *threadSnapshot) Next() (process.ThreadEntry, error) {
	if err := windows.Thread32Next(ts.handle, &ts.entry); err != nil {
		return process.ThreadEntry{}, snapshotErr("Thread32Next", err)
	}
	return ts.convert(), nil
}

func (ts *threadSnapshot) convert() process.ThreadEntry {
	return process.ThreadEntry{
		TID:          process.ThreadID(ts.entry.ThreadID),
		OwnerPID:     process.ProcessID(ts.entry.OwnerProcessID),
		BasePriority: ts.entry.BasePri,
	}
}

func (ts *threadSnapshot) Close() error {
	return windows.CloseHandle(ts.handle)
}
