package process

import "fmt"

// ProcessID represents a unique identifier for a process
type ProcessID uint32

// ThreadID represents a unique identifier for a thread
type ThreadID uint32

// Handle is an opaque OS-issued reference to a process, thread or snapshot
type Handle uintptr

// ProcessEntry is one row of the system process table
type ProcessEntry struct {
	PID     ProcessID // Process ID
	PPID    ProcessID // Parent Process ID
	Name    string    // Executable name as reported by the OS
	Threads uint32    // Number of threads at snapshot time
}

// ThreadEntry is one row of the system thread table
type ThreadEntry struct {
	TID          ThreadID  // Thread ID
	OwnerPID     ProcessID // Process owning the thread
	BasePriority int32
}

// IdentifierKind tells which variant a TargetIdentifier holds
type IdentifierKind int

const (
	ByPIDKind IdentifierKind = iota
	ByNameKind
)

// TargetIdentifier selects a process either by numeric ID or by executable name.
// The zero value is ByPID(0).
type TargetIdentifier struct {
	kind IdentifierKind
	pid  ProcessID
	name string
}

// ByPID returns an identifier for the process with the given ID
func ByPID(pid ProcessID) TargetIdentifier {
	return TargetIdentifier{kind: ByPIDKind, pid: pid}
}

// ByName returns an identifier matching processes whose executable name starts with name
func ByName(name string) TargetIdentifier {
	return TargetIdentifier{kind: ByNameKind, name: name}
}

func (t TargetIdentifier) Kind() IdentifierKind {
	return t.kind
}

// PID returns the process ID; only meaningful for ByPID identifiers
func (t TargetIdentifier) PID() ProcessID {
	return t.pid
}

// Name returns the name prefix; only meaningful for ByName identifiers
func (t TargetIdentifier) Name() string {
	return t.name
}

func (t TargetIdentifier) String() string {
	if t.kind == ByNameKind {
		return fmt.Sprintf("name:%q", t.name)
	}
	return fmt.Sprintf("pid:%d", t.pid)
}
