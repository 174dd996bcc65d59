package remote

import (
	"fmt"
	"strings"

	"apcqueue/process"
)

// FindProcessByPrefix returns the first process-table entry whose executable name
// starts with prefix. Matching is case-sensitive and enumeration order decides
// between several candidates, so "note" may pick notepad.exe or notes.exe.
func FindProcessByPrefix(sys process.System, prefix string) (process.ProcessEntry, error) {
	if prefix == "" {
		return process.ProcessEntry{}, fmt.Errorf("%w: empty process name", process.ErrResolutionFailed)
	}

	var found *process.ProcessEntry
	err := walkProcesses(sys, func(entry process.ProcessEntry) bool {
		if strings.HasPrefix(entry.Name, prefix) {
			found = &entry
			return false
		}
		return true
	})
	if err != nil {
		return process.ProcessEntry{}, err
	}
	if found == nil {
		return process.ProcessEntry{}, fmt.Errorf("%w: no executable name starts with %q", process.ErrProcessNotFound, prefix)
	}
	return *found, nil
}

// ListProcesses returns every process whose executable name starts with prefix,
// in enumeration order. An empty prefix lists the whole table.
func ListProcesses(sys process.System, prefix string) ([]process.ProcessEntry, error) {
	var out []process.ProcessEntry
	err := walkProcesses(sys, func(entry process.ProcessEntry) bool {
		if strings.HasPrefix(entry.Name, prefix) {
			out = append(out, entry)
		}
		return true
	})
	return out, err
}

// walkProcesses visits the process table until visit returns false.
// The snapshot is closed on every path.
func walkProcesses(sys process.System, visit func(process.ProcessEntry) bool) error {
	snap, err := sys.ProcessSnapshot()
	if err != nil {
		return fmt.Errorf("%w: %w: %w", process.ErrResolutionFailed, process.ErrSnapshotFailed, err)
	}
	defer snap.Close()

	entry, err := snap.First()
	for err == nil {
		if !visit(entry) {
			return nil
		}
		entry, err = snap.Next()
	}
	// the walk ends at ErrNoMoreEntries or at the first entry the OS cannot return
	return nil
}

// Resolve maps id to an open process handle and the concrete process ID.
// ByPID opens directly without touching the process table.
func Resolve(sys process.System, id process.TargetIdentifier) (process.Handle, process.ProcessID, error) {
	pid := id.PID()

	if id.Kind() == process.ByNameKind {
		entry, err := FindProcessByPrefix(sys, id.Name())
		if err != nil {
			return 0, 0, err
		}
		pid = entry.PID
	}

	h, err := openProcess(sys, pid)
	if err != nil {
		return 0, pid, err
	}
	return h, pid, nil
}

func openProcess(sys process.System, pid process.ProcessID) (process.Handle, error) {
	h, err := sys.OpenProcess(pid)
	if err != nil {
		return 0, fmt.Errorf("%w: OpenProcess(%d): %w", process.ErrHandleCreationFailed, pid, err)
	}
	if h == 0 {
		return 0, fmt.Errorf("%w: OpenProcess(%d) returned a null handle", process.ErrHandleCreationFailed, pid)
	}
	return h, nil
}
