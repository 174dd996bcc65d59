package process

// System is the operating system surface needed to drive a remote process.
// Every call is synchronous; nothing is retried.
type System interface {
	// OpenProcess opens a full-access handle to the process with the given ID
	OpenProcess(pid ProcessID) (Handle, error)

	// OpenThread opens a full-access handle to the thread with the given ID
	OpenThread(tid ThreadID) (Handle, error)

	// CloseHandle releases a handle returned by any Open or Snapshot call
	CloseHandle(h Handle) error

	// AllocateMemory commits an executable and writable region of at least size bytes
	// in the process referenced by h
	AllocateMemory(h Handle, size ProcessMemorySize) (ProcessMemoryAddress, error)

	// WriteMemory writes data at addr and returns how many bytes the OS reported written
	WriteMemory(h Handle, addr ProcessMemoryAddress, data []byte) (ProcessMemorySize, error)

	// ReadMemory reads size bytes at addr
	ReadMemory(h Handle, addr ProcessMemoryAddress, size ProcessMemorySize) ([]byte, error)

	// QueueDeferredCall queues addr as a no-argument deferred call on the thread referenced by h
	QueueDeferredCall(h Handle, addr ProcessMemoryAddress) error

	// Table snapshots
	ProcessSnapshot() (Snapshot[ProcessEntry], error)
	ThreadSnapshot() (Snapshot[ThreadEntry], error)
}

// AlertTrigger forces pending deferred calls of the calling thread to be dispatched.
// Implementations are best effort.
type AlertTrigger interface {
	TriggerAlert() error
}
