package remote

import (
	"errors"
	"fmt"

	"apcqueue/process"
)

// ThreadCollection holds the threads of one process in OS enumeration order.
// It is filled once and never refreshed.
type ThreadCollection struct {
	threads []*Thread
}

func (c *ThreadCollection) Len() int {
	return len(c.threads)
}

// Threads returns the collected threads; the order is whatever the OS reported
func (c *ThreadCollection) Threads() []*Thread {
	return c.threads
}

// Close releases every thread handle that was opened
func (c *ThreadCollection) Close() error {
	var errs []error
	for _, t := range c.threads {
		if err := t.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// EnumerateThreads snapshots the thread table and keeps the entries owned by pid.
// Failing to create or start the snapshot is an error; finding no thread of pid is not.
func EnumerateThreads(env Env, pid process.ProcessID) (*ThreadCollection, error) {
	log := newLogger(fmt.Sprintf("threads-%d", pid))

	snap, err := env.System.ThreadSnapshot()
	if err != nil {
		return nil, fmt.Errorf("%w: thread table: %w", process.ErrSnapshotFailed, err)
	}
	defer snap.Close()

	entry, err := snap.First()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", process.ErrNoThreadsFound, err)
	}

	collection := &ThreadCollection{}
	for err == nil {
		if entry.OwnerPID == pid {
			collection.threads = append(collection.threads, newThread(env, entry))
		}
		entry, err = snap.Next()
	}
	if !errors.Is(err, process.ErrNoMoreEntries) {
		log.Warn("Thread table walk stopped early: ", err)
	}

	log.Infoln("Found", collection.Len(), "threads in target process")
	return collection, nil
}
