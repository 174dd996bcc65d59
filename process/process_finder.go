package process

// Snapshot iterates a point-in-time copy of an OS table.
// Next returns ErrNoMoreEntries once the table is exhausted.
// Close must be called exactly once, whatever the iteration outcome.
type Snapshot[T any] interface {
	First() (T, error)
	Next() (T, error)
	Close() error
}
