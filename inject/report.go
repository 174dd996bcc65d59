package inject

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"

	"apcqueue/process"
)

// Outcome is what happened to one thread during a run
type Outcome string

const (
	OutcomeQueued       Outcome = "queued"
	OutcomeHandleFailed Outcome = "handle-failed"
	OutcomeQueueFailed  Outcome = "queue-failed"
)

type ThreadOutcome struct {
	ThreadID process.ThreadID
	Outcome  Outcome
	Err      error
}

// Report describes one run, including the threads that were skipped
type Report struct {
	RunID   uuid.UUID
	Target  process.TargetIdentifier
	PID     process.ProcessID
	Address process.ProcessMemoryAddress
	Size    int
	Threads []ThreadOutcome
}

func newReport(id process.TargetIdentifier, size int) *Report {
	return &Report{
		RunID:  uuid.New(),
		Target: id,
		Size:   size,
	}
}

// Queued returns how many threads had the call queued
func (r *Report) Queued() int {
	n := 0
	for _, t := range r.Threads {
		if t.Outcome == OutcomeQueued {
			n++
		}
	}
	return n
}

// Skipped returns how many threads could not be opened or queued
func (r *Report) Skipped() int {
	return len(r.Threads) - r.Queued()
}

// Render writes the report as a table
func (r *Report) Render(w io.Writer) {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("run %s  pid %d  %d bytes at %s", r.RunID, r.PID, r.Size, r.Address.ToString()))
	t.AppendHeader(table.Row{"TID", "Outcome", "Error"})

	for _, th := range r.Threads {
		errText := ""
		if th.Err != nil {
			errText = th.Err.Error()
		}
		t.AppendRow(table.Row{th.ThreadID, th.Outcome, errText})
	}

	t.AppendFooter(table.Row{"", fmt.Sprintf("%d queued", r.Queued()), fmt.Sprintf("%d skipped", r.Skipped())})
	fmt.Fprintln(w, t.Render())
}
