package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apcqueue/process"
	"apcqueue/process/processtest"
)

func withSystem(t *testing.T, sys *processtest.System, alert *processtest.Alert) {
	t.Helper()
	saved := systemFactory
	systemFactory = func() (process.System, process.AlertTrigger, error) {
		if alert == nil {
			return sys, nil, nil
		}
		return sys, alert, nil
	}
	t.Cleanup(func() { systemFactory = saved })
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func execute(args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func fakeSystem() *processtest.System {
	return &processtest.System{
		Processes: []process.ProcessEntry{
			{PID: 4, Name: "System"},
			{PID: 812, PPID: 4, Name: "notepad.exe", Threads: 2},
		},
		Threads: []process.ThreadEntry{
			{TID: 30, OwnerPID: 812},
			{TID: 8, OwnerPID: 4},
			{TID: 31, OwnerPID: 812},
		},
	}
}

func TestRoot_InjectByName(t *testing.T) {
	sys := fakeSystem()
	alert := &processtest.Alert{}
	withSystem(t, sys, alert)
	path := writeFile(t, "payload.bin", []byte{0xC3, 0x90, 0x90, 0x90, 0xC3})

	out, err := execute(path, "-n", "notepad")

	require.NoError(t, err)
	assert.Equal(t, []process.ThreadID{30, 31}, sys.Queued())
	assert.Equal(t, 2, alert.Calls)
	assert.Contains(t, strings.ToLower(out), "2 queued")
	assert.Empty(t, sys.OpenHandles())
}

func TestRoot_InjectByPIDWithConfig(t *testing.T) {
	sys := fakeSystem()
	alert := &processtest.Alert{}
	withSystem(t, sys, alert)
	path := writeFile(t, "payload.bin", []byte{0xC3})
	cfg := writeFile(t, "apcqueue.yaml", []byte("trigger_alert: false\nverify_write: true\nreport: none\n"))

	out, err := execute(path, "--pid", "812", "--config", cfg)

	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Zero(t, alert.Calls)
	assert.Equal(t, 1, sys.CallCount("ReadMemory"))
	assert.Len(t, sys.Queued(), 2)
}

func TestRoot_MissingPIDFails(t *testing.T) {
	sys := fakeSystem()
	withSystem(t, sys, nil)
	path := writeFile(t, "payload.bin", []byte{0xC3})

	_, err := execute(path, "-p", "424242")

	require.Error(t, err)
	assert.ErrorIs(t, err, process.ErrHandleCreationFailed)
	assert.Equal(t, 0, sys.CallCount("AllocateMemory"))
	assert.Equal(t, 0, sys.CallCount("ThreadSnapshot"))
}

func TestRoot_FlagValidation(t *testing.T) {
	sys := fakeSystem()
	withSystem(t, sys, nil)
	path := writeFile(t, "payload.bin", []byte{0xC3})

	_, err := execute(path)
	assert.Error(t, err, "one of --pid or --name is required")

	_, err = execute(path, "-p", "812", "-n", "notepad")
	assert.Error(t, err, "--pid and --name are exclusive")

	_, err = execute("-p", "812")
	assert.Error(t, err, "payload path is required")

	_, err = execute(path, "-p", "notanumber")
	assert.Error(t, err)

	assert.Empty(t, sys.Calls())
}

func TestRoot_MissingPayloadFile(t *testing.T) {
	sys := fakeSystem()
	withSystem(t, sys, nil)

	_, err := execute(filepath.Join(t.TempDir(), "absent.bin"), "-p", "812")

	require.Error(t, err)
	assert.Empty(t, sys.Calls())
}

func TestRoot_PlatformUnavailable(t *testing.T) {
	saved := systemFactory
	unsupported := errors.New("incompatible platform")
	systemFactory = func() (process.System, process.AlertTrigger, error) {
		return nil, nil, unsupported
	}
	t.Cleanup(func() { systemFactory = saved })
	path := writeFile(t, "payload.bin", []byte{0xC3})

	_, err := execute(path, "-p", "812")

	assert.ErrorIs(t, err, unsupported)
}

func TestPs_FiltersByPrefix(t *testing.T) {
	withSystem(t, fakeSystem(), nil)

	out, err := execute("ps", "note")

	require.NoError(t, err)
	assert.Contains(t, out, "notepad.exe")
	assert.NotContains(t, out, "System")
}

func TestThreads_ListsOwnedThreads(t *testing.T) {
	withSystem(t, fakeSystem(), nil)

	out, err := execute("threads", "812")

	require.NoError(t, err)
	assert.Contains(t, out, "30")
	assert.Contains(t, out, "31")
	assert.Contains(t, out, "2 THREADS")
}

func TestThreads_RejectsBadPID(t *testing.T) {
	sys := fakeSystem()
	withSystem(t, sys, nil)

	_, err := execute("threads", "-1")

	assert.Error(t, err)
	assert.Empty(t, sys.Calls())
}
