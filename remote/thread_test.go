package remote

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apcqueue/process"
	"apcqueue/process/processtest"
)

func TestThread_QueueRequiresHandle(t *testing.T) {
	sys := &processtest.System{}
	th := newThread(Env{System: sys}, process.ThreadEntry{TID: 7, OwnerPID: 812})

	err := th.QueueDeferredCall(0x200000)

	assert.ErrorIs(t, err, process.ErrQueueFailed)
	assert.ErrorIs(t, err, process.ErrThreadNotOpen)
	assert.Equal(t, 0, sys.CallCount("QueueDeferredCall"))
}

func TestThread_QueueRejectsNullAddress(t *testing.T) {
	sys := &processtest.System{}
	th := newThread(Env{System: sys}, process.ThreadEntry{TID: 7, OwnerPID: 812})
	require.NoError(t, th.CreateHandle())
	defer th.Close()

	err := th.QueueDeferredCall(0)

	assert.ErrorIs(t, err, process.ErrNotAllocated)
	assert.Equal(t, 0, sys.CallCount("QueueDeferredCall"))
}

func TestThread_QueueTriggersAlert(t *testing.T) {
	sys := &processtest.System{}
	alert := &processtest.Alert{}
	th := newThread(Env{System: sys, Alert: alert}, process.ThreadEntry{TID: 7, OwnerPID: 812})
	require.NoError(t, th.CreateHandle())
	defer th.Close()

	require.NoError(t, th.QueueDeferredCall(0x200000))

	assert.Equal(t, []process.ThreadID{7}, sys.Queued())
	assert.Equal(t, 1, alert.Calls)
}

func TestThread_AlertFailureIsIgnored(t *testing.T) {
	sys := &processtest.System{}
	alert := &processtest.Alert{Err: errors.New("ntdll export missing")}
	th := newThread(Env{System: sys, Alert: alert}, process.ThreadEntry{TID: 7, OwnerPID: 812})
	require.NoError(t, th.CreateHandle())
	defer th.Close()

	assert.NoError(t, th.QueueDeferredCall(0x200000))
	assert.Equal(t, 1, alert.Calls)
}

func TestThread_QueueFailureSkipsAlert(t *testing.T) {
	queueErr := errors.New("thread is terminating")
	sys := &processtest.System{QueueErr: map[process.ThreadID]error{7: queueErr}}
	alert := &processtest.Alert{}
	th := newThread(Env{System: sys, Alert: alert}, process.ThreadEntry{TID: 7, OwnerPID: 812})
	require.NoError(t, th.CreateHandle())
	defer th.Close()

	err := th.QueueDeferredCall(0x200000)

	assert.ErrorIs(t, err, process.ErrQueueFailed)
	assert.ErrorIs(t, err, queueErr)
	assert.Zero(t, alert.Calls)
}

func TestThread_OpenDenied(t *testing.T) {
	sys := &processtest.System{DenyThread: map[process.ThreadID]bool{7: true}}
	th := newThread(Env{System: sys}, process.ThreadEntry{TID: 7, OwnerPID: 812})

	err := th.CreateHandle()

	assert.ErrorIs(t, err, process.ErrHandleCreationFailed)
	assert.False(t, th.IsOpen())
	assert.NoError(t, th.Close())
}

func TestThread_CloseTwice(t *testing.T) {
	sys := &processtest.System{}
	th := newThread(Env{System: sys}, process.ThreadEntry{TID: 7, OwnerPID: 812})
	require.NoError(t, th.CreateHandle())

	require.NoError(t, th.Close())
	require.NoError(t, th.Close())

	assert.Equal(t, 1, sys.CallCount("CloseHandle"))
}
