package remote

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apcqueue/process"
	"apcqueue/process/processtest"
)

func TestHandle_ReleaseOnce(t *testing.T) {
	sys := &processtest.System{Processes: []process.ProcessEntry{{PID: 10, Name: "a.exe"}}}
	raw, err := sys.OpenProcess(10)
	require.NoError(t, err)

	h := newHandle(sys, raw)
	assert.Equal(t, raw, h.Value())

	require.NoError(t, h.Release())
	require.NoError(t, h.Release())
	require.NoError(t, h.Release())

	assert.True(t, h.Released())
	assert.Zero(t, h.Value())
	assert.Equal(t, 1, sys.CloseCount(raw))
}
