package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "apcqueue.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.True(t, cfg.TriggerAlert)
	assert.Equal(t, ReportTable, cfg.Report)
}

func TestLoad_OverridesOnlyGivenKeys(t *testing.T) {
	path := writeConfig(t, "verify_write: true\npreview_bytes: 0\n")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.True(t, cfg.VerifyWrite)
	assert.Equal(t, 0, cfg.PreviewBytes)
	assert.True(t, cfg.TriggerAlert)
	assert.Equal(t, ReportTable, cfg.Report)
}

func TestLoad_DisableAlert(t *testing.T) {
	path := writeConfig(t, "trigger_alert: false\nreport: none\n")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.False(t, cfg.TriggerAlert)
	assert.Equal(t, ReportNone, cfg.Report)
}

func TestLoad_RejectsUnknownReport(t *testing.T) {
	path := writeConfig(t, "report: json\n")

	_, err := Load(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown report mode")
}

func TestLoad_RejectsNegativePreview(t *testing.T) {
	path := writeConfig(t, "preview_bytes: -1\n")

	_, err := Load(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "preview_bytes")
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeConfig(t, "report: [table\n")

	_, err := Load(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config")
}
