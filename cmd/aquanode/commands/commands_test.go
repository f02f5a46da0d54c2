package commands

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/itohio/aquanode/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidate_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")

	out, err := execute(t, "validate", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "warning: network.ssid")
	assert.Contains(t, out, "configuration ok")
}

func TestValidate_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
pins:
  ph: A0
  turbidity: A0
retry:
  max_send_attempts: -1
`), 0600))

	out, err := execute(t, "validate", "-c", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 configuration errors")
	assert.Contains(t, out, "error:")
}

func TestValidate_Unreadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timing: [not, a, map"), 0600))

	_, err := execute(t, "validate", "--config", path)
	assert.Error(t, err)
}

func TestDefaults(t *testing.T) {
	out, err := execute(t, "defaults")
	require.NoError(t, err)
	assert.Contains(t, out, "ESP32_CANAL_MESIAS_001")
	assert.Contains(t, out, "ph: A0")

	path := filepath.Join(t.TempDir(), "config.yaml")
	_, err = execute(t, "defaults", "--out", path)
	require.NoError(t, err)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "dev (none)")
}

func TestRun_Mock(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer backend.Close()

	cfg := config.Default()
	cfg.Network.Endpoint = backend.URL + "/api/sensor/data"
	cfg.Status.Addr = "127.0.0.1:0"
	cfg.Mock.SampleRate = 10 * time.Millisecond
	require.NoError(t, cfg.Validate())

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	assert.NoError(t, run(ctx, cfg, true, zap.NewNop()))
}

func TestNewLogger(t *testing.T) {
	var out bytes.Buffer
	logger := newLogger(&out, false)
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	logger.Debug("hidden")
	logger.Info("report sent", zap.Int("samples", 12))
	require.NoError(t, logger.Sync())

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), `"msg":"report sent"`)
	assert.Contains(t, out.String(), `"samples":12`)
	assert.Contains(t, out.String(), `"version":"dev"`)
}

func TestNewLogger_Debug(t *testing.T) {
	var out bytes.Buffer
	logger := newLogger(&out, true)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
	logger.Debug("reading", zap.Float64("ph", 7.1))
	require.NoError(t, logger.Sync())

	line := out.String()
	assert.Contains(t, line, "DEBUG\treading\t")
	assert.Contains(t, line, `"ph": 7.1`)
	assert.NotContains(t, line, `"msg":`)
}
