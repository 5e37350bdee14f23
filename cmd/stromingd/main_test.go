package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terraskye/stroming"
	"github.com/terraskye/stroming/internal/config"
)

func TestLoadConfigFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stromingd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http:\n  addr: 0.0.0.0:9000\nlog:\n  level: debug\n"), 0o600))

	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{
		"--config", path,
		"--resp",
		"--resp-addr", "127.0.0.1:7000",
		"--log-format", "json",
	}))

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.HTTP.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.RESP.Enabled)
	assert.Equal(t, "127.0.0.1:7000", cfg.RESP.Addr)
}

func TestLoadConfigRejectsInvalidFlags(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--log-format", "xml"}))

	_, err := loadConfig(cmd)
	assert.Error(t, err)
}

func quietLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

func writeAndRead(t *testing.T, store stroming.StreamStore) {
	t.Helper()
	ctx := context.Background()
	res, err := store.WriteToStream(ctx, "orders-1", stroming.NoStream{}, []stroming.MessageData{{MessageType: "Created", Data: []byte("{}")}})
	require.NoError(t, err)
	assert.Equal(t, stroming.WriteOk{Position: stroming.Position{}}, res)

	version, messages, err := store.ReadFromStream(ctx, "orders-1", stroming.Forwards)
	require.NoError(t, err)
	assert.Equal(t, stroming.Revision(0), version)
	assert.Len(t, messages, 1)
}

func TestBuildStoreWithoutTelemetry(t *testing.T) {
	store, err := buildStore(quietLogger(), nil)
	require.NoError(t, err)
	writeAndRead(t, store)
	require.NoError(t, store.Close())
}

func TestTelemetryExportsStoreOperations(t *testing.T) {
	var out bytes.Buffer
	tel, err := newTelemetry(config.Telemetry{Enabled: true, Interval: "1h"}, &out)
	require.NoError(t, err)

	store, err := buildStore(quietLogger(), tel)
	require.NoError(t, err)
	writeAndRead(t, store)
	require.NoError(t, store.Close())
	require.NoError(t, tel.Shutdown(context.Background()))

	exported := out.String()
	assert.Contains(t, exported, "StreamStore.WriteToStream")
	assert.Contains(t, exported, "StreamStore.ReadFromStream")
	assert.Contains(t, exported, "stroming.store.writes")
	assert.Contains(t, exported, "stroming.messages.appended")
	assert.Contains(t, exported, "stromingd")
}

func TestTelemetryRejectsBadInterval(t *testing.T) {
	_, err := newTelemetry(config.Telemetry{Enabled: true, Interval: "never"}, io.Discard)
	assert.Error(t, err)
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := config.Default()
	cfg.HTTP.Addr = "127.0.0.1:0"
	cfg.HTTP.Mode = "test"
	cfg.RESP.Enabled = true
	cfg.RESP.Addr = "127.0.0.1:0"
	cfg.Log.Level = "error"

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, run(ctx, cfg))
}
