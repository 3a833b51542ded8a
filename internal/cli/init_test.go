package cli

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("FINTRACK_TEST_VALUE=hello\n"), 0o600))
	t.Setenv("FINTRACK_TEST_VALUE", "")
	require.NoError(t, os.Unsetenv("FINTRACK_TEST_VALUE"))

	require.NoError(t, LoadEnvFile(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "hello", os.Getenv("FINTRACK_TEST_VALUE"))
}

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("PORT", "9090")
	cfg, err := LoadAndValidateConfig()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)

	t.Setenv("PORT", "not-a-port")
	_, err = LoadAndValidateConfig()
	assert.Error(t, err)
}

func TestSetupLogger(t *testing.T) {
	logger := SetupLogger("debug", "test")
	assert.Equal(t, "test", logger.Component())
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
}

func TestSignalContextFollowsParent(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	ctx, stop := SignalContext(parent, SetupLogger("error", "test"))
	defer stop()

	cancel()
	<-ctx.Done()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
