package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReloadsOnChange(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "dspike.yaml")
	require.NoError(t, DefaultConfig().Save(path))

	w, err := NewWatcher(path)
	require.NoError(t, err)
	defer w.Close()
	w.debounce = 20 * time.Millisecond

	changes := make(chan *Config, 4)
	errs := make(chan error, 4)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx,
			func(c *Config) { changes <- c },
			func(err error) { errs <- err },
		)
	}()

	updated := DefaultConfig()
	updated.Solver.Tolerance = 1e-8
	require.NoError(t, updated.Save(path))

	select {
	case c := <-changes:
		assert.Equal(t, 1e-8, c.Solver.Tolerance)
	case err := <-errs:
		t.Fatalf("unexpected reload error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	require.NoError(t, os.WriteFile(path, []byte("solver: [broken"), 0644))
	select {
	case err := <-errs:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload error")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "dspike.yaml")
	require.NoError(t, DefaultConfig().Save(path))

	w, err := NewWatcher(path)
	require.NoError(t, err)
	defer w.Close()
	w.debounce = 10 * time.Millisecond
	assert.Equal(t, path, w.Path())

	changes := make(chan *Config, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	err = w.Watch(ctx, func(c *Config) { changes <- c }, func(error) {})
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestNewWatcher_MissingDirectory(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "absent", "dspike.yaml"))
	assert.Error(t, err)
}
