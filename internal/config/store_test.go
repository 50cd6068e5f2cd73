package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestStoreReplaceNotifiesObservers(t *testing.T) {
	s := NewStore(nil)
	first := s.Current()

	var calls []string
	unsubscribe := s.Subscribe(func(old, next *ToolConfig) {
		assert.Same(t, first, old)
		calls = append(calls, "a")
	})
	s.Subscribe(func(old, next *ToolConfig) {
		calls = append(calls, "b")
	})

	next := first.Clone()
	next.Enabled = false
	s.Replace(next)

	assert.Equal(t, []string{"a", "b"}, calls)
	assert.Same(t, next, s.Current())
	assert.True(t, first.Enabled, "old snapshot must not change")

	unsubscribe()
	s.Replace(NewConfig())
	assert.Equal(t, []string{"a", "b", "b"}, calls)
}

func TestStoreReplaceNilIgnored(t *testing.T) {
	s := NewStore(nil)
	before := s.Current()
	s.Replace(nil)
	assert.Same(t, before, s.Current())
}

func TestSetEnabledRewritesFlag(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "# keep me\nenabled = true\nrulesets = naming\n")

	require.NoError(t, SetEnabled(path, false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# keep me")
	assert.Contains(t, string(data), "enabled = false")
	assert.Equal(t, 1, strings.Count(string(data), "enabled ="))

	c, err := LoadConfigFromFile(path)
	require.NoError(t, err)
	assert.False(t, c.Enabled)
	assert.Equal(t, []string{"naming"}, c.Rulesets)
}

func TestSetEnabledCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".phpmdlens.rc")

	require.NoError(t, SetEnabled(path, false))

	c, err := LoadConfigFromFile(path)
	require.NoError(t, err)
	assert.False(t, c.Enabled)
}

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "enabled = true\n")

	initial, err := LoadConfig(dir)
	require.NoError(t, err)
	store := NewStore(initial)

	changed := make(chan *ToolConfig, 4)
	store.Subscribe(func(old, next *ToolConfig) { changed <- next })

	w, err := NewWatcher(dir, store, nil)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, SetEnabled(path, false))

	select {
	case next := <-changed:
		assert.False(t, next.Enabled)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
	assert.False(t, store.Current().Enabled)
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(nil)
	before := store.Current()

	w, err := NewWatcher(dir, store, nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.php"), []byte("<?php"), 0644))
	time.Sleep(3 * DefaultReloadDelay)

	require.NoError(t, w.Close())
	assert.Same(t, before, store.Current())
}
