package configpatcher

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRestarter struct {
	calls int
	err   error
}

func (f *fakeRestarter) Restart(ctx context.Context, command string) error {
	f.calls++
	return f.err
}

func TestSetActiveModel_CreatesConfigWhenMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "host.json")
	restarter := &fakeRestarter{}
	p := New(path, "host gateway restart", restarter)

	require.NoError(t, p.SetActiveModel(context.Background(), "claude-sonnet-4-5"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	agents := doc["agents"].(map[string]any)
	defaults := agents["defaults"].(map[string]any)
	model := defaults["model"].(map[string]any)
	assert.Equal(t, "claude-sonnet-4-5", model["primary"])

	models := defaults["models"].(map[string]any)
	assert.Contains(t, models, "claude-sonnet-4-5")

	assert.Equal(t, 1, restarter.calls)
	assert.Equal(t, byte('\n'), data[len(data)-1])
}

func TestSetActiveModel_PreservesUnknownSiblingKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "host.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"unrelated":{"keep":"me"},"agents":{"defaults":{"model":{"primary":"old"}}}}`), 0o600))

	p := New(path, "restart", &fakeRestarter{})
	require.NoError(t, p.SetActiveModel(context.Background(), "new-model"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "me", doc["unrelated"].(map[string]any)["keep"])
}

func TestSetActiveModel_DoesNotDuplicateExistingModelEntry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "host.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"agents":{"defaults":{"models":{"m1":{"alias":"keepme"}}}}}`), 0o600))

	p := New(path, "restart", &fakeRestarter{})
	require.NoError(t, p.SetActiveModel(context.Background(), "m1"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	models := doc["agents"].(map[string]any)["defaults"].(map[string]any)["models"].(map[string]any)
	m1 := models["m1"].(map[string]any)
	assert.Equal(t, "keepme", m1["alias"], "existing model entry must not be clobbered")
}

func TestSetActiveModel_RestartFailureStillLeavesConfigWritten(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "host.json")
	p := New(path, "restart", &fakeRestarter{err: errors.New("boom")})

	require.NoError(t, p.SetActiveModel(context.Background(), "m"))
	assert.FileExists(t, path)
}

func TestSetActiveModel_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "host.json")
	p := New(path, "restart", &fakeRestarter{})
	require.NoError(t, p.SetActiveModel(context.Background(), "m"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "host.json", entries[0].Name())
}

func TestInstallAliasDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "host.json")
	p := New(path, "restart", &fakeRestarter{})

	require.NoError(t, p.InstallAliasDefaults(context.Background(), "claude-opus-4-6", map[string]string{
		"claude-opus-4-6": "opus",
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	defaults := doc["agents"].(map[string]any)["defaults"].(map[string]any)
	assert.Equal(t, "claude-opus-4-6", defaults["model"].(map[string]any)["primary"])
	models := defaults["models"].(map[string]any)
	assert.Equal(t, "opus", models["claude-opus-4-6"].(map[string]any)["alias"])
}
