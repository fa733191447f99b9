package switcherstate

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/routerchain/routerchain/internal/configpatcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopRestarter struct{ calls int }

func (r *noopRestarter) Restart(ctx context.Context, command string) error {
	r.calls++
	return nil
}

func TestSwitchToLocal_RecordsOriginalModelBeforeOverwrite(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "host.json")
	require.NoError(t, os.WriteFile(configPath, []byte(`{"agents":{"defaults":{"model":{"primary":"claude-sonnet-4-5"}}}}`), 0o600))

	patcher := configpatcher.New(configPath, "restart", &noopRestarter{})
	sw := New(filepath.Join(dir, FileName), patcher)

	require.NoError(t, sw.SwitchToLocal(context.Background(), "qwen3:8b"))

	doc, err := sw.Load()
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, ModeLocal, doc.Mode)
	assert.Equal(t, "claude-sonnet-4-5", doc.OriginalModel)
	assert.Equal(t, "qwen3:8b", doc.SwitchedModelID)

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))
	primary := parsed["agents"].(map[string]any)["defaults"].(map[string]any)["model"].(map[string]any)["primary"]
	assert.Equal(t, "qwen3:8b", primary)
}

func TestReconcile_NoStateIsNoop(t *testing.T) {
	dir := t.TempDir()
	patcher := configpatcher.New(filepath.Join(dir, "host.json"), "restart", &noopRestarter{})
	sw := New(filepath.Join(dir, FileName), patcher)

	restored, err := sw.Reconcile(context.Background(), true)
	require.NoError(t, err)
	assert.False(t, restored)
}

func TestReconcile_StaysLocalWhenBudgetNotHealthy(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "host.json")
	patcher := configpatcher.New(configPath, "restart", &noopRestarter{})
	sw := New(filepath.Join(dir, FileName), patcher)

	require.NoError(t, sw.SwitchToLocal(context.Background(), "qwen3:8b"))

	restored, err := sw.Reconcile(context.Background(), false)
	require.NoError(t, err)
	assert.False(t, restored)

	doc, err := sw.Load()
	require.NoError(t, err)
	require.NotNil(t, doc, "state must still exist so we don't restart-loop")
	assert.Equal(t, ModeLocal, doc.Mode)
}

func TestReconcile_RestoresAndDeletesStateWhenHealthy(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "host.json")
	require.NoError(t, os.WriteFile(configPath, []byte(`{"agents":{"defaults":{"model":{"primary":"claude-sonnet-4-5"}}}}`), 0o600))
	patcher := configpatcher.New(configPath, "restart", &noopRestarter{})
	sw := New(filepath.Join(dir, FileName), patcher)

	require.NoError(t, sw.SwitchToLocal(context.Background(), "qwen3:8b"))

	restored, err := sw.Reconcile(context.Background(), true)
	require.NoError(t, err)
	assert.True(t, restored)

	doc, err := sw.Load()
	require.NoError(t, err)
	assert.Nil(t, doc, "state file must be deleted, not reset, on restore")

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))
	primary := parsed["agents"].(map[string]any)["defaults"].(map[string]any)["model"].(map[string]any)["primary"]
	assert.Equal(t, "claude-sonnet-4-5", primary)
}

func TestActive(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "host.json")
	patcher := configpatcher.New(configPath, "restart", &noopRestarter{})
	sw := New(filepath.Join(dir, FileName), patcher)

	active, err := sw.Active()
	require.NoError(t, err)
	assert.False(t, active)

	require.NoError(t, sw.SwitchToLocal(context.Background(), "qwen3:8b"))
	active, err = sw.Active()
	require.NoError(t, err)
	assert.True(t, active)
}
