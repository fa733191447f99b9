package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, ModeLegacy, cfg.Mode)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, "http://localhost:11434", cfg.OllamaURL)
	assert.Equal(t, 3, cfg.FailureThreshold)
	assert.Equal(t, AutoRoutingAdvisory, cfg.AutoRouting)
	assert.True(t, cfg.ContextTruncationEnabled)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("USE_CHAIN_MODE", "true")
	t.Setenv("FAILURE_THRESHOLD", "5")
	t.Setenv("DAILY_BUDGET_USD", "25.5")
	t.Setenv("AUTO_MODEL_ROUTING", "off")
	t.Setenv("DISABLE_PROMPT_OPTIMIZATION", "true")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, ModeChain, cfg.Mode)
	assert.Equal(t, 5, cfg.FailureThreshold)
	assert.Equal(t, 25.5, cfg.DailyBudgetUsd)
	assert.Equal(t, AutoRoutingOff, cfg.AutoRouting)
	assert.True(t, cfg.OptimizationDisabled)
}

func TestLoad_DotEnvFileRead(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SESSION_KEY=from-dotenv\n"), 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.SessionKey)
}

func TestLoad_ShellEnvWinsOverDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SESSION_KEY=from-dotenv\n"), 0o600))
	t.Setenv("SESSION_KEY", "from-shell")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-shell", cfg.SessionKey)
}

func TestLoad_YAMLOverlayFillsUncoveredSettings(t *testing.T) {
	pluginDir := t.TempDir()
	dataDir := t.TempDir()
	t.Setenv("BUDGET_DATA_DIR", dataDir)
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "router-config.yaml"), []byte("restartCommand: custom restart\ndashboardAddr: 127.0.0.1:9999\n"), 0o600))

	cfg, err := Load(pluginDir)
	require.NoError(t, err)
	assert.Equal(t, "custom restart", cfg.RestartCommand)
	assert.Equal(t, "127.0.0.1:9999", cfg.DashboardAddr)
}

func TestLoad_EnvWinsOverYAMLOverlay(t *testing.T) {
	pluginDir := t.TempDir()
	dataDir := t.TempDir()
	t.Setenv("BUDGET_DATA_DIR", dataDir)
	t.Setenv("ROUTERCHAIN_RESTART_CMD", "env restart")
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "router-config.yaml"), []byte("restartCommand: yaml restart\n"), 0o600))

	cfg, err := Load(pluginDir)
	require.NoError(t, err)
	assert.Equal(t, "env restart", cfg.RestartCommand)
}

func TestLoad_HostConfigPathFallsBackToHomeDirWhenEnvUnset(t *testing.T) {
	dir := t.TempDir()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("HOST_CONFIG", "")
	os.Unsetenv("HOST_CONFIG")
	os.Unsetenv("OPENCLAW_CONFIG")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".claude", "claude.json"), cfg.HostConfigPath)
}

func TestLoad_HostConfigPathFallbackHonorsHostName(t *testing.T) {
	dir := t.TempDir()
	home := t.TempDir()
	t.Setenv("HOME", home)
	os.Unsetenv("HOST_CONFIG")
	os.Unsetenv("OPENCLAW_CONFIG")
	t.Setenv("HOST_NAME", "otherhost")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".otherhost", "otherhost.json"), cfg.HostConfigPath)
}

func TestLoad_HostConfigEnvVarWinsOverFallback(t *testing.T) {
	dir := t.TempDir()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("HOST_CONFIG", "/explicit/path.json")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "/explicit/path.json", cfg.HostConfigPath)
}

func TestValidate_RejectsNegativeBudget(t *testing.T) {
	cfg := defaults()
	cfg.DailyBudgetUsd = -1
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsZeroFailureThreshold(t *testing.T) {
	cfg := defaults()
	cfg.FailureThreshold = 0
	assert.Error(t, cfg.Validate())
}

func TestValidate_AcceptsDefaults(t *testing.T) {
	cfg := defaults()
	assert.NoError(t, cfg.Validate())
}
