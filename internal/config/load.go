package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// yamlOverlay is the shape of the optional data/router-config.yaml file
// (SPEC_FULL.md §4.12) — only the settings not already covered by an
// environment variable in spec.md §6.
type yamlOverlay struct {
	RestartCommand string `yaml:"restartCommand"`
	DashboardAddr  string `yaml:"dashboardAddr"`
}

func defaults() Config {
	return Config{
		Mode:                     ModeLegacy,
		DataDir:                  "data",
		HostName:                 "claude",
		HostConfigPath:           "",
		OllamaURL:                "http://localhost:11434",
		DailyBudgetUsd:           10,
		FailureThreshold:         3,
		AutoRouting:              AutoRoutingAdvisory,
		OptimizationDisabled:     false,
		ContextTruncationEnabled: true,
		ContextMaxTokens:         120_000,
		ContextKeepRecent:        20,
		SessionKey:               "agent:main:main",
		RestartCommand:           "claude gateway restart",
		DashboardAddr:            "127.0.0.1:8737",
		LogLevel:                 "info",
	}
}

// Load builds a Config from, in increasing precedence: built-in defaults,
// a colocated .env file (pluginDir/.env, ignored if absent), the process
// environment, and an optional data/router-config.yaml overlay for the
// handful of settings env vars don't cover — env still wins over YAML for
// any overlapping key, per SPEC_FULL.md §4.12.
func Load(pluginDir string) (*Config, error) {
	envPath := filepath.Join(pluginDir, ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("path", envPath).Msg("config: failed to load .env, continuing without it")
	}

	cfg := defaults()
	applyEnv(&cfg)

	if v, ok := os.LookupEnv("HISTORY_DB_PATH"); ok {
		cfg.HistoryDBPath = v
	} else if disabled, ok := parseBoolEnv("HISTORY_DB_DISABLED"); !ok || !disabled {
		cfg.HistoryDBPath = filepath.Join(cfg.DataDir, "router-history.sqlite")
	}

	yamlPath := filepath.Join(cfg.DataDir, "router-config.yaml")
	if overlay, err := loadYAML(yamlPath); err != nil {
		return nil, err
	} else if overlay != nil {
		applyYAMLOverlay(&cfg, overlay)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv("USE_CHAIN_MODE"); ok {
		if b, err := strconv.ParseBool(v); err == nil && b {
			cfg.Mode = ModeChain
		}
	}
	if v, ok := os.LookupEnv("BUDGET_DATA_DIR"); ok && v != "" {
		cfg.DataDir = v
	}
	if v, ok := os.LookupEnv("HOST_NAME"); ok && v != "" {
		cfg.HostName = v
	}
	if v, ok := firstEnv("OPENCLAW_CONFIG", "HOST_CONFIG"); ok && v != "" {
		cfg.HostConfigPath = v
	} else {
		cfg.HostConfigPath = defaultHostConfigPath(cfg.HostName)
	}
	if v, ok := os.LookupEnv("OLLAMA_URL"); ok && v != "" {
		cfg.OllamaURL = v
	}
	if v, ok := parseFloatEnv("DAILY_BUDGET_USD"); ok {
		cfg.DailyBudgetUsd = v
	}
	if v, ok := parseIntEnv("FAILURE_THRESHOLD"); ok {
		cfg.FailureThreshold = v
	}
	if v, ok := os.LookupEnv("AUTO_MODEL_ROUTING"); ok {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "off":
			cfg.AutoRouting = AutoRoutingOff
		case "advisory":
			cfg.AutoRouting = AutoRoutingAdvisory
		}
	}
	if v, ok := parseBoolEnv("DISABLE_PROMPT_OPTIMIZATION"); ok {
		cfg.OptimizationDisabled = v
	}
	if v, ok := parseBoolEnv("CONTEXT_TRUNCATION_ENABLED"); ok {
		cfg.ContextTruncationEnabled = v
	}
	if v, ok := parseIntEnv("CONTEXT_MAX_TOKENS"); ok {
		cfg.ContextMaxTokens = v
	}
	if v, ok := parseIntEnv("CONTEXT_KEEP_RECENT"); ok {
		cfg.ContextKeepRecent = v
	}
	if v, ok := os.LookupEnv("SESSION_KEY"); ok && v != "" {
		cfg.SessionKey = v
	}
	cfg.RestartCommand = cfg.HostName + " gateway restart"
	if v, ok := os.LookupEnv("ROUTERCHAIN_RESTART_CMD"); ok && v != "" {
		cfg.RestartCommand = v
	}
	if v, ok := os.LookupEnv("ROUTERCHAIN_LOG_LEVEL"); ok && v != "" {
		cfg.LogLevel = v
	}
}

// defaultHostConfigPath mirrors spec.md §6's documented fallback of
// ~/.<host>/<host>.json for when neither HOST_CONFIG nor OPENCLAW_CONFIG is
// set, the same way the teacher locates its own home-directory config at
// ~/.claude/settings.json (cmd/onboarding.go). Returns "" if the home
// directory can't be resolved; Validate does not reject that, and the
// config patcher's write to the empty path then fails rather than
// silently picking a relative one.
func defaultHostConfigPath(hostName string) string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Warn().Err(err).Msg("config: failed to resolve home directory for host config fallback")
		return ""
	}
	return filepath.Join(homeDir, "."+hostName, hostName+".json")
}

func firstEnv(names ...string) (string, bool) {
	for _, name := range names {
		if v, ok := os.LookupEnv(name); ok {
			return v, true
		}
	}
	return "", false
}

func parseFloatEnv(name string) (float64, bool) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Warn().Str("var", name).Str("value", v).Msg("config: ignoring invalid float env var")
		return 0, false
	}
	return f, true
}

func parseIntEnv(name string) (int, bool) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("var", name).Str("value", v).Msg("config: ignoring invalid int env var")
		return 0, false
	}
	return n, true
}

func parseBoolEnv(name string) (bool, bool) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warn().Str("var", name).Str("value", v).Msg("config: ignoring invalid bool env var")
		return false, false
	}
	return b, true
}

func loadYAML(path string) (*yamlOverlay, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is operator-configured data dir
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var overlay yamlOverlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &overlay, nil
}

// applyYAMLOverlay sets restartCommand only when ROUTERCHAIN_RESTART_CMD is
// not set, so the env var always wins over the YAML file for that key.
// dashboardAddr has no env var and is applied whenever it is non-empty.
func applyYAMLOverlay(cfg *Config, overlay *yamlOverlay) {
	if _, ok := os.LookupEnv("ROUTERCHAIN_RESTART_CMD"); !ok && overlay.RestartCommand != "" {
		cfg.RestartCommand = overlay.RestartCommand
	}
	if overlay.DashboardAddr != "" {
		cfg.DashboardAddr = overlay.DashboardAddr
	}
}

// Validate mirrors costcontrol.CostControlConfig.Validate's style: reject
// out-of-range values with a wrapped, field-named error.
func (c *Config) Validate() error {
	if c.DailyBudgetUsd < 0 {
		return fmt.Errorf("config: DAILY_BUDGET_USD must be >= 0, got %f", c.DailyBudgetUsd)
	}
	if c.FailureThreshold <= 0 {
		return fmt.Errorf("config: FAILURE_THRESHOLD must be > 0, got %d", c.FailureThreshold)
	}
	if c.ContextMaxTokens <= 0 {
		return fmt.Errorf("config: CONTEXT_MAX_TOKENS must be > 0, got %d", c.ContextMaxTokens)
	}
	if c.ContextKeepRecent < 0 {
		return fmt.Errorf("config: CONTEXT_KEEP_RECENT must be >= 0, got %d", c.ContextKeepRecent)
	}
	if c.Mode != ModeChain && c.Mode != ModeLegacy {
		return fmt.Errorf("config: invalid mode %q", c.Mode)
	}
	return nil
}
