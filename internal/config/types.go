// Package config loads and validates this plugin's configuration: layered
// defaults, a colocated .env file, shell environment (which always wins),
// and an optional YAML file for settings better expressed as structured
// config, mirroring the teacher's internal/config layering.
package config

// RoutingMode selects between chain mode (multi-provider failover) and
// legacy single-budget mode, per spec.md §6 USE_CHAIN_MODE.
type RoutingMode string

const (
	ModeChain  RoutingMode = "chain"
	ModeLegacy RoutingMode = "legacy"
)

// AutoRouting is the value of AUTO_MODEL_ROUTING, per spec.md §6.
type AutoRouting string

const (
	AutoRoutingOff      AutoRouting = "off"
	AutoRoutingAdvisory AutoRouting = "advisory"
)

// Config is the fully-resolved configuration consumed by every other
// package. Every field maps to one of spec.md §6's environment variables
// or this expansion's data/router-config.yaml overlay (SPEC_FULL.md §4.12).
type Config struct {
	Mode RoutingMode

	DataDir string
	// HostName identifies the host runtime for the ~/.<host>/<host>.json
	// config-path fallback used when HostConfigPath isn't set by an env var.
	HostName       string
	HostConfigPath string
	OllamaURL      string

	// HistoryDBPath is the sqlite audit trail every recorded transaction is
	// mirrored into, independent of the day-scoped JSON ledger document.
	// Empty disables the sink entirely.
	HistoryDBPath string

	DailyBudgetUsd float64

	FailureThreshold     int
	AutoRouting          AutoRouting
	OptimizationDisabled bool

	ContextTruncationEnabled bool
	ContextMaxTokens         int
	ContextKeepRecent        int

	SessionKey string

	// RestartCommand is the shell command used to restart the host,
	// overridable via data/router-config.yaml (SPEC_FULL.md §4.12).
	RestartCommand string
	// DashboardAddr is the loopback bind address for internal/dashboard.
	DashboardAddr string

	LogLevel string
}
