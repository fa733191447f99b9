// Package app builds the full component graph once from a loaded Config,
// the way the teacher's cmd/agent.go builds a single gateway.New(cfg) —
// here split out so both the host plugin entrypoint and the standalone CLI
// construct it identically instead of duplicating the wiring twice.
package app

import (
	"path/filepath"

	"github.com/routerchain/routerchain/internal/config"
	"github.com/routerchain/routerchain/internal/configpatcher"
	"github.com/routerchain/routerchain/internal/dashboard"
	"github.com/routerchain/routerchain/internal/failuretracker"
	"github.com/routerchain/routerchain/internal/hostclient"
	"github.com/routerchain/routerchain/internal/ledger"
	"github.com/routerchain/routerchain/internal/registry"
	"github.com/routerchain/routerchain/internal/router"
	"github.com/routerchain/routerchain/internal/switcherstate"
	"github.com/routerchain/routerchain/internal/truncator"
)

// App holds every long-lived component, constructed once at process start.
type App struct {
	Cfg       *config.Config
	Registry  *registry.Registry
	Ledger    *ledger.Ledger
	Failures  *failuretracker.Tracker
	Patcher   *configpatcher.Patcher
	Switcher  *switcherstate.Switcher
	Truncator *truncator.Truncator
	Adapters  *router.Adapters
	Dashboard *dashboard.Handler

	// History is the sqlite audit trail mirror, or nil when cfg.HistoryDBPath
	// is empty.
	History *ledger.SqliteHistory
}

// Close releases any resources held open for the lifetime of the process
// (currently just the sqlite history handle, if one was opened).
func (a *App) Close() error {
	if a.History == nil {
		return nil
	}
	return a.History.Close()
}

// New loads config from pluginDir and wires every component against it.
func New(pluginDir string) (*App, error) {
	cfg, err := config.Load(pluginDir)
	if err != nil {
		return nil, err
	}

	reg, err := registry.Load(filepath.Join(cfg.DataDir, registry.FileName))
	if err != nil {
		return nil, err
	}

	var history *ledger.SqliteHistory
	if cfg.HistoryDBPath != "" {
		history, err = ledger.OpenSqliteHistory(cfg.HistoryDBPath)
		if err != nil {
			return nil, err
		}
	}

	ledgerFile := ledger.ChainFileName
	if cfg.Mode == config.ModeLegacy {
		ledgerFile = ledger.LegacyFileName
	}
	var historySink ledger.HistorySink
	if history != nil {
		historySink = history
	}
	l := ledger.New(filepath.Join(cfg.DataDir, ledgerFile), reg, historySink)
	failures := failuretracker.New(filepath.Join(cfg.DataDir, failuretracker.FileName))

	restarter := hostclient.Restarter{}
	patcher := configpatcher.New(cfg.HostConfigPath, cfg.RestartCommand, restarter)
	sw := switcherstate.New(filepath.Join(cfg.DataDir, switcherstate.FileName), patcher)
	tr := truncator.New(restarter, cfg.RestartCommand)

	adapters := router.New(cfg, l, reg, failures, patcher, sw, tr)
	var dashHistory dashboard.History
	if history != nil {
		dashHistory = history
	}
	dash := dashboard.New(l, reg, failures, dashHistory)

	return &App{
		Cfg:       cfg,
		Registry:  reg,
		Ledger:    l,
		Failures:  failures,
		Patcher:   patcher,
		Switcher:  sw,
		Truncator: tr,
		Adapters:  adapters,
		Dashboard: dash,
		History:   history,
	}, nil
}
