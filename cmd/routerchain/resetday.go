package main

import "github.com/routerchain/routerchain/internal/app"

// runResetDay forces the ledger and failure tracker to roll over today's
// counters, for recovering from a stuck exhausted state without waiting
// for the UTC day boundary.
func runResetDay(pluginDir string) error {
	a, err := app.New(pluginDir)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Ledger.ForceReset(); err != nil {
		return err
	}
	if err := a.Failures.ForceReset(); err != nil {
		return err
	}

	printSuccess("ledger and failure counters reset for today")
	return nil
}
