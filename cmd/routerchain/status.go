package main

import (
	"fmt"

	"github.com/routerchain/routerchain/internal/app"
)

// runStatus prints a one-shot snapshot of the ledger, registry, and
// failure-tracker state to stdout.
func runStatus(pluginDir string) error {
	a, err := app.New(pluginDir)
	if err != nil {
		return err
	}
	defer a.Close()

	doc, err := a.Ledger.Load()
	if err != nil {
		return err
	}
	failDoc, err := a.Failures.Load()
	if err != nil {
		return err
	}

	fmt.Printf("mode:            %s\n", a.Cfg.Mode)
	fmt.Printf("date:            %s\n", doc.Date)
	fmt.Printf("active provider: %s\n", doc.ActiveProvider)
	fmt.Println()

	for _, p := range a.Registry.All() {
		spend := doc.Providers[p.ID]
		failures := failDoc.Providers[p.ID].ConsecutiveFailures

		budget := "unlimited"
		if !p.Free() && p.MaxDailyUsd > 0 {
			budget = fmt.Sprintf("$%.2f cap", p.MaxDailyUsd)
		}

		status := "enabled"
		if !p.Enabled {
			status = "disabled"
		}

		fmt.Printf("  %-16s %-9s spend=$%-8.4f %-14s failures=%d\n", p.ID, status, spend.SpentUsd, budget, failures)
	}

	active, err := a.Switcher.Active()
	if err != nil {
		return err
	}
	if active {
		fmt.Println()
		printInfo("local fallback currently active")
	}

	return nil
}
