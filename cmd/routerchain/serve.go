package main

import (
	"net/http"

	"github.com/routerchain/routerchain/internal/app"
)

// runServe starts the loopback-only status dashboard and blocks.
func runServe(pluginDir string) error {
	a, err := app.New(pluginDir)
	if err != nil {
		return err
	}
	defer a.Close()

	printSuccess("Status dashboard: http://" + a.Cfg.DashboardAddr + "/")
	return http.ListenAndServe(a.Cfg.DashboardAddr, a.Dashboard) // #nosec G114 -- loopback-only dashboard, no external exposure intended
}
