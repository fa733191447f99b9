// Command routerchain is the standalone operator CLI for the router
// plugin's on-disk state: start the status dashboard, print a one-shot
// status snapshot, or force a day rollover. The host loads the same
// component graph in-process via plugin.go; this binary is for operators
// who want to inspect or nudge that state without restarting the host.
package main

import (
	"fmt"
	"os"

	"github.com/routerchain/routerchain/internal/rhlog"
)

func main() {
	rhlog.Init()

	if len(os.Args) < 2 {
		printHelp()
		os.Exit(1)
	}

	pluginDir := "."
	cmd := os.Args[1]
	args := os.Args[2:]

	i := 0
	for i < len(args) {
		switch args[i] {
		case "-h", "--help":
			printHelp()
			return
		case "-d", "--dir":
			if i+1 < len(args) {
				pluginDir = args[i+1]
				i += 2
			} else {
				fmt.Fprintln(os.Stderr, "Error: --dir requires a value")
				os.Exit(1)
			}
		default:
			fmt.Fprintf(os.Stderr, "Error: unknown option: %s\n", args[i])
			os.Exit(1)
		}
	}

	var err error
	switch cmd {
	case "serve":
		err = runServe(pluginDir)
	case "status":
		err = runStatus(pluginDir)
	case "reset-day":
		err = runResetDay(pluginDir)
	case "-h", "--help":
		printHelp()
		return
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command: %s\n", cmd)
		printHelp()
		os.Exit(1)
	}

	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println("routerchain - budget-and-failure-aware model router")
	fmt.Println()
	fmt.Println("Usage: routerchain <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve       start the read-only status dashboard")
	fmt.Println("  status      print a one-shot status snapshot")
	fmt.Println("  reset-day   force today's ledger and failure counters to reset")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -d, --dir <path>   plugin working directory (default: .)")
	fmt.Println("  -h, --help         show this help")
}
