// Package rhlog configures the process-wide zerolog logger used by every
// other package via github.com/rs/zerolog/log's global logger, matching
// the teacher's convention of a single logging setup call at process start
// (cmd/agent.go's setupLogging) rather than passing a *Logger everywhere.
package rhlog

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// LevelEnv is the environment variable controlling log verbosity.
const LevelEnv = "ROUTERCHAIN_LOG_LEVEL"

// Init configures the global zerolog logger. Output always goes to
// stderr — never stdout — so nothing this plugin logs is mistaken for
// data the host parses from stdout, mirroring cmd/agent.go's redirection
// of all gateway logging away from the terminal the host owns. When
// stderr is a terminal, output is pretty-printed console form; otherwise
// structured JSON, so log aggregators see machine-readable lines in
// production while a developer running `routerchain serve` locally gets
// readable output.
func Init() {
	level := parseLevel(os.Getenv(LevelEnv))
	zerolog.SetGlobalLevel(level)

	var writer = os.Stderr
	if term.IsTerminal(int(writer.Fd())) {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: writer, TimeFormat: "15:04:05"}).With().Timestamp().Logger()
		return
	}
	log.Logger = zerolog.New(writer).With().Timestamp().Logger()
}

func parseLevel(raw string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "":
		return zerolog.InfoLevel
	default:
		return zerolog.InfoLevel
	}
}
