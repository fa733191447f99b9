// Package routerchain is the host plugin entrypoint: Register(api) builds
// the full component graph once, then subscribes the pre-turn and
// post-turn adapters to the host's hook dispatcher (spec.md §6). Everything
// else in this repo is reachable only from this file or from
// cmd/routerchain, which wires the same graph for standalone inspection.
package routerchain

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/routerchain/routerchain/internal/app"
	"github.com/routerchain/routerchain/internal/rhlog"
	"github.com/routerchain/routerchain/internal/router"
	"github.com/rs/zerolog/log"
)

// Logger is the minimal logging surface the host exposes (spec.md §6).
type Logger interface {
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
	Debug(msg string, fields map[string]any)
}

// HookFunc is the handler shape the host invokes for a subscribed hook.
// event carries the hook's JSON-shaped payload (spec.md §6); the returned
// value is JSON-marshalled back to the host verbatim.
type HookFunc func(ctx context.Context, event map[string]any) (map[string]any, error)

// HostAPI is the typed shape of spec.md §6's register(api) contract: a
// logger, a reference to the host's merged config, and a hook subscription
// method.
type HostAPI interface {
	Logger() Logger
	Config() map[string]any
	On(hook string, handler HookFunc)
}

// Register is the plugin's single entry point, called once by the host at
// load. It builds the component graph rooted at pluginDir (the directory
// this plugin was loaded from, used to locate the colocated .env and the
// data directory) and wires the two hooks.
func Register(api HostAPI, pluginDir string) error {
	rhlog.Init()

	a, err := app.New(pluginDir)
	if err != nil {
		if l := api.Logger(); l != nil {
			l.Error("routerchain: failed to initialize, plugin will not route", map[string]any{"error": err.Error()})
		}
		return err
	}

	api.On("before_agent_start", func(ctx context.Context, event map[string]any) (map[string]any, error) {
		result := onPreTurn(ctx, a, event)
		return map[string]any{"prependContext": result.PrependContext}, nil
	})

	api.On("agent_end", func(ctx context.Context, event map[string]any) (map[string]any, error) {
		onPostTurn(ctx, a, event)
		return nil, nil
	})

	log.Info().Str("mode", string(a.Cfg.Mode)).Str("dataDir", a.Cfg.DataDir).Msg("routerchain: registered")
	return nil
}

func onPreTurn(ctx context.Context, a *app.App, event map[string]any) router.PreTurnResult {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("routerchain: before_agent_start handler panicked")
		}
	}()

	return a.Adapters.OnPreTurn(ctx, router.PreTurnEvent{
		Prompt:   stringField(event, "prompt"),
		Messages: marshalField(event, "messages"),
	})
}

func onPostTurn(ctx context.Context, a *app.App, event map[string]any) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("routerchain: agent_end handler panicked")
		}
	}()

	a.Adapters.OnPostTurn(ctx, router.PostTurnEvent{
		Prompt:         stringField(event, "prompt"),
		Messages:       marshalField(event, "messages"),
		Model:          stringField(event, "model"),
		HadError:       boolField(event, "error"),
		SessionLogPath: sessionLogPath(a, event),
	})
}

// sessionLogPath resolves the append-only session log this turn belongs
// to. The host does not name the file directly in the hook payload; it is
// derived from the sessionKey the event itself carries when present, so
// multi-session hosts route each session's log independently, and from
// SESSION_KEY (spec.md §6) otherwise.
func sessionLogPath(a *app.App, event map[string]any) string {
	key := stringField(event, "sessionKey")
	if key == "" {
		key = a.Cfg.SessionKey
	}
	safe := strings.NewReplacer(":", "-", "/", "-").Replace(key)
	return filepath.Join(a.Cfg.DataDir, "sessions", safe+".jsonl")
}

func stringField(event map[string]any, key string) string {
	v, _ := event[key].(string)
	return v
}

func boolField(event map[string]any, key string) bool {
	v, _ := event[key].(bool)
	return v
}

func marshalField(event map[string]any, key string) []byte {
	v, ok := event[key]
	if !ok || v == nil {
		return []byte("[]")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("[]")
	}
	return data
}
