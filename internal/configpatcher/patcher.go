// Package configpatcher mutates the host's on-disk configuration file and
// triggers a host restart, per spec.md §4.8. It is the only component
// permitted to write that file (spec.md §3 ownership rule).
//
// DESIGN: grounded directly on the teacher's cmd/onboarding.go
// updateClaudeSettings — read-existing-or-default JSON map, ensure a
// nested key exists, preserve unknown sibling keys, write back — adapted
// from hook-entry patching to the two specific paths this spec names:
// agents.defaults.model.primary and agents.defaults.models[<id>].
package configpatcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// RestartTimeout bounds the fire-and-forget host restart call (spec.md §5/§6).
const RestartTimeout = 15 * time.Second

const (
	primaryModelPath = "agents.defaults.model.primary"
	modelsMapPath    = "agents.defaults.models"
)

// Restarter runs the host restart command. Implemented by
// internal/hostclient in production; faked in tests.
type Restarter interface {
	Restart(ctx context.Context, command string) error
}

// Patcher writes the host config file and triggers a restart after every
// successful write.
type Patcher struct {
	ConfigPath string
	RestartCmd string
	restarter  Restarter
}

// New creates a Patcher for the host config at configPath, using restarter
// to trigger the host restart command restartCmd after each write.
func New(configPath, restartCmd string, restarter Restarter) *Patcher {
	return &Patcher{ConfigPath: configPath, RestartCmd: restartCmd, restarter: restarter}
}

// SetActiveModel sets agents.defaults.model.primary to modelID, ensures an
// entry exists at agents.defaults.models[modelID], writes the file
// atomically, and fires the host restart. Never removes existing
// top-level keys; always leaves a trailing newline (spec.md §4.8).
func (p *Patcher) SetActiveModel(ctx context.Context, modelID string) error {
	raw, err := p.readOrDefault()
	if err != nil {
		return fmt.Errorf("configpatcher: read host config: %w", err)
	}

	updated, err := sjson.SetBytes(raw, primaryModelPath, modelID)
	if err != nil {
		return fmt.Errorf("configpatcher: set primary model: %w", err)
	}

	modelsKey := modelsMapPath + "." + gjsonEscape(modelID)
	if !gjson.GetBytes(updated, modelsKey).Exists() {
		updated, err = sjson.SetBytes(updated, modelsKey, map[string]any{})
		if err != nil {
			return fmt.Errorf("configpatcher: ensure model entry: %w", err)
		}
	}

	if err := p.writeAtomic(updated); err != nil {
		return err
	}

	restartCtx, cancel := context.WithTimeout(ctx, RestartTimeout)
	defer cancel()
	if err := p.restarter.Restart(restartCtx, p.RestartCmd); err != nil {
		// Restart is fire-and-forget per spec.md §4.8/§7.4: the
		// already-written config takes effect on the host's own next
		// self-restart even if this invocation failed or timed out.
		log.Warn().Err(err).Msg("configpatcher: host restart command failed, config already written")
	}
	return nil
}

// InstallAliasDefaults is run on first plugin load: it sets the default
// model to the premium-tier model of the first provider and installs a
// model-alias table, per spec.md §4.8 "On first run it may additionally
// install a model-alias table...".
func (p *Patcher) InstallAliasDefaults(ctx context.Context, premiumModelID string, aliases map[string]string) error {
	raw, err := p.readOrDefault()
	if err != nil {
		return fmt.Errorf("configpatcher: read host config: %w", err)
	}

	updated, err := sjson.SetBytes(raw, primaryModelPath, premiumModelID)
	if err != nil {
		return fmt.Errorf("configpatcher: set default primary model: %w", err)
	}

	for modelID, alias := range aliases {
		key := modelsMapPath + "." + gjsonEscape(modelID) + ".alias"
		updated, err = sjson.SetBytes(updated, key, alias)
		if err != nil {
			return fmt.Errorf("configpatcher: install alias for %s: %w", modelID, err)
		}
	}

	return p.writeAtomic(updated)
}

// CurrentPrimaryModel returns the model id currently set at
// agents.defaults.model.primary, or "" if the config file is absent or
// the key is unset. Used by internal/switcherstate to capture the model
// to restore before overwriting it with a local fallback (spec.md §4.9:
// "record originalModel from current host config before writing the
// new one").
func (p *Patcher) CurrentPrimaryModel() (string, error) {
	raw, err := p.readOrDefault()
	if err != nil {
		return "", fmt.Errorf("configpatcher: read host config: %w", err)
	}
	return gjson.GetBytes(raw, primaryModelPath).String(), nil
}

func (p *Patcher) readOrDefault() ([]byte, error) {
	data, err := os.ReadFile(p.ConfigPath) // #nosec G304 -- path is operator-configured host config
	if err != nil {
		if os.IsNotExist(err) {
			return []byte("{}"), nil
		}
		return nil, err
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("configpatcher: %s is not valid JSON", p.ConfigPath)
	}
	return data, nil
}

func (p *Patcher) writeAtomic(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(p.ConfigPath), 0o750); err != nil {
		return fmt.Errorf("configpatcher: mkdir: %w", err)
	}
	if len(data) == 0 || data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}

	tmp := fmt.Sprintf("%s.tmp.%d", p.ConfigPath, os.Getpid())
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("configpatcher: write temp file: %w", err)
	}
	if err := os.Rename(tmp, p.ConfigPath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("configpatcher: rename into place: %w", err)
	}
	return nil
}

// gjsonEscape escapes dots in a model id so it is treated as a single
// path segment rather than nested keys (model ids often contain dots,
// e.g. "kimi-k2.5").
func gjsonEscape(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
