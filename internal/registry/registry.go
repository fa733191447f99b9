package registry

import (
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/routerchain/routerchain/internal/store"
)

// FileName is the on-disk name of the chain declaration, per SPEC_FULL.md
// §6 ("data/provider-chain.json").
const FileName = "provider-chain.json"

// Registry holds the loaded, env-overridden provider chain. It is
// immutable after Load: env overrides never write back to the file.
type Registry struct {
	providers map[string]Provider
}

// defaultChain is shipped as a minimal, entirely data-driven chain: one
// cloud provider plus one free local fallback. Operators declare their own
// providers in data/provider-chain.json; this exists only so the plugin has
// something sane to route through before that file is ever written.
func defaultChain() []Provider {
	return []Provider{
		{
			ID:          "anthropic",
			Priority:    0,
			Enabled:     true,
			MaxDailyUsd: 10,
			Models: map[TaskRole]string{
				TaskGeneral: "claude-sonnet-4-5",
				TaskCoding:  "claude-sonnet-4-5",
				TaskVision:  "claude-sonnet-4-5",
			},
		},
		{
			ID:          "ollama",
			Priority:    100,
			Enabled:     true,
			MaxDailyUsd: 0,
			Models: map[TaskRole]string{
				TaskGeneral: "qwen3:8b",
				TaskCoding:  "qwen3-coder:30b",
				TaskVision:  "qwen3-vl:8b",
			},
		},
	}
}

// Load reads the chain declaration at path, creating the default chain on
// disk if the file does not yet exist, then applies environment overrides
// (which never touch the file itself).
func Load(path string) (*Registry, error) {
	doc, err := store.ReadJSON[chainDocument](path)
	if err != nil {
		return nil, err
	}

	var providers []Provider
	if doc == nil {
		providers = defaultChain()
		if err := store.WriteJSON(path, chainDocument{Providers: providers}); err != nil {
			return nil, err
		}
	} else {
		providers = doc.Providers
	}

	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.ID] = applyEnvOverride(p)
	}
	return r, nil
}

// envKey turns a provider id into the env-var-safe form used by both
// override keys: uppercase, hyphens become underscores.
func envKey(id string) string {
	return strings.ToUpper(strings.ReplaceAll(id, "-", "_"))
}

func applyEnvOverride(p Provider) Provider {
	key := envKey(p.ID)

	if v, ok := os.LookupEnv(key + "_DAILY_BUDGET_USD"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			p.MaxDailyUsd = f
		}
	}
	if v, ok := os.LookupEnv(key + "_ENABLED"); ok {
		switch strings.ToLower(v) {
		case "true":
			p.Enabled = true
		case "false":
			p.Enabled = false
		}
	}
	if p.Free() {
		p = applyLocalModelOverride(p)
	}
	return p
}

// applyLocalModelOverride applies the LOCAL_MODEL / LOCAL_MODEL_{GENERAL,
// CODING,VISION} environment variables to the free local provider, per
// spec.md §6. LOCAL_MODEL sets all task slots; the per-task variants
// override individually and take precedence over LOCAL_MODEL.
func applyLocalModelOverride(p Provider) Provider {
	if p.Models == nil {
		p.Models = map[TaskRole]string{}
	}
	if v, ok := os.LookupEnv("LOCAL_MODEL"); ok && v != "" {
		p.Models[TaskGeneral] = v
		p.Models[TaskCoding] = v
		p.Models[TaskVision] = v
	}
	if v, ok := os.LookupEnv("LOCAL_MODEL_GENERAL"); ok && v != "" {
		p.Models[TaskGeneral] = v
	}
	if v, ok := os.LookupEnv("LOCAL_MODEL_CODING"); ok && v != "" {
		p.Models[TaskCoding] = v
	}
	if v, ok := os.LookupEnv("LOCAL_MODEL_VISION"); ok && v != "" {
		p.Models[TaskVision] = v
	}
	return p
}

// Get returns the provider with the given id, or false if unknown.
func (r *Registry) Get(id string) (Provider, bool) {
	p, ok := r.providers[id]
	return p, ok
}

// All returns every declared provider, enabled or not, ordered by priority
// ascending, ties broken by id lexicographically. Used by the dashboard to
// render the full chain rather than only the currently-usable subset.
func (r *Registry) All() []Provider {
	out := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Enabled returns enabled providers ordered by priority ascending, ties
// broken by id lexicographically.
func (r *Registry) Enabled() []Provider {
	out := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		if p.Enabled {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// NextAfter returns the first enabled provider with priority strictly
// greater than currentID's, excluding ids in exhausted, or nil if none
// qualify. A free provider is never excludable via exhausted.
func (r *Registry) NextAfter(currentID string, exhausted map[string]bool) *Provider {
	current, ok := r.providers[currentID]
	if !ok {
		return r.FirstAvailable(exhausted)
	}

	for _, p := range r.Enabled() {
		if p.Priority <= current.Priority {
			continue
		}
		if !p.Free() && exhausted[p.ID] {
			continue
		}
		pCopy := p
		return &pCopy
	}
	return nil
}

// FirstAvailable returns the first enabled, non-exhausted provider, or nil.
func (r *Registry) FirstAvailable(exhausted map[string]bool) *Provider {
	for _, p := range r.Enabled() {
		if !p.Free() && exhausted[p.ID] {
			continue
		}
		pCopy := p
		return &pCopy
	}
	return nil
}

// ModelForTask resolves the model name a provider should use for task.
func ModelForTask(p Provider, task TaskRole) string {
	return p.Model(task)
}
