// Package costs resolves a model identifier to a per-1K-token input/output
// rate, recognising local-model name patterns as always free. Grounded on
// the teacher's internal/costcontrol/pricing.go longest-prefix-wins lookup,
// adapted to per-1K (not per-million) rates and a zero-rate unknown-model
// default, per SPEC_FULL.md §4.3.
package costs

import "strings"

// Rate is a per-1K-token cost, matching the Cost rate data model in
// spec.md §3.
type Rate struct {
	InputPer1K  float64
	OutputPer1K float64
}

// rateTable is keyed on bare model names; ResolveCost looks up the id as
// given and then, for a provider-prefixed id ("<provider>/<model>"), the
// bare name after the last "/".
var rateTable = map[string]Rate{
	"claude-opus-4-6":            {InputPer1K: 0.005, OutputPer1K: 0.025},
	"claude-sonnet-4-5":          {InputPer1K: 0.003, OutputPer1K: 0.015},
	"claude-sonnet-4-5-20250929": {InputPer1K: 0.003, OutputPer1K: 0.015},
	"claude-haiku-4-5":           {InputPer1K: 0.001, OutputPer1K: 0.005},
	"claude-3-5-sonnet-20241022": {InputPer1K: 0.003, OutputPer1K: 0.015},
	"claude-3-5-haiku-20241022":  {InputPer1K: 0.001, OutputPer1K: 0.005},
	"claude-3-haiku-20240307":    {InputPer1K: 0.00025, OutputPer1K: 0.00125},

	"gpt-4o":                 {InputPer1K: 0.0025, OutputPer1K: 0.01},
	"gpt-4o-mini":            {InputPer1K: 0.00015, OutputPer1K: 0.0006},
	"gpt-4o-2024-11-20":      {InputPer1K: 0.0025, OutputPer1K: 0.01},
	"gpt-4o-mini-2024-07-18": {InputPer1K: 0.00015, OutputPer1K: 0.0006},

	"kimi-k2.5":       {InputPer1K: 0.0006, OutputPer1K: 0.0025},
	"deepseek-chat":   {InputPer1K: 0.00027, OutputPer1K: 0.0011},
	"glm-4.6":         {InputPer1K: 0.0006, OutputPer1K: 0.0022},
}

// localFamilies are recognised as always-free local-model name fragments.
var localFamilies = []string{
	"qwen", "llama", "mistral", "phi", "gemma", "vicuna", "orca",
	"neural-chat", "starling", "openchat", "zephyr", "dolphin",
	"nous-hermes", "yi",
}

// IsLocal reports whether modelID names a recognised local-model family, or
// carries an "ollama/" prefix, per spec.md §4.3.
func IsLocal(modelID string) bool {
	lower := strings.ToLower(modelID)
	if strings.HasPrefix(lower, "ollama/") {
		return true
	}
	for _, fam := range localFamilies {
		if strings.Contains(lower, fam) {
			return true
		}
	}
	return false
}

// ResolveCost resolves a model identifier to its rate. Lookup is exact on
// both the bare name and the provider-prefixed form. Local models are
// always free regardless of any reported price. Unknown models return a
// zero rate: this undercounts rather than overcounts, a deliberate
// safer-failure choice (spec.md §4.3, §7.5) — the opposite of the
// teacher's own conservative-high unknown-model default, because here the
// worse failure mode is blocking a genuinely free local model on a
// phantom price.
func ResolveCost(modelID string) Rate {
	if IsLocal(modelID) {
		return Rate{}
	}

	if r, ok := rateTable[modelID]; ok {
		return r
	}

	bare := modelID
	if idx := strings.LastIndex(modelID, "/"); idx >= 0 {
		bare = modelID[idx+1:]
	}
	if r, ok := rateTable[bare]; ok {
		return r
	}

	return Rate{}
}
