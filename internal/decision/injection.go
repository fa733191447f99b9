package decision

import (
	"strings"

	"github.com/routerchain/routerchain/internal/registry"
	"github.com/tidwall/gjson"
)

// ContextTokenCeiling is the estimated-context-size threshold above which
// injection is suppressed entirely, per spec.md §4.7.
const ContextTokenCeiling = 150_000

const premiumPreface = "[ROUTER] You are running on the premium provider tier. Favor concise, high-value responses; avoid unnecessary tool calls."

const cheapPreface = "[ROUTER] Running on a cost-optimized provider."

// InjectionConfig controls what BuildInjection includes, sourced from
// spec.md §6 environment variables.
type InjectionConfig struct {
	AutoRoutingAdvisory  bool
	OptimizationDisabled bool
}

// BuildInjection assembles the pre-turn injection string: an optional
// optimization preface plus an optional model-recommendation line when
// task complexity is mismatched to the current provider's tier. Returns
// "" when estimatedContextTokens exceeds ContextTokenCeiling, or when
// there is nothing to say.
func BuildInjection(cfg InjectionConfig, current registry.Provider, complexity Complexity, estimatedContextTokens int) string {
	if estimatedContextTokens > ContextTokenCeiling {
		return ""
	}

	var parts []string

	if !cfg.OptimizationDisabled {
		if current.Free() {
			parts = append(parts, cheapPreface)
		} else {
			parts = append(parts, premiumPreface)
		}
	}

	if cfg.AutoRoutingAdvisory {
		if rec := recommendation(current, complexity); rec != "" {
			parts = append(parts, rec)
		}
	}

	return strings.Join(parts, "\n\n")
}

// recommendation returns a [MODEL RECOMMENDATION] line when task
// complexity is mismatched to the current provider's tier: a simple task
// on the premium (paid) tier should recommend the cheap tier, and a
// complex task on the cheap (free/local) tier should recommend premium.
func recommendation(current registry.Provider, complexity Complexity) string {
	switch {
	case complexity == Simple && !current.Free():
		return "[MODEL RECOMMENDATION] This looks like a simple task — consider routing to the cost-optimized tier."
	case complexity == Complex && current.Free():
		return "[MODEL RECOMMENDATION] This looks like a complex task — consider routing to the premium tier for better quality."
	default:
		return ""
	}
}

// EstimateTokens approximates token count from character count, per
// spec.md's chars/4 convention (shared with internal/truncator and the
// teacher's config.TokenEstimateRatio).
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// EstimateContextTokens estimates the total context size across the
// prompt and all message content, for the injection-suppression check.
func EstimateContextTokens(prompt string, messagesJSON []byte) int {
	total := len(prompt)
	messages := gjson.ParseBytes(messagesJSON)
	if messages.IsArray() {
		for _, msg := range messages.Array() {
			total += len(extractContentText(msg.Get("content")))
		}
	}
	return (total + 3) / 4
}
