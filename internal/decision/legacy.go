package decision

import "github.com/routerchain/routerchain/internal/registry"

// LegacyResult is the result shape of the single-budget legacy mode's
// CheckBudget, matching spec.md's concrete scenarios 1-3 (force_local
// action, forced_model, task_type, remaining).
type LegacyResult struct {
	Action      string // "allow" or "force_local"
	ForcedModel string
	TaskType    registry.TaskRole
	Remaining   float64
}

// localFallback is the single free local provider legacy mode falls back
// to when the configured daily budget is exhausted, per spec.md's
// concrete scenarios (qwen3:8b / qwen3-coder:30b / qwen3-vl:8b).
var localFallback = registry.Provider{
	ID: "ollama",
	Models: map[registry.TaskRole]string{
		registry.TaskGeneral: "qwen3:8b",
		registry.TaskCoding:  "qwen3-coder:30b",
		registry.TaskVision:  "qwen3-vl:8b",
	},
}

// CheckBudget implements the legacy single-budget mode: when dailyBudget
// has been spent in full, route to the local fallback model for the
// current turn's task, per spec.md §6 (USE_CHAIN_MODE=false) and the
// concrete scenarios in §8.
func CheckBudget(dailyBudget, spent float64, prompt string, messagesJSON []byte) LegacyResult {
	task := ClassifyTask(prompt, messagesJSON)
	remaining := dailyBudget - spent
	if remaining < 0 {
		remaining = 0
	}

	if spent < dailyBudget {
		return LegacyResult{Action: "allow", TaskType: task, Remaining: remaining}
	}

	return LegacyResult{
		Action:      "force_local",
		ForcedModel: localFallback.Model(task),
		TaskType:    task,
		Remaining:   remaining,
	}
}
