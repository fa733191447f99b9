// Package decision implements the single decide() function of spec.md
// §4.7: combining ledger, registry, and failure-tracker state into one of
// {allow, switch-provider, all-exhausted}, plus task classification and
// the pre-turn injection string.
package decision

import "github.com/routerchain/routerchain/internal/registry"

// Action is the outcome of a decide() call.
type Action string

const (
	Allow          Action = "allow"
	SwitchProvider Action = "switch_provider"
	AllExhausted   Action = "all_exhausted"
)

// Complexity is an advisory classification of a turn's difficulty, used
// only to drive the optional model-recommendation injection.
type Complexity string

const (
	Simple  Complexity = "simple"
	Medium  Complexity = "medium"
	Complex Complexity = "complex"
)

// Decision is the result of Decide.
type Decision struct {
	Action           Action
	Provider         string
	Model            string
	Reason           string
	TaskType         registry.TaskRole
	RemainingUsd     float64
	PercentRemaining float64
}
