// Package registry loads the declarative provider chain and answers
// ordering queries over it: which provider is enabled, and which comes
// next after a given one is exhausted or disabled.
package registry

// TaskRole names the task-appropriate model slot on a provider.
type TaskRole string

const (
	TaskGeneral TaskRole = "default"
	TaskCoding  TaskRole = "coding"
	TaskVision  TaskRole = "vision"
)

// Provider is a declared provider in the chain: an id, an ordering
// priority, an enabled flag, a daily budget, and a set of task-specific
// model names.
type Provider struct {
	ID          string             `json:"id"`
	Priority    int                `json:"priority"`
	Enabled     bool               `json:"enabled"`
	MaxDailyUsd float64            `json:"maxDailyUsd"`
	Models      map[TaskRole]string `json:"models"`
}

// Model returns the model name for task, falling back to the default
// (general) model when no task-specific override is declared.
func (p Provider) Model(task TaskRole) string {
	if task == "" {
		task = TaskGeneral
	}
	if m, ok := p.Models[task]; ok && m != "" {
		return m
	}
	return p.Models[TaskGeneral]
}

// Free reports whether the provider never exhausts (zero daily budget).
func (p Provider) Free() bool {
	return p.MaxDailyUsd == 0
}

// chainDocument is the on-disk shape of data/provider-chain.json.
type chainDocument struct {
	Providers []Provider `json:"providers"`
}
