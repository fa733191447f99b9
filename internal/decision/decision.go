package decision

import (
	"github.com/routerchain/routerchain/internal/failuretracker"
	"github.com/routerchain/routerchain/internal/ledger"
	"github.com/routerchain/routerchain/internal/registry"
)

// Decide combines ledger, registry, and failure-tracker state into a
// single routing decision for the next turn, per spec.md §4.7.
func Decide(
	l *ledger.Ledger,
	reg *registry.Registry,
	failures *failuretracker.Tracker,
	threshold int,
	prompt string,
	messagesJSON []byte,
) (*Decision, error) {
	task := ClassifyTask(prompt, messagesJSON)

	active, err := l.ActiveProvider()
	if err != nil {
		return nil, err
	}
	exhaustedSet, err := l.ExhaustedSet()
	if err != nil {
		return nil, err
	}

	p, ok := reg.Get(active)
	if !ok || !p.Enabled {
		fa := reg.FirstAvailable(exhaustedSet)
		if fa == nil {
			return &Decision{Action: AllExhausted, TaskType: task}, nil
		}
		return &Decision{
			Action:   SwitchProvider,
			Provider: fa.ID,
			Model:    fa.Model(task),
			Reason:   "disabled/missing",
			TaskType: task,
		}, nil
	}

	exhausted, err := l.Exhausted(p.ID)
	if err != nil {
		return nil, err
	}
	failing, err := failures.ShouldSwitch(p.ID, threshold)
	if err != nil {
		return nil, err
	}

	if exhausted || failing {
		next := reg.NextAfter(p.ID, exhaustedSet)
		if next == nil {
			return &Decision{Action: AllExhausted, TaskType: task}, nil
		}
		reason := "consecutive_failures"
		if exhausted {
			reason = "budget_exhausted"
		}
		return &Decision{
			Action:   SwitchProvider,
			Provider: next.ID,
			Model:    next.Model(task),
			Reason:   reason,
			TaskType: task,
		}, nil
	}

	remaining, err := l.Remaining(p.ID)
	if err != nil {
		return nil, err
	}
	percent, err := l.PercentRemaining(p.ID)
	if err != nil {
		return nil, err
	}

	return &Decision{
		Action:           Allow,
		Provider:         p.ID,
		Model:            p.Model(task),
		TaskType:         task,
		RemainingUsd:     remaining,
		PercentRemaining: percent,
	}, nil
}
