// Package ledger persists per-day, per-provider spend and implements the
// daily budget ledger of spec.md §4.5: day rollover, exhaustion queries,
// transaction recording, and switch history.
package ledger

import "time"

// ChainFileName is the chain-mode ledger file name (spec.md §6).
const ChainFileName = "chain-budget.json"

// LegacyFileName is the single-budget legacy-mode ledger file name,
// kept for backward compatibility with pre-chain deployments (spec.md §6).
const LegacyFileName = "budget.json"

// Transaction is one recorded usage event within a day (spec.md §3).
type Transaction struct {
	Provider     string  `json:"provider"`
	Model        string  `json:"model"`
	InputTokens  int     `json:"inputTokens"`
	OutputTokens int     `json:"outputTokens"`
	CostUsd      float64 `json:"costUsd"`
	Timestamp    string  `json:"timestamp"`
	RequestID    string  `json:"requestId,omitempty"`
}

// ProviderSpend is a single provider's spend row for the day.
type ProviderSpend struct {
	SpentUsd  float64 `json:"spentUsd"`
	Exhausted bool    `json:"exhausted"`
}

// SwitchEvent records one provider-to-provider switch.
type SwitchEvent struct {
	From   string `json:"from"`
	To     string `json:"to"`
	At     string `json:"at"`
	Reason string `json:"reason"`
}

// Document is the full on-disk ledger shape for one day (spec.md §3).
type Document struct {
	Date           string                   `json:"date"`
	Providers      map[string]ProviderSpend `json:"providers"`
	Transactions   []Transaction            `json:"transactions"`
	ActiveProvider string                   `json:"activeProvider"`
	SwitchHistory  []SwitchEvent            `json:"switchHistory"`
	// LegacyBudgetUsd is only meaningful in single-budget legacy mode.
	LegacyBudgetUsd float64 `json:"legacyBudgetUsd,omitempty"`
}

func freshDocument(date, activeProvider string) *Document {
	return &Document{
		Date:           date,
		Providers:      map[string]ProviderSpend{},
		Transactions:   []Transaction{},
		ActiveProvider: activeProvider,
		SwitchHistory:  []SwitchEvent{},
	}
}

func today() string {
	return time.Now().UTC().Format("2006-01-02")
}
