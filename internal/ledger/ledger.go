package ledger

import (
	"fmt"
	"time"

	"github.com/routerchain/routerchain/internal/registry"
	"github.com/routerchain/routerchain/internal/store"
	"github.com/rs/zerolog/log"
)

// Ledger wraps a single ledger JSON document on disk plus the registry
// needed to know each provider's daily cap and the first-enabled provider
// to restore on a day rollover. It holds no in-memory document between
// calls: every method re-reads from disk, mutates, and re-saves, matching
// the single-writer, no-singleton-state design of spec.md §9.
type Ledger struct {
	path    string
	reg     *registry.Registry
	history HistorySink
}

// HistorySink optionally mirrors every recorded transaction into a durable
// audit store. It is never authoritative for budget decisions — see
// DESIGN.md's sqlite wiring note.
type HistorySink interface {
	Record(tx Transaction) error
}

// New creates a Ledger backed by the document at path, using reg to resolve
// provider caps and the first-enabled provider on reset. history may be nil.
func New(path string, reg *registry.Registry, history HistorySink) *Ledger {
	return &Ledger{path: path, reg: reg, history: history}
}

// Load returns today's ledger document, transparently resetting it if the
// persisted date has rolled over.
func (l *Ledger) Load() (*Document, error) {
	doc, _, err := l.LoadWithStatus()
	return doc, err
}

// LoadWithStatus is like Load but additionally reports whether a day
// rollover reset just happened — the only signal switcher-state's
// restore-on-new-day logic (spec.md §4.9) consumes.
func (l *Ledger) LoadWithStatus() (*Document, bool, error) {
	doc, err := store.ReadJSON[Document](l.path)
	if err != nil {
		return nil, false, err
	}

	now := today()

	if doc == nil {
		fresh := freshDocument(now, l.firstEnabled())
		if err := store.WriteJSON(l.path, fresh); err != nil {
			return nil, false, err
		}
		return fresh, false, nil
	}

	if doc.Date != now {
		log.Info().Str("previousDate", doc.Date).Str("date", now).Msg("ledger: day rollover, resetting")
		fresh := freshDocument(now, l.firstEnabled())
		if err := store.WriteJSON(l.path, fresh); err != nil {
			return nil, false, err
		}
		return fresh, true, nil
	}

	if doc.Providers == nil {
		doc.Providers = map[string]ProviderSpend{}
	}
	if doc.Transactions == nil {
		doc.Transactions = []Transaction{}
	}
	return doc, false, nil
}

func (l *Ledger) firstEnabled() string {
	if l.reg == nil {
		return ""
	}
	enabled := l.reg.Enabled()
	if len(enabled) == 0 {
		return ""
	}
	return enabled[0].ID
}

func (l *Ledger) save(doc *Document) error {
	return store.WriteJSON(l.path, doc)
}

// RecordTransaction appends a transaction, updates the provider's spend
// row, and recomputes its exhausted flag against the registry's declared
// cap for that provider.
func (l *Ledger) RecordTransaction(provider, model string, inputTokens, outputTokens int, cost float64) error {
	doc, err := l.Load()
	if err != nil {
		return err
	}

	tx := Transaction{
		Provider:     provider,
		Model:        model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		CostUsd:      cost,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	}
	doc.Transactions = append(doc.Transactions, tx)

	row := doc.Providers[provider]
	row.SpentUsd += cost
	row.Exhausted = l.isExhausted(provider, row.SpentUsd)
	doc.Providers[provider] = row

	if l.history != nil {
		if err := l.history.Record(tx); err != nil {
			log.Warn().Err(err).Msg("ledger: history sink write failed, continuing")
		}
	}

	return l.save(doc)
}

// isExhausted applies the free-provider invariant: maxDailyUsd == 0 means
// never exhausted regardless of recorded spend.
func (l *Ledger) isExhausted(provider string, spent float64) bool {
	if l.reg == nil {
		return false
	}
	p, ok := l.reg.Get(provider)
	if !ok || p.Free() {
		return false
	}
	return spent >= p.MaxDailyUsd
}

// Remaining returns the dollar amount left before provider is exhausted,
// clamped to >= 0. Free providers always report 0 here (there is no cap to
// be "remaining" against); callers wanting a percentage must special-case
// free providers as 100% available per spec.md §8.
func (l *Ledger) Remaining(provider string) (float64, error) {
	doc, err := l.Load()
	if err != nil {
		return 0, err
	}
	if l.reg == nil {
		return 0, fmt.Errorf("ledger: no registry configured")
	}
	p, ok := l.reg.Get(provider)
	if !ok {
		return 0, nil
	}
	if p.Free() {
		return 0, nil
	}
	spent := doc.Providers[provider].SpentUsd
	remaining := p.MaxDailyUsd - spent
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// PercentRemaining returns the percentage of budget remaining for
// provider, treating free providers as always 100% available.
func (l *Ledger) PercentRemaining(provider string) (float64, error) {
	if l.reg != nil {
		if p, ok := l.reg.Get(provider); ok && p.Free() {
			return 100, nil
		}
	}
	remaining, err := l.Remaining(provider)
	if err != nil {
		return 0, err
	}
	p, ok := l.reg.Get(provider)
	if !ok || p.MaxDailyUsd <= 0 {
		return 100, nil
	}
	return remaining / p.MaxDailyUsd * 100, nil
}

// Exhausted reports whether provider has spent at or above its daily cap.
// Always false for a free provider.
func (l *Ledger) Exhausted(provider string) (bool, error) {
	doc, err := l.Load()
	if err != nil {
		return false, err
	}
	return l.isExhausted(provider, doc.Providers[provider].SpentUsd), nil
}

// ExhaustedSet returns the set of provider ids currently exhausted.
func (l *Ledger) ExhaustedSet() (map[string]bool, error) {
	doc, err := l.Load()
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(doc.Providers))
	for id, row := range doc.Providers {
		if l.isExhausted(id, row.SpentUsd) {
			out[id] = true
		}
	}
	return out, nil
}

// ForceReset writes a fresh document for today regardless of what was
// persisted, restoring the first-enabled provider. Used by the `reset-day`
// operator command to manually recover from a stuck exhausted state
// without waiting for the UTC day boundary.
func (l *Ledger) ForceReset() error {
	fresh := freshDocument(today(), l.firstEnabled())
	return l.save(fresh)
}

// SetActive sets the currently active provider.
func (l *Ledger) SetActive(id string) error {
	doc, err := l.Load()
	if err != nil {
		return err
	}
	doc.ActiveProvider = id
	return l.save(doc)
}

// ActiveProvider returns the currently active provider id.
func (l *Ledger) ActiveProvider() (string, error) {
	doc, err := l.Load()
	if err != nil {
		return "", err
	}
	return doc.ActiveProvider, nil
}

// RecordSwitch appends a switch-history entry and sets the new active
// provider.
func (l *Ledger) RecordSwitch(from, to, reason string) error {
	doc, err := l.Load()
	if err != nil {
		return err
	}
	doc.SwitchHistory = append(doc.SwitchHistory, SwitchEvent{
		From:   from,
		To:     to,
		At:     time.Now().UTC().Format(time.RFC3339),
		Reason: reason,
	})
	doc.ActiveProvider = to
	return l.save(doc)
}

// TotalSpent sums spend across all providers for the day.
func (l *Ledger) TotalSpent() (float64, error) {
	doc, err := l.Load()
	if err != nil {
		return 0, err
	}
	var total float64
	for _, row := range doc.Providers {
		total += row.SpentUsd
	}
	return total, nil
}

// LastTransactionTimestamp returns the timestamp of the most recently
// recorded transaction, or nil if none have been recorded today. Used as
// the aggregator's "since" cutoff to avoid double-counting across turns.
func (l *Ledger) LastTransactionTimestamp() (*time.Time, error) {
	doc, err := l.Load()
	if err != nil {
		return nil, err
	}
	if len(doc.Transactions) == 0 {
		return nil, nil
	}
	last := doc.Transactions[len(doc.Transactions)-1]
	t, err := time.Parse(time.RFC3339, last.Timestamp)
	if err != nil {
		return nil, nil
	}
	return &t, nil
}
