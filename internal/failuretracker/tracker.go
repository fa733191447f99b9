package failuretracker

import (
	"time"

	"github.com/routerchain/routerchain/internal/store"
)

// DefaultThreshold is the default consecutive-failure count that triggers
// a switch, per spec.md §4.6 / §6 (FAILURE_THRESHOLD).
const DefaultThreshold = 3

// Tracker persists consecutive-failure counters per provider, reset daily.
type Tracker struct {
	path string
}

// New creates a Tracker backed by the document at path.
func New(path string) *Tracker {
	return &Tracker{path: path}
}

// Load returns today's failure document, resetting all counters if the
// persisted date has rolled over.
func (t *Tracker) Load() (*Document, error) {
	doc, err := store.ReadJSON[Document](t.path)
	if err != nil {
		return nil, err
	}

	now := today()
	if doc == nil || doc.Date != now {
		fresh := freshDocument(now)
		if err := store.WriteJSON(t.path, fresh); err != nil {
			return nil, err
		}
		return fresh, nil
	}
	if doc.Providers == nil {
		doc.Providers = map[string]ProviderFailures{}
	}
	return doc, nil
}

func today() string {
	return time.Now().UTC().Format("2006-01-02")
}

func (t *Tracker) save(doc *Document) error {
	return store.WriteJSON(t.path, doc)
}

// ForceReset clears every provider's counters for today, for the
// `reset-day` operator command.
func (t *Tracker) ForceReset() error {
	return t.save(freshDocument(today()))
}

// RecordFailure increments provider's consecutive-failure counter and
// returns the new value.
func (t *Tracker) RecordFailure(provider string) (int, error) {
	doc, err := t.Load()
	if err != nil {
		return 0, err
	}
	row := doc.Providers[provider]
	row.ConsecutiveFailures++
	row.LastFailureAt = time.Now().UTC().Format(time.RFC3339)
	doc.Providers[provider] = row

	if err := t.save(doc); err != nil {
		return 0, err
	}
	return row.ConsecutiveFailures, nil
}

// RecordSuccess resets provider's consecutive-failure counter to zero.
func (t *Tracker) RecordSuccess(provider string) error {
	doc, err := t.Load()
	if err != nil {
		return err
	}
	row := doc.Providers[provider]
	row.ConsecutiveFailures = 0
	doc.Providers[provider] = row
	return t.save(doc)
}

// ShouldSwitch reports whether provider's consecutive-failure count has
// reached threshold.
func (t *Tracker) ShouldSwitch(provider string, threshold int) (bool, error) {
	doc, err := t.Load()
	if err != nil {
		return false, err
	}
	return doc.Providers[provider].ConsecutiveFailures >= threshold, nil
}

// Count returns provider's current consecutive-failure count.
func (t *Tracker) Count(provider string) (int, error) {
	doc, err := t.Load()
	if err != nil {
		return 0, err
	}
	return doc.Providers[provider].ConsecutiveFailures, nil
}
