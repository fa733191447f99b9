package switcherstate

import (
	"context"
	"fmt"
	"time"

	"github.com/routerchain/routerchain/internal/configpatcher"
	"github.com/routerchain/routerchain/internal/store"
	"github.com/rs/zerolog/log"
)

// Switcher persists the local-fallback override state and drives the
// restore-on-healthy-day logic of spec.md §4.9, on top of a configpatcher
// that owns the actual host-config mutation.
type Switcher struct {
	path    string
	patcher *configpatcher.Patcher
}

// New creates a Switcher backed by the state document at path.
func New(path string, patcher *configpatcher.Patcher) *Switcher {
	return &Switcher{path: path, patcher: patcher}
}

// Load returns the persisted state, or nil if no local override is active.
func (s *Switcher) Load() (*Document, error) {
	return store.ReadJSON[Document](s.path)
}

// SwitchToLocal records the host's current primary model as the one to
// restore later, then patches the host onto localModelID. The original
// model is captured *before* the config is overwritten, per spec.md §4.9.
func (s *Switcher) SwitchToLocal(ctx context.Context, localModelID string) error {
	original, err := s.patcher.CurrentPrimaryModel()
	if err != nil {
		return fmt.Errorf("switcherstate: read current model: %w", err)
	}

	if err := s.patcher.SetActiveModel(ctx, localModelID); err != nil {
		return fmt.Errorf("switcherstate: patch host to local model: %w", err)
	}

	doc := &Document{
		Mode:            ModeLocal,
		OriginalModel:   original,
		SwitchedAt:      time.Now().UTC().Format(time.RFC3339),
		SwitchedModelID: localModelID,
	}
	return store.WriteJSON(s.path, doc)
}

// Reconcile implements the on-plugin-load check of spec.md §4.9: if state
// is absent or mode is cloud, this is a no-op. If mode is local and
// budgetHealthy is true, the original model is restored through the
// patcher (which itself fires the host restart), the state file is
// deleted (not reset), and true is returned. If mode is local and
// budgetHealthy is false, nothing
// happens — staying on the fallback model avoids a restart loop.
func (s *Switcher) Reconcile(ctx context.Context, budgetHealthy bool) (bool, error) {
	doc, err := s.Load()
	if err != nil {
		return false, fmt.Errorf("switcherstate: load state: %w", err)
	}
	if doc == nil || doc.Mode != ModeLocal {
		return false, nil
	}

	if !budgetHealthy {
		log.Info().Str("switchedModel", doc.SwitchedModelID).Msg("switcherstate: still exhausted, staying on local fallback")
		return false, nil
	}

	if err := s.patcher.SetActiveModel(ctx, doc.OriginalModel); err != nil {
		return false, fmt.Errorf("switcherstate: restore original model: %w", err)
	}
	if err := store.Delete(s.path); err != nil {
		return false, fmt.Errorf("switcherstate: delete state: %w", err)
	}
	log.Info().Str("restoredModel", doc.OriginalModel).Msg("switcherstate: budget healthy, restored original model")
	return true, nil
}

// Active reports whether a local override is currently in effect.
func (s *Switcher) Active() (bool, error) {
	doc, err := s.Load()
	if err != nil {
		return false, err
	}
	return doc != nil && doc.Mode == ModeLocal, nil
}
