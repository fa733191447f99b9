// Package switcherstate tracks whether the host has been switched onto a
// local fallback model outside the normal chain-mode bookkeeping, and
// restores the original model once the day's budget is healthy again
// (spec.md §4.9).
package switcherstate

// FileName is the on-disk state document name (spec.md §6).
const FileName = "switcher-state.json"

// Mode is the current routing mode recorded by a local-fallback switch.
type Mode string

const (
	// ModeCloud means no local override is active.
	ModeCloud Mode = "cloud"
	// ModeLocal means the host config has been forced onto a local model.
	ModeLocal Mode = "local"
)

// Document is the on-disk switcher state (spec.md §3/§4.9). It only
// exists while Mode == ModeLocal; restoring deletes the file entirely
// rather than resetting it to ModeCloud, per spec.md §4.9.
type Document struct {
	Mode            Mode   `json:"mode"`
	OriginalModel   string `json:"originalModel"`
	SwitchedAt      string `json:"switchedAt"`
	SwitchedModelID string `json:"switchedModelId"`
}
