// Package truncator rewrites a host session log (line-delimited JSON) so it
// stays under a token ceiling while preserving structural entries and the
// causal parent chain (spec.md §4.10).
package truncator

// EntryType distinguishes structural session-log entries from
// conversational content, per spec.md §3's "Session entry" glossary.
type EntryType string

const (
	TypeSession             EntryType = "session"
	TypeModelChange         EntryType = "model_change"
	TypeThinkingLevelChange EntryType = "thinking_level_change"
	TypeCustom              EntryType = "custom"
	TypeCompaction          EntryType = "compaction"
	TypeMessage             EntryType = "message"
)

// isStructural reports whether t is one of the non-content entry types.
func isStructural(t EntryType) bool {
	switch t {
	case TypeSession, TypeModelChange, TypeThinkingLevelChange, TypeCustom, TypeCompaction:
		return true
	default:
		return false
	}
}

// structuralTokens is the flat per-entry token estimate for structural
// entries, per spec.md §4.10.
const structuralTokens = 50

// minContentTokens is the floor applied to a content entry's chars/4
// estimate, per spec.md §4.10.
const minContentTokens = 50

// Result reports what Truncate did.
type Result struct {
	Truncated      bool
	RemovedCount   int
	EstimateBefore int
	EstimateAfter  int
}
