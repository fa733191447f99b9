// Package router binds every other component to the host's two hook
// events, per spec.md §4.11/§6: before_agent_start and agent_end. Both
// adapters are pure with respect to the host — they never panic outward
// and never return an error the host must handle, per §7's propagation
// policy ("no interference on error").
package router

// PreTurnEvent is the before_agent_start hook payload (spec.md §6).
type PreTurnEvent struct {
	Prompt   string
	Messages []byte
}

// PreTurnResult is returned to the host's pre-turn hook.
type PreTurnResult struct {
	PrependContext string
}

// PostTurnEvent is the agent_end hook payload (spec.md §6). Messages is
// the full final message list including assistant turns with usage.
type PostTurnEvent struct {
	Prompt         string
	Messages       []byte
	Model          string
	HadError       bool
	SessionLogPath string
}

// legacyProviderID is the single synthetic provider id legacy (single-
// budget) mode records spend against, reusing internal/ledger's per-
// provider bookkeeping instead of a second document schema.
const legacyProviderID = "legacy"
