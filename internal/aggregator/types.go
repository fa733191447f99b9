// Package aggregator scans a host turn's message trace and sums the token
// usage and cost of assistant messages newer than the last recorded
// transaction, per spec.md §4.4.
package aggregator

// Result is what the aggregator found in a turn's new messages, or nil if
// nothing qualified.
type Result struct {
	Model        string
	InputTokens  int
	OutputTokens int
	Cost         float64
}
