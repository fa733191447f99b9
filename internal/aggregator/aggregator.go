package aggregator

import (
	"time"

	"github.com/routerchain/routerchain/internal/costs"
	"github.com/tidwall/gjson"
)

// fieldPairs is the fixed precedence list of usage field-name pairs
// spec.md §4.4 requires: a message's usage object is probed in this order
// and the first pair that yields numbers wins. Unknown shapes degrade to
// "no usage found" silently, never to a miscount (spec.md §9).
var fieldPairs = [][2]string{
	{"input_tokens", "output_tokens"},
	{"prompt_tokens", "completion_tokens"},
	{"input", "output"},
}

// Aggregate scans messagesJSON (the JSON array of a turn's messages, in
// the host's wire shape) for assistant messages with a usage object newer
// than since, and sums their tokens and cost. fallbackModel and
// fallbackRate are used when a message lacks provider/model fields or no
// qualifying message carries one. since is nil when nothing has been
// recorded yet today; otherwise it is the timestamp of the most recently
// recorded transaction, and messages without a timestamp or at or before
// it are not counted, preventing double-counting (spec.md §5).
func Aggregate(messagesJSON []byte, fallbackModel string, fallbackRate costs.Rate, since *time.Time) *Result {
	messages := gjson.ParseBytes(messagesJSON)
	if !messages.IsArray() {
		return nil
	}

	var (
		totalIn, totalOut int
		totalCost         float64
		resolvedModel     string
		found             bool
	)

	for _, msg := range messages.Array() {
		if msg.Get("role").String() != "assistant" {
			continue
		}
		usage := msg.Get("usage")
		if !usage.Exists() {
			continue
		}

		if since != nil {
			ts, ok := parseTimestamp(msg.Get("timestamp"))
			if !ok || !ts.After(*since) {
				continue
			}
		}

		in, out, ok := extractTokens(usage)
		if !ok {
			continue
		}

		if !found {
			provider := msg.Get("provider").String()
			model := msg.Get("model").String()
			switch {
			case provider != "" && model != "":
				resolvedModel = provider + "/" + model
			case model != "":
				resolvedModel = model
			default:
				resolvedModel = fallbackModel
			}
			found = true
		}

		totalIn += in
		totalOut += out
		totalCost += messageCost(msg, usage, in, out, fallbackRate)
	}

	if !found {
		return nil
	}
	return &Result{
		Model:        resolvedModel,
		InputTokens:  totalIn,
		OutputTokens: totalOut,
		Cost:         totalCost,
	}
}

// extractTokens tries each field pair in precedence order and returns the
// first one where both sides parse as numbers.
func extractTokens(usage gjson.Result) (in, out int, ok bool) {
	for _, pair := range fieldPairs {
		inField := usage.Get(pair[0])
		outField := usage.Get(pair[1])
		if inField.Exists() && outField.Exists() && inField.Type == gjson.Number && outField.Type == gjson.Number {
			return int(inField.Int()), int(outField.Int()), true
		}
	}
	return 0, 0, false
}

// messageCost computes one message's contribution to turn cost.
func messageCost(msg, usage gjson.Result, in, out int, fallbackRate costs.Rate) float64 {
	model := msg.Get("model").String()
	if model != "" && costs.IsLocal(model) {
		return 0
	}
	provider := msg.Get("provider").String()
	if provider == "ollama" {
		return 0
	}

	if precomputed := usage.Get("cost.total"); precomputed.Exists() && precomputed.Float() > 0 {
		return precomputed.Float()
	}

	rate := fallbackRate
	if model != "" {
		if r := costs.ResolveCost(model); r != (costs.Rate{}) {
			rate = r
		}
	}
	return float64(in)/1000*rate.InputPer1K + float64(out)/1000*rate.OutputPer1K
}

// parseTimestamp accepts either an ISO-8601 string or a numeric epoch-ms
// value, per the Open Question resolved in DESIGN.md.
func parseTimestamp(field gjson.Result) (time.Time, bool) {
	if !field.Exists() {
		return time.Time{}, false
	}
	switch field.Type {
	case gjson.String:
		t, err := time.Parse(time.RFC3339, field.String())
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	case gjson.Number:
		ms := field.Int()
		return time.UnixMilli(ms).UTC(), true
	default:
		return time.Time{}, false
	}
}
