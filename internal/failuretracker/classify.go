package failuretracker

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// errorPatternRegexp matches the recognised provider-error signatures of
// spec.md §4.6, grounded on the phrase-list shape of the teacher's
// internal/preemptive/detector.go compaction detectors.
var errorPatternRegexp = regexp.MustCompile(`(?i)` + strings.Join([]string{
	`rate limit`,
	`\b429\b`, `\b502\b`, `\b503\b`, `\b401\b`, `\b403\b`,
	`timeout`, `gateway timeout`,
	`internal server error`,
	`connection refused`,
	`ECONNREFUSED`, `ETIMEDOUT`,
	`billing error`,
	`insufficient (balance|credits|funds)`,
	`quota exceeded`,
	`payment required`,
	`unauthorized`,
	`invalid api key`,
	`authentication failed`,
}, "|"))

// shortReplyThreshold is the minimum text length an assistant reply with no
// usage object must reach to be treated as a success (spec.md §4.6).
const shortReplyThreshold = 20

// IsFailure classifies a completed turn from its message trace. hadError
// is true when the host's post-turn event carried a top-level error field.
// messagesJSON is the turn's message array in the host's wire shape.
func IsFailure(hadError bool, messagesJSON []byte) bool {
	if hadError {
		return true
	}

	messages := gjson.ParseBytes(messagesJSON)
	if !messages.IsArray() || len(messages.Array()) == 0 {
		return true
	}

	last, ok := lastAssistantMessage(messages)
	if !ok {
		return true
	}

	text := extractText(last.Get("content"))
	if strings.TrimSpace(text) == "" {
		return true
	}

	if errorPatternRegexp.MatchString(text) {
		return true
	}

	if !last.Get("usage").Exists() && len(text) < shortReplyThreshold {
		return true
	}

	return false
}

func lastAssistantMessage(messages gjson.Result) (gjson.Result, bool) {
	arr := messages.Array()
	for i := len(arr) - 1; i >= 0; i-- {
		if arr[i].Get("role").String() == "assistant" {
			return arr[i], true
		}
	}
	return gjson.Result{}, false
}

// extractText pulls plain text out of either a string content field or an
// array of content blocks (the Anthropic-style shape), matching the
// teacher's ExtractText helper in internal/utils/strings.go.
func extractText(content gjson.Result) string {
	if content.Type == gjson.String {
		return content.String()
	}
	if content.IsArray() {
		var b strings.Builder
		for _, block := range content.Array() {
			if t := block.Get("text"); t.Exists() {
				b.WriteString(t.String())
			}
		}
		return b.String()
	}
	return ""
}
