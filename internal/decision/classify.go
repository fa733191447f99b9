package decision

import (
	"regexp"
	"strings"

	"github.com/routerchain/routerchain/internal/registry"
	"github.com/tidwall/gjson"
)

var codingKeywordRegexp = regexp.MustCompile(`(?i)\b(code|function|bug|implement|refactor|debug|compile|stack trace|unit test|pull request|pr review)\b`)

var codeFileExtRegexp = regexp.MustCompile(`(?i)\.(ts|tsx|js|jsx|py|go|rs|java|rb|php|c|cpp|cs|kt|swift)\b`)

var complexKeywordRegexp = regexp.MustCompile(`(?i)\b(architect|security|audit|deep analysis|refactor entire|distributed|production)\b`)

var mediumKeywordRegexp = regexp.MustCompile(`(?i)\b(implement|fix bug|update|integrate|write tests|explain)\b`)

const (
	complexLengthThreshold = 50_000
	complexMessageCount    = 10
	mediumLengthThreshold  = 200
	mediumMessageCount     = 3
)

// ClassifyTask determines vision/coding/general for a turn: vision
// dominates coding when both signals appear, per spec.md §4.7.
func ClassifyTask(prompt string, messagesJSON []byte) registry.TaskRole {
	if hasImageContent(messagesJSON) {
		return registry.TaskVision
	}
	if codingKeywordRegexp.MatchString(prompt) || codeFileExtRegexp.MatchString(prompt) {
		return registry.TaskCoding
	}
	return registry.TaskGeneral
}

func hasImageContent(messagesJSON []byte) bool {
	messages := gjson.ParseBytes(messagesJSON)
	if !messages.IsArray() {
		return false
	}
	for _, msg := range messages.Array() {
		content := msg.Get("content")
		if !content.IsArray() {
			continue
		}
		for _, block := range content.Array() {
			if block.Get("type").String() == "image" {
				return true
			}
		}
	}
	return false
}

// ClassifyComplexity is an advisory-only classification of turn difficulty.
func ClassifyComplexity(prompt string, messagesJSON []byte) Complexity {
	messages := gjson.ParseBytes(messagesJSON)
	messageCount := 0
	totalLen := len(prompt)
	if messages.IsArray() {
		arr := messages.Array()
		messageCount = len(arr)
		for _, msg := range arr {
			totalLen += len(extractContentText(msg.Get("content")))
		}
	}

	if complexKeywordRegexp.MatchString(prompt) || totalLen > complexLengthThreshold || messageCount > complexMessageCount {
		return Complex
	}
	if mediumKeywordRegexp.MatchString(prompt) || len(prompt) > mediumLengthThreshold || messageCount > mediumMessageCount {
		return Medium
	}
	return Simple
}

func extractContentText(content gjson.Result) string {
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
