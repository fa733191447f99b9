package truncator

// entry is a loosely-typed session-log line. Fields outside what this
// package inspects are preserved verbatim through map[string]any
// round-tripping, matching the teacher's "preserve unknown sibling keys"
// convention used for host config (internal/configpatcher).
type entry map[string]any

func (e entry) entryType() EntryType {
	t, _ := e["type"].(string)
	return EntryType(t)
}

func (e entry) id() string {
	id, _ := e["id"].(string)
	return id
}

func (e entry) setID(id string) {
	e["id"] = id
}

func (e entry) setParentID(id *string) {
	if id == nil {
		e["parentId"] = nil
		return
	}
	e["parentId"] = *id
}

// contentChars sums the character length of an entry's message content,
// per spec.md §4.10: "the length of the string content or the sum of text
// blocks' lengths".
func (e entry) contentChars() int {
	msg, ok := e["message"].(map[string]any)
	if !ok {
		return 0
	}
	switch content := msg["content"].(type) {
	case string:
		return len(content)
	case []any:
		total := 0
		for _, block := range content {
			m, ok := block.(map[string]any)
			if !ok {
				continue
			}
			if text, ok := m["text"].(string); ok {
				total += len(text)
			}
		}
		return total
	default:
		return 0
	}
}

func newMessageEntry(id string, entryType EntryType, role, text string) entry {
	return entry{
		"type": string(entryType),
		"id":   id,
		"message": map[string]any{
			"role":    role,
			"content": text,
		},
	}
}
