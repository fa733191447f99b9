package truncator

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRestarter struct{ calls int }

func (f *fakeRestarter) Restart(ctx context.Context, command string) error {
	f.calls++
	return nil
}

func writeLog(t *testing.T, path string, lines []entry) {
	t.Helper()
	var sb strings.Builder
	for _, e := range lines {
		data, err := json.Marshal(e)
		require.NoError(t, err)
		sb.Write(data)
		sb.WriteByte('\n')
	}
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o600))
}

func contentEntry(id string, chars int) entry {
	return entry{
		"type": "message",
		"id":   id,
		"message": map[string]any{
			"role":    "user",
			"content": strings.Repeat("x", chars),
		},
	}
}

func structuralEntry(id string, typ EntryType) entry {
	return entry{"type": string(typ), "id": id}
}

func readBack(t *testing.T, path string) []entry {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out []entry
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		var e entry
		require.NoError(t, json.Unmarshal([]byte(line), &e))
		out = append(out, e)
	}
	return out
}

func TestTruncate_PreservesStructureAndLinksChain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.jsonl")

	var lines []entry
	lines = append(lines, structuralEntry("s1", TypeSession))
	lines = append(lines, structuralEntry("s2", TypeModelChange))
	for i := 0; i < 30; i++ {
		lines = append(lines, contentEntry(idFor(i), 500))
	}
	writeLog(t, path, lines)

	restarter := &fakeRestarter{}
	tr := New(restarter, "restart")
	res, err := tr.Truncate(context.Background(), path, 1000, 5)
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.Equal(t, 25, res.RemovedCount)
	assert.Less(t, res.EstimateAfter, 1000)
	assert.Equal(t, 1, restarter.calls)

	out := readBack(t, path)

	structuralCount, contentCount, compactionCount := 0, 0, 0
	for _, e := range out {
		switch EntryType(e["type"].(string)) {
		case TypeSession, TypeModelChange:
			structuralCount++
		case TypeCompaction:
			compactionCount++
		case TypeMessage:
			contentCount++
		}
	}
	assert.Equal(t, 2, structuralCount)
	assert.Equal(t, 1, compactionCount)
	assert.Equal(t, 5, contentCount)

	assert.Nil(t, out[0]["parentId"])
	for i := 1; i < len(out); i++ {
		prevID := out[i-1]["id"]
		assert.Equal(t, prevID, out[i]["parentId"])
	}

	// The two structural entries must stay first, in order, with the
	// compaction marker inserted after them and before the surviving
	// content — not shoved ahead of the structural entries it follows.
	gotTypes := make([]string, len(out))
	for i, e := range out {
		gotTypes[i] = e["type"].(string)
	}
	assert.Equal(t, []string{
		string(TypeSession), string(TypeModelChange), string(TypeCompaction),
		string(TypeMessage), string(TypeMessage), string(TypeMessage), string(TypeMessage), string(TypeMessage),
	}, gotTypes)
}

func TestCompact_InsertsCompactionAfterLeadingStructuralEntries(t *testing.T) {
	var entries []entry
	entries = append(entries, structuralEntry("s1", TypeSession))
	entries = append(entries, structuralEntry("s2", TypeModelChange))
	for i := 0; i < 30; i++ {
		entries = append(entries, contentEntry(idFor(i), 500))
	}

	out, removed := compact(entries, 5)
	assert.Equal(t, 25, removed)

	compactionIdx := -1
	for i, e := range out {
		if EntryType(e["type"].(string)) == TypeCompaction {
			compactionIdx = i
			break
		}
	}
	require.NotEqual(t, -1, compactionIdx, "compaction entry must be present")
	assert.Equal(t, 2, compactionIdx, "compaction entry must follow both leading structural entries, not precede them")
	assert.Equal(t, string(TypeSession), out[0]["type"])
	assert.Equal(t, string(TypeModelChange), out[1]["type"])
}

func TestTruncate_WithinBudgetDoesNotWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.jsonl")
	writeLog(t, path, []entry{contentEntry("m1", 50), contentEntry("m2", 50)})

	info, err := os.Stat(path)
	require.NoError(t, err)
	modBefore := info.ModTime()

	restarter := &fakeRestarter{}
	tr := New(restarter, "restart")
	res, err := tr.Truncate(context.Background(), path, 1_000_000, 5)
	require.NoError(t, err)
	assert.False(t, res.Truncated)
	assert.Equal(t, 0, restarter.calls)

	info2, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, modBefore, info2.ModTime())
}

func TestTruncate_FewContentEntriesDoesNotWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.jsonl")
	writeLog(t, path, []entry{contentEntry("m1", 500000)})

	restarter := &fakeRestarter{}
	tr := New(restarter, "restart")
	res, err := tr.Truncate(context.Background(), path, 10, 5)
	require.NoError(t, err)
	assert.False(t, res.Truncated)
}

func TestTruncate_MissingLogReturnsNotTruncated(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing.jsonl")

	tr := New(&fakeRestarter{}, "restart")
	res, err := tr.Truncate(context.Background(), path, 100, 5)
	require.NoError(t, err)
	assert.False(t, res.Truncated)
}

func TestTruncate_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.jsonl")
	var lines []entry
	for i := 0; i < 20; i++ {
		lines = append(lines, contentEntry(idFor(i), 5000))
	}
	writeLog(t, path, lines)

	tr := New(&fakeRestarter{}, "restart")
	_, err := tr.Truncate(context.Background(), path, 100, 2)
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "session.jsonl", entries[0].Name())
}

func idFor(i int) string {
	return "m" + string(rune('a'+i%26)) + string(rune('0'+i/26))
}
