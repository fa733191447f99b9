package ledger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSqliteHistory_RecordAndRecent(t *testing.T) {
	dir := t.TempDir()
	hist, err := OpenSqliteHistory(filepath.Join(dir, "history.sqlite"))
	require.NoError(t, err)
	defer hist.Close()

	require.NoError(t, hist.Record(Transaction{Provider: "a", Model: "a-model", InputTokens: 10, OutputTokens: 5, CostUsd: 0.1, Timestamp: "2026-08-01T00:00:00Z"}))
	require.NoError(t, hist.Record(Transaction{Provider: "b", Model: "b-model", InputTokens: 20, OutputTokens: 8, CostUsd: 0.2, Timestamp: "2026-08-01T00:01:00Z"}))

	recent, err := hist.Recent(10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "b", recent[0].Provider, "most recent transaction first")
	assert.Equal(t, "a", recent[1].Provider)
}

func TestSqliteHistory_RecentRespectsLimit(t *testing.T) {
	dir := t.TempDir()
	hist, err := OpenSqliteHistory(filepath.Join(dir, "history.sqlite"))
	require.NoError(t, err)
	defer hist.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, hist.Record(Transaction{Provider: "a", Model: "a-model", CostUsd: 0.1, Timestamp: "2026-08-01T00:00:00Z"}))
	}

	recent, err := hist.Recent(2)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}

func TestOpenSqliteHistory_ReopensExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.sqlite")

	first, err := OpenSqliteHistory(path)
	require.NoError(t, err)
	require.NoError(t, first.Record(Transaction{Provider: "a", Model: "a-model", CostUsd: 0.1, Timestamp: "2026-08-01T00:00:00Z"}))
	require.NoError(t, first.Close())

	second, err := OpenSqliteHistory(path)
	require.NoError(t, err)
	defer second.Close()

	recent, err := second.Recent(10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "a", recent[0].Provider)
}
