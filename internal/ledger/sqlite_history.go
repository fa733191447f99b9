package ledger

import (
	"database/sql"
	"fmt"

	// modernc.org/sqlite registers the "sqlite" driver; pure-Go, matching
	// the teacher's own choice over cgo-based drivers.
	_ "modernc.org/sqlite"
)

// SqliteHistory is an append-only audit trail of every recorded
// transaction, independent of the day-scoped JSON ledger document. It
// exists purely for the dashboard's history view; it is never read back
// to make a budget decision — the JSON ledger document remains the single
// source of truth for spend and exhaustion (DESIGN.md).
type SqliteHistory struct {
	db *sql.DB
}

// OpenSqliteHistory opens (creating if needed) the sqlite database at path
// and ensures the transactions table exists.
func OpenSqliteHistory(path string) (*SqliteHistory, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ledger: open history db: %w", err)
	}

	const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	provider TEXT NOT NULL,
	model TEXT NOT NULL,
	input_tokens INTEGER NOT NULL,
	output_tokens INTEGER NOT NULL,
	cost_usd REAL NOT NULL,
	ts TEXT NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ledger: create history schema: %w", err)
	}

	return &SqliteHistory{db: db}, nil
}

// Record inserts one transaction into the audit trail.
func (h *SqliteHistory) Record(tx Transaction) error {
	_, err := h.db.Exec(
		`INSERT INTO transactions (provider, model, input_tokens, output_tokens, cost_usd, ts) VALUES (?, ?, ?, ?, ?, ?)`,
		tx.Provider, tx.Model, tx.InputTokens, tx.OutputTokens, tx.CostUsd, tx.Timestamp,
	)
	return err
}

// Close closes the underlying database handle.
func (h *SqliteHistory) Close() error {
	return h.db.Close()
}

// Recent returns up to limit of the most recently recorded transactions,
// newest first, for the dashboard's history view.
func (h *SqliteHistory) Recent(limit int) ([]Transaction, error) {
	rows, err := h.db.Query(
		`SELECT provider, model, input_tokens, output_tokens, cost_usd, ts FROM transactions ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("ledger: query history: %w", err)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var tx Transaction
		if err := rows.Scan(&tx.Provider, &tx.Model, &tx.InputTokens, &tx.OutputTokens, &tx.CostUsd, &tx.Timestamp); err != nil {
			return nil, fmt.Errorf("ledger: scan history row: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}
