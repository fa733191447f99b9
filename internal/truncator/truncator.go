package truncator

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/routerchain/routerchain/internal/configpatcher"
	"github.com/rs/zerolog/log"
)

// Truncator rewrites a session log file and, when it actually truncates,
// triggers a host restart the same way internal/configpatcher does.
type Truncator struct {
	restarter  configpatcher.Restarter
	restartCmd string
}

// New creates a Truncator that invokes restarter after a truncating write.
func New(restarter configpatcher.Restarter, restartCmd string) *Truncator {
	return &Truncator{restarter: restarter, restartCmd: restartCmd}
}

// Truncate reads the JSONL session log at path, estimates its token size,
// and — only if the estimate exceeds ceiling and there are more than
// keepRecent content entries — rewrites it keeping all structural entries,
// the last keepRecent content entries, and one inserted compaction marker,
// then triggers a host restart. Returns Result{Truncated:false} without
// writing when the log is missing, already within budget, or has too few
// content entries to trim.
func (t *Truncator) Truncate(ctx context.Context, path string, ceiling, keepRecent int) (Result, error) {
	entries, err := readEntries(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{}, nil
		}
		return Result{}, fmt.Errorf("truncator: read %s: %w", path, err)
	}

	before := estimateTotal(entries)
	contentCount := countContent(entries)

	if before <= ceiling || contentCount <= keepRecent {
		return Result{EstimateBefore: before, EstimateAfter: before}, nil
	}

	rewritten, removed := compact(entries, keepRecent)
	relink(rewritten)

	if err := writeEntries(path, rewritten); err != nil {
		return Result{}, fmt.Errorf("truncator: write %s: %w", path, err)
	}

	after := estimateTotal(rewritten)
	log.Info().Int("removed", removed).Int("estimateBefore", before).Int("estimateAfter", after).Msg("truncator: session log compacted")

	if t.restarter != nil {
		restartCtx, cancel := context.WithTimeout(ctx, configpatcher.RestartTimeout)
		defer cancel()
		if err := t.restarter.Restart(restartCtx, t.restartCmd); err != nil {
			log.Warn().Err(err).Msg("truncator: host restart command failed, log already rewritten")
		}
	}

	return Result{Truncated: true, RemovedCount: removed, EstimateBefore: before, EstimateAfter: after}, nil
}

func readEntries(path string) ([]entry, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is host-supplied session log path
	if err != nil {
		return nil, err
	}

	var entries []entry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var e entry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("truncator: parse line: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, scanner.Err()
}

func estimateEntry(e entry) int {
	if isStructural(e.entryType()) {
		return structuralTokens
	}
	tokens := (e.contentChars() + 3) / 4
	if tokens < minContentTokens {
		return minContentTokens
	}
	return tokens
}

func estimateTotal(entries []entry) int {
	total := 0
	for _, e := range entries {
		total += estimateEntry(e)
	}
	return total
}

func countContent(entries []entry) int {
	count := 0
	for _, e := range entries {
		if !isStructural(e.entryType()) {
			count++
		}
	}
	return count
}

// compact keeps every structural entry and the last keepRecent content
// entries, discarding older content entries, and inserts a synthetic
// compaction entry immediately before the first surviving content entry —
// not before any leading structural entries, which always survive and
// always come first (spec.md §4.10).
func compact(entries []entry, keepRecent int) ([]entry, int) {
	contentCount := countContent(entries)
	removed := contentCount - keepRecent

	discard := make([]bool, len(entries))
	skipped := 0
	for i, e := range entries {
		if isStructural(e.entryType()) {
			continue
		}
		if skipped < removed {
			discard[i] = true
			skipped++
		}
	}

	firstKept := -1
	for i, e := range entries {
		if isStructural(e.entryType()) {
			continue
		}
		if !discard[i] {
			firstKept = i
			break
		}
	}

	out := make([]entry, 0, len(entries)-removed+1)
	compactionInserted := false
	for i, e := range entries {
		if discard[i] {
			continue
		}
		if !compactionInserted && i == firstKept {
			out = append(out, newMessageEntry(
				uuid.NewString(),
				TypeCompaction,
				"system",
				fmt.Sprintf("[Session compacted: removed %d older messages]", removed),
			))
			compactionInserted = true
		}
		out = append(out, e)
	}
	return out, removed
}

// relink rebuilds the parentId chain so the first entry has parentId ==
// null and every subsequent entry points at its new predecessor's id.
func relink(entries []entry) {
	var prevID *string
	for _, e := range entries {
		e.setParentID(prevID)
		id := e.id()
		idCopy := id
		prevID = &idCopy
	}
}

func writeEntries(path string, entries []entry) error {
	var buf bytes.Buffer
	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("truncator: marshal entry: %w", err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("truncator: mkdir: %w", err)
	}
	tmp := fmt.Sprintf("%s.tmp.%d", path, os.Getpid())
	if err := os.WriteFile(tmp, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("truncator: write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("truncator: rename into place: %w", err)
	}
	return nil
}
