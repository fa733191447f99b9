// Package dashboard serves a single loopback-only, read-only HTML status
// page over the ledger, provider chain, and failure-tracker state, in the
// style of Compresr's costcontrol.HandleDashboard: no client bundle, no
// JSON API, one server-rendered page that refreshes itself.
package dashboard

import (
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"

	"github.com/routerchain/routerchain/internal/failuretracker"
	"github.com/routerchain/routerchain/internal/ledger"
	"github.com/routerchain/routerchain/internal/registry"
)

// History is the read side of the sqlite audit trail (internal/ledger's
// SqliteHistory). Kept as an interface so the dashboard doesn't need to
// import database/sql, and so tests can substitute a fake.
type History interface {
	Recent(limit int) ([]ledger.Transaction, error)
}

// historyRows is how many past transactions the dashboard's history table
// shows.
const historyRows = 20

// Handler renders the dashboard from the same components the router
// adapters use; it never mutates any of them. History is optional — a nil
// History means the sink is disabled and the history table is omitted.
type Handler struct {
	Ledger   *ledger.Ledger
	Registry *registry.Registry
	Failures *failuretracker.Tracker
	History  History
}

// New builds a Handler. history may be nil if the sqlite audit sink is
// disabled.
func New(l *ledger.Ledger, reg *registry.Registry, failures *failuretracker.Tracker, history History) *Handler {
	return &Handler{Ledger: l, Registry: reg, Failures: failures, History: history}
}

// ServeHTTP rejects any request not originating from loopback, then
// renders the current chain state as a single HTML page.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !isLoopback(r.RemoteAddr) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	doc, err := h.Ledger.Load()
	if err != nil {
		http.Error(w, "ledger unavailable", http.StatusInternalServerError)
		return
	}
	failDoc, err := h.Failures.Load()
	if err != nil {
		http.Error(w, "failure tracker unavailable", http.StatusInternalServerError)
		return
	}

	providers := h.Registry.All()
	sort.Slice(providers, func(i, j int) bool {
		if providers[i].Priority != providers[j].Priority {
			return providers[i].Priority < providers[j].Priority
		}
		return providers[i].ID < providers[j].ID
	})

	var b strings.Builder
	b.WriteString(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="5">
<title>routerchain - Provider Chain</title>
<style>
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body { font-family: 'SF Mono', 'Fira Code', 'Cascadia Code', monospace; background: #0d1117; color: #c9d1d9; padding: 24px; }
  h1 { color: #58a6ff; font-size: 18px; margin-bottom: 16px; }
  .summary { display: flex; gap: 24px; margin-bottom: 24px; padding: 16px; background: #161b22; border: 1px solid #30363d; border-radius: 6px; }
  .stat-label { font-size: 11px; color: #8b949e; text-transform: uppercase; letter-spacing: 1px; }
  .stat-value { font-size: 24px; font-weight: bold; color: #f0f6fc; }
  .stat-value.cost { color: #ffa657; }
  table { width: 100%; border-collapse: collapse; background: #161b22; border: 1px solid #30363d; border-radius: 6px; overflow: hidden; margin-bottom: 24px; }
  th { text-align: left; padding: 10px 14px; font-size: 11px; color: #8b949e; text-transform: uppercase; letter-spacing: 1px; background: #0d1117; border-bottom: 1px solid #30363d; }
  td { padding: 10px 14px; font-size: 13px; border-bottom: 1px solid #21262d; }
  tr:last-child td { border-bottom: none; }
  .active { color: #3fb950; font-weight: bold; }
  .disabled { color: #484f58; }
  .cost { color: #ffa657; font-weight: bold; }
  .bar-container { width: 100px; height: 8px; background: #21262d; border-radius: 4px; overflow: hidden; display: inline-block; vertical-align: middle; margin-right: 8px; }
  .bar { height: 100%; border-radius: 4px; }
  .bar-ok { background: #3fb950; }
  .bar-warn { background: #d29922; }
  .bar-danger { background: #f85149; }
  .footer { font-size: 11px; color: #484f58; }
</style>
</head>
<body>
<h1>routerchain - Provider Chain</h1>
<div class="summary">
  <div class="stat">
    <div class="stat-label">Date</div>
    <div class="stat-value">`)
	b.WriteString(doc.Date)
	b.WriteString(`</div>
  </div>
  <div class="stat">
    <div class="stat-label">Active Provider</div>
    <div class="stat-value active">`)
	b.WriteString(doc.ActiveProvider)
	b.WriteString(`</div>
  </div>
  <div class="stat">
    <div class="stat-label">Total Spend</div>
    <div class="stat-value cost">`)
	fmt.Fprintf(&b, "$%.4f", totalSpend(doc))
	b.WriteString(`</div>
  </div>
</div>
<table>
<tr>
  <th>Provider</th>
  <th>Model</th>
  <th>Status</th>
  <th>Spend</th>
  <th>Budget</th>
  <th>Consecutive Failures</th>
</tr>
`)
	for _, p := range providers {
		spend := doc.Providers[p.ID]
		status := "enabled"
		statusClass := ""
		if !p.Enabled {
			status = "disabled"
			statusClass = "disabled"
		} else if p.ID == doc.ActiveProvider {
			status = "active"
			statusClass = "active"
		}

		fmt.Fprintf(&b, `<tr>
  <td>%s</td>
  <td>%s</td>
  <td class="%s">%s</td>
  <td class="cost">$%.4f</td>
  <td>`, p.ID, p.Model(registry.TaskGeneral), statusClass, status, spend.SpentUsd)

		if p.Free() {
			b.WriteString("unlimited")
		} else if p.MaxDailyUsd > 0 {
			pct := spend.SpentUsd / p.MaxDailyUsd * 100
			if pct > 100 {
				pct = 100
			}
			barClass := "bar-ok"
			if pct > 80 {
				barClass = "bar-danger"
			} else if pct > 50 {
				barClass = "bar-warn"
			}
			fmt.Fprintf(&b, `<div class="bar-container"><div class="bar %s" style="width:%.0f%%"></div></div>$%.2f cap`, barClass, pct, p.MaxDailyUsd)
		} else {
			b.WriteString("none")
		}

		failures := failDoc.Providers[p.ID].ConsecutiveFailures
		fmt.Fprintf(&b, `</td>
  <td>%d</td>
</tr>
`, failures)
	}
	b.WriteString(`</table>
`)

	h.writeHistory(&b)

	b.WriteString(`<div class="footer">Auto-refreshes every 5 seconds</div>
</body>
</html>`)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(b.String()))
}

// writeHistory renders the recent-transactions audit table, or nothing at
// all when the sqlite sink is disabled or unreadable — the dashboard's
// primary provider-chain view above already works without it.
func (h *Handler) writeHistory(b *strings.Builder) {
	if h.History == nil {
		return
	}
	rows, err := h.History.Recent(historyRows)
	if err != nil || len(rows) == 0 {
		return
	}

	b.WriteString(`<table>
<tr>
  <th>Timestamp</th>
  <th>Provider</th>
  <th>Model</th>
  <th>Tokens</th>
  <th>Cost</th>
</tr>
`)
	for _, tx := range rows {
		fmt.Fprintf(b, `<tr>
  <td>%s</td>
  <td>%s</td>
  <td>%s</td>
  <td>%d in / %d out</td>
  <td class="cost">$%.4f</td>
</tr>
`, tx.Timestamp, tx.Provider, tx.Model, tx.InputTokens, tx.OutputTokens, tx.CostUsd)
	}
	b.WriteString(`</table>
`)
}

func totalSpend(doc *ledger.Document) float64 {
	var total float64
	for _, s := range doc.Providers {
		total += s.SpentUsd
	}
	return total
}

// isLoopback reports whether addr (a net/http RemoteAddr, host:port form)
// resolves to a loopback address. Anything unparseable is rejected.
func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
