// Package hostclient wraps the two blocking calls the router makes to
// things outside its own process: probing the local Ollama server and
// running the host's restart command (spec.md §5/§6).
package hostclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ProbeTimeout bounds the local-provider reachability check (spec.md §5).
const ProbeTimeout = 3 * time.Second

// OllamaStatus reports what ProbeOllama found.
type OllamaStatus struct {
	Reachable bool
	Models    []string
}

// Has reports whether modelID is among the models Ollama reports installed.
func (s OllamaStatus) Has(modelID string) bool {
	for _, m := range s.Models {
		if strings.EqualFold(m, modelID) {
			return true
		}
	}
	return false
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// ProbeOllama checks whether the local Ollama server at baseURL is
// reachable and which models it reports installed. Any error, including a
// timeout, is reported as unreachable rather than propagated, so the probe
// never blocks the caller past ProbeTimeout. Nothing in the switch path
// calls it: switcherstate.SwitchToLocal patches the host onto the local
// model without probing first.
func ProbeOllama(ctx context.Context, baseURL string) OllamaStatus {
	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+"/api/tags", nil)
	if err != nil {
		log.Warn().Err(err).Msg("hostclient: could not build ollama probe request")
		return OllamaStatus{}
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("url", baseURL).Msg("hostclient: ollama probe failed, treating as unreachable")
		return OllamaStatus{}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Msg("hostclient: ollama probe returned non-200")
		return OllamaStatus{}
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		log.Warn().Err(err).Msg("hostclient: ollama probe returned unparseable body")
		return OllamaStatus{}
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return OllamaStatus{Reachable: true, Models: names}
}

// RestartHost runs command as a shell command with a bounded timeout,
// discarding stdio, and implements configpatcher.Restarter. Per spec.md
// §4.8/§7 error kind 4, a failing or timed-out restart is logged, never
// returned as fatal to the caller's own operation — the already-written
// config takes effect on the host's own next self-restart.
func RestartHost(ctx context.Context, command string) error {
	if strings.TrimSpace(command) == "" {
		return fmt.Errorf("hostclient: empty restart command")
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", command) // #nosec G204 -- operator-configured restart command
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("hostclient: restart command failed: %w", err)
	}
	return nil
}

// Restarter adapts the package-level RestartHost to the
// configpatcher.Restarter / truncator restarter interface shape as a
// concrete type, so plugin.go can wire one value instead of a bare func.
type Restarter struct{}

// Restart runs the configured restart command.
func (Restarter) Restart(ctx context.Context, command string) error {
	return RestartHost(ctx, command)
}
