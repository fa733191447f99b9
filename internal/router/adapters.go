package router

import (
	"context"

	"github.com/routerchain/routerchain/internal/aggregator"
	"github.com/routerchain/routerchain/internal/config"
	"github.com/routerchain/routerchain/internal/configpatcher"
	"github.com/routerchain/routerchain/internal/costs"
	"github.com/routerchain/routerchain/internal/decision"
	"github.com/routerchain/routerchain/internal/failuretracker"
	"github.com/routerchain/routerchain/internal/ledger"
	"github.com/routerchain/routerchain/internal/registry"
	"github.com/routerchain/routerchain/internal/switcherstate"
	"github.com/routerchain/routerchain/internal/truncator"
	"github.com/rs/zerolog/log"
)

// Adapters owns every component the two hooks need and is constructed
// once by plugin.go.
type Adapters struct {
	Cfg       *config.Config
	Ledger    *ledger.Ledger
	Registry  *registry.Registry
	Failures  *failuretracker.Tracker
	Patcher   *configpatcher.Patcher
	Switcher  *switcherstate.Switcher
	Truncator *truncator.Truncator
}

// OnPreTurn implements the before_agent_start hook: it reconciles any
// pending local-fallback restore, then returns an advisory injection
// string. Any internal failure is logged and swallowed — the host always
// gets a (possibly empty) result, never an error.
func (a *Adapters) OnPreTurn(ctx context.Context, ev PreTurnEvent) (result PreTurnResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("router: OnPreTurn panicked, returning empty result")
			result = PreTurnResult{}
		}
	}()

	if a.Switcher != nil {
		healthy, err := a.budgetHealthy()
		if err != nil {
			log.Warn().Err(err).Msg("router: could not evaluate budget health for switcher reconcile")
		} else if _, err := a.Switcher.Reconcile(ctx, healthy); err != nil {
			log.Warn().Err(err).Msg("router: switcher reconcile failed")
		}
	}

	activeID, err := a.Ledger.ActiveProvider()
	if err != nil {
		log.Warn().Err(err).Msg("router: could not read active provider, skipping injection")
		return PreTurnResult{}
	}
	provider, ok := a.Registry.Get(activeID)
	if !ok {
		return PreTurnResult{}
	}

	complexity := decision.ClassifyComplexity(ev.Prompt, ev.Messages)
	estTokens := decision.EstimateContextTokens(ev.Prompt, ev.Messages)
	injection := decision.BuildInjection(decision.InjectionConfig{
		AutoRoutingAdvisory:  a.Cfg.AutoRouting == config.AutoRoutingAdvisory,
		OptimizationDisabled: a.Cfg.OptimizationDisabled,
	}, provider, complexity, estTokens)

	return PreTurnResult{PrependContext: injection}
}

// OnPostTurn implements the agent_end hook: classify success/failure,
// record usage, ask the decision engine for the next state, and act on it
// (patch + restart, or switch to local). Truncates the session log last if
// enabled. Every step is best-effort: a failure in one does not prevent
// the next from running, and nothing panics outward.
func (a *Adapters) OnPostTurn(ctx context.Context, ev PostTurnEvent) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("router: OnPostTurn panicked, continuing")
		}
	}()

	activeID, err := a.Ledger.ActiveProvider()
	if err != nil {
		log.Warn().Err(err).Msg("router: could not read active provider")
		return
	}

	failed := failuretracker.IsFailure(ev.HadError, ev.Messages)
	if failed {
		if _, err := a.Failures.RecordFailure(activeID); err != nil {
			log.Warn().Err(err).Msg("router: record failure")
		}
	} else if err := a.Failures.RecordSuccess(activeID); err != nil {
		log.Warn().Err(err).Msg("router: record success")
	}

	if a.Cfg.Mode == config.ModeChain {
		a.postTurnChain(ctx, activeID, ev)
	} else {
		a.postTurnLegacy(ctx, ev)
	}

	if a.Cfg.ContextTruncationEnabled && a.Truncator != nil && ev.SessionLogPath != "" {
		if _, err := a.Truncator.Truncate(ctx, ev.SessionLogPath, a.Cfg.ContextMaxTokens, a.Cfg.ContextKeepRecent); err != nil {
			log.Warn().Err(err).Msg("router: session log truncation failed")
		}
	}
}

func (a *Adapters) postTurnChain(ctx context.Context, activeID string, ev PostTurnEvent) {
	since, err := a.Ledger.LastTransactionTimestamp()
	if err != nil {
		log.Warn().Err(err).Msg("router: could not read last transaction timestamp")
	}
	fallbackRate := costs.ResolveCost(ev.Model)
	if result := aggregator.Aggregate(ev.Messages, ev.Model, fallbackRate, since); result != nil {
		if err := a.Ledger.RecordTransaction(activeID, result.Model, result.InputTokens, result.OutputTokens, result.Cost); err != nil {
			log.Warn().Err(err).Msg("router: record transaction failed")
		}
	}

	d, err := decision.Decide(a.Ledger, a.Registry, a.Failures, a.Cfg.FailureThreshold, ev.Prompt, ev.Messages)
	if err != nil {
		log.Warn().Err(err).Msg("router: decision engine failed")
		return
	}

	switch d.Action {
	case decision.Allow:
		return
	case decision.AllExhausted:
		log.Warn().Msg("router: all providers exhausted, no switch possible")
		return
	case decision.SwitchProvider:
		a.applySwitch(ctx, activeID, *d)
	}
}

func (a *Adapters) postTurnLegacy(ctx context.Context, ev PostTurnEvent) {
	fallbackRate := costs.ResolveCost(ev.Model)
	since, err := a.Ledger.LastTransactionTimestamp()
	if err != nil {
		log.Warn().Err(err).Msg("router: could not read last transaction timestamp")
	}
	if result := aggregator.Aggregate(ev.Messages, ev.Model, fallbackRate, since); result != nil {
		if err := a.Ledger.RecordTransaction(legacyProviderID, result.Model, result.InputTokens, result.OutputTokens, result.Cost); err != nil {
			log.Warn().Err(err).Msg("router: record legacy transaction failed")
		}
	}

	spent, err := a.Ledger.TotalSpent()
	if err != nil {
		log.Warn().Err(err).Msg("router: could not read total spent")
		return
	}

	res := decision.CheckBudget(a.Cfg.DailyBudgetUsd, spent, ev.Prompt, ev.Messages)
	if res.Action != "force_local" {
		return
	}

	active, err := a.Switcher.Active()
	if err != nil {
		log.Warn().Err(err).Msg("router: could not read switcher state")
		return
	}
	if active {
		// Idempotent double-switch: already on the local fallback.
		return
	}
	if err := a.Switcher.SwitchToLocal(ctx, res.ForcedModel); err != nil {
		log.Warn().Err(err).Msg("router: switch to local fallback failed")
	}
}

// applySwitch patches the host onto the decision engine's chosen provider.
// Switches onto the free local provider go through Switcher so the
// original model can be restored once the day's budget resets; switches
// between paid providers go straight through the patcher.
func (a *Adapters) applySwitch(ctx context.Context, fromID string, d decision.Decision) {
	targetProvider, ok := a.Registry.Get(d.Provider)
	if ok && targetProvider.Free() {
		active, err := a.Switcher.Active()
		if err != nil {
			log.Warn().Err(err).Msg("router: could not read switcher state")
			return
		}
		if active {
			return
		}
		if err := a.Switcher.SwitchToLocal(ctx, d.Model); err != nil {
			log.Warn().Err(err).Msg("router: switch to local provider failed")
			return
		}
	} else if err := a.Patcher.SetActiveModel(ctx, d.Model); err != nil {
		log.Warn().Err(err).Msg("router: patch host to new provider failed")
		return
	}

	if err := a.Ledger.RecordSwitch(fromID, d.Provider, d.Reason); err != nil {
		log.Warn().Err(err).Msg("router: record switch failed")
	}
}

// New constructs an Adapters from its component dependencies, built by
// plugin.go once at host load.
func New(cfg *config.Config, l *ledger.Ledger, reg *registry.Registry, failures *failuretracker.Tracker, patcher *configpatcher.Patcher, sw *switcherstate.Switcher, tr *truncator.Truncator) *Adapters {
	return &Adapters{
		Cfg:       cfg,
		Ledger:    l,
		Registry:  reg,
		Failures:  failures,
		Patcher:   patcher,
		Switcher:  sw,
		Truncator: tr,
	}
}

// budgetHealthy reports whether the active provider is currently
// non-exhausted — the signal Switcher.Reconcile needs to decide whether
// it is safe to restore the original model.
func (a *Adapters) budgetHealthy() (bool, error) {
	activeID, err := a.Ledger.ActiveProvider()
	if err != nil {
		return false, err
	}
	if activeID == "" {
		return true, nil
	}
	exhausted, err := a.Ledger.Exhausted(activeID)
	if err != nil {
		return false, err
	}
	return !exhausted, nil
}
