// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine exposes the single sourcing operation: fan a query out to
// the configured adapters, then normalize, deduplicate, score, filter and
// rank what comes back within the caller's time budget.
//
// An Engine holds only immutable configuration. Concurrent calls share
// nothing, and nothing survives a call.
package engine

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pdiddy/sourcing-engine/internal/adapter"
	"github.com/pdiddy/sourcing-engine/internal/constraint"
	"github.com/pdiddy/sourcing-engine/internal/dedupe"
	"github.com/pdiddy/sourcing-engine/internal/normalize"
	"github.com/pdiddy/sourcing-engine/internal/orchestrate"
	"github.com/pdiddy/sourcing-engine/internal/rank"
	"github.com/pdiddy/sourcing-engine/internal/rerank"
	"github.com/pdiddy/sourcing-engine/internal/score"
	"github.com/pdiddy/sourcing-engine/pkg/types"
)

// Defaults for a zero-valued configuration.
const (
	DefaultBudget   = 4 * time.Second
	MaxBudget       = 10 * time.Second
	DefaultCurrency = "USD"
)

// Observer receives per-call measurements. Implementations must be safe
// for concurrent use.
type Observer interface {
	ObserveAdapter(status types.AdapterStatus)
	ObserveQuery(rs types.RankedResultSet, err error)
}

// Engine runs sourcing queries.
type Engine struct {
	cfg    types.Config
	scorer score.Scorer
	log    *zap.Logger
	obs    Observer
}

// New returns an Engine for cfg. Zero fields of cfg take their defaults.
// An invalid weight or tier table falls back to the defaults with a
// warning; config.Validate rejects such tables before they get here.
// log and obs may be nil.
func New(cfg types.Config, log *zap.Logger, obs Observer) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	scorer, err := score.FromConfig(cfg.Scoring)
	if err != nil {
		log.Warn("invalid scoring tables, using defaults", zap.Error(err))
		scorer = score.Default()
	}
	return &Engine{
		cfg:    withDefaults(cfg),
		scorer: scorer,
		log:    log,
		obs:    obs,
	}
}

// Config returns the effective configuration.
func (e *Engine) Config() types.Config { return e.cfg }

// SourceAndRank runs q against adapters and returns the ranked offers.
// Adapter order is dedup precedence: earlier adapters win ties.
//
// It returns ErrInvalidQuery without contacting any adapter when q is not
// processable, and ErrNoResults together with the populated result set
// (statuses, elapsed) when no offer survived. Individual adapter failures
// are reported in the statuses and never returned as errors.
func (e *Engine) SourceAndRank(ctx context.Context, q types.Query, adapters []adapter.Adapter) (types.RankedResultSet, error) {
	start := time.Now()
	if err := q.Validate(); err != nil {
		err = eris.Wrap(ErrInvalidQuery, err.Error())
		e.observeQuery(types.RankedResultSet{}, err)
		return types.RankedResultSet{}, err
	}

	q.Currency = e.currency(q.Currency)
	budget := e.budget(q.Budget)
	log := e.log.With(zap.String("query", q.Text), zap.String("category", q.Intent.Category))

	outcomes := orchestrate.Run(ctx, q, adapters, budget, orchestrate.Options{
		DefaultDeadline: e.cfg.Engine.DefaultAdapterDeadline,
		Fraction:        e.cfg.Engine.DeadlineFraction,
		Overrides:       e.deadlineOverrides(),
		Logger:          log,
	})

	rs := types.RankedResultSet{Statuses: make([]types.AdapterStatus, 0, len(outcomes))}
	var offers []types.Offer
	for _, oc := range outcomes {
		accepted := e.normalizeAll(oc, q.Currency, log)
		oc.Status.ResultCount = len(accepted)
		offers = append(offers, accepted...)
		rs.Statuses = append(rs.Statuses, oc.Status)
		if e.obs != nil {
			e.obs.ObserveAdapter(oc.Status)
		}
	}

	offers, rs.DuplicatesRemoved = dedupe.Dedupe(offers)

	kept := offers[:0]
	for _, o := range offers {
		o.Scores = e.scorer.Score(o, q).Scores()
		fit := constraint.Fit(o, q)
		if fit.Rejected {
			rs.Excluded++
			log.Debug("offer excluded", zap.String("key", o.Key), zap.Strings("reasons", fit.Reasons))
			continue
		}
		o.Scores.ConstraintFit = fit.Fit
		o.Reasons = append(append([]string(nil), o.Reasons...), fit.Reasons...)
		kept = append(kept, o)
	}

	adj := rerank.Rerank(kept, rerank.Options{
		MaxDelta:            e.cfg.Scoring.RerankMaxDelta,
		SpreadFraction:      e.cfg.Scoring.RerankSpreadFraction,
		Window:              e.cfg.Scoring.RerankWindow,
		SimilarityThreshold: e.cfg.Scoring.RerankSimilarity,
	})
	for i := range kept {
		kept[i].Scores.Rerank = adj[i]
	}

	rs.Offers = rank.Aggregate(kept, rank.Options{
		SoftFitFloor: e.cfg.Scoring.SoftFitFloor,
		MaxResults:   e.cfg.Engine.MaxResults,
	})
	rs.Elapsed = time.Since(start)

	var err error
	if len(rs.Offers) == 0 {
		err = eris.Wrap(ErrNoResults, rs.Summary())
		log.Warn("no offers survived", zap.String("summary", rs.Summary()))
	} else if rs.Responded() < len(rs.Statuses) {
		log.Warn("partial results", zap.String("summary", rs.Summary()))
	} else {
		log.Info("query ranked", zap.String("summary", rs.Summary()), zap.Duration("elapsed", rs.Elapsed))
	}
	e.observeQuery(rs, err)
	return rs, err
}

// normalizeAll maps and normalizes one adapter's items. Items the adapter
// cannot map, or the normalizer rejects, are dropped and only counted.
func (e *Engine) normalizeAll(oc orchestrate.Outcome, currency string, log *zap.Logger) []types.Offer {
	if len(oc.Items) == 0 {
		return nil
	}
	opts := normalize.Options{Currency: currency, Rates: e.cfg.Normalize.Rates}
	out := make([]types.Offer, 0, len(oc.Items))
	for _, item := range oc.Items {
		c, err := mapItem(oc.Adapter, item)
		if err != nil {
			log.Debug("unmappable item", zap.String("adapter", oc.Adapter.Name()), zap.Error(err))
			continue
		}
		o, err := normalize.Normalize(c, oc.Adapter.Name(), oc.Adapter.Category(), opts)
		if err != nil {
			continue
		}
		out = append(out, o)
	}
	if rejected := len(oc.Items) - len(out); rejected > 0 {
		log.Debug("items rejected", zap.String("adapter", oc.Adapter.Name()), zap.Int("rejected", rejected))
	}
	return out
}

func mapItem(a adapter.Adapter, item adapter.Raw) (c types.Candidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("map panicked: %v", r)
		}
	}()
	return a.Map(item)
}

func (e *Engine) budget(requested time.Duration) time.Duration {
	b := requested
	if b <= 0 {
		b = e.cfg.Engine.DefaultBudget
	}
	if b > e.cfg.Engine.MaxBudget {
		b = e.cfg.Engine.MaxBudget
	}
	return b
}

func (e *Engine) currency(requested string) string {
	if c := normalize.CurrencyCode(requested); c != "" {
		return c
	}
	return e.cfg.Engine.Currency
}

func (e *Engine) deadlineOverrides() map[string]time.Duration {
	var out map[string]time.Duration
	for _, a := range e.cfg.Adapters {
		if a.Deadline > 0 {
			if out == nil {
				out = make(map[string]time.Duration)
			}
			out[a.Name] = a.Deadline
		}
	}
	return out
}

func (e *Engine) observeQuery(rs types.RankedResultSet, err error) {
	if e.obs != nil {
		e.obs.ObserveQuery(rs, err)
	}
}

func withDefaults(cfg types.Config) types.Config {
	if cfg.Engine.DefaultBudget <= 0 {
		cfg.Engine.DefaultBudget = DefaultBudget
	}
	if cfg.Engine.MaxBudget <= 0 {
		cfg.Engine.MaxBudget = MaxBudget
	}
	if cfg.Engine.DefaultBudget > cfg.Engine.MaxBudget {
		cfg.Engine.DefaultBudget = cfg.Engine.MaxBudget
	}
	if cfg.Engine.DefaultAdapterDeadline <= 0 {
		cfg.Engine.DefaultAdapterDeadline = orchestrate.DefaultAdapterDeadline
	}
	if c := normalize.CurrencyCode(cfg.Engine.Currency); c != "" {
		cfg.Engine.Currency = c
	} else {
		cfg.Engine.Currency = DefaultCurrency
	}

	ro := rerank.DefaultOptions()
	if cfg.Scoring.RerankMaxDelta <= 0 {
		cfg.Scoring.RerankMaxDelta = ro.MaxDelta
	}
	if cfg.Scoring.RerankSpreadFraction <= 0 {
		cfg.Scoring.RerankSpreadFraction = ro.SpreadFraction
	}
	if cfg.Scoring.RerankWindow <= 0 {
		cfg.Scoring.RerankWindow = ro.Window
	}
	if cfg.Scoring.RerankSimilarity <= 0 {
		cfg.Scoring.RerankSimilarity = ro.SimilarityThreshold
	}
	if cfg.Scoring.SoftFitFloor <= 0 || cfg.Scoring.SoftFitFloor > 1 {
		cfg.Scoring.SoftFitFloor = rank.DefaultOptions().SoftFitFloor
	}
	if cfg.Normalize.Rates == nil {
		cfg.Normalize.Rates = normalize.DefaultRates
	}
	return cfg
}
