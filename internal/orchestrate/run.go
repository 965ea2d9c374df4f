// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package orchestrate fans a query out to every adapter concurrently under
// a single wall-clock budget and collects one outcome per adapter.
//
// Each adapter runs under its own deadline derived from the budget. When a
// deadline passes the adapter is abandoned: its goroutine may still finish,
// but it can only write into a private buffered channel nobody reads.
package orchestrate

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/sourcing-engine/internal/adapter"
	"github.com/pdiddy/sourcing-engine/pkg/types"
)

// DefaultAdapterDeadline applies when neither an override nor a category
// fraction is configured.
const DefaultAdapterDeadline = 3 * time.Second

// Outcome is what one adapter produced. Items is nil unless Status is ok.
type Outcome struct {
	Adapter adapter.Adapter
	Items   []adapter.Raw
	Status  types.AdapterStatus
}

// Options configures per-adapter deadlines.
type Options struct {
	// DefaultDeadline caps an adapter with no override or fraction.
	DefaultDeadline time.Duration

	// Fraction grants a source category a share of the total budget,
	// keyed by types.SourceCategory.
	Fraction map[string]float64

	// Overrides sets the deadline of individual adapters by name.
	Overrides map[string]time.Duration

	Logger *zap.Logger
}

// Deadline returns the time adapter a is granted out of total:
// min(total, override | fraction × total | default).
func Deadline(a adapter.Adapter, total time.Duration, opts Options) time.Duration {
	d := opts.DefaultDeadline
	if d <= 0 {
		d = DefaultAdapterDeadline
	}
	if f, ok := opts.Fraction[string(a.Category())]; ok && f > 0 {
		d = time.Duration(f * float64(total))
	}
	if o, ok := opts.Overrides[a.Name()]; ok && o > 0 {
		d = o
	}
	if d <= 0 || d > total {
		d = total
	}
	return d
}

// Run executes every adapter concurrently and returns one Outcome per
// adapter, in adapter order. It returns no later than budget after it was
// called, plus scheduling overhead, however slow the adapters are. Adapter
// failures never abort the run; they are reported in the outcome status.
func Run(ctx context.Context, q types.Query, adapters []adapter.Adapter, budget time.Duration, opts Options) []Outcome {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	outcomes := make([]Outcome, len(adapters))
	if len(adapters) == 0 {
		return outcomes
	}

	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	var g errgroup.Group
	for i, a := range adapters {
		deadline := Deadline(a, budget, opts)
		aq := q.ForAdapter()
		g.Go(func() error {
			outcomes[i] = runOne(ctx, a, aq, deadline)
			log.Debug("adapter finished",
				zap.String("adapter", a.Name()),
				zap.String("status", string(outcomes[i].Status.Status)),
				zap.Int64("latency_ms", outcomes[i].Status.LatencyMS),
				zap.Int("raw_count", outcomes[i].Status.RawCount),
				zap.Duration("deadline", deadline),
			)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

type searchResult struct {
	items []adapter.Raw
	err   error
}

func runOne(ctx context.Context, a adapter.Adapter, q types.Query, deadline time.Duration) Outcome {
	start := time.Now()
	actx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	ch := make(chan searchResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- searchResult{err: eris.Errorf("adapter panicked: %v", r)}
			}
		}()
		items, err := a.Search(actx, q, deadline)
		ch <- searchResult{items: items, err: err}
	}()

	out := Outcome{Adapter: a, Status: types.AdapterStatus{AdapterID: a.Name()}}
	select {
	case r := <-ch:
		switch {
		case r.err != nil && actx.Err() != nil && errors.Is(r.err, context.DeadlineExceeded):
			out.Status.Status = types.StatusTimeout
			out.Status.ErrorDetail = timeoutDetail(deadline)
		case r.err != nil:
			out.Status.Status = types.StatusError
			out.Status.ErrorDetail = Sanitize(r.err)
		case len(r.items) == 0:
			out.Status.Status = types.StatusEmpty
		default:
			out.Status.Status = types.StatusOK
			out.Status.RawCount = len(r.items)
			out.Items = r.items
		}
	case <-actx.Done():
		if errors.Is(ctx.Err(), context.Canceled) {
			out.Status.Status = types.StatusError
			out.Status.ErrorDetail = "cancelled by caller"
		} else {
			out.Status.Status = types.StatusTimeout
			out.Status.ErrorDetail = timeoutDetail(deadline)
		}
	}
	out.Status.LatencyMS = time.Since(start).Milliseconds()
	return out
}

func timeoutDetail(d time.Duration) string {
	return "no response within " + d.Round(time.Millisecond).String()
}
