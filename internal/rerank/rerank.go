// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rerank computes a bounded diversity and novelty adjustment on top
// of the classical ranking. Offers that closely resemble a higher-ranked
// offer are nudged down; offers that bring a new source or price band near
// the top are nudged up. It is not a relevance pass.
package rerank

import (
	"math"
	"sort"

	"github.com/pdiddy/sourcing-engine/internal/score"
	"github.com/pdiddy/sourcing-engine/pkg/types"
)

// Options bounds the adjustment.
type Options struct {
	// MaxDelta is the absolute cap δ on any adjustment.
	MaxDelta float64

	// SpreadFraction caps δ relative to the classical score spread.
	SpreadFraction float64

	// Window is how many higher-ranked offers each offer is compared to.
	Window int

	// SimilarityThreshold is the similarity at or above which the
	// similarity penalty applies.
	SimilarityThreshold float64
}

// DefaultOptions returns the production settings.
func DefaultOptions() Options {
	return Options{
		MaxDelta:            0.05,
		SpreadFraction:      0.25,
		Window:              5,
		SimilarityThreshold: 0.6,
	}
}

// topK is the protected head of the list.
const topK = 3

// capShare is the fraction of the head/bottom-half gap either side may
// move. It is below one half so the two sides can never meet.
const capShare = 0.49

// Similarity weights.
const (
	titleWeight  = 0.5
	sourceWeight = 0.3
	bandWeight   = 0.2
)

// Rerank returns one adjustment per offer, in input order, computed from
// each offer's Scores.Classical. Every adjustment lies in [-δ, δ] where
// δ = min(MaxDelta, SpreadFraction × spread), and no adjustment can lift an
// offer from the bottom half of the classical order into the top three.
func Rerank(offers []types.Offer, opts Options) []float64 {
	adj := make([]float64, len(offers))
	n := len(offers)
	if n < 2 {
		return adj
	}

	order := ClassicalOrder(offers)
	classical := func(pos int) float64 { return offers[order[pos]].Scores.Classical }

	spread := classical(0) - classical(n-1)
	delta := math.Min(opts.MaxDelta, opts.SpreadFraction*spread)
	if !(delta > 0) {
		return adj
	}
	window := opts.Window
	if window <= 0 {
		window = 1
	}

	feats := make([]features, n)
	for pos, i := range order {
		feats[pos] = featuresOf(offers[i])
	}

	seenSources := map[string]bool{feats[0].source: true}
	seenBands := map[int]bool{}
	if feats[0].band >= 0 {
		seenBands[feats[0].band] = true
	}

	for pos := 1; pos < n; pos++ {
		f := feats[pos]

		maxSim := 0.0
		for above := max(0, pos-window); above < pos; above++ {
			maxSim = math.Max(maxSim, similarity(f, feats[above]))
		}

		a := 0.0
		if maxSim >= opts.SimilarityThreshold {
			a -= delta * maxSim
		}
		if !seenSources[f.source] {
			a += delta / 2
		}
		if f.band >= 0 && !seenBands[f.band] {
			a += delta / 2
		}
		adj[order[pos]] = clamp(a, -delta, delta)

		seenSources[f.source] = true
		if f.band >= 0 {
			seenBands[f.band] = true
		}
	}

	capHead(adj, order, classical)
	return adj
}

// capHead limits the top three's downward moves and the bottom half's
// upward moves to capShare of the gap between them.
func capHead(adj []float64, order []int, classical func(int) float64) {
	n := len(order)
	h := max(topK, (n+1)/2)
	if h >= n {
		return
	}
	gap := classical(topK-1) - classical(h)
	limit := capShare * gap
	for pos := 0; pos < topK; pos++ {
		i := order[pos]
		adj[i] = math.Max(adj[i], -limit)
	}
	for pos := h; pos < n; pos++ {
		i := order[pos]
		adj[i] = math.Min(adj[i], limit)
	}
}

// ClassicalOrder returns offer indices sorted by classical score
// descending, breaking ties by key and then input position.
func ClassicalOrder(offers []types.Offer) []int {
	order := make([]int, len(offers))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		oa, ob := offers[order[a]], offers[order[b]]
		if oa.Scores.Classical != ob.Scores.Classical {
			return oa.Scores.Classical > ob.Scores.Classical
		}
		return oa.Key < ob.Key
	})
	return order
}

type features struct {
	tokens map[string]bool
	source string
	band   int
}

func featuresOf(o types.Offer) features {
	f := features{tokens: make(map[string]bool), source: o.Source, band: -1}
	for _, t := range score.Tokens(o.Title) {
		f.tokens[t] = true
	}
	if o.Price != nil {
		f.band = PriceBand(o.Price.Amount.InexactFloat64())
	}
	return f
}

// PriceBand buckets a price on a log2 scale: 0–1, 1–3, 3–7, 7–15, ...
func PriceBand(amount float64) int {
	if amount < 0 || math.IsNaN(amount) {
		return -1
	}
	return int(math.Floor(math.Log2(amount + 1)))
}

func similarity(a, b features) float64 {
	s := titleWeight * jaccard(a.tokens, b.tokens)
	if a.source == b.source {
		s += sourceWeight
	}
	if a.band >= 0 && a.band == b.band {
		s += bandWeight
	}
	return s
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if b[t] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
