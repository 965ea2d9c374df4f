// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank combines the stage scores into the final ordered list.
package rank

import (
	"math"
	"sort"

	"github.com/pdiddy/sourcing-engine/pkg/types"
)

// Options controls aggregation.
type Options struct {
	// SoftFitFloor is the factor applied to an offer with zero soft fit.
	// A perfect fit gets factor 1.
	SoftFitFloor float64

	// MaxResults truncates the list (0 = no cap).
	MaxResults int
}

// DefaultOptions returns the production settings.
func DefaultOptions() Options {
	return Options{SoftFitFloor: 0.7}
}

// Final combines the stage scores of s:
//
//	final = clamp(classical + rerank) × (floor + (1 - floor) × fit)
func Final(s types.Scores, floor float64) float64 {
	floor = clamp01(floor)
	gate := floor + (1-floor)*clamp01(s.ConstraintFit)
	return clamp01(clamp01(s.Classical+s.Rerank) * gate)
}

// Aggregate sets Scores.Final on every offer and returns them in final
// order. Hard-rejected offers must already be removed. Ties are broken by
// review count (more first), price (lower first, unknown last), key, source
// and finally input position, so any permutation of the same offer set
// yields the same order.
func Aggregate(offers []types.Offer, opts Options) []types.Offer {
	out := make([]types.Offer, len(offers))
	copy(out, offers)
	for i := range out {
		out[i].Scores.Final = Final(out[i].Scores, opts.SoftFitFloor)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return Less(out[i], out[j])
	})

	if opts.MaxResults > 0 && len(out) > opts.MaxResults {
		out = out[:opts.MaxResults]
	}
	return out
}

// Less reports whether a ranks before b.
func Less(a, b types.Offer) bool {
	if a.Scores.Final != b.Scores.Final {
		return a.Scores.Final > b.Scores.Final
	}
	if ra, rb := a.ReviewCountOr(-1), b.ReviewCountOr(-1); ra != rb {
		return ra > rb
	}
	if c := comparePrice(a.Price, b.Price); c != 0 {
		return c < 0
	}
	if a.Key != b.Key {
		return a.Key < b.Key
	}
	return a.Source < b.Source
}

// comparePrice orders known prices before unknown ones and lower amounts
// first. Prices in different currencies are ordered by currency code.
func comparePrice(a, b *types.Price) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case a.Currency != b.Currency:
		if a.Currency < b.Currency {
			return -1
		}
		return 1
	}
	return a.Amount.Cmp(b.Amount)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
