// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/pdiddy/sourcing-engine/pkg/types"
)

// Weights is the auditable weight table of the base score. Each signal
// contributes at most its weight; a fully credited offer scores Sum().
type Weights struct {
	Text    float64 `json:"text" yaml:"text"`
	Image   float64 `json:"image" yaml:"image"`
	Rating  float64 `json:"rating" yaml:"rating"`
	Reviews float64 `json:"reviews" yaml:"reviews"`
	Price   float64 `json:"price" yaml:"price"`
}

// DefaultWeights returns the production weight table. Weights sum to 1.
func DefaultWeights() Weights {
	return Weights{
		Text:    0.40,
		Image:   0.15,
		Rating:  0.15,
		Reviews: 0.15,
		Price:   0.15,
	}
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Text + w.Image + w.Rating + w.Reviews + w.Price
}

// Validate checks that no weight is negative and that they sum to 1.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"text": w.Text, "image": w.Image, "rating": w.Rating,
		"reviews": w.Reviews, "price": w.Price,
	} {
		if v < 0 {
			return eris.Errorf("weight %s must be >= 0, got %v", name, v)
		}
	}
	if sum := w.Sum(); math.Abs(sum-1) > 1e-9 {
		return eris.Errorf("weights must sum to 1, got %v", sum)
	}
	return nil
}

// TierTable maps source category × desire tier to a tier-fit multiplier.
type TierTable map[types.SourceCategory]map[types.DesireTier]float64

// defaultMultiplier applies to pairs missing from a table.
const defaultMultiplier = 0.7

// DefaultTierTable returns the production tier-fit table. Commodity retail
// and curated vendors mirror each other; curated vendors keep a non-zero
// credit for commodity needs.
func DefaultTierTable() TierTable {
	return TierTable{
		types.SourceCommodityRetail: {
			types.TierCommodity:  1.00,
			types.TierConsidered: 0.90,
			types.TierBespoke:    0.20,
		},
		types.SourceMarketplace: {
			types.TierCommodity:  0.95,
			types.TierConsidered: 0.85,
			types.TierBespoke:    0.30,
		},
		types.SourceCuratedVendor: {
			types.TierCommodity:  0.50,
			types.TierConsidered: 0.90,
			types.TierBespoke:    1.00,
		},
		types.SourceWeb: {
			types.TierCommodity:  0.70,
			types.TierConsidered: 0.70,
			types.TierBespoke:    0.70,
		},
	}
}

// Multiplier looks up the tier-fit multiplier, clamped to [0,1].
func (t TierTable) Multiplier(cat types.SourceCategory, tier types.DesireTier) float64 {
	if row, ok := t[cat]; ok {
		if m, ok := row[tier]; ok {
			return clamp01(m)
		}
	}
	return defaultMultiplier
}

// Validate checks that every multiplier lies within [0,1].
func (t TierTable) Validate() error {
	for cat, row := range t {
		for tier, m := range row {
			if m < 0 || m > 1 || math.IsNaN(m) {
				return eris.Errorf("tier multiplier %s/%s must be in [0,1], got %v", cat, tier, m)
			}
		}
	}
	return nil
}
