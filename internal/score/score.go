// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package score computes the classical relevance score of an offer: a
// weighted sum of bounded signals, scaled by a tier-fit multiplier looked up
// from a named table.
package score

import (
	"strings"
	"unicode"

	"github.com/rotisserie/eris"

	"github.com/pdiddy/sourcing-engine/pkg/types"
)

// Breakdown is the per-signal contribution of one score.
type Breakdown struct {
	Text    float64
	Image   float64
	Rating  float64
	Reviews float64
	Price   float64

	Base           float64
	TierMultiplier float64
	Classical      float64
}

// Scores converts the breakdown into the offer's score record.
func (b Breakdown) Scores() types.Scores {
	return types.Scores{
		Base:           b.Base,
		TierMultiplier: b.TierMultiplier,
		Classical:      b.Classical,
	}
}

// Scorer holds the weight and tier tables.
type Scorer struct {
	Weights Weights
	Tiers   TierTable
}

// Default returns a Scorer with the production tables.
func Default() Scorer {
	return Scorer{Weights: DefaultWeights(), Tiers: DefaultTierTable()}
}

// FromConfig builds a Scorer from the default tables with cfg's overrides
// applied, and validates the result.
func FromConfig(cfg types.ScoringConfig) (Scorer, error) {
	s := Default()
	if w := cfg.Weights; w != nil {
		s.Weights = Weights{Text: w.Text, Image: w.Image, Rating: w.Rating, Reviews: w.Reviews, Price: w.Price}
	}
	for catName, row := range cfg.Tiers {
		cat := types.SourceCategory(strings.ToLower(catName))
		if !cat.Valid() {
			return Scorer{}, eris.Errorf("tier table: unknown source category %q", catName)
		}
		merged := make(map[types.DesireTier]float64, len(s.Tiers[cat])+len(row))
		for tier, m := range s.Tiers[cat] {
			merged[tier] = m
		}
		for tierName, m := range row {
			tier := types.DesireTier(strings.ToLower(tierName))
			if !tier.Valid() {
				return Scorer{}, eris.Errorf("tier table: unknown desire tier %q", tierName)
			}
			merged[tier] = m
		}
		s.Tiers[cat] = merged
	}
	if err := s.Weights.Validate(); err != nil {
		return Scorer{}, err
	}
	if err := s.Tiers.Validate(); err != nil {
		return Scorer{}, err
	}
	return s, nil
}

// Score is a pure function of the offer and the query.
func (s Scorer) Score(o types.Offer, q types.Query) Breakdown {
	return Score(o, q, s.Weights, s.Tiers)
}

// Score computes the classical score of o for q. The result is in [0,1]
// for any input.
func Score(o types.Offer, q types.Query, w Weights, tiers TierTable) Breakdown {
	var b Breakdown
	b.Text = w.Text * TextOverlap(QueryTokens(q), o.Title)
	if o.ImageURL != "" {
		b.Image = w.Image
	}
	if o.Rating != nil {
		b.Rating = w.Rating
	}
	if o.ReviewCount != nil {
		b.Reviews = w.Reviews
	}
	if o.Price != nil {
		b.Price = w.Price
	}
	b.Base = clamp01(b.Text + b.Image + b.Rating + b.Reviews + b.Price)
	b.TierMultiplier = tiers.Multiplier(o.SourceCategory, q.Intent.DesireTier)
	b.Classical = clamp01(b.Base * b.TierMultiplier)
	return b
}

// TextOverlap is the fraction of query tokens found in title, in [0,1].
func TextOverlap(queryTokens []string, title string) float64 {
	if len(queryTokens) == 0 {
		return 0
	}
	have := make(map[string]bool)
	for _, t := range Tokens(title) {
		have[t] = true
	}
	matched := 0
	for _, t := range queryTokens {
		if have[t] {
			matched++
		}
	}
	return float64(matched) / float64(len(queryTokens))
}

// QueryTokens returns the distinct content tokens of the query's free
// text, or of its category when there is no free text. Stopwords and
// numeric tokens ("80", "$80") are dropped: price words belong to the
// constraint scorer.
func QueryTokens(q types.Query) []string {
	text := q.Text
	if strings.TrimSpace(text) == "" {
		text = q.Intent.Category
	}
	seen := make(map[string]bool)
	var out []string
	for _, t := range Tokens(text) {
		if stopwords[t] || numeric(t) || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// Tokens lower-cases s and splits it on anything that is not a letter or
// digit.
func Tokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func numeric(t string) bool {
	for _, r := range t {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"for": true, "with": true, "without": true, "of": true, "to": true,
	"in": true, "on": true, "at": true, "by": true, "from": true,
	"under": true, "over": true, "below": true, "above": true, "less": true,
	"than": true, "around": true, "about": true, "between": true,
	"i": true, "me": true, "my": true, "we": true, "our": true,
	"need": true, "want": true, "looking": true, "find": true, "buy": true,
	"some": true, "any": true, "please": true, "usd": true, "dollars": true,
}

func clamp01(v float64) float64 {
	switch {
	case v < 0 || v != v:
		return 0
	case v > 1:
		return 1
	}
	return v
}
