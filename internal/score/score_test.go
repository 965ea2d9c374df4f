// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/sourcing-engine/pkg/types"
)

func fullOffer(cat types.SourceCategory) types.Offer {
	rating := 4.5
	reviews := 120
	return types.Offer{
		Title:          "Red Running Shoes",
		ImageURL:       "https://img.example.com/shoe.jpg",
		Rating:         &rating,
		ReviewCount:    &reviews,
		Price:          &types.Price{Amount: decimal.NewFromInt(60), Currency: "USD"},
		SourceCategory: cat,
	}
}

func TestDefaultWeightsSumToOne(t *testing.T) {
	w := DefaultWeights()
	assert.InDelta(t, 1.0, w.Sum(), 1e-9)
	assert.NoError(t, w.Validate())
}

func TestWeightsValidate(t *testing.T) {
	w := DefaultWeights()
	w.Text = 0.5
	assert.Error(t, w.Validate())

	w = DefaultWeights()
	w.Image = -0.15
	w.Text = 0.70
	assert.Error(t, w.Validate())
}

func TestTierTable(t *testing.T) {
	tt := DefaultTierTable()
	require.NoError(t, tt.Validate())

	assert.Greater(t,
		tt.Multiplier(types.SourceCuratedVendor, types.TierBespoke),
		tt.Multiplier(types.SourceCommodityRetail, types.TierBespoke))
	assert.Greater(t,
		tt.Multiplier(types.SourceCommodityRetail, types.TierCommodity),
		tt.Multiplier(types.SourceCuratedVendor, types.TierCommodity))
	assert.Greater(t, tt.Multiplier(types.SourceCuratedVendor, types.TierCommodity), 0.0)
	assert.Equal(t, defaultMultiplier, tt.Multiplier("unknown", types.TierBespoke))

	bad := TierTable{types.SourceWeb: {types.TierBespoke: 1.2}}
	assert.Error(t, bad.Validate())
}

func TestFromConfig(t *testing.T) {
	s, err := FromConfig(types.ScoringConfig{})
	require.NoError(t, err)
	assert.Equal(t, Default(), s)

	s, err = FromConfig(types.ScoringConfig{
		Weights: &types.ScoreWeights{Text: 0.6, Image: 0.1, Rating: 0.1, Reviews: 0.1, Price: 0.1},
		Tiers:   map[string]map[string]float64{"commodity_retail": {"bespoke": 0.5}},
	})
	require.NoError(t, err)
	assert.Equal(t, 0.6, s.Weights.Text)
	assert.Equal(t, 0.5, s.Tiers.Multiplier(types.SourceCommodityRetail, types.TierBespoke))
	assert.Equal(t, 1.0, s.Tiers.Multiplier(types.SourceCommodityRetail, types.TierCommodity))
	assert.Equal(t, 0.2, DefaultTierTable().Multiplier(types.SourceCommodityRetail, types.TierBespoke))
}

func TestFromConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  types.ScoringConfig
	}{
		{"negative weight", types.ScoringConfig{Weights: &types.ScoreWeights{Text: 1.2, Image: -0.2}}},
		{"weights short of one", types.ScoringConfig{Weights: &types.ScoreWeights{Text: 0.4}}},
		{"unknown category", types.ScoringConfig{Tiers: map[string]map[string]float64{"boutique": {"bespoke": 1}}}},
		{"unknown tier", types.ScoringConfig{Tiers: map[string]map[string]float64{"web": {"luxury": 1}}}},
		{"multiplier above one", types.ScoringConfig{Tiers: map[string]map[string]float64{"web": {"bespoke": 1.2}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromConfig(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestScore_FullCredit(t *testing.T) {
	q := types.Query{Text: "red running shoes under $80", Intent: types.StructuredIntent{DesireTier: types.TierCommodity}}
	b := Score(fullOffer(types.SourceCommodityRetail), q, DefaultWeights(), DefaultTierTable())

	assert.InDelta(t, 0.40, b.Text, 1e-9)
	assert.InDelta(t, 1.0, b.Base, 1e-9)
	assert.InDelta(t, 1.0, b.TierMultiplier, 1e-9)
	assert.InDelta(t, 1.0, b.Classical, 1e-9)
}

func TestScore_PartialText(t *testing.T) {
	q := types.Query{Text: "blue running shoes", Intent: types.StructuredIntent{DesireTier: types.TierCommodity}}
	o := types.Offer{Title: "Red Running Shoes", SourceCategory: types.SourceCommodityRetail}
	b := Score(o, q, DefaultWeights(), DefaultTierTable())

	assert.InDelta(t, 0.40*2.0/3.0, b.Text, 1e-9)
	assert.InDelta(t, b.Text, b.Base, 1e-9)
}

func TestScore_TierFitScenario(t *testing.T) {
	q := types.Query{Text: "custom wedding cake", Intent: types.StructuredIntent{DesireTier: types.TierBespoke}}
	vendor := Score(fullOffer(types.SourceCuratedVendor), q, DefaultWeights(), DefaultTierTable())
	retail := Score(fullOffer(types.SourceCommodityRetail), q, DefaultWeights(), DefaultTierTable())

	assert.Greater(t, vendor.TierMultiplier, retail.TierMultiplier)
	assert.Greater(t, vendor.Classical, retail.Classical)
	assert.InDelta(t, vendor.Base, retail.Base, 1e-9)
}

func TestScore_Degenerate(t *testing.T) {
	tests := []struct {
		name  string
		offer types.Offer
		query types.Query
	}{
		{"empty offer and query", types.Offer{}, types.Query{}},
		{"empty title", types.Offer{SourceCategory: types.SourceWeb}, types.Query{Text: "lamp"}},
		{"only stopwords", types.Offer{Title: "the"}, types.Query{Text: "the a of"}},
		{"unknown tier", fullOffer(types.SourceWeb), types.Query{Text: "shoes", Intent: types.StructuredIntent{DesireTier: "weird"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Score(tt.offer, tt.query, DefaultWeights(), DefaultTierTable())
			assert.GreaterOrEqual(t, b.Classical, 0.0)
			assert.LessOrEqual(t, b.Classical, 1.0)
			assert.False(t, math.IsNaN(b.Classical))
		})
	}
}

func TestScore_OverweightTableStillBounded(t *testing.T) {
	w := Weights{Text: 1, Image: 1, Rating: 1, Reviews: 1, Price: 1}
	tiers := TierTable{types.SourceWeb: {types.TierCommodity: 3}}
	o := fullOffer(types.SourceWeb)
	b := Score(o, types.Query{Text: "red shoes", Intent: types.StructuredIntent{DesireTier: types.TierCommodity}}, w, tiers)
	assert.Equal(t, 1.0, b.Classical)
}

func TestQueryTokens(t *testing.T) {
	assert.Equal(t, []string{"red", "running", "shoes"},
		QueryTokens(types.Query{Text: "Red running shoes under $80"}))
	assert.Equal(t, []string{"standing", "desk"},
		QueryTokens(types.Query{Intent: types.StructuredIntent{Category: "standing_desk"}}))
	assert.Empty(t, QueryTokens(types.Query{Text: "under 80"}))
	assert.Equal(t, []string{"shoes"}, QueryTokens(types.Query{Text: "shoes shoes"}))
}

func TestTextOverlap(t *testing.T) {
	assert.Equal(t, 0.0, TextOverlap(nil, "anything"))
	assert.Equal(t, 1.0, TextOverlap([]string{"desk"}, "Oak DESK, 60in"))
	assert.Equal(t, 0.5, TextOverlap([]string{"oak", "chair"}, "Oak desk"))
}
