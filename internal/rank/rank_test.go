// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/sourcing-engine/pkg/types"
)

func entry(key string, classical, rerank, fit float64) types.Offer {
	return types.Offer{
		Key:    key,
		Source: "s",
		Scores: types.Scores{Classical: classical, Rerank: rerank, ConstraintFit: fit},
	}
}

func keys(offers []types.Offer) []string {
	var out []string
	for _, o := range offers {
		out = append(out, o.Key)
	}
	return out
}

func TestFinal(t *testing.T) {
	assert.InDelta(t, 0.8, Final(types.Scores{Classical: 0.8, ConstraintFit: 1}, 0.7), 1e-9)
	assert.InDelta(t, 0.56, Final(types.Scores{Classical: 0.8, ConstraintFit: 0}, 0.7), 1e-9)
	assert.InDelta(t, 0.68, Final(types.Scores{Classical: 0.8, ConstraintFit: 0.5}, 0.7), 1e-9)
	assert.InDelta(t, 1.0, Final(types.Scores{Classical: 0.99, Rerank: 0.05, ConstraintFit: 1}, 0.7), 1e-9)
	assert.Equal(t, 0.0, Final(types.Scores{Classical: 0.01, Rerank: -0.05, ConstraintFit: 1}, 0.7))
}

func TestAggregate_OrdersByFinal(t *testing.T) {
	in := []types.Offer{
		entry("low", 0.3, 0, 1),
		entry("high", 0.9, 0, 1),
		entry("mid", 0.6, 0.02, 1),
		entry("poorfit", 0.9, 0, 0),
	}
	out := Aggregate(in, DefaultOptions())
	assert.Equal(t, []string{"high", "poorfit", "mid", "low"}, keys(out))
	assert.InDelta(t, 0.63, out[1].Scores.Final, 1e-9)
	assert.Equal(t, 0.0, in[0].Scores.Final, "input is not mutated")
}

func TestAggregate_TieBreaks(t *testing.T) {
	reviews := func(n int) *int { return &n }
	price := func(v int64) *types.Price { return &types.Price{Amount: decimal.NewFromInt(v), Currency: "USD"} }

	a := entry("a", 0.5, 0, 1)
	a.ReviewCount = reviews(10)
	b := entry("b", 0.5, 0, 1)
	b.ReviewCount = reviews(500)
	c := entry("c", 0.5, 0, 1)
	c.Price = price(20)
	d := entry("d", 0.5, 0, 1)
	d.Price = price(10)
	e := entry("e", 0.5, 0, 1)
	f := entry("f", 0.5, 0, 1)

	out := Aggregate([]types.Offer{f, e, c, d, a, b}, DefaultOptions())
	// more reviews first; absent review counts after; then lower price; unknown last; then key.
	assert.Equal(t, []string{"b", "a", "d", "c", "e", "f"}, keys(out))
}

func TestAggregate_PermutationInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	var base []types.Offer
	for i := 0; i < 30; i++ {
		o := entry(string(rune('A'+i)), float64(rng.Intn(4))/4, 0, float64(rng.Intn(3))/2)
		if rng.Intn(2) == 0 {
			n := rng.Intn(3)
			o.ReviewCount = &n
		}
		if rng.Intn(2) == 0 {
			o.Price = &types.Price{Amount: decimal.NewFromInt(int64(rng.Intn(3))), Currency: "USD"}
		}
		base = append(base, o)
	}
	want := keys(Aggregate(base, DefaultOptions()))

	for trial := 0; trial < 20; trial++ {
		shuffled := make([]types.Offer, len(base))
		copy(shuffled, base)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		require.Equal(t, want, keys(Aggregate(shuffled, DefaultOptions())))
	}
}

func TestAggregate_MaxResults(t *testing.T) {
	in := []types.Offer{entry("a", 0.1, 0, 1), entry("b", 0.2, 0, 1), entry("c", 0.3, 0, 1)}
	out := Aggregate(in, Options{SoftFitFloor: 0.7, MaxResults: 2})
	assert.Equal(t, []string{"c", "b"}, keys(out))
}

func TestAggregate_Empty(t *testing.T) {
	assert.Empty(t, Aggregate(nil, DefaultOptions()))
}
