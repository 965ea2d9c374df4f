// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the sourcing engine:
// the query and structured intent it receives, the canonical Offer it
// ranks, and the result set it returns.
package types

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
)

// DesireTier is a coarse classification of how commodity-like or bespoke
// the user's need is.
type DesireTier string

const (
	TierCommodity  DesireTier = "commodity"
	TierConsidered DesireTier = "considered"
	TierBespoke    DesireTier = "bespoke"
)

// Valid reports whether t is one of the known tiers.
func (t DesireTier) Valid() bool {
	switch t {
	case TierCommodity, TierConsidered, TierBespoke:
		return true
	}
	return false
}

// SourceCategory describes what kind of source an adapter fronts. It is the
// row key of the tier-fit table.
type SourceCategory string

const (
	SourceCommodityRetail SourceCategory = "commodity_retail"
	SourceMarketplace     SourceCategory = "marketplace"
	SourceCuratedVendor   SourceCategory = "curated_vendor"
	SourceWeb             SourceCategory = "web"
)

// Valid reports whether c is one of the known source categories.
func (c SourceCategory) Valid() bool {
	switch c {
	case SourceCommodityRetail, SourceMarketplace, SourceCuratedVendor, SourceWeb:
		return true
	}
	return false
}

// StructuredIntent is the upstream intent extractor's view of the request.
// Price bounds are expressed in the query currency.
type StructuredIntent struct {
	Category string `json:"category" yaml:"category"`

	PriceMin *decimal.Decimal `json:"price_min,omitempty" yaml:"price_min,omitempty"`
	PriceMax *decimal.Decimal `json:"price_max,omitempty" yaml:"price_max,omitempty"`

	// PriceMaxExclusive makes PriceMax a strict ceiling ("under $80").
	PriceMaxExclusive bool `json:"price_max_exclusive,omitempty" yaml:"price_max_exclusive,omitempty"`

	// RequiredFeatures are hard constraints; OptionalFeatures are soft.
	RequiredFeatures []string `json:"required_features,omitempty" yaml:"required_features,omitempty"`
	OptionalFeatures []string `json:"optional_features,omitempty" yaml:"optional_features,omitempty"`

	PreferredBrands  []string `json:"preferred_brands,omitempty" yaml:"preferred_brands,omitempty"`
	ExcludeKeywords  []string `json:"exclude_keywords,omitempty" yaml:"exclude_keywords,omitempty"`
	ExcludeMerchants []string `json:"exclude_merchants,omitempty" yaml:"exclude_merchants,omitempty"`

	DesireTier DesireTier `json:"desire_tier" yaml:"desire_tier"`
}

// Clone returns a deep copy so that each adapter invocation gets its own
// slices and bounds.
func (in StructuredIntent) Clone() StructuredIntent {
	out := in
	if in.PriceMin != nil {
		v := *in.PriceMin
		out.PriceMin = &v
	}
	if in.PriceMax != nil {
		v := *in.PriceMax
		out.PriceMax = &v
	}
	out.RequiredFeatures = cloneStrings(in.RequiredFeatures)
	out.OptionalFeatures = cloneStrings(in.OptionalFeatures)
	out.PreferredBrands = cloneStrings(in.PreferredBrands)
	out.ExcludeKeywords = cloneStrings(in.ExcludeKeywords)
	out.ExcludeMerchants = cloneStrings(in.ExcludeMerchants)
	return out
}

// Validate checks the fields the engine cannot work without.
func (in StructuredIntent) Validate() error {
	if !in.DesireTier.Valid() {
		return eris.Errorf("desire tier %q is not one of commodity, considered, bespoke", in.DesireTier)
	}
	if in.PriceMin != nil && in.PriceMin.IsNegative() {
		return eris.New("price_min must not be negative")
	}
	if in.PriceMax != nil && in.PriceMax.IsNegative() {
		return eris.New("price_max must not be negative")
	}
	if in.PriceMin != nil && in.PriceMax != nil && in.PriceMin.GreaterThan(*in.PriceMax) {
		return eris.New("price_min is greater than price_max")
	}
	return nil
}

// Query is the immutable input to one engine invocation.
type Query struct {
	Text   string           `json:"text" yaml:"text"`
	Intent StructuredIntent `json:"intent" yaml:"intent"`

	// Budget is the caller's wall-clock budget. Zero selects the engine default.
	Budget time.Duration `json:"budget" yaml:"budget"`

	// Currency is the locale currency used when a source omits one.
	Currency string `json:"currency,omitempty" yaml:"currency,omitempty"`
}

// Validate reports whether the query can be processed at all.
func (q Query) Validate() error {
	if strings.TrimSpace(q.Text) == "" && strings.TrimSpace(q.Intent.Category) == "" {
		return eris.New("query has neither free text nor a category")
	}
	if q.Budget < 0 {
		return eris.New("budget must not be negative")
	}
	return q.Intent.Validate()
}

// ForAdapter returns a copy of q that shares no mutable state with q.
func (q Query) ForAdapter() Query {
	out := q
	out.Intent = q.Intent.Clone()
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
