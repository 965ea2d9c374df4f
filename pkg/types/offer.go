// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "github.com/shopspring/decimal"

// Price is a decimal amount with an ISO 4217 currency code. An unknown price
// is represented by a nil *Price, never by a zero amount: zero means free.
type Price struct {
	Amount   decimal.Decimal `json:"amount" yaml:"amount"`
	Currency string          `json:"currency" yaml:"currency"`
}

// Candidate is the narrow output contract of an adapter's mapping function.
// Fields are loosely typed on purpose; the normalizer validates and coerces
// them into an Offer.
type Candidate struct {
	Title string

	// PriceText is the source's price as shown ("$1,299.99", "12,50 €",
	// "free"). PriceAmount is used instead when the source already has a
	// numeric value.
	PriceText   string
	PriceAmount *float64
	Currency    string

	URL            string
	Merchant       string
	MerchantDomain string
	ImageURL       string

	// SuppressDomain keeps MerchantDomain empty even when URL is usable,
	// for URLs that point at a listing site rather than the merchant.
	SuppressDomain bool

	Rating      *float64
	ReviewCount *int

	// Features and Attributes are the structured attributes a source may
	// supply. Their presence is what makes hard feature constraints
	// verifiable.
	Features   []string
	Attributes map[string]string
}

// Scores records each stage's contribution so a ranking can be explained.
type Scores struct {
	// Base is the weighted feature sum before the tier-fit multiplier.
	Base float64 `json:"base" yaml:"base"`

	TierMultiplier float64 `json:"tier_multiplier" yaml:"tier_multiplier"`

	// Classical is Base × TierMultiplier, in [0,1].
	Classical float64 `json:"classical" yaml:"classical"`

	// Rerank is the bounded diversity/novelty adjustment.
	Rerank float64 `json:"rerank" yaml:"rerank"`

	ConstraintFit float64 `json:"constraint_fit" yaml:"constraint_fit"`

	Final float64 `json:"final" yaml:"final"`
}

// Offer is the canonical representation of one candidate, independent of
// the source that produced it.
type Offer struct {
	Title string `json:"title" yaml:"title"`

	Price *Price `json:"price,omitempty" yaml:"price,omitempty"`

	// OriginalPrice is the source amount when Price was converted into the
	// query currency.
	OriginalPrice *Price `json:"original_price,omitempty" yaml:"original_price,omitempty"`

	Merchant       string `json:"merchant" yaml:"merchant"`
	MerchantDomain string `json:"merchant_domain" yaml:"merchant_domain"`

	// URL is the canonical item URL: no tracking parameters, no fragment.
	URL      string `json:"url" yaml:"url"`
	ImageURL string `json:"image_url,omitempty" yaml:"image_url,omitempty"`

	Rating      *float64 `json:"rating,omitempty" yaml:"rating,omitempty"`
	ReviewCount *int     `json:"review_count,omitempty" yaml:"review_count,omitempty"`

	Source         string         `json:"source" yaml:"source"`
	SourceCategory SourceCategory `json:"source_category" yaml:"source_category"`

	// AlsoFrom lists other sources that returned the same item.
	AlsoFrom []string `json:"also_from,omitempty" yaml:"also_from,omitempty"`

	// Key is the stable identity used for deduplication and tie-breaks.
	Key string `json:"key" yaml:"key"`

	Features   []string          `json:"features,omitempty" yaml:"features,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`

	Scores  Scores   `json:"scores" yaml:"scores"`
	Reasons []string `json:"reasons,omitempty" yaml:"reasons,omitempty"`
}

// HasStructuredAttributes reports whether the source supplied any
// structured attribute data for this offer.
func (o Offer) HasStructuredAttributes() bool {
	return len(o.Features) > 0 || len(o.Attributes) > 0
}

// ReviewCountOr returns the review count or def when absent.
func (o Offer) ReviewCountOr(def int) int {
	if o.ReviewCount == nil {
		return def
	}
	return *o.ReviewCount
}
