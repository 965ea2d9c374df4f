// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package constraint checks offers against the structured intent.
//
// Hard constraints (price bounds, required features, exclusions) reject an
// offer outright, but only on positive evidence: an unknown price, a price
// in another currency, or an offer without structured attributes cannot
// violate them. Soft constraints (optional features, preferred brands)
// produce a proportional fit in [0,1].
package constraint

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/sourcing-engine/pkg/types"
)

// Result is the constraint verdict for one offer.
type Result struct {
	// Fit is the soft-constraint fit in [0,1]; 1 when there are no soft
	// constraints.
	Fit float64

	// Rejected is set when a hard constraint is provably violated.
	Rejected bool

	// Reasons explains the verdict: matched soft features on success, the
	// violated constraint on rejection.
	Reasons []string
}

// unverifiable is the credit given to a soft constraint the offer carries
// no data for.
const unverifiable = 0.5

// Fit evaluates o against q's structured intent. Price bounds are compared
// only when o's price is in the query currency.
func Fit(o types.Offer, q types.Query) Result {
	in := q.Intent
	if reason, ok := hardReject(o, in, q.Currency); ok {
		return Result{Fit: 0, Rejected: true, Reasons: []string{reason}}
	}

	var (
		total   float64
		n       int
		matched []string
	)
	structured := o.HasStructuredAttributes()
	for _, f := range in.OptionalFeatures {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n++
		switch {
		case hasFeature(o, f):
			total++
			matched = append(matched, f)
		case !structured:
			total += unverifiable
		}
	}
	for _, f := range in.RequiredFeatures {
		if f = strings.TrimSpace(f); f != "" && hasFeature(o, f) {
			matched = append(matched, f)
		}
	}

	var reasons []string
	if len(matched) > 0 {
		reasons = append(reasons, "matches: "+strings.Join(matched, ", "))
	}

	if brands := nonEmpty(in.PreferredBrands); len(brands) > 0 {
		n++
		switch b := matchBrand(o, brands); {
		case b != "":
			total++
			reasons = append(reasons, "preferred brand: "+b)
		case !structured:
			total += unverifiable
		}
	}

	fit := 1.0
	if n > 0 {
		fit = total / float64(n)
	}
	return Result{Fit: fit, Reasons: reasons}
}

func hardReject(o types.Offer, in types.StructuredIntent, currency string) (string, bool) {
	if o.Price != nil && (currency == "" || o.Price.Currency == currency) {
		amt := o.Price.Amount
		if in.PriceMax != nil {
			over := amt.GreaterThan(*in.PriceMax)
			if in.PriceMaxExclusive {
				over = amt.GreaterThanOrEqual(*in.PriceMax)
			}
			if over {
				return fmt.Sprintf("price %s %s exceeds max %s", amt.StringFixed(2), o.Price.Currency, in.PriceMax.String()), true
			}
		}
		if in.PriceMin != nil && amt.LessThan(*in.PriceMin) {
			return fmt.Sprintf("price %s %s below min %s", amt.StringFixed(2), o.Price.Currency, in.PriceMin.String()), true
		}
	}

	if o.HasStructuredAttributes() {
		for _, f := range in.RequiredFeatures {
			if f = strings.TrimSpace(f); f != "" && !hasFeature(o, f) {
				return "missing required feature: " + f, true
			}
		}
	}

	title := strings.ToLower(o.Title)
	for _, k := range nonEmpty(in.ExcludeKeywords) {
		if strings.Contains(title, strings.ToLower(k)) {
			return "excluded keyword: " + k, true
		}
	}
	merchant := strings.ToLower(o.Merchant)
	domain := strings.ToLower(o.MerchantDomain)
	for _, m := range nonEmpty(in.ExcludeMerchants) {
		lm := strings.ToLower(m)
		if strings.Contains(merchant, lm) || strings.Contains(domain, lm) {
			return "excluded merchant: " + m, true
		}
	}
	return "", false
}

// hasFeature reports whether feature appears in the offer's features,
// attribute keys or values, or title, ignoring case.
func hasFeature(o types.Offer, feature string) bool {
	f := strings.ToLower(feature)
	for _, have := range o.Features {
		if strings.Contains(strings.ToLower(have), f) {
			return true
		}
	}
	for k, v := range o.Attributes {
		if strings.Contains(strings.ToLower(k), f) || strings.Contains(strings.ToLower(v), f) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(o.Title), f)
}

// matchBrand returns the first matching brand in case-folded order, so the
// result does not depend on the order brands were listed in.
func matchBrand(o types.Offer, brands []string) string {
	brands = append([]string(nil), brands...)
	sort.Slice(brands, func(i, j int) bool {
		li, lj := strings.ToLower(brands[i]), strings.ToLower(brands[j])
		if li != lj {
			return li < lj
		}
		return brands[i] < brands[j]
	})
	for _, b := range brands {
		lb := strings.ToLower(b)
		if strings.Contains(strings.ToLower(o.Title), lb) || strings.Contains(strings.ToLower(o.Merchant), lb) {
			return b
		}
		for k, v := range o.Attributes {
			if strings.EqualFold(k, "brand") && strings.Contains(strings.ToLower(v), lb) {
				return b
			}
		}
	}
	return ""
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
