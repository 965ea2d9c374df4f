// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize validates and coerces adapter candidates into canonical
// offers: prices become decimal amounts with an explicit currency, URLs are
// canonicalized, and the merchant domain is derived from the URL.
package normalize

import (
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/pdiddy/sourcing-engine/pkg/types"
)

// ErrMalformed is returned for candidates that cannot be presented at all.
var ErrMalformed = eris.New("malformed candidate")

// Options controls currency handling.
type Options struct {
	// Currency is the query currency. Prices without a currency are
	// assumed to be in it, and convertible prices are converted into it.
	Currency string

	// Rates is the conversion table (nil = DefaultRates).
	Rates map[string]float64
}

var printer = message.NewPrinter(language.English)

// Normalize converts one candidate into an Offer attributed to adapterID.
// A candidate with neither a usable URL nor a title is rejected with
// ErrMalformed; every other defect only blanks the offending field.
func Normalize(c types.Candidate, adapterID string, category types.SourceCategory, opts Options) (types.Offer, error) {
	title := strings.Join(strings.Fields(c.Title), " ")
	canon, urlOK := Canonicalize(c.URL)
	if !urlOK && title == "" {
		return types.Offer{}, eris.Wrapf(ErrMalformed, "%s: no usable url or title", adapterID)
	}

	o := types.Offer{
		Title:          title,
		Source:         adapterID,
		SourceCategory: category,
	}

	domain := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(c.MerchantDomain)), "www.")
	if urlOK {
		o.URL = canon.URL
		domain = canon.Domain
	}
	if c.SuppressDomain {
		domain = ""
	}
	o.MerchantDomain = domain
	o.Merchant = strings.TrimSpace(c.Merchant)
	if o.Merchant == "" {
		o.Merchant = domain
	}

	o.Price, o.OriginalPrice = resolvePrice(c, opts)

	if c.Rating != nil && !math.IsNaN(*c.Rating) && *c.Rating >= 0 && *c.Rating <= 5 {
		v := *c.Rating
		o.Rating = &v
	}
	if c.ReviewCount != nil && *c.ReviewCount >= 0 {
		v := *c.ReviewCount
		o.ReviewCount = &v
	}
	o.ImageURL = imageURL(c.ImageURL)

	for _, f := range c.Features {
		if f = strings.TrimSpace(f); f != "" {
			o.Features = append(o.Features, f)
		}
	}
	if len(c.Attributes) > 0 {
		o.Attributes = make(map[string]string, len(c.Attributes))
		for k, v := range c.Attributes {
			k = strings.TrimSpace(k)
			if k == "" {
				continue
			}
			o.Attributes[k] = strings.TrimSpace(v)
		}
	}

	if urlOK {
		o.Key = canon.Key
	} else {
		o.Key = "tm:" + strings.ToLower(o.Title) + "|" + strings.ToLower(o.Merchant)
	}
	o.Reasons = reasons(o)
	return o, nil
}

// resolvePrice returns the offer price, converted into the query currency
// when possible, and the source price when a conversion happened. A nil
// price means unknown.
func resolvePrice(c types.Candidate, opts Options) (price, original *types.Price) {
	var amount decimal.Decimal
	var textCode string
	switch {
	case c.PriceAmount != nil:
		v := *c.PriceAmount
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, nil
		}
		amount = decimal.NewFromFloat(v)
	case strings.TrimSpace(c.PriceText) != "":
		var ok bool
		amount, textCode, ok = ParsePrice(c.PriceText)
		if !ok {
			return nil, nil
		}
	default:
		return nil, nil
	}
	if amount.IsNegative() {
		return nil, nil
	}

	target := CurrencyCode(opts.Currency)
	if target == "" {
		target = "USD"
	}

	code := textCode
	if strings.TrimSpace(c.Currency) != "" {
		code = CurrencyCode(c.Currency)
		if code == "" {
			return nil, nil
		}
	}
	if code == "" {
		code = target
	}

	p := &types.Price{Amount: amount, Currency: code}
	if code == target {
		return p, nil
	}
	rates := opts.Rates
	if rates == nil {
		rates = DefaultRates
	}
	converted, ok := Convert(amount, code, target, rates)
	if !ok {
		return p, nil
	}
	return &types.Price{Amount: converted, Currency: target}, p
}

func imageURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	return raw
}

func reasons(o types.Offer) []string {
	var out []string
	if o.Rating != nil && *o.Rating > 4.0 {
		out = append(out, fmt.Sprintf("Highly rated (%.1f★)", *o.Rating))
	}
	if o.ReviewCount != nil && *o.ReviewCount > 100 {
		out = append(out, printer.Sprintf("Popular (%d reviews)", *o.ReviewCount))
	}
	return out
}
