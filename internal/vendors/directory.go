// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vendors

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/pdiddy/sourcing-engine/internal/adapter"
	"github.com/pdiddy/sourcing-engine/pkg/types"
)

// aggregatorDomains are listing sites, not the vendor's own domain.
var aggregatorDomains = map[string]bool{
	"google.com":    true,
	"yelp.com":      true,
	"facebook.com":  true,
	"linkedin.com":  true,
	"instagram.com": true,
	"twitter.com":   true,
	"x.com":         true,
	"youtube.com":   true,
	"etsy.com":      true,
}

// Directory is the curated_vendor adapter over a Store.
type Directory struct {
	ID    string
	Store *Store
	Limit int
}

var _ adapter.Adapter = (*Directory)(nil)

// NewDirectory returns a Directory adapter named name.
func NewDirectory(name string, store *Store) *Directory {
	if name == "" {
		name = "vendor_directory"
	}
	return &Directory{ID: name, Store: store, Limit: DefaultLimit}
}

// Name returns the adapter identifier.
func (d *Directory) Name() string { return d.ID }

// Category is always curated_vendor.
func (d *Directory) Category() types.SourceCategory { return types.SourceCuratedVendor }

// Search matches the query text and category terms against the
// directory. Vendors matching more distinct terms come first.
func (d *Directory) Search(ctx context.Context, q types.Query, _ time.Duration) ([]adapter.Raw, error) {
	terms := adapter.QueryTerms(q)
	if q.Text != "" && q.Intent.Category != "" {
		seen := make(map[string]bool, len(terms))
		for _, t := range terms {
			seen[t] = true
		}
		for _, t := range adapter.QueryTerms(types.Query{Intent: types.StructuredIntent{Category: q.Intent.Category}}) {
			if !seen[t] {
				seen[t] = true
				terms = append(terms, t)
			}
		}
	}

	matches, err := d.Store.Search(ctx, terms, d.Limit)
	if err != nil {
		return nil, err
	}
	out := make([]adapter.Raw, len(matches))
	for i, m := range matches {
		out[i] = m
	}
	return out, nil
}

// Map converts a Match into a Candidate. Vendors rarely list a fixed
// price, so PriceFrom is often empty and the price stays unknown.
func (d *Directory) Map(item adapter.Raw) (types.Candidate, error) {
	m, ok := item.(Match)
	if !ok {
		return types.Candidate{}, eris.Wrapf(adapter.ErrUnexpectedItem, "%s: %T", d.ID, item)
	}
	v := m.Vendor

	attrs := make(map[string]string, len(v.Attributes)+2)
	for k, val := range v.Attributes {
		attrs[k] = val
	}
	if v.Category != "" {
		attrs["category"] = v.Category
	}
	if len(v.Tags) > 0 {
		attrs["tags"] = strings.Join(v.Tags, ", ")
	}

	title := v.Name
	if v.Tagline != "" {
		title += " - " + v.Tagline
	}

	return types.Candidate{
		Title:          title,
		PriceText:      v.PriceFrom,
		Currency:       v.Currency,
		URL:            v.Website,
		Merchant:       v.Name,
		MerchantDomain: vendorDomain(v.Website),
		SuppressDomain: aggregatorDomains[websiteHost(v.Website)],
		ImageURL:       v.ImageURL,
		Rating:         v.Rating,
		ReviewCount:    v.ReviewCount,
		Features:       v.Features,
		Attributes:     attrs,
	}, nil
}

func vendorDomain(website string) string {
	host := websiteHost(website)
	if aggregatorDomains[host] {
		return ""
	}
	return host
}

func websiteHost(website string) string {
	if website == "" {
		return ""
	}
	if !strings.Contains(website, "://") {
		website = "https://" + website
	}
	u, err := url.Parse(website)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
