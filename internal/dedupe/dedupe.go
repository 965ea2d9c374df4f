// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedupe merges offers that describe the same item.
//
// Two offers are duplicates when their canonical URL keys match, or when
// their lower-cased (title, merchant) pairs match exactly. The first offer
// seen wins; callers bias that by ordering adapters by trust. Near-matches
// are deliberately not merged.
package dedupe

import (
	"slices"
	"strings"

	"github.com/pdiddy/sourcing-engine/pkg/types"
)

// Dedupe returns offers with duplicates folded into their first occurrence,
// preserving first-seen order, and the number of offers removed. Running it
// on its own output removes nothing.
func Dedupe(offers []types.Offer) ([]types.Offer, int) {
	seen := make(map[string]int) // dedup key → index in out
	out := make([]types.Offer, 0, len(offers))
	removed := 0

	for _, o := range offers {
		keys := dedupKeys(o)

		idx, dup := -1, false
		for _, k := range keys {
			if i, ok := seen[k]; ok {
				idx, dup = i, true
				break
			}
		}
		if dup {
			mergeInto(&out[idx], o)
			removed++
			for _, k := range keys {
				if _, ok := seen[k]; !ok {
					seen[k] = idx
				}
			}
			continue
		}

		idx = len(out)
		out = append(out, o)
		for _, k := range keys {
			seen[k] = idx
		}
	}
	return out, removed
}

// dedupKeys returns the identity keys of o: its URL key, when it has a URL,
// and its title/merchant pair, when both are present.
func dedupKeys(o types.Offer) []string {
	var keys []string
	if o.URL != "" && o.Key != "" {
		keys = append(keys, "url:"+o.Key)
	}
	title := strings.ToLower(strings.TrimSpace(o.Title))
	merchant := strings.ToLower(strings.TrimSpace(o.Merchant))
	if title != "" && merchant != "" {
		keys = append(keys, "tm:"+title+"|"+merchant)
	}
	return keys
}

// mergeInto fills empty fields of dst from src and records src's source.
// The title is never filled: a new title would give dst a second identity
// that may already belong to another offer.
func mergeInto(dst *types.Offer, src types.Offer) {
	if dst.Price == nil && src.Price != nil {
		dst.Price = src.Price
		dst.OriginalPrice = src.OriginalPrice
	}
	if dst.URL == "" && src.URL != "" {
		dst.URL = src.URL
		dst.Key = src.Key
	}
	if dst.ImageURL == "" && src.ImageURL != "" {
		dst.ImageURL = src.ImageURL
	}
	if dst.Rating == nil && src.Rating != nil {
		dst.Rating = src.Rating
	}
	if dst.ReviewCount == nil && src.ReviewCount != nil {
		dst.ReviewCount = src.ReviewCount
	}
	if len(dst.Features) == 0 && len(src.Features) > 0 {
		dst.Features = src.Features
	}
	if len(dst.Attributes) == 0 && len(src.Attributes) > 0 {
		dst.Attributes = src.Attributes
	}
	if len(dst.Reasons) == 0 && len(src.Reasons) > 0 {
		dst.Reasons = src.Reasons
	}

	for _, s := range append([]string{src.Source}, src.AlsoFrom...) {
		if s != "" && s != dst.Source && !slices.Contains(dst.AlsoFrom, s) {
			dst.AlsoFrom = append(dst.AlsoFrom, s)
		}
	}
}
