// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package adapter

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/sourcing-engine/pkg/types"
)

// CatalogItem is one entry of a static catalog file.
type CatalogItem struct {
	Title       string            `yaml:"title"`
	Price       string            `yaml:"price,omitempty"`
	Currency    string            `yaml:"currency,omitempty"`
	URL         string            `yaml:"url"`
	Merchant    string            `yaml:"merchant,omitempty"`
	ImageURL    string            `yaml:"image_url,omitempty"`
	Rating      *float64          `yaml:"rating,omitempty"`
	ReviewCount *int              `yaml:"review_count,omitempty"`
	Features    []string          `yaml:"features,omitempty"`
	Attributes  map[string]string `yaml:"attributes,omitempty"`
	Keywords    []string          `yaml:"keywords,omitempty"`
}

type catalogFile struct {
	Items []CatalogItem `yaml:"items"`
}

// Catalog serves offers from a fixed list, typically loaded from a YAML
// file. It is useful for demos, fixtures and small curated feeds.
type Catalog struct {
	ID    string
	Kind  types.SourceCategory
	Items []CatalogItem
}

// LoadCatalog reads a catalog YAML file of the form `items: [...]`.
func LoadCatalog(name string, kind types.SourceCategory, path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "reading catalog %s", path)
	}
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "parsing catalog %s", path)
	}
	return &Catalog{ID: name, Kind: kind, Items: f.Items}, nil
}

// Name returns the adapter identifier.
func (c *Catalog) Name() string { return c.ID }

// Category returns the source category.
func (c *Catalog) Category() types.SourceCategory { return c.Kind }

// Search returns every item sharing at least one term with the query text
// or category. An empty query term set matches nothing.
func (c *Catalog) Search(ctx context.Context, q types.Query, _ time.Duration) ([]Raw, error) {
	terms := QueryTerms(q)
	if len(terms) == 0 {
		return nil, nil
	}
	var out []Raw
	for _, item := range c.Items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hay := strings.ToLower(item.Title + " " + strings.Join(item.Keywords, " ") + " " + strings.Join(item.Features, " "))
		for _, t := range terms {
			if strings.Contains(hay, t) {
				out = append(out, item)
				break
			}
		}
	}
	return out, nil
}

// Map converts a CatalogItem into a Candidate.
func (c *Catalog) Map(item Raw) (types.Candidate, error) {
	ci, ok := item.(CatalogItem)
	if !ok {
		return types.Candidate{}, eris.Wrapf(ErrUnexpectedItem, "%s: %T", c.ID, item)
	}
	return types.Candidate{
		Title:       ci.Title,
		PriceText:   ci.Price,
		Currency:    ci.Currency,
		URL:         ci.URL,
		Merchant:    ci.Merchant,
		ImageURL:    ci.ImageURL,
		Rating:      ci.Rating,
		ReviewCount: ci.ReviewCount,
		Features:    ci.Features,
		Attributes:  ci.Attributes,
	}, nil
}

// QueryTerms returns the lower-cased search terms an adapter should match
// on: the free text, or the category when there is no free text.
func QueryTerms(q types.Query) []string {
	text := q.Text
	if strings.TrimSpace(text) == "" {
		text = strings.ReplaceAll(q.Intent.Category, "_", " ")
	}
	var terms []string
	for _, f := range strings.Fields(strings.ToLower(text)) {
		f = strings.Trim(f, ".,;:!?\"'()$€£")
		if len(f) < 3 {
			continue
		}
		terms = append(terms, f)
	}
	return terms
}
