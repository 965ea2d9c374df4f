// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vendors

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/sourcing-engine/internal/adapter"
	"github.com/pdiddy/sourcing-engine/internal/normalize"
	"github.com/pdiddy/sourcing-engine/pkg/types"
)

func ptr[T any](v T) *T { return &v }

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "index", "vendors.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleVendors() []Vendor {
	return []Vendor{
		{
			Name:        "Oak & Iron Works",
			Tagline:     "Custom walnut and oak furniture",
			Category:    "furniture",
			Website:     "https://www.oakandiron.com/",
			PriceFrom:   "$1,800",
			Features:    []string{"custom sizing", "hand finished"},
			Tags:        []string{"dining table", "walnut"},
			Rating:      ptr(4.9),
			ReviewCount: ptr(87),
		},
		{
			Name:     "Jetwise Charter",
			Category: "private_aviation",
			Website:  "https://facebook.com/jetwise",
			Features: []string{"starlink", "midsize jets"},
		},
		{
			ID:       "loom-studio",
			Name:     "Loom Studio",
			Tagline:  "Handwoven rugs",
			Category: "furniture",
		},
	}
}

func TestOpenCreatesSchema(t *testing.T) {
	s := testStore(t)
	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestUpsertAndList(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	n, err := s.Upsert(ctx, sampleVendors())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Jetwise Charter", all[0].Name)
	assert.Equal(t, "jetwise-charter", all[0].ID)
	assert.Equal(t, "oak-iron-works", all[2].ID)
	assert.Equal(t, []string{"custom sizing", "hand finished"}, all[2].Features)

	furniture, err := s.List(ctx, "Furniture")
	require.NoError(t, err)
	assert.Len(t, furniture, 2)

	// Upserting again replaces rather than duplicates.
	updated := sampleVendors()[:1]
	updated[0].PriceFrom = "$2,000"
	_, err = s.Upsert(ctx, updated)
	require.NoError(t, err)
	count, _ := s.Count(ctx)
	assert.Equal(t, 3, count)
	furniture, _ = s.List(ctx, "furniture")
	assert.Equal(t, "$2,000", furniture[1].PriceFrom)
}

func TestUpsertRejectsNameless(t *testing.T) {
	s := testStore(t)
	_, err := s.Upsert(context.Background(), []Vendor{{ID: "x"}})
	assert.Error(t, err)
	n, _ := s.Count(context.Background())
	assert.Equal(t, 0, n)
}

func TestDelete(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	_, err := s.Upsert(ctx, sampleVendors())
	require.NoError(t, err)

	ok, err := s.Delete(ctx, "loom-studio")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Delete(ctx, "loom-studio")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSearchRanksByHits(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	_, err := s.Upsert(ctx, sampleVendors())
	require.NoError(t, err)

	got, err := s.Search(ctx, []string{"walnut", "furniture"}, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Oak & Iron Works", got[0].Name)
	assert.Equal(t, 2, got[0].Hits)
	assert.Equal(t, "Loom Studio", got[1].Name)
	assert.Equal(t, 1, got[1].Hits)

	got, err = s.Search(ctx, []string{"walnut", "furniture"}, 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = s.Search(ctx, []string{"100%"}, 0)
	require.NoError(t, err)
	assert.Empty(t, got, "LIKE wildcards in terms are literal")

	got, err = s.Search(ctx, nil, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDirectoryAdapter(t *testing.T) {
	s := testStore(t)
	_, err := s.Upsert(context.Background(), sampleVendors())
	require.NoError(t, err)
	d := NewDirectory("", s)

	assert.Equal(t, "vendor_directory", d.Name())
	assert.Equal(t, types.SourceCuratedVendor, d.Category())

	q := types.Query{
		Text:   "custom dining table",
		Intent: types.StructuredIntent{Category: "furniture", DesireTier: types.TierBespoke},
	}
	items, err := d.Search(context.Background(), q, time.Second)
	require.NoError(t, err)
	require.NotEmpty(t, items)

	c, err := d.Map(items[0])
	require.NoError(t, err)
	assert.Equal(t, "Oak & Iron Works - Custom walnut and oak furniture", c.Title)
	assert.Equal(t, "$1,800", c.PriceText)
	assert.Equal(t, "oakandiron.com", c.MerchantDomain)
	assert.Equal(t, "furniture", c.Attributes["category"])
	assert.Equal(t, "dining table, walnut", c.Attributes["tags"])
	assert.Equal(t, 4.9, *c.Rating)

	_, err = d.Map(types.Candidate{})
	assert.ErrorIs(t, err, adapter.ErrUnexpectedItem)
}

func TestDirectoryAdapter_AggregatorDomain(t *testing.T) {
	s := testStore(t)
	_, err := s.Upsert(context.Background(), sampleVendors())
	require.NoError(t, err)
	d := NewDirectory("vendors", s)

	items, err := d.Search(context.Background(), types.Query{Intent: types.StructuredIntent{Category: "private_aviation"}}, time.Second)
	require.NoError(t, err)
	require.Len(t, items, 1)
	c, err := d.Map(items[0])
	require.NoError(t, err)
	assert.Equal(t, "", c.MerchantDomain)
	assert.True(t, c.SuppressDomain)
	assert.Equal(t, "Jetwise Charter", c.Merchant)

	o, err := normalize.Normalize(c, d.Name(), d.Category(), normalize.Options{Currency: "USD"})
	require.NoError(t, err)
	assert.Equal(t, "", o.MerchantDomain)
	assert.Equal(t, "Jetwise Charter", o.Merchant)
	assert.NotEmpty(t, o.URL)
}

func TestDirectoryAdapter_OwnDomainReachesOffer(t *testing.T) {
	d := NewDirectory("vendors", testStore(t))
	c, err := d.Map(Match{Vendor: Vendor{Name: "Oak & Iron Works", Website: "https://www.oakandiron.com/"}})
	require.NoError(t, err)
	assert.False(t, c.SuppressDomain)

	o, err := normalize.Normalize(c, d.Name(), d.Category(), normalize.Options{Currency: "USD"})
	require.NoError(t, err)
	assert.Equal(t, "oakandiron.com", o.MerchantDomain)
}

func TestVendorDomain(t *testing.T) {
	assert.Equal(t, "maker.studio", vendorDomain("maker.studio/about"))
	assert.Equal(t, "", vendorDomain("https://www.yelp.com/biz/x"))
	assert.Equal(t, "", vendorDomain(""))
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "oak-iron-works", Slug("Oak & Iron Works"))
	assert.Equal(t, "a1-studio", Slug("  A1 -- Studio!  "))
	assert.Equal(t, "", Slug("!!!"))
}

func TestImportExport(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vendors.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`vendors:
  - name: Maker Studio
    category: furniture
    website: https://maker.studio
    features: [custom sizing]
  - id: glass-co
    name: Glass Co
`), 0o644))

	n, err := s.Import(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var buf bytes.Buffer
	require.NoError(t, s.Export(ctx, &buf))
	back, err := Decode(&buf)
	require.NoError(t, err)
	require.Len(t, back, 2)
	assert.Equal(t, "glass-co", back[0].ID)
	assert.Equal(t, "maker-studio", back[1].ID)
	assert.Equal(t, []string{"custom sizing"}, back[1].Features)

	_, err = s.Import(ctx, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	empty, err := Decode(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Empty(t, empty)
}
