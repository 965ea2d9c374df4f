// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/sourcing-engine/pkg/types"
)

func sampleResultSet() types.RankedResultSet {
	return types.RankedResultSet{
		Offers: []types.Offer{
			{
				Title:    "Trail Runner",
				Price:    &types.Price{Amount: decimal.RequireFromString("59.9"), Currency: "USD"},
				Merchant: "shop.com",
				URL:      "https://shop.com/p/9",
				Source:   "retail",
				AlsoFrom: []string{"market"},
				Key:      "shop.com/p/9",
				Scores:   types.Scores{Final: 0.8123},
			},
			{
				Title:    strings.Repeat("Very long title ", 10),
				Merchant: "maker.studio",
				Source:   "vendor",
				Key:      "tm:x|maker.studio",
				Scores:   types.Scores{Final: 0.5},
			},
		},
		Statuses: []types.AdapterStatus{
			{AdapterID: "retail", Status: types.StatusOK, LatencyMS: 120, RawCount: 4, ResultCount: 3},
			{AdapterID: "slow", Status: types.StatusTimeout, LatencyMS: 3000, ErrorDetail: "no response within 3s"},
		},
		Elapsed:           3 * time.Second,
		DuplicatesRemoved: 1,
		Excluded:          2,
	}
}

func TestFormatTable(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(sampleResultSet(), &buf)
	out := buf.String()

	assert.Contains(t, out, "Rank")
	assert.Contains(t, out, "Trail Runner")
	assert.Contains(t, out, "59.90 USD")
	assert.Contains(t, out, "retail +1")
	assert.Contains(t, out, "0.812")
	assert.Contains(t, out, "...")
	assert.Contains(t, out, "(no response within 3s)")
	assert.Contains(t, out, "2 offers; 1 of 2 sources responded (1 duplicates removed, 2 excluded by constraints)")
}

func TestFormatTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(types.RankedResultSet{}, &buf)
	assert.Contains(t, buf.String(), "No offers found.")
	assert.Contains(t, buf.String(), "0 offers; 0 of 0 sources responded")
}

func TestFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatJSON(sampleResultSet(), &buf))

	var decoded types.RankedResultSet
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.Offers, 2)
	assert.Equal(t, "Trail Runner", decoded.Offers[0].Title)
	assert.True(t, decoded.Offers[0].Price.Amount.Equal(decimal.RequireFromString("59.9")))
	assert.Equal(t, types.StatusTimeout, decoded.Statuses[1].Status)
}

func TestRequestFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "req.yaml")
	q := shoesQuery()

	require.NoError(t, WriteRequestFile(path, q, sampleResultSet()))

	rf, err := ReadRequestFile(path)
	require.NoError(t, err)
	assert.Equal(t, q.Text, rf.Query.Text)
	assert.Equal(t, types.TierCommodity, rf.Query.Intent.DesireTier)
	require.NotNil(t, rf.Query.Intent.PriceMax)
	assert.True(t, rf.Query.Intent.PriceMax.Equal(decimal.NewFromInt(80)))
	require.NotNil(t, rf.Summary)
	assert.Equal(t, 2, rf.Summary.Total)
	assert.Equal(t, 1, rf.Summary.Responded)
	assert.False(t, rf.Summary.Timestamp.IsZero())

	rs, ok := rf.ResultSet()
	require.True(t, ok)
	assert.Len(t, rs.Offers, 2)
	assert.Equal(t, 2, rs.Excluded)
}

func TestReadRequestFile_QueryOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.yaml")
	require.NoError(t, os.WriteFile(path, []byte("query:\n  text: oak desk\n  intent:\n    category: desks\n    desire_tier: considered\n"), 0o644))

	rf, err := ReadRequestFile(path)
	require.NoError(t, err)
	assert.Equal(t, "oak desk", rf.Query.Text)
	assert.NoError(t, rf.Query.Validate())
	_, ok := rf.ResultSet()
	assert.False(t, ok)

	_, err = ReadRequestFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
