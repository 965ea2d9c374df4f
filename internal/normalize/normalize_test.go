// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/sourcing-engine/pkg/types"
)

func ptrF(v float64) *float64 { return &v }
func ptrI(v int) *int         { return &v }

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in       string
		amount   string
		currency string
		ok       bool
	}{
		{"$1,299.99", "1299.99", "USD", true},
		{"1.299,99 €", "1299.99", "EUR", true},
		{"12,50 €", "12.5", "EUR", true},
		{"£45", "45", "GBP", true},
		{"EUR 12.50", "12.5", "EUR", true},
		{"12.50 usd", "12.5", "USD", true},
		{"US$ 20", "20", "USD", true},
		{"¥1,500", "1500", "JPY", true},
		{"₹ 2,499", "2499", "INR", true},
		{"1,234,567", "1234567", "", true},
		{"1.234.567", "1234567", "", true},
		{"49.95", "49.95", "", true},
		{"Free", "0", "", true},
		{"$0.00", "0", "USD", true},
		{"", "", "", false},
		{"call for price", "", "", false},
		{"-5.00", "", "", false},
		{"$10 - $20", "", "", false},
		{"$", "", "", false},
		{"EUR 10 USD", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			amount, code, ok := ParsePrice(tt.in)
			require.Equal(t, tt.ok, ok)
			if !tt.ok {
				return
			}
			assert.True(t, decimal.RequireFromString(tt.amount).Equal(amount), "amount = %s, want %s", amount, tt.amount)
			assert.Equal(t, tt.currency, code)
		})
	}
}

func TestCurrencyCode(t *testing.T) {
	assert.Equal(t, "EUR", CurrencyCode(" eur "))
	assert.Equal(t, "", CurrencyCode("EURO"))
	assert.Equal(t, "", CurrencyCode("ZZQ"))
	assert.Equal(t, "", CurrencyCode(""))
}

func TestConvert(t *testing.T) {
	got, ok := Convert(decimal.NewFromInt(100), "EUR", "USD", DefaultRates)
	require.True(t, ok)
	assert.Equal(t, "108", got.String())

	got, ok = Convert(decimal.NewFromInt(127), "USD", "GBP", DefaultRates)
	require.True(t, ok)
	assert.Equal(t, "100", got.String())

	_, ok = Convert(decimal.NewFromInt(1), "CHF", "USD", DefaultRates)
	assert.False(t, ok)

	same, ok := Convert(decimal.RequireFromString("9.999"), "USD", "USD", nil)
	require.True(t, ok)
	assert.Equal(t, "9.999", same.String())
}

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		url  string
		key  string
		ok   bool
	}{
		{"tracking stripped", "https://www.Example.com/p/1?utm_source=x&id=5&gclid=abc", "https://www.example.com/p/1?id=5", "example.com/p/1?id=5", true},
		{"trailing slash", "https://example.com/p/1/", "https://example.com/p/1", "example.com/p/1", true},
		{"fragment dropped", "https://example.com/p/1#reviews", "https://example.com/p/1", "example.com/p/1", true},
		{"default port", "https://example.com:443/p", "https://example.com/p", "example.com/p", true},
		{"custom port kept", "http://example.com:8080/p", "http://example.com:8080/p", "example.com:8080/p", true},
		{"double slashes", "https://example.com//a///b", "https://example.com/a/b", "example.com/a/b", true},
		{"params sorted and deduped", "https://example.com/s?b=2&a=1&b=2", "https://example.com/s?a=1&b=2", "example.com/s?a=1&b=2", true},
		{"tracking prefixes", "https://example.com/s?mkt_tok=1&ga_x=2&icid=3&utmfoo=4&q=desk", "https://example.com/s?q=desk", "example.com/s?q=desk", true},
		{"protocol relative", "//shop.example.com/x", "https://shop.example.com/x", "shop.example.com/x", true},
		{"scheme-less host", "www.example.com/x", "https://www.example.com/x", "example.com/x", true},
		{"root", "https://example.com", "https://example.com/", "example.com", true},
		{"relative path", "/p/1", "", "", false},
		{"empty", "  ", "", "", false},
		{"not http", "ftp://example.com/file", "", "", false},
		{"no host", "https:///path", "", "", false},
		{"garbage", "not a url", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Canonicalize(tt.in)
			require.Equal(t, tt.ok, ok)
			if !tt.ok {
				return
			}
			assert.Equal(t, tt.url, got.URL)
			assert.Equal(t, tt.key, got.Key)
		})
	}
}

func TestCanonicalize_SchemeDoesNotChangeKey(t *testing.T) {
	a, ok := Canonicalize("http://www.example.com/item/9/?ref=home")
	require.True(t, ok)
	b, ok := Canonicalize("https://example.com/item/9")
	require.True(t, ok)
	assert.Equal(t, a.Key, b.Key)
}

func TestDomainOf(t *testing.T) {
	assert.Equal(t, "example.co.uk", DomainOf("https://WWW.Example.co.uk/a"))
	assert.Equal(t, "", DomainOf("/relative"))
}

func TestNormalize_Basic(t *testing.T) {
	c := types.Candidate{
		Title:       "  Sony   WH-1000XM5 ",
		PriceText:   "$348.00",
		URL:         "https://www.bestshop.com/sony?utm_campaign=x",
		ImageURL:    "https://img.bestshop.com/sony.jpg",
		Rating:      ptrF(4.6),
		ReviewCount: ptrI(1204),
		Features:    []string{" wireless ", ""},
	}
	o, err := Normalize(c, "shopping", types.SourceCommodityRetail, Options{Currency: "USD"})
	require.NoError(t, err)

	assert.Equal(t, "Sony WH-1000XM5", o.Title)
	assert.Equal(t, "https://www.bestshop.com/sony", o.URL)
	assert.Equal(t, "bestshop.com", o.MerchantDomain)
	assert.Equal(t, "bestshop.com", o.Merchant, "merchant falls back to domain")
	assert.Equal(t, "bestshop.com/sony", o.Key)
	assert.Equal(t, "shopping", o.Source)
	assert.Equal(t, types.SourceCommodityRetail, o.SourceCategory)
	require.NotNil(t, o.Price)
	assert.True(t, decimal.NewFromInt(348).Equal(o.Price.Amount))
	assert.Equal(t, "USD", o.Price.Currency)
	assert.Nil(t, o.OriginalPrice)
	assert.Equal(t, []string{"wireless"}, o.Features)
	assert.Equal(t, []string{"Highly rated (4.6★)", "Popular (1,204 reviews)"}, o.Reasons)
}

func TestNormalize_PriceUnknownNeverZero(t *testing.T) {
	tests := []struct {
		name string
		c    types.Candidate
	}{
		{"missing", types.Candidate{Title: "A", URL: "https://a.com/1"}},
		{"malformed", types.Candidate{Title: "A", URL: "https://a.com/1", PriceText: "see site"}},
		{"negative", types.Candidate{Title: "A", URL: "https://a.com/1", PriceAmount: ptrF(-3)}},
		{"bad currency", types.Candidate{Title: "A", URL: "https://a.com/1", PriceText: "10", Currency: "DOLLARS"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := Normalize(tt.c, "x", types.SourceWeb, Options{Currency: "USD"})
			require.NoError(t, err)
			assert.Nil(t, o.Price)
		})
	}
}

func TestNormalize_FreeIsZero(t *testing.T) {
	o, err := Normalize(types.Candidate{Title: "Sample", URL: "https://a.com/s", PriceText: "free"}, "x", types.SourceWeb, Options{Currency: "USD"})
	require.NoError(t, err)
	require.NotNil(t, o.Price)
	assert.True(t, o.Price.Amount.IsZero())
}

func TestNormalize_DefaultsToQueryCurrency(t *testing.T) {
	o, err := Normalize(types.Candidate{Title: "Desk", URL: "https://a.com/d", PriceAmount: ptrF(99.5)}, "x", types.SourceWeb, Options{Currency: "GBP"})
	require.NoError(t, err)
	require.NotNil(t, o.Price)
	assert.Equal(t, "GBP", o.Price.Currency)
	assert.Equal(t, "99.5", o.Price.Amount.String())
}

func TestNormalize_ConvertsIntoQueryCurrency(t *testing.T) {
	o, err := Normalize(types.Candidate{Title: "Desk", URL: "https://a.com/d", PriceText: "100 €"}, "x", types.SourceWeb, Options{Currency: "USD"})
	require.NoError(t, err)
	require.NotNil(t, o.Price)
	assert.Equal(t, "USD", o.Price.Currency)
	assert.Equal(t, "108", o.Price.Amount.String())
	require.NotNil(t, o.OriginalPrice)
	assert.Equal(t, "EUR", o.OriginalPrice.Currency)
	assert.Equal(t, "100", o.OriginalPrice.Amount.String())
}

func TestNormalize_UnconvertibleKeepsSourceCurrency(t *testing.T) {
	o, err := Normalize(types.Candidate{Title: "Watch", URL: "https://a.com/w", PriceText: "200", Currency: "CHF"}, "x", types.SourceWeb, Options{Currency: "USD"})
	require.NoError(t, err)
	require.NotNil(t, o.Price)
	assert.Equal(t, "CHF", o.Price.Currency)
	assert.Nil(t, o.OriginalPrice)
}

func TestNormalize_Rejects(t *testing.T) {
	_, err := Normalize(types.Candidate{URL: "/relative/only"}, "x", types.SourceWeb, Options{})
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = Normalize(types.Candidate{}, "x", types.SourceWeb, Options{})
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestNormalize_TitleOnlyGetsTitleMerchantKey(t *testing.T) {
	o, err := Normalize(types.Candidate{Title: "Hand-thrown Vase", Merchant: "Clay Studio", MerchantDomain: "www.ClayStudio.com"}, "vendors", types.SourceCuratedVendor, Options{})
	require.NoError(t, err)
	assert.Equal(t, "", o.URL)
	assert.Equal(t, "claystudio.com", o.MerchantDomain)
	assert.Equal(t, "tm:hand-thrown vase|clay studio", o.Key)
}

func TestNormalize_UrlOnly(t *testing.T) {
	o, err := Normalize(types.Candidate{URL: "https://a.com/x"}, "x", types.SourceWeb, Options{})
	require.NoError(t, err)
	assert.Equal(t, "a.com/x", o.Key)
}

func TestNormalize_SuppressDomain(t *testing.T) {
	o, err := Normalize(types.Candidate{
		Title:          "Jetwise Charter",
		URL:            "https://facebook.com/jetwise",
		Merchant:       "Jetwise Charter",
		SuppressDomain: true,
	}, "vendors", types.SourceCuratedVendor, Options{})
	require.NoError(t, err)
	assert.Equal(t, "", o.MerchantDomain)
	assert.Equal(t, "Jetwise Charter", o.Merchant)
	assert.Equal(t, "facebook.com/jetwise", o.Key)
}

func TestNormalize_DropsOutOfRangeFields(t *testing.T) {
	o, err := Normalize(types.Candidate{
		Title:       "Thing",
		URL:         "https://a.com/t",
		Rating:      ptrF(7),
		ReviewCount: ptrI(-1),
		ImageURL:    "data:image/png;base64,xx",
	}, "x", types.SourceWeb, Options{})
	require.NoError(t, err)
	assert.Nil(t, o.Rating)
	assert.Nil(t, o.ReviewCount)
	assert.Empty(t, o.ImageURL)
	assert.Empty(t, o.Reasons)
}
