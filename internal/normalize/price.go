// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// symbols maps currency symbols to ISO codes. Multi-character symbols come
// first so "US$" is not read as a bare "$".
var symbols = []struct {
	sym  string
	code string
}{
	{"US$", "USD"},
	{"CA$", "CAD"},
	{"C$", "CAD"},
	{"A$", "AUD"},
	{"AU$", "AUD"},
	{"MX$", "MXN"},
	{"$", "USD"},
	{"€", "EUR"},
	{"£", "GBP"},
	{"¥", "JPY"},
	{"₹", "INR"},
}

// ParsePrice parses a displayed price such as "$1,299.99", "12,50 €",
// "EUR 12.50" or "free". It returns the amount and the currency named in
// the text ("" when none). ok is false for anything that is not a single
// non-negative amount; callers must treat that as price unknown.
func ParsePrice(text string) (amount decimal.Decimal, code string, ok bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return decimal.Decimal{}, "", false
	}
	if strings.EqualFold(s, "free") {
		return decimal.Zero, "", true
	}

	for _, sy := range symbols {
		if strings.Contains(s, sy.sym) {
			code = sy.code
			s = strings.Replace(s, sy.sym, " ", 1)
			break
		}
	}

	// ISO code as a leading or trailing word: "EUR 12.50", "12.50 usd".
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return decimal.Decimal{}, "", false
	}
	if len(fields) > 1 {
		if c := isoWord(fields[0]); c != "" {
			if code != "" && code != c {
				return decimal.Decimal{}, "", false
			}
			code = c
			fields = fields[1:]
		} else if c := isoWord(fields[len(fields)-1]); c != "" {
			if code != "" && code != c {
				return decimal.Decimal{}, "", false
			}
			code = c
			fields = fields[:len(fields)-1]
		}
	}

	num, valid := parseNumber(strings.Join(fields, ""))
	if !valid {
		return decimal.Decimal{}, "", false
	}
	return num, code, true
}

func isoWord(w string) string {
	if len(w) != 3 {
		return ""
	}
	for _, r := range w {
		if !unicode.IsLetter(r) {
			return ""
		}
	}
	return CurrencyCode(w)
}

// parseNumber accepts digits with ',' or '.' grouping. When both separators
// appear the last one is the decimal point. A lone comma followed by
// exactly two digits is a decimal comma ("12,50"); otherwise commas group
// thousands.
func parseNumber(s string) (decimal.Decimal, bool) {
	s = strings.NewReplacer(" ", "", "'", "", "\u00a0", "", "\u202f", "").Replace(s)
	if s == "" {
		return decimal.Decimal{}, false
	}
	for _, r := range s {
		if !(r >= '0' && r <= '9') && r != ',' && r != '.' {
			return decimal.Decimal{}, false
		}
	}
	if !strings.ContainsAny(s, "0123456789") {
		return decimal.Decimal{}, false
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") == 1 && len(s)-lastComma-1 == 2 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
