// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/pdiddy/sourcing-engine/pkg/types"
)

// FormatTable writes a ranked result set as a human-readable table to w.
func FormatTable(rs types.RankedResultSet, w io.Writer) {
	if len(rs.Offers) == 0 {
		fmt.Fprintln(w, "No offers found.")
	} else {
		fmt.Fprintf(w, "%-4s  %-50s  %-14s  %-20s  %-6s  %s\n",
			"Rank", "Title", "Price", "Merchant", "Score", "Source")
		fmt.Fprintln(w, strings.Repeat("-", 112))

		for i, o := range rs.Offers {
			source := o.Source
			if len(o.AlsoFrom) > 0 {
				source += " +" + fmt.Sprint(len(o.AlsoFrom))
			}
			fmt.Fprintf(w, "%-4d  %-50s  %-14s  %-20s  %-6.3f  %s\n",
				i+1, truncate(o.Title, 50), formatPrice(o.Price), truncate(o.Merchant, 20), o.Scores.Final, source)
		}
	}

	fmt.Fprintln(w)
	for _, s := range rs.Statuses {
		line := fmt.Sprintf("  %-20s %-8s %5dms  %d/%d items", s.AdapterID, s.Status, s.LatencyMS, s.ResultCount, s.RawCount)
		if s.ErrorDetail != "" {
			line += "  (" + s.ErrorDetail + ")"
		}
		fmt.Fprintln(w, line)
	}

	fmt.Fprintf(w, "\n%s", rs.Summary())
	var notes []string
	if rs.DuplicatesRemoved > 0 {
		notes = append(notes, fmt.Sprintf("%d duplicates removed", rs.DuplicatesRemoved))
	}
	if rs.Excluded > 0 {
		notes = append(notes, fmt.Sprintf("%d excluded by constraints", rs.Excluded))
	}
	if len(notes) > 0 {
		fmt.Fprintf(w, " (%s)", strings.Join(notes, ", "))
	}
	fmt.Fprintln(w)
}

// FormatJSON writes the result set as indented JSON to w.
func FormatJSON(rs types.RankedResultSet, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rs)
}

func formatPrice(p *types.Price) string {
	if p == nil {
		return "-"
	}
	return p.Amount.StringFixed(2) + " " + p.Currency
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
