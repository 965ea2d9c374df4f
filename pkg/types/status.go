// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// Status is the outcome of one adapter for one query.
type Status string

const (
	StatusOK      Status = "ok"
	StatusTimeout Status = "timeout"
	StatusError   Status = "error"
	StatusEmpty   Status = "empty"
)

// AdapterStatus reports how one adapter fared. RawCount is what the adapter
// returned; ResultCount is what survived normalization.
type AdapterStatus struct {
	AdapterID   string `json:"adapter_id" yaml:"adapter_id"`
	Status      Status `json:"status" yaml:"status"`
	LatencyMS   int64  `json:"latency_ms" yaml:"latency_ms"`
	RawCount    int    `json:"raw_count" yaml:"raw_count"`
	ResultCount int    `json:"result_count" yaml:"result_count"`
	ErrorDetail string `json:"error_detail,omitempty" yaml:"error_detail,omitempty"`
}

// Rejected is the number of raw items the normalizer dropped.
func (s AdapterStatus) Rejected() int {
	if s.RawCount < s.ResultCount {
		return 0
	}
	return s.RawCount - s.ResultCount
}

// RankedResultSet is the engine's output. The engine keeps no reference to
// it once returned.
type RankedResultSet struct {
	Offers   []Offer         `json:"offers" yaml:"offers"`
	Statuses []AdapterStatus `json:"statuses" yaml:"statuses"`
	Elapsed  time.Duration   `json:"elapsed" yaml:"elapsed"`

	DuplicatesRemoved int `json:"duplicates_removed" yaml:"duplicates_removed"`

	// Excluded counts offers removed for violating a hard constraint.
	Excluded int `json:"excluded" yaml:"excluded"`
}

// Responded is the number of adapters that answered in time without error,
// whether or not they had results.
func (rs RankedResultSet) Responded() int {
	n := 0
	for _, s := range rs.Statuses {
		if s.Status == StatusOK || s.Status == StatusEmpty {
			n++
		}
	}
	return n
}

// Summary renders a one-line description such as
// "12 offers; 3 of 5 sources responded".
func (rs RankedResultSet) Summary() string {
	return fmt.Sprintf("%d offers; %d of %d sources responded", len(rs.Offers), rs.Responded(), len(rs.Statuses))
}
