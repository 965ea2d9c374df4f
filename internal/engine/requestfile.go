// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/sourcing-engine/pkg/types"
)

// RequestFile is the on-disk form of a sourcing request and, once run, its
// ranked results. A saved file can be re-run or inspected later without
// calling the providers again.
type RequestFile struct {
	Query    types.Query           `yaml:"query"`
	Offers   []types.Offer         `yaml:"offers,omitempty"`
	Statuses []types.AdapterStatus `yaml:"statuses,omitempty"`
	Summary  *RequestSummary       `yaml:"summary,omitempty"`
}

// RequestSummary stores result statistics and a timestamp.
type RequestSummary struct {
	Total             int           `yaml:"total"`
	Responded         int           `yaml:"responded"`
	Adapters          int           `yaml:"adapters"`
	DuplicatesRemoved int           `yaml:"duplicates_removed"`
	Excluded          int           `yaml:"excluded"`
	Elapsed           time.Duration `yaml:"elapsed"`
	Timestamp         time.Time     `yaml:"timestamp"`
}

// WriteRequestFile saves a query and its result set to a YAML file.
func WriteRequestFile(path string, q types.Query, rs types.RankedResultSet) error {
	rf := RequestFile{
		Query:    q,
		Offers:   rs.Offers,
		Statuses: rs.Statuses,
		Summary: &RequestSummary{
			Total:             len(rs.Offers),
			Responded:         rs.Responded(),
			Adapters:          len(rs.Statuses),
			DuplicatesRemoved: rs.DuplicatesRemoved,
			Excluded:          rs.Excluded,
			Elapsed:           rs.Elapsed,
			Timestamp:         time.Now().UTC(),
		},
	}

	data, err := yaml.Marshal(&rf)
	if err != nil {
		return eris.Wrap(err, "marshaling request file")
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadRequestFile loads a request file. Files holding only a query are
// valid input for a fresh run.
func ReadRequestFile(path string) (*RequestFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "reading request file")
	}
	var rf RequestFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, eris.Wrap(err, "parsing request file")
	}
	return &rf, nil
}

// ResultSet rebuilds the stored result set, if the file has one.
func (rf *RequestFile) ResultSet() (types.RankedResultSet, bool) {
	if rf.Summary == nil {
		return types.RankedResultSet{}, false
	}
	return types.RankedResultSet{
		Offers:            rf.Offers,
		Statuses:          rf.Statuses,
		Elapsed:           rf.Summary.Elapsed,
		DuplicatesRemoved: rf.Summary.DuplicatesRemoved,
		Excluded:          rf.Summary.Excluded,
	}, true
}
