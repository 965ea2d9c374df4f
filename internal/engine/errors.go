// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import "github.com/rotisserie/eris"

var (
	// ErrInvalidQuery is returned before any adapter runs when the query
	// lacks a required field.
	ErrInvalidQuery = eris.New("invalid query")

	// ErrNoResults is returned, together with a populated result set, when
	// no offer survived. Callers use it to tell "nothing found" apart from
	// a partial result.
	ErrNoResults = eris.New("no results")
)
