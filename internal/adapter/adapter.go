// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package adapter defines the provider adapter contract and the generic
// adapters the engine ships with. Each adapter owns its authentication,
// rate limiting and wire protocol; the engine only sees Search and Map.
package adapter

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/pdiddy/sourcing-engine/pkg/types"
)

// Raw is one untyped item as returned by a provider. Only the adapter that
// produced it knows its shape.
type Raw = any

// Adapter searches a single external offer source.
type Adapter interface {
	// Name is the stable adapter identifier reported in AdapterStatus.
	Name() string

	// Category is the kind of source, used for tier-fit scoring.
	Category() types.SourceCategory

	// Search returns the provider's raw items. deadline is the time the
	// adapter has been granted; ctx is cancelled when it elapses.
	Search(ctx context.Context, q types.Query, deadline time.Duration) ([]Raw, error)

	// Map converts one raw item into the canonical candidate shape.
	Map(item Raw) (types.Candidate, error)
}

// ErrUnexpectedItem is returned by Map when an item is not of the type the
// adapter produces.
var ErrUnexpectedItem = eris.New("unexpected raw item type")

// Func adapts plain functions to the Adapter interface. Items returned by
// SearchFunc must be types.Candidate values unless MapFunc is set.
type Func struct {
	ID         string
	Kind       types.SourceCategory
	SearchFunc func(ctx context.Context, q types.Query, deadline time.Duration) ([]Raw, error)
	MapFunc    func(item Raw) (types.Candidate, error)
}

// Name returns the adapter identifier.
func (f *Func) Name() string { return f.ID }

// Category returns the source category.
func (f *Func) Category() types.SourceCategory { return f.Kind }

// Search calls SearchFunc.
func (f *Func) Search(ctx context.Context, q types.Query, deadline time.Duration) ([]Raw, error) {
	if f.SearchFunc == nil {
		return nil, nil
	}
	return f.SearchFunc(ctx, q, deadline)
}

// Map calls MapFunc, or passes a types.Candidate through unchanged.
func (f *Func) Map(item Raw) (types.Candidate, error) {
	if f.MapFunc != nil {
		return f.MapFunc(item)
	}
	c, ok := item.(types.Candidate)
	if !ok {
		return types.Candidate{}, eris.Wrapf(ErrUnexpectedItem, "%s: %T", f.ID, item)
	}
	return c, nil
}

// Names returns the adapter names in order.
func Names(adapters []Adapter) []string {
	names := make([]string, len(adapters))
	for i, a := range adapters {
		names[i] = a.Name()
	}
	return names
}
