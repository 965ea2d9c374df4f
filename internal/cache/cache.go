// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache puts a result cache in front of the engine. Only complete
// results are stored: a result set with a failed or timed-out adapter is
// returned to the caller but never cached, so a transient provider outage
// does not stick.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sort"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pdiddy/sourcing-engine/internal/adapter"
	"github.com/pdiddy/sourcing-engine/pkg/types"
)

// DefaultTTL applies when no TTL is configured.
const DefaultTTL = 10 * time.Minute

// ErrMiss is returned by Store.Get when the key is absent.
var ErrMiss = eris.New("cache miss")

// Store is a byte-oriented key/value store with expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Searcher is the engine operation the cache wraps.
type Searcher interface {
	SourceAndRank(ctx context.Context, q types.Query, adapters []adapter.Adapter) (types.RankedResultSet, error)
}

// Cached serves repeated queries from a Store.
type Cached struct {
	next  Searcher
	store Store
	ttl   time.Duration
}

// New wraps next with store. A zero ttl selects DefaultTTL.
func New(next Searcher, store Store, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cached{next: next, store: store, ttl: ttl}
}

// SourceAndRank returns a cached result set for the same query and adapter
// set, or runs the wrapped engine. Store failures degrade to a cache miss.
func (c *Cached) SourceAndRank(ctx context.Context, q types.Query, adapters []adapter.Adapter) (types.RankedResultSet, error) {
	key, err := Key(q, adapter.Names(adapters))
	if err != nil {
		return c.next.SourceAndRank(ctx, q, adapters)
	}

	data, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		var rs types.RankedResultSet
		if err := json.Unmarshal(data, &rs); err == nil {
			zap.L().Debug("cache hit", zap.String("key", key))
			return rs, nil
		}
		zap.L().Warn("discarding undecodable cache entry", zap.String("key", key))
	case !errors.Is(err, ErrMiss):
		zap.L().Warn("cache read failed", zap.Error(err))
	}

	rs, err := c.next.SourceAndRank(ctx, q, adapters)
	if err != nil || !cacheable(rs) {
		return rs, err
	}

	data, err = json.Marshal(rs)
	if err != nil {
		return rs, nil
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		zap.L().Warn("cache write failed", zap.Error(err))
	}
	return rs, nil
}

func cacheable(rs types.RankedResultSet) bool {
	return len(rs.Offers) > 0 && rs.Responded() == len(rs.Statuses)
}

// Key derives the cache key from everything that determines the result:
// the query without its budget, and the ordered adapter names.
func Key(q types.Query, adapterNames []string) (string, error) {
	q.Budget = 0
	q.Intent = q.Intent.Clone()
	sort.Strings(q.Intent.PreferredBrands)
	sort.Strings(q.Intent.ExcludeKeywords)
	sort.Strings(q.Intent.ExcludeMerchants)

	payload := struct {
		Query    types.Query `json:"query"`
		Adapters []string    `json:"adapters"`
	}{q, adapterNames}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", eris.Wrap(err, "encoding cache key")
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
