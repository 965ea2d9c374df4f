// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across adapters.
package httputil

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// throttled or unavailable responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 200 * time.Millisecond

const defaultMaxRetries = 2

var errRetryable = eris.New("retryable status")

// DoWithRetry executes an HTTP request and retries on 429, 502, 503 and 504
// with exponential backoff starting at RetryBaseDelay and doubling each
// attempt.
//
// When maxRetries is 0 the default (2) is used. Retries never outlive ctx:
// an adapter's deadline bounds the whole loop, so a slow provider cannot
// spend more than the share of the budget it was granted. After exhausting
// retries the last response is returned so the caller can inspect it.
// Transport errors are not retried.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = RetryBaseDelay
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(maxRetries)), ctx)

	var last *http.Response
	attempt := 0
	op := func() error {
		attempt++
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return backoff.Permanent(err)
		}
		if last != nil {
			drain(last)
		}
		last = resp
		if !retryableStatus(resp.StatusCode) {
			return nil
		}
		zap.L().Debug("provider throttled, backing off",
			zap.String("host", req.URL.Host),
			zap.Int("status", resp.StatusCode),
			zap.Int("attempt", attempt),
		)
		return errRetryable
	}

	err := backoff.Retry(op, policy)
	switch {
	case err == nil:
		return last, nil
	case errors.Is(err, errRetryable):
		// Exhausted retries: hand back the last response as-is.
		return last, nil
	default:
		if last != nil {
			drain(last)
		}
		return nil, err
	}
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
