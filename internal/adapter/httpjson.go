// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package adapter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sony/gobreaker"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pdiddy/sourcing-engine/internal/httputil"
	"github.com/pdiddy/sourcing-engine/pkg/types"
)

// maxBodyBytes bounds how much of a provider response is read.
const maxBodyBytes = 8 << 20

// defaultFields are the gjson paths tried when the config does not name
// one. Comma-separated alternatives are tried in order.
var defaultFields = map[string]string{
	"title":      "title,name",
	"price":      "price,price.raw,price.value",
	"currency":   "currency,price.currency",
	"url":        "url,link,product_url",
	"merchant":   "merchant,seller,source",
	"domain":     "merchant_domain",
	"image":      "image,image_url,thumbnail",
	"rating":     "rating",
	"reviews":    "reviews,reviews_count,ratings_total",
	"features":   "features",
	"attributes": "attributes,specs",
}

// StatusError reports a non-200 provider response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider returned HTTP %d", e.Code)
}

// HTTPJSON queries a JSON search API and extracts items by configured
// gjson paths. Each instance owns its rate limiter and circuit breaker.
type HTTPJSON struct {
	ID         string
	Kind       types.SourceCategory
	Endpoint   string
	QueryParam string
	ItemsPath  string
	Fields     map[string]string

	APIKey      string
	APIKeyParam string
	UserAgent   string
	MaxRetries  int
	Client      *http.Client

	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewHTTPJSON builds an HTTPJSON adapter from its config. apiKey may be empty.
func NewHTTPJSON(cfg types.AdapterConfig, apiKey string) (*HTTPJSON, error) {
	if cfg.Endpoint == "" {
		return nil, eris.Errorf("adapter %s: endpoint is required", cfg.Name)
	}
	if _, err := url.Parse(cfg.Endpoint); err != nil {
		return nil, eris.Wrapf(err, "adapter %s: parsing endpoint", cfg.Name)
	}

	fields := make(map[string]string, len(defaultFields))
	for k, v := range defaultFields {
		fields[k] = v
	}
	for k, v := range cfg.Fields {
		fields[k] = v
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	a := &HTTPJSON{
		ID:          cfg.Name,
		Kind:        cfg.Category,
		Endpoint:    cfg.Endpoint,
		QueryParam:  cfg.QueryParam,
		ItemsPath:   cfg.ItemsPath,
		Fields:      fields,
		APIKey:      apiKey,
		APIKeyParam: cfg.APIKeyParam,
		UserAgent:   cfg.UserAgent,
		MaxRetries:  cfg.MaxRetries,
		Client:      &http.Client{Timeout: timeout},
	}
	if a.QueryParam == "" {
		a.QueryParam = "q"
	}
	if a.APIKeyParam == "" {
		a.APIKeyParam = "api_key"
	}
	if a.UserAgent == "" {
		a.UserAgent = "sourcing-engine/0.1"
	}
	if cfg.RatePerSecond > 0 {
		burst := int(cfg.RatePerSecond)
		if burst < 1 {
			burst = 1
		}
		a.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	a.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			zap.L().Warn("adapter circuit breaker state change",
				zap.String("adapter", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return a, nil
}

// Name returns the adapter identifier.
func (a *HTTPJSON) Name() string { return a.ID }

// Category returns the source category.
func (a *HTTPJSON) Category() types.SourceCategory { return a.Kind }

// Search sends one GET request and returns the items found at ItemsPath.
func (a *HTTPJSON) Search(ctx context.Context, q types.Query, _ time.Duration) ([]Raw, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "waiting for rate limiter")
		}
	}

	body, err := a.breakerCall(func() ([]byte, error) { return a.fetch(ctx, q) })
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, eris.New("provider returned invalid JSON")
	}

	items := gjson.ParseBytes(body)
	if a.ItemsPath != "" {
		items = items.Get(a.ItemsPath)
	}
	if !items.IsArray() {
		return nil, nil
	}
	var out []Raw
	for _, item := range items.Array() {
		out = append(out, item)
	}
	return out, nil
}

func (a *HTTPJSON) breakerCall(fn func() ([]byte, error)) ([]byte, error) {
	if a.breaker == nil {
		return fn()
	}
	v, err := a.breaker.Execute(func() (interface{}, error) { return fn() })
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (a *HTTPJSON) fetch(ctx context.Context, q types.Query) ([]byte, error) {
	params := url.Values{}
	params.Set(a.QueryParam, searchText(q))
	if q.Intent.Category != "" {
		params.Set("category", q.Intent.Category)
	}
	if q.Intent.PriceMin != nil {
		params.Set("min_price", q.Intent.PriceMin.String())
	}
	if q.Intent.PriceMax != nil {
		params.Set("max_price", q.Intent.PriceMax.String())
	}
	if q.Currency != "" {
		params.Set("currency", q.Currency)
	}
	if a.APIKey != "" {
		params.Set(a.APIKeyParam, a.APIKey)
	}

	reqURL := a.Endpoint
	if strings.Contains(reqURL, "?") {
		reqURL += "&" + params.Encode()
	} else {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "creating request")
	}
	req.Header.Set("User-Agent", a.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := httputil.DoWithRetry(ctx, a.Client, req, a.MaxRetries)
	if err != nil {
		return nil, eris.Wrap(err, "provider request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, eris.Wrap(err, "reading provider response")
	}
	return body, nil
}

// Map extracts a Candidate from one gjson item using the configured paths.
func (a *HTTPJSON) Map(item Raw) (types.Candidate, error) {
	r, ok := item.(gjson.Result)
	if !ok {
		return types.Candidate{}, eris.Wrapf(ErrUnexpectedItem, "%s: %T", a.ID, item)
	}

	c := types.Candidate{
		Title:          a.get(r, "title").String(),
		Currency:       a.get(r, "currency").String(),
		URL:            a.get(r, "url").String(),
		Merchant:       a.get(r, "merchant").String(),
		MerchantDomain: a.get(r, "domain").String(),
		ImageURL:       a.get(r, "image").String(),
	}

	if p := a.get(r, "price"); p.Exists() {
		if p.Type == gjson.Number {
			v := p.Float()
			c.PriceAmount = &v
		} else {
			c.PriceText = p.String()
		}
	}
	if rt := a.get(r, "rating"); rt.Exists() {
		if v, err := strconv.ParseFloat(strings.TrimSpace(rt.String()), 64); err == nil {
			c.Rating = &v
		}
	}
	if rv := a.get(r, "reviews"); rv.Exists() {
		digits := strings.ReplaceAll(strings.TrimSpace(rv.String()), ",", "")
		if v, err := strconv.Atoi(digits); err == nil {
			c.ReviewCount = &v
		}
	}
	if fs := a.get(r, "features"); fs.IsArray() {
		for _, f := range fs.Array() {
			if s := strings.TrimSpace(f.String()); s != "" {
				c.Features = append(c.Features, s)
			}
		}
	}
	if attrs := a.get(r, "attributes"); attrs.IsObject() {
		c.Attributes = make(map[string]string)
		attrs.ForEach(func(k, v gjson.Result) bool {
			c.Attributes[k.String()] = v.String()
			return true
		})
	}
	return c, nil
}

// get returns the first existing value among the comma-separated paths
// configured for field.
func (a *HTTPJSON) get(r gjson.Result, field string) gjson.Result {
	for _, path := range strings.Split(a.Fields[field], ",") {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		if v := r.Get(path); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}

// searchText is what a text search provider should be sent: the free text
// or, when absent, the category label.
func searchText(q types.Query) string {
	if strings.TrimSpace(q.Text) != "" {
		return q.Text
	}
	return strings.ReplaceAll(q.Intent.Category, "_", " ")
}
