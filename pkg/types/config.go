// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by adapters that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP client timeout; the per-adapter deadline still applies.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "sourcing-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// EngineConfig holds budget and deadline settings for one invocation.
type EngineConfig struct {
	// DefaultBudget applies when the caller passes a zero budget (default 4s).
	DefaultBudget time.Duration `json:"default_budget" yaml:"default_budget" mapstructure:"default_budget"`

	// MaxBudget is the hard ceiling on any caller budget (default 10s).
	MaxBudget time.Duration `json:"max_budget" yaml:"max_budget" mapstructure:"max_budget"`

	// DefaultAdapterDeadline caps each adapter when no fraction or override
	// applies (default 3s).
	DefaultAdapterDeadline time.Duration `json:"default_adapter_deadline" yaml:"default_adapter_deadline" mapstructure:"default_adapter_deadline"`

	// DeadlineFraction gives an adapter class a share of the total budget,
	// e.g. {"curated_vendor": 0.9}.
	DeadlineFraction map[string]float64 `json:"deadline_fraction,omitempty" yaml:"deadline_fraction,omitempty" mapstructure:"deadline_fraction"`

	// Currency is the locale currency used when neither query nor source names one.
	Currency string `json:"currency" yaml:"currency" mapstructure:"currency"`

	// MaxResults caps the ranked list (0 = no cap).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// ScoreWeights is the base-score weight table. Weights must sum to 1.
type ScoreWeights struct {
	Text    float64 `json:"text" yaml:"text" mapstructure:"text"`
	Image   float64 `json:"image" yaml:"image" mapstructure:"image"`
	Rating  float64 `json:"rating" yaml:"rating" mapstructure:"rating"`
	Reviews float64 `json:"reviews" yaml:"reviews" mapstructure:"reviews"`
	Price   float64 `json:"price" yaml:"price" mapstructure:"price"`
}

// ScoringConfig holds the tunable constants of the scoring stages.
type ScoringConfig struct {
	// Weights replaces the base-score weights (nil = defaults).
	Weights *ScoreWeights `json:"weights,omitempty" yaml:"weights,omitempty" mapstructure:"weights"`

	// Tiers overrides entries of the tier-fit table, keyed by source
	// category then desire tier, e.g. {"curated_vendor": {"commodity": 0.6}}.
	// Entries not named keep their default.
	Tiers map[string]map[string]float64 `json:"tiers,omitempty" yaml:"tiers,omitempty" mapstructure:"tiers"`

	// RerankMaxDelta is the absolute cap on a re-rank adjustment (default 0.05).
	RerankMaxDelta float64 `json:"rerank_max_delta" yaml:"rerank_max_delta" mapstructure:"rerank_max_delta"`

	// RerankSpreadFraction caps the adjustment relative to the classical
	// score spread (default 0.25).
	RerankSpreadFraction float64 `json:"rerank_spread_fraction" yaml:"rerank_spread_fraction" mapstructure:"rerank_spread_fraction"`

	// RerankWindow is the sliding window of higher-ranked offers compared
	// against (default 5).
	RerankWindow int `json:"rerank_window" yaml:"rerank_window" mapstructure:"rerank_window"`

	// RerankSimilarity is the similarity at or above which an offer is
	// penalized (default 0.6).
	RerankSimilarity float64 `json:"rerank_similarity" yaml:"rerank_similarity" mapstructure:"rerank_similarity"`

	// SoftFitFloor is the aggregator factor for a zero soft fit (default 0.7).
	SoftFitFloor float64 `json:"soft_fit_floor" yaml:"soft_fit_floor" mapstructure:"soft_fit_floor"`
}

// NormalizeConfig holds currency conversion settings.
type NormalizeConfig struct {
	// Rates maps ISO currency code to its value in a common reference
	// currency. Offers are converted into the query currency when both
	// rates are known.
	Rates map[string]float64 `json:"rates,omitempty" yaml:"rates,omitempty" mapstructure:"rates"`
}

// AdapterKind selects an adapter implementation.
type AdapterKind string

const (
	AdapterHTTPJSON        AdapterKind = "http_json"
	AdapterCatalog         AdapterKind = "catalog"
	AdapterVendorDirectory AdapterKind = "vendor_directory"
)

// AdapterConfig declares one provider adapter. Adapter order in the config
// is the dedup trust order.
type AdapterConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	Name     string         `json:"name" yaml:"name" mapstructure:"name"`
	Kind     AdapterKind    `json:"kind" yaml:"kind" mapstructure:"kind"`
	Category SourceCategory `json:"category" yaml:"category" mapstructure:"category"`
	Disabled bool           `json:"disabled,omitempty" yaml:"disabled,omitempty" mapstructure:"disabled"`

	// Deadline overrides the class-level deadline for this adapter.
	Deadline time.Duration `json:"deadline,omitempty" yaml:"deadline,omitempty" mapstructure:"deadline"`

	// Path is the catalog YAML file or vendor database.
	Path string `json:"path,omitempty" yaml:"path,omitempty" mapstructure:"path"`

	// Endpoint, QueryParam and ItemsPath describe an http_json provider.
	Endpoint   string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" mapstructure:"endpoint"`
	QueryParam string `json:"query_param,omitempty" yaml:"query_param,omitempty" mapstructure:"query_param"`
	ItemsPath  string `json:"items_path,omitempty" yaml:"items_path,omitempty" mapstructure:"items_path"`

	// Fields maps Candidate fields (title, price, currency, url, merchant,
	// image, rating, reviews, features) to gjson paths within one item.
	Fields map[string]string `json:"fields,omitempty" yaml:"fields,omitempty" mapstructure:"fields"`

	// APIKeySecret names the file in .secrets/ holding the key;
	// APIKeyParam is the query parameter it is sent as.
	APIKeySecret string `json:"api_key_secret,omitempty" yaml:"api_key_secret,omitempty" mapstructure:"api_key_secret"`
	APIKeyParam  string `json:"api_key_param,omitempty" yaml:"api_key_param,omitempty" mapstructure:"api_key_param"`

	// RatePerSecond limits outbound requests (0 = unlimited).
	RatePerSecond float64 `json:"rate_per_second,omitempty" yaml:"rate_per_second,omitempty" mapstructure:"rate_per_second"`

	MaxRetries int `json:"max_retries,omitempty" yaml:"max_retries,omitempty" mapstructure:"max_retries"`
}

// ServerConfig configures the HTTP invocation surface.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`
}

// CacheConfig configures the optional result cache in front of the engine.
type CacheConfig struct {
	RedisURL string        `json:"redis_url,omitempty" yaml:"redis_url,omitempty" mapstructure:"redis_url"`
	TTL      time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups all settings.
type Config struct {
	Engine    EngineConfig    `json:"engine" yaml:"engine" mapstructure:"engine"`
	Scoring   ScoringConfig   `json:"scoring" yaml:"scoring" mapstructure:"scoring"`
	Normalize NormalizeConfig `json:"normalize" yaml:"normalize" mapstructure:"normalize"`
	Adapters  []AdapterConfig `json:"adapters" yaml:"adapters" mapstructure:"adapters"`
	Server    ServerConfig    `json:"server" yaml:"server" mapstructure:"server"`
	Cache     CacheConfig     `json:"cache" yaml:"cache" mapstructure:"cache"`
	Log       LogConfig       `json:"log" yaml:"log" mapstructure:"log"`
}
