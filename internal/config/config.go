// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads sourcing-engine settings from file and environment
// and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/sourcing-engine/internal/score"
	"github.com/pdiddy/sourcing-engine/pkg/types"
)

// EnvPrefix is the prefix for environment overrides,
// e.g. SOURCING_ENGINE_ENGINE_DEFAULT_BUDGET=6s.
const EnvPrefix = "SOURCING_ENGINE"

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("engine.default_budget", "4s")
	v.SetDefault("engine.max_budget", "10s")
	v.SetDefault("engine.default_adapter_deadline", "3s")
	v.SetDefault("engine.currency", "USD")
	v.SetDefault("engine.max_results", 50)
	v.SetDefault("scoring.rerank_max_delta", 0.05)
	v.SetDefault("scoring.rerank_spread_fraction", 0.25)
	v.SetDefault("scoring.rerank_window", 5)
	v.SetDefault("scoring.rerank_similarity", 0.6)
	v.SetDefault("scoring.soft_fit_floor", 0.7)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load applies defaults and environment binding to v, then unmarshals it.
// The caller is responsible for reading a config file into v, if any.
func Load(v *viper.Viper) (types.Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, eris.Wrap(err, "config: unmarshal")
	}
	// Viper lowercases map keys; currency codes are upper case.
	if len(cfg.Normalize.Rates) > 0 {
		rates := make(map[string]float64, len(cfg.Normalize.Rates))
		for code, r := range cfg.Normalize.Rates {
			rates[strings.ToUpper(code)] = r
		}
		cfg.Normalize.Rates = rates
	}
	if err := Validate(cfg); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

// Validate checks adapter declarations and numeric bounds.
func Validate(cfg types.Config) error {
	if cfg.Engine.DefaultBudget < 0 || cfg.Engine.MaxBudget < 0 {
		return eris.New("config: budgets must not be negative")
	}
	for class, f := range cfg.Engine.DeadlineFraction {
		if f <= 0 || f > 1 {
			return eris.Errorf("config: deadline fraction for %q must be in (0,1]", class)
		}
	}
	if f := cfg.Scoring.SoftFitFloor; f < 0 || f > 1 {
		return eris.New("config: scoring.soft_fit_floor must be in [0,1]")
	}
	if _, err := score.FromConfig(cfg.Scoring); err != nil {
		return eris.Wrap(err, "config: scoring")
	}

	seen := make(map[string]bool, len(cfg.Adapters))
	for i, a := range cfg.Adapters {
		if a.Name == "" {
			return eris.Errorf("config: adapter %d has no name", i)
		}
		if seen[a.Name] {
			return eris.Errorf("config: duplicate adapter name %q", a.Name)
		}
		seen[a.Name] = true

		switch a.Kind {
		case types.AdapterHTTPJSON:
			if a.Endpoint == "" {
				return eris.Errorf("config: adapter %q: endpoint is required", a.Name)
			}
		case types.AdapterCatalog, types.AdapterVendorDirectory:
			if a.Path == "" {
				return eris.Errorf("config: adapter %q: path is required", a.Name)
			}
		default:
			return eris.Errorf("config: adapter %q: unknown kind %q", a.Name, a.Kind)
		}

		switch a.Category {
		case types.SourceCommodityRetail, types.SourceMarketplace, types.SourceCuratedVendor, types.SourceWeb:
		case "":
			if a.Kind != types.AdapterVendorDirectory {
				return eris.Errorf("config: adapter %q: category is required", a.Name)
			}
		default:
			return eris.Errorf("config: adapter %q: unknown category %q", a.Name, a.Category)
		}
	}
	return nil
}

// InitLogger builds the global zap logger. Format "json" selects the
// production encoder; anything else is the console encoder.
func InitLogger(cfg types.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level := cfg.Level
	if level == "" {
		level = "info"
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(lvl)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}
