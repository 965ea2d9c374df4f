// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/sourcing-engine/internal/cache"
	"github.com/pdiddy/sourcing-engine/internal/engine"
	"github.com/pdiddy/sourcing-engine/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query text]",
	Short: "Run one sourcing query against the configured adapters",
	Long: `Search sends a query to every enabled adapter in parallel and prints the
ranked offers followed by a per-adapter status report.

The structured intent comes from flags or from a request file (--request).
With --save the query and its results are written to a YAML request file
that can be inspected or re-run later.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("request", "", "read the query from a YAML request file")
	searchCmd.Flags().String("save", "", "write the query and results to a YAML request file")
	searchCmd.Flags().String("category", "", "product or service category")
	searchCmd.Flags().String("tier", "commodity", "desire tier: commodity, considered, bespoke")
	searchCmd.Flags().String("min", "", "minimum price")
	searchCmd.Flags().String("max", "", "maximum price")
	searchCmd.Flags().Bool("under", false, "treat --max as a strict ceiling")
	searchCmd.Flags().StringSlice("require", nil, "required features (hard)")
	searchCmd.Flags().StringSlice("prefer", nil, "optional features (soft)")
	searchCmd.Flags().StringSlice("brand", nil, "preferred brands (soft)")
	searchCmd.Flags().StringSlice("exclude", nil, "exclude offers mentioning these keywords")
	searchCmd.Flags().StringSlice("exclude-merchant", nil, "exclude these merchants")
	searchCmd.Flags().String("currency", "", "query currency (default from config)")
	searchCmd.Flags().Duration("budget", 0, "total time budget (default from config)")
	searchCmd.Flags().StringSlice("adapters", nil, "run only these adapters")
	searchCmd.Flags().Int("max-results", 0, "maximum number of offers to print (default from config)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().Bool("no-cache", false, "bypass the result cache")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	q, err := queryFromFlags(cmd, args)
	if err != nil {
		return err
	}

	cfg := appConfig
	if n, _ := cmd.Flags().GetInt("max-results"); n > 0 {
		cfg.Engine.MaxResults = n
	}
	only, _ := cmd.Flags().GetStringSlice("adapters")
	adapters, closers, err := buildAdapters(cfg, only)
	if err != nil {
		return err
	}
	defer closeAll(closers)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	noCache, _ := cmd.Flags().GetBool("no-cache")
	searcher, closeCache := newSearcher(ctx, cfg, nil, !noCache)
	defer closeCache()

	rs, err := searcher.SourceAndRank(ctx, q, adapters)
	if err != nil && !errors.Is(err, engine.ErrNoResults) {
		return err
	}

	if path, _ := cmd.Flags().GetString("save"); path != "" {
		if werr := engine.WriteRequestFile(path, q, rs); werr != nil {
			return werr
		}
		fmt.Fprintf(os.Stderr, "Saved request to %s\n", path)
	}

	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		if ferr := engine.FormatJSON(rs, os.Stdout); ferr != nil {
			return ferr
		}
	} else {
		engine.FormatTable(rs, os.Stdout)
	}
	return err
}

// newSearcher returns the engine, wrapped in the Redis cache when one is
// configured and useCache is set. A cache that cannot be reached is
// logged and skipped.
func newSearcher(ctx context.Context, cfg types.Config, obs engine.Observer, useCache bool) (cache.Searcher, func()) {
	e := engine.New(cfg, zap.L(), obs)
	if !useCache || cfg.Cache.RedisURL == "" {
		return e, func() {}
	}
	store, err := cache.NewRedisStore(ctx, cfg.Cache.RedisURL)
	if err != nil {
		zap.L().Warn("result cache disabled", zap.Error(err))
		return e, func() {}
	}
	return cache.New(e, store, cfg.Cache.TTL), func() { store.Close() }
}

func queryFromFlags(cmd *cobra.Command, args []string) (types.Query, error) {
	var q types.Query
	if path, _ := cmd.Flags().GetString("request"); path != "" {
		rf, err := engine.ReadRequestFile(path)
		if err != nil {
			return types.Query{}, err
		}
		q = rf.Query
	}

	flags := cmd.Flags()
	if len(args) > 0 {
		q.Text = strings.Join(args, " ")
	}
	if flags.Changed("category") || q.Intent.Category == "" {
		q.Intent.Category, _ = flags.GetString("category")
	}
	if flags.Changed("tier") || q.Intent.DesireTier == "" {
		tier, _ := flags.GetString("tier")
		q.Intent.DesireTier = types.DesireTier(strings.ToLower(tier))
	}
	for _, b := range []struct {
		flag string
		dst  **decimal.Decimal
	}{{"min", &q.Intent.PriceMin}, {"max", &q.Intent.PriceMax}} {
		s, _ := flags.GetString(b.flag)
		if s == "" {
			continue
		}
		d, err := decimal.NewFromString(strings.TrimPrefix(s, "$"))
		if err != nil {
			return types.Query{}, eris.Wrapf(err, "--%s %q is not a number", b.flag, s)
		}
		*b.dst = &d
	}
	if flags.Changed("under") {
		q.Intent.PriceMaxExclusive, _ = flags.GetBool("under")
	}
	for _, l := range []struct {
		flag string
		dst  *[]string
	}{
		{"require", &q.Intent.RequiredFeatures},
		{"prefer", &q.Intent.OptionalFeatures},
		{"brand", &q.Intent.PreferredBrands},
		{"exclude", &q.Intent.ExcludeKeywords},
		{"exclude-merchant", &q.Intent.ExcludeMerchants},
	} {
		if flags.Changed(l.flag) {
			*l.dst, _ = flags.GetStringSlice(l.flag)
		}
	}
	if flags.Changed("currency") {
		q.Currency, _ = flags.GetString("currency")
	}
	if flags.Changed("budget") {
		q.Budget, _ = flags.GetDuration("budget")
	}
	return q, nil
}
