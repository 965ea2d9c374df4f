// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the sourcing-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/sourcing-engine/internal/config"
	"github.com/pdiddy/sourcing-engine/internal/secrets"
	"github.com/pdiddy/sourcing-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// appConfig is the configuration loaded at startup.
	appConfig types.Config

	// loadedSecrets holds provider API keys loaded from .secrets/.
	loadedSecrets secrets.Secrets
)

// rootCmd is the base command for the sourcing-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "sourcing-engine",
	Short: "Fan a product or service query out to offer sources and rank the results",
	Long: `sourcing-engine sends one query to every configured offer source in
parallel, normalizes and deduplicates what comes back, scores each offer
against the structured intent, and returns a single ranked list within a
fixed time budget.

Sources that fail or time out are reported per adapter and never fail the
whole query.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Log.Level = lvl
		}
		if _, err := config.InitLogger(cfg.Log); err != nil {
			return err
		}
		appConfig = cfg

		s, err := secrets.Load(secrets.DefaultDir)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			zap.L().Debug("loaded secrets", zap.Strings("names", s.Names()))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		zap.L().Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./sourcing-engine.yaml or ~/.config/sourcing-engine/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("sourcing-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "sourcing-engine"))
		}
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
