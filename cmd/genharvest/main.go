// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the genharvest CLI, a harvester for
// genealogical record lists posted as forum topics. The pipeline stages are
// subcommands: fetch retrieves pages, extract turns saved pages into
// records, harvest does both in one pass, and archive manages the local
// record database.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/genharvest/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the genharvest CLI.
var rootCmd = &cobra.Command{
	Use:   "genharvest",
	Short: "Harvest genealogical records from paginated forum topics",
	Long: `genharvest walks a paginated forum topic, extracts the genealogical
record lines embedded in each page (surname, given name, patronymic, gender
code, birth date, place), and writes them as tabular rows.

Each stage is a subcommand: fetch saves decoded pages to disk, extract runs
the record engine over saved pages, harvest fetches and extracts in one
pass, and archive stores records in a searchable local database.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./genharvest.yaml or ~/.config/genharvest/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("genharvest")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "genharvest"))
		}
	}

	viper.SetEnvPrefix("GENHARVEST")
	viper.AutomaticEnv()

	viper.SetDefault("fetch.base_url", types.DefaultBaseURL)
	viper.SetDefault("fetch.total_pages", types.DefaultTotalPages)
	viper.SetDefault("fetch.offset_stride", types.DefaultOffsetStride)
	viper.SetDefault("fetch.page_delay", types.DefaultPageDelay)
	viper.SetDefault("fetch.error_backoff", types.DefaultErrorBackoff)
	viper.SetDefault("fetch.timeout", types.DefaultHTTPTimeout)
	viper.SetDefault("fetch.user_agent", types.DefaultUserAgent)
	viper.SetDefault("fetch.accept_language", types.DefaultAcceptLanguage)
	viper.SetDefault("fetch.pages_dir", "pages")
	viper.SetDefault("extraction.output_dir", "output")
	viper.SetDefault("archive.archive_dir", "archive")
	viper.SetDefault("archive.max_results", 20)

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// fetchConfigFromFlags assembles the fetch configuration from the config
// file and environment, with explicitly set flags taking precedence.
func fetchConfigFromFlags(cmd *cobra.Command) types.FetchConfig {
	cfg := types.FetchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:        viper.GetDuration("fetch.timeout"),
			UserAgent:      viper.GetString("fetch.user_agent"),
			AcceptLanguage: viper.GetString("fetch.accept_language"),
		},
		BaseURL:      viper.GetString("fetch.base_url"),
		TotalPages:   viper.GetInt("fetch.total_pages"),
		OffsetStride: viper.GetInt("fetch.offset_stride"),
		PageDelay:    viper.GetDuration("fetch.page_delay"),
		ErrorBackoff: viper.GetDuration("fetch.error_backoff"),
		PagesDir:     viper.GetString("fetch.pages_dir"),
	}

	if cmd.Flags().Changed("base-url") {
		cfg.BaseURL, _ = cmd.Flags().GetString("base-url")
	}
	if cmd.Flags().Changed("pages") {
		cfg.TotalPages, _ = cmd.Flags().GetInt("pages")
	}
	if cmd.Flags().Changed("delay") {
		cfg.PageDelay, _ = cmd.Flags().GetDuration("delay")
	}
	if cmd.Flags().Changed("pages-dir") {
		cfg.PagesDir, _ = cmd.Flags().GetString("pages-dir")
	}
	return cfg
}

// extractionConfigFromFlags assembles the extraction configuration. Marker
// overrides come from the config file only; there is no flag surface for
// them.
func extractionConfigFromFlags(cmd *cobra.Command) types.ExtractionConfig {
	cfg := types.ExtractionConfig{
		Header:       viper.GetString("extraction.header"),
		Terminators:  viper.GetStringSlice("extraction.terminators"),
		GenderTokens: viper.GetStringSlice("extraction.gender_tokens"),
		PagesDir:     viper.GetString("fetch.pages_dir"),
		OutputDir:    viper.GetString("extraction.output_dir"),
	}
	if cmd.Flags().Changed("pages-dir") {
		cfg.PagesDir, _ = cmd.Flags().GetString("pages-dir")
	}
	if cmd.Flags().Changed("output-dir") {
		cfg.OutputDir, _ = cmd.Flags().GetString("output-dir")
	}
	return cfg
}

// archiveConfigFromFlags assembles the archive configuration.
func archiveConfigFromFlags(cmd *cobra.Command) types.ArchiveConfig {
	cfg := types.ArchiveConfig{
		ArchiveDir: viper.GetString("archive.archive_dir"),
		MaxResults: viper.GetInt("archive.max_results"),
	}
	if cmd.Flags().Changed("archive-dir") {
		cfg.ArchiveDir, _ = cmd.Flags().GetString("archive-dir")
	}
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
