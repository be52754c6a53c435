// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/genharvest/internal/archive"
	"github.com/pdiddy/genharvest/internal/engine"
	"github.com/pdiddy/genharvest/internal/fetch"
	"github.com/pdiddy/genharvest/internal/htmltext"
	"github.com/pdiddy/genharvest/internal/output"
	"github.com/pdiddy/genharvest/pkg/types"
)

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Fetch all topic pages and extract records in one pass",
	Long: `Harvest walks every page of the configured forum topic, extracts the
record lines from each page as it arrives, and writes the results to
output/records.csv along with a harvest.yaml run manifest. Failed pages are
skipped and reported; with --archive the records are also ingested into the
local archive database.`,
	RunE: runHarvest,
}

func runHarvest(cmd *cobra.Command, args []string) error {
	start := time.Now()
	ctx := context.Background()

	fetchCfg := fetchConfigFromFlags(cmd)
	extractCfg := extractionConfigFromFlags(cmd)
	markers := engine.FromConfig(extractCfg)
	pager := fetch.NewPager(fetchCfg)

	var store *archive.Store
	if useArchive, _ := cmd.Flags().GetBool("archive"); useArchive {
		var err error
		store, err = archive.NewStore(archiveConfigFromFlags(cmd))
		if err != nil {
			return err
		}
		defer store.Close()
	}

	fmt.Fprintf(os.Stdout, "Harvesting %d page(s)\n", pager.Config.TotalPages)

	var all []types.Record
	summary, err := pager.FetchAll(ctx, fetch.HandlerFunc(func(page int, text string) error {
		records := engine.Extract(htmltext.Flatten(text), markers)
		all = append(all, records...)
		fmt.Fprintf(os.Stdout, "found %d record(s) (total %d)\n", len(records), len(all))

		if store != nil {
			if _, err := store.Ingest(ctx, records, page); err != nil {
				return err
			}
		}
		return nil
	}), os.Stdout)
	if err != nil {
		return err
	}

	csvPath := filepath.Join(extractCfg.OutputDir, "records.csv")
	if err := output.WriteCSVFile(csvPath, all); err != nil {
		return err
	}

	manifest := output.NewManifest(pager.Config,
		summary.Fetched, summary.Skipped, summary.Failed,
		all, csvPath, time.Since(start))
	if err := output.WriteManifest(filepath.Join(extractCfg.OutputDir, "harvest.yaml"), manifest); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "\nSaved %d record(s) to %s (%s)\n",
		len(all), csvPath, manifest.Elapsed)

	if summary.HasFailures() {
		return fmt.Errorf("%d page(s) failed to fetch", summary.Failed)
	}
	return nil
}

func init() {
	harvestCmd.Flags().String("base-url", "", "page URL template with one %d offset verb")
	harvestCmd.Flags().Int("pages", 0, "number of topic pages to walk")
	harvestCmd.Flags().Duration("delay", 0, "delay between page requests")
	harvestCmd.Flags().String("output-dir", "output", "directory for records.csv and harvest.yaml")
	harvestCmd.Flags().Bool("archive", false, "also ingest records into the archive database")
	harvestCmd.Flags().String("archive-dir", "archive", "base directory for the archive database")

	rootCmd.AddCommand(harvestCmd)
}
