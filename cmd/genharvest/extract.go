// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/genharvest/internal/archive"
	"github.com/pdiddy/genharvest/internal/engine"
	"github.com/pdiddy/genharvest/internal/htmltext"
	"github.com/pdiddy/genharvest/internal/output"
	"github.com/pdiddy/genharvest/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract records from pages saved by fetch",
	Long: `Extract runs the record engine over every page saved under pages/raw/
and writes the combined rows to output/records.csv. Pages that contain no
record blocks contribute nothing; unreadable files are reported and
skipped. With --archive the records are also ingested into the local
archive database, keyed by page.`,
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := extractionConfigFromFlags(cmd)
	markers := engine.FromConfig(cfg)

	var store *archive.Store
	if useArchive, _ := cmd.Flags().GetBool("archive"); useArchive {
		var err error
		store, err = archive.NewStore(archiveConfigFromFlags(cmd))
		if err != nil {
			return err
		}
		defer store.Close()
	}

	rawDir := filepath.Join(cfg.PagesDir, "raw")
	entries, err := os.ReadDir(rawDir)
	if err != nil {
		return fmt.Errorf("reading pages directory %s: %w", rawDir, err)
	}

	var all []types.Record
	failed := 0

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".html") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(rawDir, entry.Name()))
		if err != nil {
			fmt.Fprintf(os.Stdout, "failed  %s: %v\n", entry.Name(), err)
			failed++
			continue
		}

		records := engine.Extract(htmltext.Flatten(string(data)), markers)
		all = append(all, records...)
		fmt.Fprintf(os.Stdout, "%s: %d record(s)\n", entry.Name(), len(records))

		if store != nil && len(records) > 0 {
			if _, err := store.Ingest(ctx, records, pageNumber(entry.Name())); err != nil {
				return err
			}
		}
	}

	csvPath := filepath.Join(cfg.OutputDir, "records.csv")
	if err := output.WriteCSVFile(csvPath, all); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "\nSaved %d record(s) to %s\n", len(all), csvPath)

	if failed > 0 {
		return fmt.Errorf("%d page file(s) could not be read", failed)
	}
	return nil
}

// pageNumber recovers the page number from a saved file name. Files not
// named by fetch get page 0.
func pageNumber(name string) int {
	var page int
	if _, err := fmt.Sscanf(name, "page-%d.html", &page); err != nil {
		return 0
	}
	return page
}

func init() {
	extractCmd.Flags().String("pages-dir", "pages", "base directory for saved pages (contains raw/)")
	extractCmd.Flags().String("output-dir", "output", "directory for records.csv")
	extractCmd.Flags().Bool("archive", false, "also ingest records into the archive database")
	extractCmd.Flags().String("archive-dir", "archive", "base directory for the archive database")

	rootCmd.AddCommand(extractCmd)
}
