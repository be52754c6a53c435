// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/genharvest/internal/fetch"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download topic pages to disk for offline extraction",
	Long: `Fetch walks the configured forum topic and saves each page, decoded to
UTF-8, under pages/raw/. Pages already on disk are skipped, so an
interrupted run can be resumed. Extract records later with the extract
command - no network needed once the pages are saved.`,
	RunE: runFetch,
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg := fetchConfigFromFlags(cmd)
	pager := fetch.NewPager(cfg)

	rawDir := filepath.Join(pager.Config.PagesDir, "raw")
	if err := os.MkdirAll(rawDir, 0o755); err != nil {
		return fmt.Errorf("creating pages directory: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Fetching %d page(s) into %s\n", pager.Config.TotalPages, rawDir)

	saver := &pageSaver{dir: rawDir, w: os.Stdout}
	summary, err := pager.FetchAll(context.Background(), saver, os.Stdout)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "\nfetched: %d, skipped: %d, failed: %d\n",
		summary.Fetched, summary.Skipped, summary.Failed)

	if summary.HasFailures() {
		return fmt.Errorf("%d page(s) failed to fetch", summary.Failed)
	}
	return nil
}

// pageSaver persists decoded pages and declines pages already on disk.
type pageSaver struct {
	dir string
	w   io.Writer
}

// pageFileName returns the on-disk name for a 1-based page number.
func pageFileName(page int) string {
	return fmt.Sprintf("page-%04d.html", page)
}

func (s *pageSaver) Keep(page int) bool {
	_, err := os.Stat(filepath.Join(s.dir, pageFileName(page)))
	return os.IsNotExist(err)
}

func (s *pageSaver) Page(page int, text string) error {
	name := pageFileName(page)
	if err := os.WriteFile(filepath.Join(s.dir, name), []byte(text), 0o644); err != nil {
		return fmt.Errorf("saving %s: %w", name, err)
	}
	fmt.Fprintf(s.w, "saved %s\n", name)
	return nil
}

func init() {
	fetchCmd.Flags().String("base-url", "", "page URL template with one %d offset verb")
	fetchCmd.Flags().Int("pages", 0, "number of topic pages to walk")
	fetchCmd.Flags().Duration("delay", 0, "delay between page requests")
	fetchCmd.Flags().String("pages-dir", "pages", "base directory for saved pages (contains raw/)")

	rootCmd.AddCommand(fetchCmd)
}
