// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/genharvest/internal/archive"
	"github.com/pdiddy/genharvest/internal/output"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Manage the record archive (store, retrieve, export)",
	Long: `Archive manages a local SQLite database of harvested records with
full-text search over the raw lines. Use subcommands to ingest a records
CSV, query the archive, or export it.`,
}

// --- store subcommand ---

var archiveStoreCmd = &cobra.Command{
	Use:   "store",
	Short: "Ingest a records CSV into the archive",
	Long: `Store reads a records CSV produced by harvest or extract and ingests
every row into the archive database. Ingestion is idempotent: re-running
store on the same file does not duplicate records.`,
	RunE: runArchiveStore,
}

func runArchiveStore(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")

	records, err := output.ReadCSVFile(input)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no records found in %s", input)
	}

	store, err := archive.NewStore(archiveConfigFromFlags(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	_, err = store.IngestCSV(context.Background(), records, os.Stdout)
	return err
}

// --- retrieve subcommand ---

var archiveRetrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Query the archive with full-text search and filters",
	Long: `Retrieve searches the archive using FTS5 full-text search over the raw
record lines and places, structured filters (surname, gender, birth year),
or a combination of both.`,
	RunE: runArchiveRetrieve,
}

func runArchiveRetrieve(cmd *cobra.Command, args []string) error {
	store, err := archive.NewStore(archiveConfigFromFlags(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	opts := queryOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query, --surname, --gender, or --year")
	}

	entries, err := store.Retrieve(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRetrieveOutput(entries, jsonOutput)
}

func formatRetrieveOutput(entries []archive.Entry, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No records found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-18s  %-14s  %-18s  %-6s  %-10s  %-24s  %s\n",
		"Last name", "First name", "Patronymic", "Gender", "Born", "Place", "Page")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 104))

	for _, e := range entries {
		fmt.Fprintf(os.Stdout, "%-18s  %-14s  %-18s  %-6s  %-10s  %-24s  %d\n",
			e.LastName, e.FirstName, e.Patronymic, e.Gender, e.DateBirth, truncate(e.Place, 24), e.Page)
	}

	fmt.Fprintf(os.Stdout, "\n%d record(s)\n", len(entries))
	return nil
}

// truncate shortens s to at most max runes, ending in an ellipsis. Slicing
// by bytes would cut Cyrillic text mid-rune.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

// --- export subcommand ---

var archiveExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the archive to YAML or JSON",
	Long: `Export writes the full archive (or a filtered subset) to
archive/index/export.yaml or export.json. Supports the same filter flags
as retrieve for partial exports.`,
	RunE: runArchiveExport,
}

func runArchiveExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	store, err := archive.NewStore(archiveConfigFromFlags(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	opts := queryOptsFromFlags(cmd, args)

	switch format {
	case "yaml", "":
		if err := store.ExportYAML(context.Background(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to archive/index/export.yaml")
	case "json":
		if err := store.ExportJSON(context.Background(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to archive/index/export.json")
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	return nil
}

// --- shared helpers ---

func queryOptsFromFlags(cmd *cobra.Command, args []string) archive.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}

	surname, _ := cmd.Flags().GetString("surname")
	gender, _ := cmd.Flags().GetString("gender")
	year, _ := cmd.Flags().GetString("year")
	limit, _ := cmd.Flags().GetInt("limit")

	return archive.QueryOptions{
		Query:      queryText,
		Surname:    surname,
		Gender:     gender,
		Year:       year,
		MaxResults: limit,
	}
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	archiveCmd.PersistentFlags().String("archive-dir", "archive", "base directory for the archive database")

	// Store flags.
	archiveStoreCmd.Flags().String("input", "output/records.csv", "records CSV to ingest")

	// Retrieve flags.
	archiveRetrieveCmd.Flags().String("query", "", "full-text search query")
	archiveRetrieveCmd.Flags().String("surname", "", "filter by last name")
	archiveRetrieveCmd.Flags().String("gender", "", "filter by gender code (дд, мм, жж)")
	archiveRetrieveCmd.Flags().String("year", "", "filter by birth year")
	archiveRetrieveCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	archiveRetrieveCmd.Flags().Bool("json", false, "output results as JSON")

	// Export flags.
	archiveExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	archiveExportCmd.Flags().String("query", "", "full-text search filter for partial export")
	archiveExportCmd.Flags().String("surname", "", "filter by last name for partial export")
	archiveExportCmd.Flags().String("gender", "", "filter by gender code for partial export")
	archiveExportCmd.Flags().String("year", "", "filter by birth year for partial export")
	archiveExportCmd.Flags().Int("limit", 0, "maximum records to export (0 = all)")

	// Wire subcommands.
	archiveCmd.AddCommand(archiveStoreCmd)
	archiveCmd.AddCommand(archiveRetrieveCmd)
	archiveCmd.AddCommand(archiveExportCmd)

	rootCmd.AddCommand(archiveCmd)
}
