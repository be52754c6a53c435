// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package output serializes harvested records: a UTF-8 CSV with a byte-order
// marker for spreadsheet compatibility, and a YAML manifest describing each
// harvest run.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/genharvest/pkg/types"
)

// utf8BOM prefixes the CSV so spreadsheet tools pick up UTF-8 for the
// Cyrillic content.
const utf8BOM = "\ufeff"

// WriteCSV writes records as delimited rows in the fixed column order,
// preceded by a BOM and a header row.
func WriteCSV(w io.Writer, records []types.Record) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("writing BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(types.RecordColumns()); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(r.Row()); err != nil {
			return fmt.Errorf("writing record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes records to path, creating parent directories.
func WriteCSVFile(path string, records []types.Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := WriteCSV(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadCSVFile loads records from a CSV previously written by WriteCSV.
// Columns are matched by header name, so extra or reordered columns are
// tolerated; unknown columns are ignored.
func ReadCSVFile(path string) ([]types.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var records []types.Record
	for _, row := range rows[1:] {
		records = append(records, types.Record{
			LastName:   field(row, "last_name"),
			FirstName:  field(row, "first_name"),
			Patronymic: field(row, "patronymic"),
			Extra:      field(row, "extra"),
			Gender:     field(row, "gender"),
			DateBirth:  field(row, "date_birth"),
			Place:      field(row, "place"),
			Raw:        field(row, "raw"),
		})
	}
	return records, nil
}
