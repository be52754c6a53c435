// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/genharvest/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.ArchiveConfig{ArchiveDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testRecords() []types.Record {
	return []types.Record{
		{
			LastName: "Иванов", FirstName: "Пётр", Patronymic: "Сергеевич",
			Gender: "мм", DateBirth: "12.03.1920", Place: "с. Покровка",
			Raw: "Иванов Пётр Сергеевич мм 12.03.1920 с. Покровка",
		},
		{
			LastName: "Сидорова", FirstName: "Анна",
			Gender: "дд", DateBirth: "01.01.05",
			Raw: "Сидорова Анна дд 01.01.05",
		},
		{
			Raw: "пометка архивиста без даты",
		},
	}
}

func TestIngestAndCount(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	n, err := s.Ingest(ctx, testRecords(), 1)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	total, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestIngestIdempotent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, err := s.Ingest(ctx, testRecords(), 1)
	require.NoError(t, err)
	_, err = s.Ingest(ctx, testRecords(), 1)
	require.NoError(t, err)

	total, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, total, "re-ingesting the same page must not duplicate rows")
}

func TestIngestSameLineDifferentPages(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	recs := testRecords()[:1]
	_, err := s.Ingest(ctx, recs, 1)
	require.NoError(t, err)
	_, err = s.Ingest(ctx, recs, 2)
	require.NoError(t, err)

	total, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, total, "identical lines on different pages are distinct records")
}

func TestRetrieveFullText(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, err := s.Ingest(ctx, testRecords(), 1)
	require.NoError(t, err)

	entries, err := s.Retrieve(ctx, QueryOptions{Query: "Покровка"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Иванов", entries[0].LastName)
	assert.Equal(t, 1, entries[0].Page)
}

func TestRetrieveStructuredFilters(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, err := s.Ingest(ctx, testRecords(), 1)
	require.NoError(t, err)

	tests := []struct {
		name string
		opts QueryOptions
		want int
	}{
		{"surname", QueryOptions{Surname: "Сидорова"}, 1},
		{"gender", QueryOptions{Gender: "мм"}, 1},
		{"four digit year", QueryOptions{Year: "1920"}, 1},
		{"two digit year", QueryOptions{Year: "05"}, 1},
		{"combined no match", QueryOptions{Surname: "Иванов", Gender: "дд"}, 0},
		{"no filter matches nothing here", QueryOptions{Surname: "Кузнецов"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := s.Retrieve(ctx, tt.opts)
			require.NoError(t, err)
			assert.Len(t, entries, tt.want)
		})
	}
}

func TestRetrieveLimit(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, err := s.Ingest(ctx, testRecords(), 1)
	require.NoError(t, err)

	entries, err := s.Retrieve(ctx, QueryOptions{MaxResults: 1})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestQueryOptionsIsEmpty(t *testing.T) {
	assert.True(t, QueryOptions{}.IsEmpty())
	assert.True(t, QueryOptions{MaxResults: 5}.IsEmpty())
	assert.False(t, QueryOptions{Query: "x"}.IsEmpty())
	assert.False(t, QueryOptions{Surname: "Иванов"}.IsEmpty())
	assert.False(t, QueryOptions{Gender: "жж"}.IsEmpty())
	assert.False(t, QueryOptions{Year: "1900"}.IsEmpty())
}

func TestExportYAML(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(types.ArchiveConfig{ArchiveDir: dir})
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	_, err = s.Ingest(ctx, testRecords(), 1)
	require.NoError(t, err)

	require.NoError(t, s.ExportYAML(ctx, QueryOptions{}))

	data, err := os.ReadFile(filepath.Join(dir, "index", "export.yaml"))
	require.NoError(t, err)

	var entries []Entry
	require.NoError(t, yaml.Unmarshal(data, &entries))
	assert.Len(t, entries, 3)
}

func TestExportJSONFiltered(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(types.ArchiveConfig{ArchiveDir: dir})
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	_, err = s.Ingest(ctx, testRecords(), 1)
	require.NoError(t, err)

	require.NoError(t, s.ExportJSON(ctx, QueryOptions{Gender: "дд"}))

	data, err := os.ReadFile(filepath.Join(dir, "index", "export.json"))
	require.NoError(t, err)

	var entries []Entry
	require.NoError(t, json.Unmarshal(data, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "Сидорова", entries[0].LastName)
}

func TestIngestCSVReportsProgress(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	var buf bytes.Buffer
	n, err := s.IngestCSV(ctx, testRecords(), &buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Contains(t, buf.String(), "ingested 3 record(s)")
}

func TestStableIDDeterministic(t *testing.T) {
	a := stableID("Иванов Пётр 12.03.1920", 5)
	b := stableID("Иванов Пётр 12.03.1920", 5)
	c := stableID("Иванов Пётр 12.03.1920", 6)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 12)
}

func TestIngestKeepsSearchIndexInSync(t *testing.T) {
	s := testStore(t)
	if !s.fts {
		t.Skip("full-text index requires the sqlite_fts5 build tag")
	}
	ctx := context.Background()

	_, err := s.Ingest(ctx, testRecords(), 1)
	require.NoError(t, err)
	_, err = s.Ingest(ctx, testRecords(), 1)
	require.NoError(t, err)

	// The index must hold exactly one entry per row after a re-ingest; a
	// delete that bypasses the sync triggers would leave a stale second one.
	var n int
	err = s.db.QueryRow(
		`SELECT count(*) FROM records_fts WHERE records_fts MATCH 'Покровка'`,
	).Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "re-ingest must not strand stale index entries")
}

func TestRetrieveQueryWithoutFTS(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, err := s.Ingest(ctx, testRecords(), 1)
	require.NoError(t, err)

	// Substring fallback answers the same queries when fts5 is absent.
	s.fts = false
	entries, err := s.Retrieve(ctx, QueryOptions{Query: "Покровка"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Иванов", entries[0].LastName)
}

func TestExportHonorsLimit(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(types.ArchiveConfig{ArchiveDir: dir})
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	_, err = s.Ingest(ctx, testRecords(), 1)
	require.NoError(t, err)

	require.NoError(t, s.ExportYAML(ctx, QueryOptions{MaxResults: 1}))

	data, err := os.ReadFile(filepath.Join(dir, "index", "export.yaml"))
	require.NoError(t, err)

	var entries []Entry
	require.NoError(t, yaml.Unmarshal(data, &entries))
	assert.Len(t, entries, 1)
}
