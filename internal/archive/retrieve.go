// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/genharvest/pkg/types"
)

// QueryOptions holds parameters for archive queries. Query searches the
// raw line and place, full-text when the fts5 module is compiled in and by
// substring otherwise; the remaining fields are structured filters combined
// with AND.
type QueryOptions struct {
	// Query is the search string.
	Query string

	// Surname filters by exact last name.
	Surname string

	// Gender filters by gender code.
	Gender string

	// Year filters by birth year, matched against the date suffix so
	// both dd.mm.yyyy and dd.mm.yy records are reachable.
	Year string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Surname == "" && q.Gender == "" && q.Year == ""
}

// Entry is an archived record with its provenance.
type Entry struct {
	types.Record `yaml:",inline"`
	ID           string `json:"id" yaml:"id"`
	Page         int    `json:"page" yaml:"page"`
}

// Retrieve queries the archive. Full-text matches are ranked by relevance;
// substring and structured-only queries come back ordered by name.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]Entry, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != "" && s.fts
	)

	if useFTS {
		qb.WriteString(
			`SELECT r.id, r.last_name, r.first_name, r.patronymic, r.extra,
				r.gender, r.date_birth, r.place, r.raw, r.page
			FROM records_fts
			JOIN records r ON r.rowid = records_fts.rowid
			WHERE records_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT r.id, r.last_name, r.first_name, r.patronymic, r.extra,
				r.gender, r.date_birth, r.place, r.raw, r.page
			FROM records r
			WHERE 1=1`)
		if opts.Query != "" {
			qb.WriteString(` AND (r.raw LIKE ? OR r.place LIKE ?)`)
			pattern := "%" + opts.Query + "%"
			args = append(args, pattern, pattern)
		}
	}

	if opts.Surname != "" {
		qb.WriteString(` AND r.last_name = ?`)
		args = append(args, opts.Surname)
	}

	if opts.Gender != "" {
		qb.WriteString(` AND r.gender = ?`)
		args = append(args, opts.Gender)
	}

	if opts.Year != "" {
		qb.WriteString(` AND r.date_birth LIKE ?`)
		args = append(args, "%."+opts.Year)
	}

	if useFTS {
		qb.WriteString(` ORDER BY records_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY r.last_name, r.first_name, r.page`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying archive: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID, &e.LastName, &e.FirstName, &e.Patronymic, &e.Extra,
			&e.Gender, &e.DateBirth, &e.Place, &e.Raw, &e.Page,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
