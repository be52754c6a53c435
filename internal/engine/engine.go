// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine locates genealogical record lines inside flattened forum
// pages and splits each line into typed fields. Both halves — the block
// segmenter and the line tokenizer — are pure functions: any input, however
// malformed, produces a defined (possibly empty) result and never an error.
package engine

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/genharvest/pkg/types"
)

// Markers describes the page template the segmenter and tokenizer expect.
// The literals are tied to one forum's layout, so they are injected rather
// than hardcoded; DefaultMarkers carries the set for the original topic.
type Markers struct {
	// Header is the literal that opens every record block. Text before
	// the first occurrence is page chrome and is discarded.
	Header string

	// Terminators end a block: a line containing any of them, and every
	// line after it within the segment, belongs to trailing chrome.
	// Matched by substring, not whole line — footer lines embed these
	// literals mid-text.
	Terminators []string

	// GenderTokens are the codes recognized when they immediately
	// precede the birth date.
	GenderTokens []string

	// genderRe is the compiled trailing-gender matcher. DefaultMarkers and
	// FromConfig set it once; Markers built as literals compile on use.
	genderRe *regexp.Regexp
}

var defaultGenderRe = genderPattern([]string{"дд", "мм", "жж"})

// DefaultMarkers returns the marker set for the VGD forum topic this tool
// was written against.
func DefaultMarkers() Markers {
	return Markers{
		Header:       "USER_LAST_NAME USER_NAME USER_TITLE DATE_B NAME_SITE",
		Terminators:  []string{"alexalex1804", "##", "VGD.ru"},
		GenderTokens: []string{"дд", "мм", "жж"},
		genderRe:     defaultGenderRe,
	}
}

// FromConfig builds a marker set from configuration, falling back to the
// defaults for any unset field.
func FromConfig(cfg types.ExtractionConfig) Markers {
	m := DefaultMarkers()
	if cfg.Header != "" {
		m.Header = cfg.Header
	}
	if len(cfg.Terminators) > 0 {
		m.Terminators = cfg.Terminators
	}
	if len(cfg.GenderTokens) > 0 {
		m.GenderTokens = cfg.GenderTokens
		m.genderRe = genderPattern(cfg.GenderTokens)
	}
	return m
}

// minLineRunes is the noise threshold: a dateless line shorter than this
// yields no record at all. Counted in runes, not bytes — the input is
// Cyrillic and a two-character line is noise regardless of its byte length.
const minLineRunes = 3

// datePattern matches a birth date substring: dd.mm.yy or dd.mm.yyyy.
var datePattern = regexp.MustCompile(`\d{2}\.\d{2}\.\d{2,4}`)

// Segment finds the record lines in one flattened page. It splits the
// document at every header-marker occurrence, discards everything before
// the first, and within each segment keeps trimmed non-empty lines until a
// terminator line. Lines from all segments are concatenated in source order.
// A document without the marker yields nil: pages with zero record blocks
// are legitimate, not an error.
func Segment(doc string, m Markers) []string {
	parts := strings.Split(doc, m.Header)
	if len(parts) < 2 {
		return nil
	}

	var lines []string
	for _, part := range parts[1:] {
	segment:
		for _, line := range strings.Split(part, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			for _, t := range m.Terminators {
				if strings.Contains(line, t) {
					break segment
				}
			}
			lines = append(lines, line)
		}
	}
	return lines
}

// Tokenize classifies one candidate line. The first date substring anchors
// the split: everything before it is name tokens (with an optional trailing
// gender code), everything after is the place. A dateless line either
// degrades to a raw-only record or, below the noise threshold, yields
// nothing. The second return value reports whether a record was produced.
//
// Field assignment is positional — the source format has no delimiters
// between name components, so position is the only signal. Names with more
// or fewer tokens than expected are recorded lossily rather than rejected.
func Tokenize(line string, m Markers) (types.Record, bool) {
	loc := datePattern.FindStringIndex(line)
	if loc == nil {
		if utf8.RuneCountInString(line) < minLineRunes {
			return types.Record{}, false
		}
		return types.Record{Raw: line}, true
	}

	before := strings.TrimSpace(line[:loc[0]])
	rec := types.Record{
		DateBirth: line[loc[0]:loc[1]],
		Place:     strings.TrimSpace(line[loc[1]:]),
		Raw:       line,
	}

	// The gender code, when present, sits between the name and the date.
	// Strip it before splitting so it cannot be mistaken for a patronymic
	// or extra name token. The code is only recognized in this position;
	// a homograph earlier in the line stays a name token.
	re := m.genderRe
	if re == nil {
		re = genderPattern(m.GenderTokens)
	}
	if re != nil {
		if gm := re.FindStringSubmatchIndex(before); gm != nil {
			rec.Gender = before[gm[2]:gm[3]]
			before = strings.TrimSpace(before[:gm[0]])
		}
	}

	parts := strings.Fields(before)
	if len(parts) > 0 {
		rec.LastName = parts[0]
	}
	if len(parts) > 1 {
		rec.FirstName = parts[1]
	}
	if len(parts) > 2 {
		rec.Patronymic = parts[2]
	}
	if len(parts) > 3 {
		rec.Extra = strings.Join(parts[3:], " ")
	}
	return rec, true
}

// Extract runs the segmenter and tokenizer over one flattened page.
func Extract(doc string, m Markers) []types.Record {
	var records []types.Record
	for _, line := range Segment(doc, m) {
		if rec, ok := Tokenize(line, m); ok {
			records = append(records, rec)
		}
	}
	return records
}

// genderPattern compiles the trailing-gender matcher for a token set:
// whitespace, one of the codes, then end of string. Returns nil when the
// set is empty.
func genderPattern(tokens []string) *regexp.Regexp {
	if len(tokens) == 0 {
		return nil
	}
	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = regexp.QuoteMeta(t)
	}
	return regexp.MustCompile(`\s+(` + strings.Join(quoted, "|") + `)\s*$`)
}
