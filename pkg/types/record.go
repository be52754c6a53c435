// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Record is one genealogical row recovered from a forum page. Every field
// except Raw is best-effort: the source lines are human-authored free text
// and any of the structured fields may come back empty. Raw always holds
// the original line verbatim so nothing is lost to a bad parse.
type Record struct {
	// LastName, FirstName, Patronymic are the ordered name components.
	LastName   string `json:"last_name" yaml:"last_name"`
	FirstName  string `json:"first_name" yaml:"first_name"`
	Patronymic string `json:"patronymic" yaml:"patronymic"`

	// Extra holds any name tokens beyond the first three, joined with
	// single spaces.
	Extra string `json:"extra" yaml:"extra"`

	// Gender is one of the source's three-letter codes (дд, мм, жж),
	// or empty when no code preceded the date.
	Gender string `json:"gender" yaml:"gender"`

	// DateBirth is the matched date substring, dd.mm.yy or dd.mm.yyyy,
	// kept verbatim with no century inference.
	DateBirth string `json:"date_birth" yaml:"date_birth"`

	// Place is the free-text remainder after the date.
	Place string `json:"place" yaml:"place"`

	// Raw is the source line, unmodified.
	Raw string `json:"raw" yaml:"raw"`
}

// recordColumns is the fixed CSV column order.
var recordColumns = []string{
	"last_name", "first_name", "patronymic", "extra",
	"gender", "date_birth", "place", "raw",
}

// RecordColumns returns the CSV header in output order.
func RecordColumns() []string {
	cols := make([]string, len(recordColumns))
	copy(cols, recordColumns)
	return cols
}

// Row returns the record's fields in CSV column order.
func (r Record) Row() []string {
	return []string{
		r.LastName, r.FirstName, r.Patronymic, r.Extra,
		r.Gender, r.DateBirth, r.Place, r.Raw,
	}
}
