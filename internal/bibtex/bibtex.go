// Package bibtex renders canonical records as BibTeX entries.
package bibtex

import (
	"fmt"
	"strings"

	"github.com/alberto/anybib/internal/reference"
)

type field struct {
	key   string
	value string
}

// Render converts a record to a BibTeX entry. The title is wrapped in
// double braces so downstream tools preserve its capitalization. Field
// order is fixed: title, author, year, doi, journal, publisher. Empty
// fields are omitted, and publisher is emitted for book entries only.
func Render(rec *reference.Record) string {
	fields := []field{
		{"title", fmt.Sprintf("{{ %s }}", rec.Title)},
		{"author", rec.FormattedAuthors()},
		{"year", fmt.Sprintf("%d", rec.Year)},
		{"doi", rec.DOI},
	}
	if rec.Journal != "" {
		fields = append(fields, field{"journal", rec.Journal})
	}
	if rec.Publisher != "" && rec.EntryType == reference.TypeBook {
		fields = append(fields, field{"publisher", rec.Publisher})
	}

	lines := []string{fmt.Sprintf("@%s{%s,", rec.EntryType, rec.CiteKey())}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("  %s = {%s},", f.key, f.value))
	}
	// The last field line carries no trailing comma.
	if len(lines) > 1 {
		lines[len(lines)-1] = strings.TrimSuffix(lines[len(lines)-1], ",")
	}
	lines = append(lines, "}")

	return strings.Join(lines, "\n")
}
