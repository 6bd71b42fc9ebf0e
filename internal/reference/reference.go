// Package reference defines the core domain types for bibliographic records.
package reference

import (
	"regexp"
	"strconv"
	"strings"
)

// Entry types form a closed vocabulary. Unmapped external types become misc.
const (
	TypeArticle       = "article"
	TypeBook          = "book"
	TypeInProceedings = "inproceedings"
	TypeMisc          = "misc"
)

// Record is the canonical bibliographic record produced by a DOI lookup.
// It is constructed once by the normalizer and never mutated afterwards.
type Record struct {
	DOI          string   `json:"doi"`
	Title        string   `json:"title"`
	EntryType    string   `json:"entry_type"`
	Year         int      `json:"year"`
	Authors      []Author `json:"authors"` // Citation order; may be empty
	Journal      string   `json:"journal,omitempty"`
	ShortJournal string   `json:"short_journal,omitempty"`
	Publisher    string   `json:"publisher,omitempty"`

	// Raw retains the original source payload for traceability.
	// It is never consulted by any derived value.
	Raw map[string]any `json:"raw,omitempty"`
}

// FirstAuthor returns the first author in citation order, or nil when the
// record has no authors.
func (r *Record) FirstAuthor() *Author {
	if len(r.Authors) == 0 {
		return nil
	}
	return &r.Authors[0]
}

// FormattedAuthors joins author display names with the literal word "and".
func (r *Record) FormattedAuthors() string {
	names := make([]string, len(r.Authors))
	for i, a := range r.Authors {
		names[i] = a.DisplayName()
	}
	return strings.Join(names, " and ")
}

var (
	alnumRun = regexp.MustCompile(`[A-Za-z0-9]+`)
	nonAlnum = regexp.MustCompile(`[^A-Za-z0-9]+`)
)

// CiteKey derives the citation key: ASCII-folded family name of the first
// author (or "unknown"), the decimal year, and the first alphanumeric run
// of the title (or "Title"). The result contains only [A-Za-z0-9].
// Keys are deterministic but not guaranteed unique across records.
func (r *Record) CiteKey() string {
	last := "unknown"
	if a := r.FirstAuthor(); a != nil {
		last = a.FamilyASCII()
	}

	word := alnumRun.FindString(r.Title)
	if word == "" {
		word = "Title"
	}

	return nonAlnum.ReplaceAllString(last+strconv.Itoa(r.Year)+word, "")
}
