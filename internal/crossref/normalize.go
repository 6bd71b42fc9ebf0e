package crossref

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/alberto/anybib/internal/reference"
)

const orcidPrefix = "https://orcid.org/"

// entryTypes maps Crossref work types onto the internal vocabulary.
var entryTypes = map[string]string{
	"journal-article":     reference.TypeArticle,
	"book":                reference.TypeBook,
	"proceedings-article": reference.TypeInProceedings,
}

// Normalize maps a Crossref work message onto the canonical record.
// Title and year are mandatory; their absence is a retrieval failure.
// The fallback DOI is used when the message carries none.
func Normalize(work *Work, raw map[string]any, fallbackDOI string) (*reference.Record, error) {
	title := work.Title.First()
	if title == "" {
		return nil, fmt.Errorf("%w: title information missing in Crossref response", ErrRetrieval)
	}

	year, ok := extractYear(work)
	if !ok {
		return nil, fmt.Errorf("%w: year information missing in Crossref response", ErrRetrieval)
	}

	doi := work.DOI
	if doi == "" {
		doi = fallbackDOI
	}

	rec := &reference.Record{
		DOI:          doi,
		Title:        title,
		EntryType:    mapEntryType(work.Type),
		Year:         year,
		Authors:      extractAuthors(work.Authors),
		Journal:      work.ContainerTitle.First(),
		ShortJournal: work.ShortContainerTitle.First(),
		Publisher:    work.Publisher,
		Raw:          raw,
	}

	log.WithField("doi", rec.DOI).Debugf("retrieved bibliographic record: %s", rec.CiteKey())
	return rec, nil
}

// extractYear probes the candidate date fields in priority order and
// returns the first year found. Print publication wins over online
// publication, which wins over the generic issued date.
func extractYear(work *Work) (int, bool) {
	for _, d := range []*DateField{work.PublishedPrint, work.PublishedOnline, work.Issued} {
		if year, ok := d.Year(); ok {
			return year, true
		}
	}
	return 0, false
}

// extractAuthors converts the work's author list. Entries without a family
// name are skipped with a warning; an empty result is valid.
func extractAuthors(workAuthors []WorkAuthor) []reference.Author {
	var authors []reference.Author
	for _, wa := range workAuthors {
		if wa.Family == "" {
			log.Warn("skipping author entry without family name")
			continue
		}
		authors = append(authors, reference.Author{
			Family: wa.Family,
			Given:  wa.Given,
			ORCID:  strings.TrimPrefix(wa.ORCID, orcidPrefix),
		})
	}
	if len(authors) == 0 {
		log.Warn("no authors found in metadata")
	}
	return authors
}

func mapEntryType(workType string) string {
	if mapped, ok := entryTypes[workType]; ok {
		return mapped
	}
	return reference.TypeMisc
}
