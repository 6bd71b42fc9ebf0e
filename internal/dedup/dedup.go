// Package dedup finds existing remote objects that may duplicate an
// incoming bibliographic record.
package dedup

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/alberto/anybib/internal/config"
	"github.com/alberto/anybib/internal/reference"
)

// Search limits per tier. The DOI tier is authoritative, the author tier
// is a second opinion that always runs, the title tier is a last resort.
const (
	doiSearchLimit    = 5
	authorSearchLimit = 5
	titleSearchLimit  = 3
)

// Searcher is the remote search capability duplicate detection depends on.
type Searcher interface {
	SearchByProperty(ctx context.Context, key, value string, limit int) ([]map[string]any, error)
	SearchByText(ctx context.Context, query string, limit int) ([]map[string]any, error)
}

// Candidate is an existing remote object that may represent the same work
// as an incoming record.
type Candidate struct {
	ObjectID string
	Title    string
	DOI      string
	Authors  []string
}

// Label formats the candidate for interactive listings.
func (c Candidate) Label() string {
	title := c.Title
	if title == "" {
		title = "Unknown"
	}
	label := fmt.Sprintf("%s: %s", c.ObjectID, title)
	if c.DOI != "" {
		label += " DOI=" + c.DOI
	}
	if len(c.Authors) > 0 {
		label += " Authors=" + strings.Join(c.Authors, ", ")
	}
	return label
}

// Detector is implemented by duplicate detection strategies.
type Detector interface {
	FindDuplicates(ctx context.Context, rec *reference.Record) ([]Candidate, error)
}

// Noop performs no duplicate detection. Used for flows that skip the
// duplicate check entirely.
type Noop struct{}

func (Noop) FindDuplicates(context.Context, *reference.Record) ([]Candidate, error) {
	return nil, nil
}

// RemoteDetector queries the remote store in tiers and returns a
// deduplicated, ordered candidate list.
type RemoteDetector struct {
	searcher Searcher
	settings *config.Settings
}

// NewRemoteDetector creates a detector backed by the given search
// capability.
func NewRemoteDetector(searcher Searcher, settings *config.Settings) *RemoteDetector {
	return &RemoteDetector{searcher: searcher, settings: settings}
}

// FindDuplicates runs the tiered search. Tier 1 matches the DOI property
// exactly. Tier 2 always runs a free-text search on the folded author
// family names. Tier 3 searches the title, but only when the earlier
// tiers produced nothing. Candidates are deduplicated by object id across
// tiers, first occurrence wins.
func (d *RemoteDetector) FindDuplicates(ctx context.Context, rec *reference.Record) ([]Candidate, error) {
	seen := make(map[string]bool)
	var candidates []Candidate

	if rec.DOI != "" {
		objects, err := d.searcher.SearchByProperty(ctx, d.settings.FieldDOI, rec.DOI, doiSearchLimit)
		if err != nil {
			return nil, err
		}
		candidates = d.appendCandidates(candidates, seen, objects)
	}

	if names := familyNames(rec.Authors); len(names) > 0 {
		objects, err := d.searcher.SearchByText(ctx, strings.Join(names, " "), authorSearchLimit)
		if err != nil {
			return nil, err
		}
		candidates = d.appendCandidates(candidates, seen, objects)
	}

	if len(candidates) == 0 && rec.Title != "" {
		objects, err := d.searcher.SearchByText(ctx, rec.Title, titleSearchLimit)
		if err != nil {
			return nil, err
		}
		candidates = d.appendCandidates(candidates, seen, objects)
	}

	if len(candidates) > 0 {
		log.WithField("count", len(candidates)).Debug("duplicate detector found candidates")
	}
	return candidates, nil
}

// familyNames returns the distinct accent-folded, lower-cased family names
// in author order.
func familyNames(authors []reference.Author) []string {
	seen := make(map[string]bool)
	var names []string
	for _, a := range authors {
		name := strings.ToLower(a.FamilyASCII())
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// appendCandidates maps raw search results onto candidates, skipping
// results without an object id and ids already collected.
func (d *RemoteDetector) appendCandidates(dst []Candidate, seen map[string]bool, objects []map[string]any) []Candidate {
	for _, obj := range objects {
		objectID, _ := obj["id"].(string)
		if objectID == "" || seen[objectID] {
			continue
		}
		seen[objectID] = true

		cand := Candidate{ObjectID: objectID}
		if name, ok := obj["name"].(string); ok && name != "" {
			cand.Title = name
		} else if title, ok := obj["title"].(string); ok {
			cand.Title = title
		}

		if fields, ok := obj["fields"].(map[string]any); ok {
			if doi, ok := fields[d.settings.FieldDOI].(string); ok {
				cand.DOI = doi
			}
			cand.Authors = parseAuthorsField(fields[d.settings.FieldAuthors], d.settings.AuthorSeparator)
		}

		dst = append(dst, cand)
	}
	return dst
}

// parseAuthorsField accepts either a separator-delimited string or an
// already-structured list. Any other shape yields no authors.
func parseAuthorsField(value any, separator string) []string {
	switch v := value.(type) {
	case string:
		var authors []string
		for _, part := range strings.Split(v, separator) {
			if part = strings.TrimSpace(part); part != "" {
				authors = append(authors, part)
			}
		}
		return authors
	case []any:
		authors := make([]string, 0, len(v))
		for _, item := range v {
			authors = append(authors, fmt.Sprint(item))
		}
		return authors
	default:
		return nil
	}
}
