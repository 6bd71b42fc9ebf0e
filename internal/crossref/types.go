package crossref

import (
	"fmt"

	"github.com/segmentio/encoding/json"
)

// StringOrList accepts a JSON field that may be a bare string or an array
// of strings. Crossref emits titles and container titles both ways.
type StringOrList []string

func (s *StringOrList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = nil
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = StringOrList{single}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*s = StringOrList(list)
		return nil
	}

	return fmt.Errorf("cannot unmarshal %s into StringOrList", string(data))
}

// First returns the first element, or "" when the list is empty.
func (s StringOrList) First() string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

// DateField holds a Crossref date expressed as nested date-parts, e.g.
// {"date-parts": [[2023, 5, 17]]}.
type DateField struct {
	DateParts [][]int `json:"date-parts"`
}

// Year returns the first component of the first date-parts entry.
func (d *DateField) Year() (int, bool) {
	if d == nil || len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 {
		return 0, false
	}
	return d.DateParts[0][0], true
}

// WorkAuthor is one entry of a work's author list.
type WorkAuthor struct {
	Family string `json:"family"`
	Given  string `json:"given"`
	ORCID  string `json:"ORCID"`
}

// Work is the subset of a Crossref works message consumed by the
// normalizer.
type Work struct {
	DOI                 string       `json:"DOI"`
	Type                string       `json:"type"`
	Title               StringOrList `json:"title"`
	ContainerTitle      StringOrList `json:"container-title"`
	ShortContainerTitle StringOrList `json:"short-container-title"`
	Publisher           string       `json:"publisher"`
	PublishedPrint      *DateField   `json:"published-print"`
	PublishedOnline     *DateField   `json:"published-online"`
	Issued              *DateField   `json:"issued"`
	Authors             []WorkAuthor `json:"author"`
}
