package crossref

import (
	"errors"
	"testing"

	"github.com/alberto/anybib/internal/reference"
)

func minimalWork() *Work {
	return &Work{
		DOI:    "10.1000/test",
		Type:   "journal-article",
		Title:  StringOrList{"Understanding Quantum Fields"},
		Issued: &DateField{DateParts: [][]int{{2024}}},
		Authors: []WorkAuthor{
			{Family: "Doe", Given: "Jane"},
		},
	}
}

func TestNormalizeMinimal(t *testing.T) {
	rec, err := Normalize(minimalWork(), nil, "10.1000/fallback")
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}

	if rec.DOI != "10.1000/test" {
		t.Errorf("DOI = %q, want payload value", rec.DOI)
	}
	if rec.Title != "Understanding Quantum Fields" {
		t.Errorf("Title = %q", rec.Title)
	}
	if rec.EntryType != reference.TypeArticle {
		t.Errorf("EntryType = %q, want article", rec.EntryType)
	}
	if rec.Year != 2024 {
		t.Errorf("Year = %d, want 2024", rec.Year)
	}
	if len(rec.Authors) != 1 || rec.Authors[0].Family != "Doe" {
		t.Errorf("Authors = %v", rec.Authors)
	}
}

func TestNormalizeDOIFallback(t *testing.T) {
	work := minimalWork()
	work.DOI = ""

	rec, err := Normalize(work, nil, "10.1000/fallback")
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if rec.DOI != "10.1000/fallback" {
		t.Errorf("DOI = %q, want caller-supplied fallback", rec.DOI)
	}
}

func TestNormalizeMissingTitle(t *testing.T) {
	work := minimalWork()
	work.Title = nil

	if _, err := Normalize(work, nil, ""); !errors.Is(err, ErrRetrieval) {
		t.Errorf("error = %v, want ErrRetrieval", err)
	}
}

func TestNormalizeYearPriority(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Work)
		want int
	}{
		{
			name: "print wins over online and issued",
			mod: func(w *Work) {
				w.PublishedPrint = &DateField{DateParts: [][]int{{2021, 3}}}
				w.PublishedOnline = &DateField{DateParts: [][]int{{2020}}}
				w.Issued = &DateField{DateParts: [][]int{{2019}}}
			},
			want: 2021,
		},
		{
			name: "online wins over issued",
			mod: func(w *Work) {
				w.PublishedOnline = &DateField{DateParts: [][]int{{2020, 7, 1}}}
				w.Issued = &DateField{DateParts: [][]int{{2019}}}
			},
			want: 2020,
		},
		{
			name: "issued only",
			mod: func(w *Work) {
				w.Issued = &DateField{DateParts: [][]int{{2023}}}
			},
			want: 2023,
		},
		{
			name: "empty print date-parts falls through",
			mod: func(w *Work) {
				w.PublishedPrint = &DateField{}
				w.Issued = &DateField{DateParts: [][]int{{2022}}}
			},
			want: 2022,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			work := minimalWork()
			work.PublishedPrint, work.PublishedOnline, work.Issued = nil, nil, nil
			tt.mod(work)

			rec, err := Normalize(work, nil, "")
			if err != nil {
				t.Fatalf("Normalize() error: %v", err)
			}
			if rec.Year != tt.want {
				t.Errorf("Year = %d, want %d", rec.Year, tt.want)
			}
		})
	}
}

func TestNormalizeMissingYear(t *testing.T) {
	work := minimalWork()
	work.Issued = nil

	if _, err := Normalize(work, nil, ""); !errors.Is(err, ErrRetrieval) {
		t.Errorf("error = %v, want ErrRetrieval", err)
	}
}

func TestNormalizeAuthors(t *testing.T) {
	work := minimalWork()
	work.Authors = []WorkAuthor{
		{Family: "García", Given: "María", ORCID: "https://orcid.org/0000-0001-2345-6789"},
		{Given: "Orphan"}, // no family name, skipped
		{Family: "Smith"},
	}

	rec, err := Normalize(work, nil, "")
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}

	if len(rec.Authors) != 2 {
		t.Fatalf("got %d authors, want 2 (entry without family skipped)", len(rec.Authors))
	}
	if rec.Authors[0].ORCID != "0000-0001-2345-6789" {
		t.Errorf("ORCID = %q, want prefix stripped", rec.Authors[0].ORCID)
	}
	if rec.Authors[1].Family != "Smith" {
		t.Errorf("Authors[1] = %v", rec.Authors[1])
	}
}

func TestNormalizeZeroAuthorsIsValid(t *testing.T) {
	work := minimalWork()
	work.Authors = nil

	rec, err := Normalize(work, nil, "")
	if err != nil {
		t.Fatalf("Normalize() should tolerate zero authors: %v", err)
	}
	if len(rec.Authors) != 0 {
		t.Errorf("Authors = %v, want empty", rec.Authors)
	}
}

func TestMapEntryType(t *testing.T) {
	tests := []struct {
		workType string
		want     string
	}{
		{"journal-article", reference.TypeArticle},
		{"book", reference.TypeBook},
		{"proceedings-article", reference.TypeInProceedings},
		{"dataset", reference.TypeMisc},
		{"", reference.TypeMisc},
	}

	for _, tt := range tests {
		if got := mapEntryType(tt.workType); got != tt.want {
			t.Errorf("mapEntryType(%q) = %q, want %q", tt.workType, got, tt.want)
		}
	}
}

func TestNormalizeJournalFields(t *testing.T) {
	work := minimalWork()
	work.ContainerTitle = StringOrList{"Journal of Testing", "Alternate"}
	work.ShortContainerTitle = StringOrList{"J. Test."}

	rec, err := Normalize(work, nil, "")
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if rec.Journal != "Journal of Testing" {
		t.Errorf("Journal = %q, want first list element", rec.Journal)
	}
	if rec.ShortJournal != "J. Test." {
		t.Errorf("ShortJournal = %q", rec.ShortJournal)
	}

	work.ContainerTitle = nil
	rec, err = Normalize(work, nil, "")
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if rec.Journal != "" {
		t.Errorf("missing container title should yield empty journal, got %q", rec.Journal)
	}
}
