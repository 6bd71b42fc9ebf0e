package dedup

import (
	"context"
	"testing"

	"github.com/alberto/anybib/internal/config"
	"github.com/alberto/anybib/internal/reference"
)

// fakeSearcher records calls and serves canned results per query kind.
type fakeSearcher struct {
	propertyCalls []propertyCall
	textCalls     []textCall

	propertyResults []map[string]any
	textResults     map[string][]map[string]any
}

type propertyCall struct {
	key   string
	value string
	limit int
}

type textCall struct {
	query string
	limit int
}

func (f *fakeSearcher) SearchByProperty(_ context.Context, key, value string, limit int) ([]map[string]any, error) {
	f.propertyCalls = append(f.propertyCalls, propertyCall{key, value, limit})
	return f.propertyResults, nil
}

func (f *fakeSearcher) SearchByText(_ context.Context, query string, limit int) ([]map[string]any, error) {
	f.textCalls = append(f.textCalls, textCall{query, limit})
	return f.textResults[query], nil
}

func testSettings() *config.Settings {
	return &config.Settings{
		FieldDOI:        "doi",
		FieldAuthors:    "authors",
		AuthorSeparator: "; ",
	}
}

func testRecord() *reference.Record {
	return &reference.Record{
		DOI:   "10.1000/test",
		Title: "Understanding Quantum Fields",
		Year:  2024,
		Authors: []reference.Author{
			{Family: "Doe", Given: "Jane"},
			{Family: "García", Given: "María"},
		},
	}
}

func TestFindDuplicatesTierQueries(t *testing.T) {
	searcher := &fakeSearcher{
		propertyResults: []map[string]any{{"id": "by-doi"}},
		textResults: map[string][]map[string]any{
			"doe garcia": {{"id": "by-author"}},
		},
	}
	det := NewRemoteDetector(searcher, testSettings())

	candidates, err := det.FindDuplicates(context.Background(), testRecord())
	if err != nil {
		t.Fatalf("FindDuplicates() error: %v", err)
	}

	if len(searcher.propertyCalls) != 1 {
		t.Fatalf("property calls = %d, want 1", len(searcher.propertyCalls))
	}
	pc := searcher.propertyCalls[0]
	if pc.key != "doi" || pc.value != "10.1000/test" || pc.limit != 5 {
		t.Errorf("property call = %+v", pc)
	}

	// Author search runs even though the DOI tier matched.
	if len(searcher.textCalls) != 1 {
		t.Fatalf("text calls = %d, want 1 (author tier only)", len(searcher.textCalls))
	}
	tc := searcher.textCalls[0]
	if tc.query != "doe garcia" || tc.limit != 5 {
		t.Errorf("author search call = %+v", tc)
	}

	if len(candidates) != 2 {
		t.Errorf("candidates = %v, want 2", candidates)
	}
}

func TestFindDuplicatesTitleTierOnlyWhenEmpty(t *testing.T) {
	rec := testRecord()
	searcher := &fakeSearcher{
		textResults: map[string][]map[string]any{
			rec.Title: {{"id": "by-title"}},
		},
	}
	det := NewRemoteDetector(searcher, testSettings())

	candidates, err := det.FindDuplicates(context.Background(), rec)
	if err != nil {
		t.Fatalf("FindDuplicates() error: %v", err)
	}

	// DOI and author tiers were empty, so the title tier ran.
	if len(searcher.textCalls) != 2 {
		t.Fatalf("text calls = %d, want 2", len(searcher.textCalls))
	}
	title := searcher.textCalls[1]
	if title.query != rec.Title || title.limit != 3 {
		t.Errorf("title search call = %+v", title)
	}
	if len(candidates) != 1 || candidates[0].ObjectID != "by-title" {
		t.Errorf("candidates = %v", candidates)
	}
}

func TestFindDuplicatesSkipsTitleAfterMatch(t *testing.T) {
	rec := testRecord()
	searcher := &fakeSearcher{
		propertyResults: []map[string]any{{"id": "by-doi"}},
		textResults: map[string][]map[string]any{
			rec.Title: {{"id": "by-title"}},
		},
	}
	det := NewRemoteDetector(searcher, testSettings())

	if _, err := det.FindDuplicates(context.Background(), rec); err != nil {
		t.Fatalf("FindDuplicates() error: %v", err)
	}

	for _, call := range searcher.textCalls {
		if call.query == rec.Title {
			t.Error("title tier ran despite earlier matches")
		}
	}
}

func TestFindDuplicatesDedupAcrossTiers(t *testing.T) {
	searcher := &fakeSearcher{
		propertyResults: []map[string]any{{"id": "shared"}},
		textResults: map[string][]map[string]any{
			"doe garcia": {{"id": "shared"}, {"id": "other"}},
		},
	}
	det := NewRemoteDetector(searcher, testSettings())

	candidates, err := det.FindDuplicates(context.Background(), testRecord())
	if err != nil {
		t.Fatalf("FindDuplicates() error: %v", err)
	}

	if len(candidates) != 2 {
		t.Fatalf("candidates = %v, want shared to appear once", candidates)
	}
	if candidates[0].ObjectID != "shared" || candidates[1].ObjectID != "other" {
		t.Errorf("candidate order = %v", candidates)
	}
}

func TestFindDuplicatesNoDOISkipsPropertySearch(t *testing.T) {
	rec := testRecord()
	rec.DOI = ""
	searcher := &fakeSearcher{}
	det := NewRemoteDetector(searcher, testSettings())

	if _, err := det.FindDuplicates(context.Background(), rec); err != nil {
		t.Fatalf("FindDuplicates() error: %v", err)
	}
	if len(searcher.propertyCalls) != 0 {
		t.Errorf("property search ran for empty DOI")
	}
}

func TestAppendCandidatesMapping(t *testing.T) {
	searcher := &fakeSearcher{
		propertyResults: []map[string]any{
			{
				"id":   "c1",
				"name": "Existing Paper",
				"fields": map[string]any{
					"doi":     "10.1000/existing",
					"authors": "Doe, Jane; Smith, John",
				},
			},
			{
				"id": "c2",
				"fields": map[string]any{
					"authors": []any{"Doe, Jane", "Smith, John"},
				},
			},
			{
				"id": "c3",
				"fields": map[string]any{
					"authors": 42.0, // unexpected shape
				},
			},
			{"name": "no id, dropped"},
		},
	}
	det := NewRemoteDetector(searcher, testSettings())

	rec := testRecord()
	rec.Authors = nil // keep only the DOI tier active
	candidates, err := det.FindDuplicates(context.Background(), rec)
	if err != nil {
		t.Fatalf("FindDuplicates() error: %v", err)
	}

	if len(candidates) != 3 {
		t.Fatalf("candidates = %v, want 3 (id-less result dropped)", candidates)
	}

	c1 := candidates[0]
	if c1.Title != "Existing Paper" || c1.DOI != "10.1000/existing" {
		t.Errorf("c1 = %+v", c1)
	}
	if len(c1.Authors) != 2 || c1.Authors[0] != "Doe, Jane" {
		t.Errorf("c1 authors = %v", c1.Authors)
	}

	if len(candidates[1].Authors) != 2 {
		t.Errorf("c2 authors = %v, want structured list parsed", candidates[1].Authors)
	}
	if len(candidates[2].Authors) != 0 {
		t.Errorf("c3 authors = %v, want empty for unexpected shape", candidates[2].Authors)
	}
}

func TestCandidateLabel(t *testing.T) {
	tests := []struct {
		name string
		cand Candidate
		want string
	}{
		{
			name: "full",
			cand: Candidate{ObjectID: "obj1", Title: "A Paper", DOI: "10.1/x", Authors: []string{"Doe, Jane"}},
			want: "obj1: A Paper DOI=10.1/x Authors=Doe, Jane",
		},
		{
			name: "missing title",
			cand: Candidate{ObjectID: "obj2"},
			want: "obj2: Unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cand.Label(); got != tt.want {
				t.Errorf("Label() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNoopDetector(t *testing.T) {
	candidates, err := Noop{}.FindDuplicates(context.Background(), testRecord())
	if err != nil {
		t.Fatalf("Noop error: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("Noop returned candidates: %v", candidates)
	}
}
