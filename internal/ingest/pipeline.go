// Package ingest drives a single DOI ingestion end to end: metadata
// retrieval, BibTeX generation, duplicate resolution, and publication.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/alberto/anybib/internal/bibtex"
	"github.com/alberto/anybib/internal/dedup"
	"github.com/alberto/anybib/internal/reference"
)

// Validation errors reported before any remote call is made.
var (
	ErrEmptyDOI    = errors.New("DOI cannot be empty")
	ErrPDFNotFound = errors.New("PDF not found")
)

// MetadataSource resolves a DOI to a canonical record.
type MetadataSource interface {
	Fetch(ctx context.Context, doi string) (*reference.Record, error)
}

// Publisher persists records in the remote store.
type Publisher interface {
	CreateReference(ctx context.Context, rec *reference.Record, bibtexEntry string) (string, error)
	UpdateReference(ctx context.Context, objectID string, rec *reference.Record, bibtexEntry string) error
	AttachPDF(ctx context.Context, objectID, pdfPath string) error
}

// PromptFunc solicits one line of operator input. It blocks until the
// operator answers; there is deliberately no timeout on this human gate.
type PromptFunc func(prompt string) string

// Action describes the terminal state of a pipeline run.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionAborted Action = "aborted"
	ActionDryRun  Action = "dry-run"
)

// Result reports what a pipeline run did.
type Result struct {
	Record      *reference.Record
	BibTeX      string
	Action      Action
	ObjectID    string
	PDFAttached bool
}

// Pipeline owns one ingestion attempt. Each run builds its own record,
// candidate list, and decision; nothing is shared across runs.
type Pipeline struct {
	Source    MetadataSource
	Detector  dedup.Detector // nil means no duplicate checking
	Publisher Publisher
	Prompt    PromptFunc
	Out       io.Writer // candidate listing and usage hints; default stderr
	DryRun    bool
}

type decision int

const (
	decisionCreate decision = iota
	decisionAbort
	decisionUse
)

// Run executes the ingestion flow for one DOI. An optional local PDF is
// attached to whichever object the run creates or updates. Remote
// failures halt the run where they occur; nothing is rolled back.
func (p *Pipeline) Run(ctx context.Context, doi, pdfPath string) (*Result, error) {
	doi = strings.TrimSpace(doi)
	if doi == "" {
		return nil, ErrEmptyDOI
	}
	if pdfPath != "" {
		if _, err := os.Stat(pdfPath); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrPDFNotFound, pdfPath)
		}
	}

	rec, err := p.Source.Fetch(ctx, doi)
	if err != nil {
		return nil, err
	}

	res := &Result{Record: rec, BibTeX: bibtex.Render(rec)}
	if p.DryRun {
		res.Action = ActionDryRun
		return res, nil
	}

	candidates, err := p.detector().FindDuplicates(ctx, rec)
	if err != nil {
		return nil, err
	}

	action := decisionCreate
	var chosen dedup.Candidate
	if len(candidates) > 0 {
		action, chosen = p.decide(candidates)
	}

	switch action {
	case decisionAbort:
		log.Info("operator aborted ingest due to duplicates")
		res.Action = ActionAborted
		return res, nil
	case decisionUse:
		if err := p.Publisher.UpdateReference(ctx, chosen.ObjectID, rec, res.BibTeX); err != nil {
			return nil, err
		}
		res.Action = ActionUpdated
		res.ObjectID = chosen.ObjectID
	default:
		objectID, err := p.Publisher.CreateReference(ctx, rec, res.BibTeX)
		if err != nil {
			return nil, err
		}
		res.Action = ActionCreated
		res.ObjectID = objectID
	}

	if pdfPath != "" {
		if err := p.Publisher.AttachPDF(ctx, res.ObjectID, pdfPath); err != nil {
			return nil, err
		}
		res.PDFAttached = true
	}
	return res, nil
}

// decide presents the candidate list and loops until the operator picks a
// valid action. Invalid input re-prompts without changing state; the loop
// terminates only on a member of the closed response set.
func (p *Pipeline) decide(candidates []dedup.Candidate) (decision, dedup.Candidate) {
	out := p.out()

	fmt.Fprintln(out, "Potential duplicates detected:")
	for i, c := range candidates {
		fmt.Fprintf(out, "  [%d] %s\n", i+1, c.Label())
	}
	fmt.Fprintln(out, "Options: [a]bort, [u]se existing, [c]reate new")

	for {
		choice := strings.ToLower(strings.TrimSpace(p.Prompt("Select option: ")))
		switch choice {
		case "a", "abort":
			return decisionAbort, dedup.Candidate{}
		case "c", "create":
			return decisionCreate, dedup.Candidate{}
		case "u", "use":
			raw := strings.TrimSpace(p.Prompt("Enter the number of the object to reuse: "))
			index, err := strconv.Atoi(raw)
			if err != nil {
				fmt.Fprintln(out, "Invalid selection. Please enter a number from the list.")
				continue
			}
			if index < 1 || index > len(candidates) {
				fmt.Fprintln(out, "Selection out of range. Try again.")
				continue
			}
			return decisionUse, candidates[index-1]
		default:
			fmt.Fprintln(out, "Input not recognized. Choose a, u, or c.")
		}
	}
}

func (p *Pipeline) detector() dedup.Detector {
	if p.Detector == nil {
		return dedup.Noop{}
	}
	return p.Detector
}

func (p *Pipeline) out() io.Writer {
	if p.Out == nil {
		return os.Stderr
	}
	return p.Out
}
