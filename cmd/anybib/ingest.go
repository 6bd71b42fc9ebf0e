package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/alberto/anybib/internal/anytype"
	"github.com/alberto/anybib/internal/config"
	"github.com/alberto/anybib/internal/crossref"
	"github.com/alberto/anybib/internal/dedup"
	"github.com/alberto/anybib/internal/history"
	"github.com/alberto/anybib/internal/ingest"
	"github.com/alberto/anybib/internal/pdf"
)

var (
	ingestPDF    string
	ingestDryRun bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [doi]",
	Short: "Fetch metadata for a DOI and file it into Anytype",
	Long: `Fetch metadata for a DOI from Crossref, generate a BibTeX entry, and
create or update the matching object in the configured Anytype space.

When --pdf is given without a DOI argument, the DOI is extracted from
the PDF text. The PDF is attached to the created or updated object.

Examples:
  anybib ingest 10.1038/nature12373
  anybib ingest 10.1038/nature12373 --pdf ~/papers/paper.pdf
  anybib ingest --pdf ~/papers/paper.pdf
  anybib ingest 10.1038/nature12373 --dry-run`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringVar(&ingestPDF, "pdf", "", "Path to a local PDF to attach to the object")
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "Run all processing steps without calling the Anytype API")
}

func runIngest(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()
	ctx := context.Background()

	doi, err := resolveDOI(args)
	if err != nil {
		return exitWith(ExitDataError, err)
	}

	settings, err := config.Load()
	if err != nil {
		return exitWith(ExitConfigError, err)
	}

	var crossrefOpts []crossref.ClientOption
	if settings.CrossrefMailto != "" {
		crossrefOpts = append(crossrefOpts, crossref.WithMailto(settings.CrossrefMailto))
	}

	pipeline := &ingest.Pipeline{
		Source: crossref.NewClient(crossrefOpts...),
		Prompt: stdinPrompt(),
		DryRun: ingestDryRun,
	}
	if !ingestDryRun {
		client := anytype.NewClient(settings)
		pipeline.Detector = dedup.NewRemoteDetector(client, settings)
		pipeline.Publisher = anytype.NewPublisher(client, settings)
	}

	res, err := pipeline.Run(ctx, doi, ingestPDF)
	if err != nil {
		if errors.Is(err, crossref.ErrRetrieval) || errors.Is(err, ingest.ErrEmptyDOI) || errors.Is(err, ingest.ErrPDFNotFound) {
			return exitWith(ExitDataError, err)
		}
		return exitWith(ExitError, err)
	}

	recordHistory(res)
	printResult(res)
	return nil
}

// resolveDOI returns the DOI argument, or extracts one from the PDF when
// only --pdf was supplied.
func resolveDOI(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if ingestPDF == "" {
		return "", errors.New("a DOI argument or --pdf is required")
	}

	doi, err := pdf.ExtractDOI(ingestPDF)
	if err != nil {
		return "", fmt.Errorf("extracting DOI from %s: %w", ingestPDF, err)
	}
	if doi == "" {
		return "", fmt.Errorf("no DOI found in %s; pass the DOI explicitly", ingestPDF)
	}
	fmt.Fprintf(os.Stderr, "Extracted DOI %s from %s\n", doi, ingestPDF)
	return doi, nil
}

// stdinPrompt reads one line of operator input per call.
func stdinPrompt() ingest.PromptFunc {
	reader := bufio.NewReader(os.Stdin)
	return func(prompt string) string {
		fmt.Fprint(os.Stderr, prompt)
		line, _ := reader.ReadString('\n')
		return strings.TrimSpace(line)
	}
}

// recordHistory appends the run to the local ingestion log. Failures are
// warnings only; the ingestion itself already succeeded.
func recordHistory(res *ingest.Result) {
	path := history.DefaultPath()
	if path == "" {
		return
	}
	db, err := history.Open(path)
	if err != nil {
		log.WithError(err).Warn("could not open ingestion history")
		return
	}
	defer db.Close()

	entry := history.Entry{
		DOI:         res.Record.DOI,
		CiteKey:     res.Record.CiteKey(),
		Title:       res.Record.Title,
		Action:      string(res.Action),
		ObjectID:    res.ObjectID,
		PDFAttached: res.PDFAttached,
	}
	if err := db.Append(entry); err != nil {
		log.WithError(err).Warn("could not record ingestion history")
	}
}

func printResult(res *ingest.Result) {
	switch res.Action {
	case ingest.ActionDryRun:
		fmt.Println("Dry run completed. Metadata and BibTeX generated but not sent to Anytype.")
		data, err := json.MarshalIndent(res.Record, "", "  ")
		if err == nil {
			fmt.Println(string(data))
		}
		fmt.Println(res.BibTeX)
	case ingest.ActionAborted:
		fmt.Println("Aborted. No changes were made.")
	case ingest.ActionUpdated:
		fmt.Printf("Updated existing object %s (%s)\n", res.ObjectID, res.Record.CiteKey())
	default:
		fmt.Printf("Created object %s (%s)\n", res.ObjectID, res.Record.CiteKey())
	}
	if res.PDFAttached {
		fmt.Println("PDF attached.")
	}
}

// exitWith prints the error and exits with the given code. cobra's RunE
// contract never sees the return value.
func exitWith(code int, err error) error {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(code)
	return nil
}
