package anytype

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/alberto/anybib/internal/config"
	"github.com/alberto/anybib/internal/reference"
)

// Publisher writes canonical records into the Anytype space using the
// configured object type and field-name mappings.
type Publisher struct {
	client   *Client
	settings *config.Settings
}

// NewPublisher creates a Publisher backed by the given client.
func NewPublisher(client *Client, settings *config.Settings) *Publisher {
	return &Publisher{client: client, settings: settings}
}

// CreateReference creates a new object for the record and returns its id.
func (p *Publisher) CreateReference(ctx context.Context, rec *reference.Record, bibtexEntry string) (string, error) {
	objectType := p.settings.ObjectTypeArticle
	if rec.EntryType == reference.TypeBook {
		objectType = p.settings.ObjectTypeBook
	}

	resp, err := p.client.CreateObject(ctx, objectType, rec.Title, p.buildFields(rec, bibtexEntry))
	if err != nil {
		return "", err
	}

	objectID, _ := resp["id"].(string)
	if objectID == "" {
		return "", fmt.Errorf("%w: create response missing 'id'", ErrInvalidResponse)
	}

	log.WithFields(log.Fields{"object": objectID, "doi": rec.DOI}).Info("created Anytype object")
	return objectID, nil
}

// UpdateReference overwrites the fields of an existing object.
func (p *Publisher) UpdateReference(ctx context.Context, objectID string, rec *reference.Record, bibtexEntry string) error {
	if _, err := p.client.UpdateObject(ctx, objectID, p.buildFields(rec, bibtexEntry)); err != nil {
		return err
	}
	log.WithField("object", objectID).Info("updated existing Anytype object")
	return nil
}

// AttachPDF uploads the file and attaches it to the object.
func (p *Publisher) AttachPDF(ctx context.Context, objectID, pdfPath string) error {
	fileID, err := p.client.UploadFile(ctx, pdfPath)
	if err != nil {
		return err
	}
	if err := p.client.AttachFile(ctx, objectID, fileID, p.settings.FileRelationKey); err != nil {
		return err
	}
	log.WithFields(log.Fields{"object": objectID, "pdf": pdfPath}).Info("attached PDF")
	return nil
}

// buildFields maps the record onto the configured remote field names.
// Empty optional values are left out.
func (p *Publisher) buildFields(rec *reference.Record, bibtexEntry string) map[string]any {
	names := make([]string, len(rec.Authors))
	for i, a := range rec.Authors {
		names[i] = a.DisplayName()
	}

	fields := map[string]any{
		p.settings.FieldDOI:     rec.DOI,
		p.settings.FieldYear:    rec.Year,
		p.settings.FieldAuthors: strings.Join(names, p.settings.AuthorSeparator),
		p.settings.FieldBibTeX:  bibtexEntry,
	}
	if rec.Journal != "" {
		fields[p.settings.FieldJournal] = rec.Journal
	}
	if rec.ShortJournal != "" && p.settings.FieldShortJournal != "" {
		fields[p.settings.FieldShortJournal] = rec.ShortJournal
	}
	return fields
}
