// Package config loads process-wide settings for anybib.
//
// Settings come from three layers, lowest precedence first: built-in
// defaults, an optional YAML file at $XDG_CONFIG_HOME/anybib/config.yml,
// and environment variables. The resulting value is passed explicitly
// into component constructors; core packages never read the environment
// themselves.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the Anytype API endpoint used when none is configured.
const DefaultBaseURL = "https://api.anytype.io"

const (
	configDir  = "anybib"
	configFile = "config.yml"
)

// Settings holds every externally sourced value the pipeline needs.
type Settings struct {
	BaseURL string
	Token   string
	SpaceID string

	// Remote object type names.
	ObjectTypeArticle string
	ObjectTypeBook    string

	// Remote field-name mappings.
	FieldDOI          string
	FieldYear         string
	FieldAuthors      string
	FieldJournal      string
	FieldShortJournal string
	FieldBibTeX       string

	AuthorSeparator string
	FileRelationKey string

	// Optional contact address sent to Crossref for polite-pool access.
	CrossrefMailto string
}

// ErrMissingCredentials is returned when the Anytype token or space id is
// not configured.
var ErrMissingCredentials = errors.New("ANYTYPE_TOKEN and ANYTYPE_SPACE_ID must be set")

// fileSettings mirrors Settings for the optional YAML overrides file.
type fileSettings struct {
	BaseURL           string `yaml:"base_url,omitempty"`
	Token             string `yaml:"token,omitempty"`
	SpaceID           string `yaml:"space_id,omitempty"`
	ObjectTypeArticle string `yaml:"object_type_article,omitempty"`
	ObjectTypeBook    string `yaml:"object_type_book,omitempty"`
	FieldDOI          string `yaml:"field_doi,omitempty"`
	FieldYear         string `yaml:"field_year,omitempty"`
	FieldAuthors      string `yaml:"field_authors,omitempty"`
	FieldJournal      string `yaml:"field_journal,omitempty"`
	FieldShortJournal string `yaml:"field_short_journal,omitempty"`
	FieldBibTeX       string `yaml:"field_bibtex,omitempty"`
	AuthorSeparator   string `yaml:"author_separator,omitempty"`
	FileRelationKey   string `yaml:"file_relation_key,omitempty"`
	CrossrefMailto    string `yaml:"crossref_mailto,omitempty"`
}

// Path returns the location of the YAML config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/anybib/config.yml.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, configDir, configFile)
}

// Load assembles Settings from defaults, the YAML file, and the
// environment. It fails when the Anytype token or space id is missing.
func Load() (*Settings, error) {
	s := defaults()

	if err := applyFile(s, Path()); err != nil {
		return nil, err
	}
	applyEnv(s)

	if s.Token == "" || s.SpaceID == "" {
		return nil, ErrMissingCredentials
	}
	return s, nil
}

func defaults() *Settings {
	return &Settings{
		BaseURL:           DefaultBaseURL,
		ObjectTypeArticle: "Article",
		ObjectTypeBook:    "Book",
		FieldDOI:          "doi",
		FieldYear:         "year",
		FieldAuthors:      "authors",
		FieldJournal:      "journal",
		FieldShortJournal: "short_journal",
		FieldBibTeX:       "bibtex",
		AuthorSeparator:   "; ",
		FileRelationKey:   "attachments",
	}
}

// applyFile overlays values from the YAML config file, if it exists.
func applyFile(s *Settings, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	var fs fileSettings
	if err := yaml.Unmarshal(data, &fs); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	overlay(&s.BaseURL, fs.BaseURL)
	overlay(&s.Token, fs.Token)
	overlay(&s.SpaceID, fs.SpaceID)
	overlay(&s.ObjectTypeArticle, fs.ObjectTypeArticle)
	overlay(&s.ObjectTypeBook, fs.ObjectTypeBook)
	overlay(&s.FieldDOI, fs.FieldDOI)
	overlay(&s.FieldYear, fs.FieldYear)
	overlay(&s.FieldAuthors, fs.FieldAuthors)
	overlay(&s.FieldJournal, fs.FieldJournal)
	overlay(&s.FieldShortJournal, fs.FieldShortJournal)
	overlay(&s.FieldBibTeX, fs.FieldBibTeX)
	overlay(&s.AuthorSeparator, fs.AuthorSeparator)
	overlay(&s.FileRelationKey, fs.FileRelationKey)
	overlay(&s.CrossrefMailto, fs.CrossrefMailto)
	return nil
}

// applyEnv overlays values from the environment. Environment variables win
// over the YAML file.
func applyEnv(s *Settings) {
	overlay(&s.BaseURL, os.Getenv("ANYTYPE_BASE_URL"))
	overlay(&s.Token, os.Getenv("ANYTYPE_TOKEN"))
	overlay(&s.SpaceID, os.Getenv("ANYTYPE_SPACE_ID"))
	overlay(&s.ObjectTypeArticle, os.Getenv("ANYTYPE_OBJECT_TYPE_ARTICLE"))
	overlay(&s.ObjectTypeBook, os.Getenv("ANYTYPE_OBJECT_TYPE_BOOK"))
	overlay(&s.FieldDOI, os.Getenv("ANYTYPE_FIELD_DOI"))
	overlay(&s.FieldYear, os.Getenv("ANYTYPE_FIELD_YEAR"))
	overlay(&s.FieldAuthors, os.Getenv("ANYTYPE_FIELD_AUTHORS"))
	overlay(&s.FieldJournal, os.Getenv("ANYTYPE_FIELD_JOURNAL"))
	overlay(&s.FieldShortJournal, os.Getenv("ANYTYPE_FIELD_SHORT_JOURNAL"))
	overlay(&s.FieldBibTeX, os.Getenv("ANYTYPE_FIELD_BIBTEX"))
	overlay(&s.AuthorSeparator, os.Getenv("ANYTYPE_AUTHOR_SEPARATOR"))
	overlay(&s.FileRelationKey, os.Getenv("ANYTYPE_FILE_RELATION_KEY"))
	overlay(&s.CrossrefMailto, os.Getenv("CROSSREF_MAILTO"))
}

func overlay(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
