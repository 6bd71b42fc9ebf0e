// Package crossref retrieves work metadata from the Crossref REST API and
// normalizes it into canonical bibliographic records.
package crossref

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/segmentio/encoding/json"
	"golang.org/x/time/rate"

	"github.com/alberto/anybib/internal/reference"
)

const (
	// BaseURL is the Crossref works endpoint.
	BaseURL = "https://api.crossref.org/works"

	// DefaultTimeout bounds a single metadata lookup.
	DefaultTimeout = 15 * time.Second

	// RateLimit keeps us comfortably inside Crossref's polite-pool
	// guidance.
	RateLimit = 2.0

	userAgent = "anybib/0.1 (+https://github.com/alberto/anybib)"
)

// Client is a rate-limited HTTP client for the Crossref works API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	mailto     string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithMailto sets the contact address sent on each request, which routes
// traffic through Crossref's polite pool.
func WithMailto(mailto string) ClientOption {
	return func(c *Client) {
		c.mailto = mailto
	}
}

// NewClient creates a Crossref works API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    BaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup retrieves the raw work message for a DOI. The second return value
// is the message decoded as a generic map, retained on the record for
// traceability.
func (c *Client) Lookup(ctx context.Context, doi string) (*Work, map[string]any, error) {
	doi = strings.TrimSpace(doi)
	if doi == "" {
		return nil, nil, fmt.Errorf("%w: DOI cannot be empty", ErrRetrieval)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, fmt.Errorf("rate limiter: %w", err)
	}

	// DOIs contain slashes and go into the path unescaped; Crossref
	// resolves them that way.
	reqURL := c.baseURL + "/" + doi
	if c.mailto != "" {
		reqURL += "?mailto=" + url.QueryEscape(c.mailto)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrRetrieval, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, &APIError{StatusCode: resp.StatusCode, DOI: doi}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: reading response: %v", ErrRetrieval, err)
	}

	var envelope struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, nil, fmt.Errorf("%w: invalid JSON body: %v", ErrRetrieval, err)
	}
	if len(envelope.Message) == 0 {
		return nil, nil, fmt.Errorf("%w: response missing 'message' payload", ErrRetrieval)
	}

	var work Work
	if err := json.Unmarshal(envelope.Message, &work); err != nil {
		return nil, nil, fmt.Errorf("%w: decoding work message: %v", ErrRetrieval, err)
	}

	var raw map[string]any
	if err := json.Unmarshal(envelope.Message, &raw); err != nil {
		return nil, nil, fmt.Errorf("%w: decoding raw message: %v", ErrRetrieval, err)
	}

	return &work, raw, nil
}

// Fetch retrieves and normalizes the record for a DOI.
func (c *Client) Fetch(ctx context.Context, doi string) (*reference.Record, error) {
	work, raw, err := c.Lookup(ctx, doi)
	if err != nil {
		return nil, err
	}
	return Normalize(work, raw, strings.TrimSpace(doi))
}
