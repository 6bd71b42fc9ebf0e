// Package anytype is an HTTP client for the Anytype space API: object
// creation and update, search, and file attachment.
package anytype

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/segmentio/encoding/json"
	"golang.org/x/time/rate"

	"github.com/alberto/anybib/internal/config"
)

const (
	// DefaultTimeout bounds a single API request.
	DefaultTimeout = 15 * time.Second

	// RateLimit caps requests against the local or hosted Anytype API.
	RateLimit = 5.0
)

// Client is a rate-limited HTTP client for the Anytype REST API. All
// object operations are scoped to the configured space.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	token      string
	spaceID    string
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

// NewClient creates an Anytype API client from settings.
func NewClient(settings *config.Settings, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    settings.BaseURL,
		token:      settings.Token,
		spaceID:    settings.SpaceID,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateObject creates an object of the given type in the space and
// returns the decoded response.
func (c *Client) CreateObject(ctx context.Context, objectType, name string, fields map[string]any) (map[string]any, error) {
	payload := map[string]any{
		"objectType": objectType,
		"name":       name,
		"fields":     fields,
	}
	return c.doJSON(ctx, http.MethodPost, c.spacePath("/objects"), payload, "create")
}

// UpdateObject replaces the fields of an existing object.
func (c *Client) UpdateObject(ctx context.Context, objectID string, fields map[string]any) (map[string]any, error) {
	payload := map[string]any{"fields": fields}
	return c.doJSON(ctx, http.MethodPatch, c.spacePath("/objects/"+objectID), payload, "update")
}

// SearchByProperty runs an exact-match search on a named property.
func (c *Client) SearchByProperty(ctx context.Context, key, value string, limit int) ([]map[string]any, error) {
	payload := map[string]any{
		"filters": []map[string]any{
			{"property": key, "operator": "equals", "value": value},
		},
		"limit": limit,
	}
	return c.search(ctx, payload)
}

// SearchByText runs a free-text search across the space.
func (c *Client) SearchByText(ctx context.Context, query string, limit int) ([]map[string]any, error) {
	payload := map[string]any{
		"query": map[string]any{"text": query},
		"limit": limit,
	}
	return c.search(ctx, payload)
}

func (c *Client) search(ctx context.Context, payload map[string]any) ([]map[string]any, error) {
	data, err := c.doJSON(ctx, http.MethodPost, c.spacePath("/objects/search"), payload, "search")
	if err != nil {
		return nil, err
	}

	raw, ok := data["objects"].([]any)
	if !ok {
		return nil, nil
	}
	objects := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if obj, ok := item.(map[string]any); ok {
			objects = append(objects, obj)
		}
	}
	return objects, nil
}

// UploadFile uploads a local file to the space and returns the file id.
func (c *Client) UploadFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("building upload request: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("reading file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("building upload request: %w", err)
	}

	data, err := c.do(ctx, http.MethodPost, c.spacePath("/files"), &body, writer.FormDataContentType(), "upload")
	if err != nil {
		return "", err
	}

	fileID, _ := data["id"].(string)
	if fileID == "" {
		return "", fmt.Errorf("%w: file upload response missing 'id'", ErrInvalidResponse)
	}
	return fileID, nil
}

// AttachFile attaches a previously uploaded file to an object under the
// configured relation key.
func (c *Client) AttachFile(ctx context.Context, objectID, fileID, relationKey string) error {
	payload := map[string]any{
		"fileId":      fileID,
		"relationKey": relationKey,
	}
	_, err := c.doJSON(ctx, http.MethodPost, c.spacePath("/objects/"+objectID+"/files"), payload, "attach")
	return err
}

func (c *Client) spacePath(suffix string) string {
	return "/spaces/" + c.spaceID + suffix
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload any, operation string) (map[string]any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	return c.do(ctx, method, path, bytes.NewReader(body), "application/json", operation)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType, operation string) (map[string]any, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == 401 || resp.StatusCode == 403 {
		return nil, fmt.Errorf("%w: status %d", ErrAuth, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Operation:  operation,
			Message:    string(bytes.TrimSpace(msg)),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrInvalidResponse, err)
	}
	if len(data) == 0 {
		return map[string]any{}, nil
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrInvalidResponse, err)
	}
	return decoded, nil
}
