// Package supabase provides a thin Supabase (PostgREST) client and the
// plant/user stores backed by it.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/plantcare/internal/db"
	"github.com/tidwall/gjson"
)

const defaultTimeout = 10 * time.Second

// Config configures the Supabase client.
type Config struct {
	ProjectURL string
	APIKey     string
	// Timeout bounds each request; zero means 10s.
	Timeout time.Duration
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Client performs PostgREST calls against <ProjectURL>/rest/v1.
// One Client is shared by every store and request; it holds no per-request state.
type Client struct {
	http   *http.Client
	prefix string
	apiKey string
}

// APIError is a non-2xx PostgREST response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("supabase %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("supabase %d: %s", e.StatusCode, e.Message)
}

// New creates a Supabase client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.ProjectURL) == "" {
		return nil, errors.New("project URL is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("api key is required")
	}
	if _, err := url.Parse(cfg.ProjectURL); err != nil {
		return nil, fmt.Errorf("invalid project URL: %w", err)
	}

	prefix := strings.TrimRight(strings.TrimSpace(cfg.ProjectURL), "/")
	if !strings.HasSuffix(prefix, "/rest/v1") {
		prefix += "/rest/v1"
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{http: httpClient, prefix: prefix, apiKey: cfg.APIKey}, nil
}

// Select performs a GET on a table and decodes the JSON array into dst.
func (c *Client) Select(ctx context.Context, table string, query url.Values, dst any) error {
	return c.do(ctx, http.MethodGet, table, query, nil, dst)
}

// Insert performs a POST and decodes the returned representation into dst.
func (c *Client) Insert(ctx context.Context, table string, body any, dst any) error {
	return c.do(ctx, http.MethodPost, table, nil, body, dst)
}

// Update performs a PATCH on the rows matched by filter.
func (c *Client) Update(ctx context.Context, table string, filter url.Values, body any, dst any) error {
	return c.do(ctx, http.MethodPatch, table, filter, body, dst)
}

// Delete removes the rows matched by filter and decodes the deleted rows into dst.
func (c *Client) Delete(ctx context.Context, table string, filter url.Values, dst any) error {
	return c.do(ctx, http.MethodDelete, table, filter, nil, dst)
}

func (c *Client) do(ctx context.Context, method, table string, query url.Values, body any, dst any) error {
	if table == "" {
		return errors.New("table is required")
	}

	endpoint := c.prefix + "/" + url.PathEscape(table)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s payload: %w", table, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%w: build request: %w", db.ErrStorage, err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", db.ErrStorage, method, table, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read %s response: %w", db.ErrStorage, table, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classify(parseAPIError(resp.StatusCode, raw))
	}

	if dst == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: decode %s response: %w", db.ErrStorage, table, err)
	}
	return nil
}

func parseAPIError(statusCode int, raw []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}
	if gjson.ValidBytes(raw) {
		parsed := gjson.ParseBytes(raw)
		apiErr.Code = parsed.Get("code").String()
		apiErr.Message = parsed.Get("message").String()
		if hint := parsed.Get("hint").String(); hint != "" {
			apiErr.Message += " (" + hint + ")"
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(statusCode)
	}
	return apiErr
}

// classify maps PostgREST failures onto the storage error kinds shared with the relational backend.
func classify(apiErr *APIError) error {
	switch {
	case apiErr.StatusCode == http.StatusConflict || apiErr.Code == "23505":
		return fmt.Errorf("%w: %w", db.ErrDuplicate, apiErr)
	case apiErr.Code == "PGRST116":
		return fmt.Errorf("%w: %w", db.ErrNotFound, apiErr)
	default:
		return fmt.Errorf("%w: %w", db.ErrStorage, apiErr)
	}
}

func eq(value string) string {
	return "eq." + value
}
