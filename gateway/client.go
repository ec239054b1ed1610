package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultTimeout = 15 * time.Second

// Client talks to the identity service. The zero value is not usable;
// construct with [NewClient]. Fields may be adjusted before first use and
// must be treated as immutable afterwards.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// UserAgent is sent on every request and echoed into login bodies by
	// the caller.
	UserAgent string
}

// NewClient returns a Client for the given base URL with a default
// 15-second timeout.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

func (c *Client) url(path string) string {
	return c.BaseURL + path
}

// do performs one JSON request. bearer is attached when non-empty. Every
// request carries a fresh X-Request-ID for server-side correlation.
func (c *Client) do(ctx context.Context, method, path, bearer string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	return resp, nil
}

// decodeJSON reads the response once and either fills target (2xx) or
// returns the parsed [*APIError] (anything else).
func decodeJSON(resp *http.Response, target any) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseErrorBody(resp.StatusCode, body)
	}

	if target == nil {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
