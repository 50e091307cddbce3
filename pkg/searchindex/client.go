package searchindex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pricegate/pricegate_api/internal/models"
)

// Config holds the client construction parameters.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client is a minimal HTTP client for the external search-index service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	debug      bool
}

// NewClient constructs a new search-index client with sane defaults.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		debug:      os.Getenv("ENV") == "development",
	}
}

// Search runs a paged query against the index.
func (c *Client) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	var resp SearchResponse
	if err := c.doRequest(ctx, http.MethodPost, "/v1/search", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListingsInGroup returns every indexed listing in a product group.
func (c *Client) ListingsInGroup(ctx context.Context, groupID string) ([]models.Listing, error) {
	var resp groupResponse
	path := "/v1/groups/" + url.PathEscape(groupID) + "/listings"
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Listings, nil
}

// Ping checks that the index answers at all.
func (c *Client) Ping(ctx context.Context) error {
	var resp map[string]any
	return c.doRequest(ctx, http.MethodGet, "/v1/health", nil, &resp)
}

// doRequest performs an HTTP call with JSON payloads and decodes the JSON
// response into result. Failures are wrapped into the package error types so
// callers can classify them.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)

		if c.debug {
			log.Debug().
				Str("endpoint", c.baseURL+endpoint).
				RawJSON("request", payload).
				Msg("[SEARCHINDEX] Outgoing request")
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return ErrConnection{Err: err}
	}

	if c.debug {
		log.Debug().
			Str("endpoint", endpoint).
			Int("status_code", resp.StatusCode).
			RawJSON("response", respBody).
			Msg("[SEARCHINDEX] Incoming response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ErrBadStatus{StatusCode: resp.StatusCode}
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return ErrMalformed{Err: err}
	}
	return nil
}

// classifyTransportError maps a net/http transport failure onto the package
// error taxonomy.
func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}
	return ErrConnection{Err: err}
}
