package openhab

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nerrad567/gray-logic-voice/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-voice/internal/item"
)

const (
	defaultTimeout = 10 * time.Second

	// maxItemsResponse bounds the bulk snapshot body.
	maxItemsResponse = 32 << 20
	// maxResponse bounds single-item and attribute bodies.
	maxResponse = 4 << 20
	// maxErrorBody bounds how much of an error body is quoted in errors.
	maxErrorBody = 512
)

// itemFields is the fixed field selection of the bulk snapshot.
const itemFields = "name,label,type,tags,groupNames,metadata"

// Client talks to one openHAB server.
//
// Thread Safety: All methods are safe for concurrent use.
type Client struct {
	baseURL       string
	attributesURL string
	httpClient    *http.Client
}

// New creates a client for the server in cfg.
//
// Parameters:
//   - cfg: openHAB section of config.yaml
//
// Returns:
//   - *Client: Client ready for use (no request is made)
//   - error: ErrInvalidURL if the URL is not absolute
func New(cfg config.OpenHABConfig) (*Client, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, cfg.URL)
	}

	timeout := defaultTimeout
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}

	return &Client{
		baseURL:       strings.TrimRight(cfg.URL, "/"),
		attributesURL: cfg.AttributesURL,
		httpClient:    &http.Client{Timeout: timeout},
	}, nil
}

// FetchItems returns every item with its semantics and synonyms metadata.
func (c *Client) FetchItems(ctx context.Context) ([]item.RawItem, error) {
	q := url.Values{}
	q.Set("recursive", "false")
	q.Set("fields", itemFields)
	q.Set("metadata", "semantics,synonyms")

	var records []item.RawItem
	if err := c.getJSON(ctx, c.baseURL+"/rest/items?"+q.Encode(), maxItemsResponse, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// FetchState returns the raw state string of one item. The NULL sentinel is
// returned unchanged; interpreting it is up to the caller.
func (c *Client) FetchState(ctx context.Context, name string) (string, error) {
	var body struct {
		State string `json:"state"`
	}
	if err := c.getJSON(ctx, c.itemURL(name), maxResponse, &body); err != nil {
		return "", err
	}
	return body.State, nil
}

// PostCommand sends a plain command token ("ON", "INCREASE", "21") to one item.
func (c *Client) PostCommand(ctx context.Context, name, command string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.itemURL(name), strings.NewReader(command))
	if err != nil {
		return fmt.Errorf("%w: creating request: %w", ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return fmt.Errorf("command %s to %s: %w", command, name, err)
	}
	// Drain body to allow connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// FetchAttributes returns the external alias/location document.
func (c *Client) FetchAttributes(ctx context.Context) (map[string][]item.Attribute, error) {
	if c.attributesURL == "" {
		return nil, ErrNoAttributesURL
	}
	attrs := make(map[string][]item.Attribute)
	if err := c.getJSON(ctx, c.attributesURL, maxResponse, &attrs); err != nil {
		return nil, err
	}
	return attrs, nil
}

// HealthCheck verifies the REST API answers.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/rest/", nil)
	if err != nil {
		return fmt.Errorf("openhab health check: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("openhab health check: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("openhab health check: status %d", resp.StatusCode)
	}
	return nil
}

// BaseURL returns the server URL without trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) itemURL(name string) string {
	return c.baseURL + "/rest/items/" + url.PathEscape(name)
}

func (c *Client) getJSON(ctx context.Context, target string, limit int64, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("%w: creating request: %w", ErrRequestFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, limit)).Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	return nil
}

// checkStatus maps non-2xx responses to sentinel errors.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: HTTP %d", ErrNotFound, resp.StatusCode)
	}
	return fmt.Errorf("%w: HTTP %d: %s", ErrRequestFailed, resp.StatusCode, strings.TrimSpace(string(body)))
}
