package swarm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Catalog lists the services whose logs can be streamed.
type Catalog interface {
	FetchServices(ctx context.Context) ([]Service, error)
}

// Ensure Client implements Catalog at compile time.
var _ Catalog = (*Client)(nil)

// Client talks to the dashboard HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	defaultBaseURL   = "http://127.0.0.1:8080/"
	defaultUserAgent = "swarmtail/0.1"
	requestTimeout   = 5 * time.Second

	servicesPath = "ui/logs/services"
	logsPath     = "docker/logs/"
)

// NewClient builds a Client rooted at baseURL. A bare host:port gets an
// http scheme; any path is kept as the API prefix.
func NewClient(baseURL string) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// BaseURL returns a copy of the API root.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// FetchServices retrieves the log-capable services sorted by name.
func (c *Client) FetchServices(ctx context.Context) ([]Service, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload []Service
	if err := c.do(ctx, http.MethodGet, servicesPath, &payload); err != nil {
		return nil, err
	}
	sort.SliceStable(payload, func(i, j int) bool {
		return payload[i].Name < payload[j].Name
	})
	return payload, nil
}

func (c *Client) do(ctx context.Context, method, path string, dest any) error {
	rel := &url.URL{Path: path}
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("api %s returned status %d", rel.String(), resp.StatusCode)
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse base_url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse base_url %q: missing host", raw)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
