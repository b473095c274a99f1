// Package api contains typed clients for the rental portal REST API. Each
// method issues exactly one request; nothing is cached, batched or retried.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const maxResponseBytes = 4 << 20

type Client struct {
	Auth      *AuthClient
	Units     *UnitClient
	Towers    *TowerClient
	Amenities *AmenityClient
	Bookings  *BookingClient
	Users     *UserClient
	Dashboard *DashboardClient

	core *core
}

// New builds the domain clients on top of one HTTP client. The HTTP client's
// transport is expected to already carry the bearer authenticator.
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", baseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("api url %q must be http or https", baseURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &core{base: parsed, http: httpClient}
	return &Client{
		Auth:      &AuthClient{core: c},
		Units:     &UnitClient{core: c},
		Towers:    &TowerClient{core: c},
		Amenities: &AmenityClient{core: c},
		Bookings:  &BookingClient{core: c},
		Users:     &UserClient{core: c},
		Dashboard: &DashboardClient{core: c},
		core:      c,
	}, nil
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.core.base.String()
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	return c.core.do(ctx, "health", http.MethodGet, "/health", nil, nil, &out)
}

type core struct {
	base *url.URL
	http *http.Client
}

func (c *core) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *core) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%s: read response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newError(op, resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func idPath(resource string, id int64) string {
	return fmt.Sprintf("/%s/%d", resource, id)
}
