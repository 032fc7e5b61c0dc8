// Package remote is the HTTP client of the user object API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/joeblew999/plat-metro/internal/objects"
)

// DefaultBaseURL is the object API root used when none is configured.
const DefaultBaseURL = "http://localhost:8000/api"

// StatusError reports a non-2xx response.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.Code, e.Body)
}

// Client talks to GET/POST <base>/objects/.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client. An empty baseURL uses DefaultBaseURL.
func New(baseURL string, hc *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// List fetches every object.
func (c *Client) List(ctx context.Context) ([]objects.UserObject, error) {
	var out []objects.UserObject
	if err := c.do(ctx, http.MethodGet, "/objects/", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []objects.UserObject{}
	}
	return out, nil
}

// Create posts a new object and returns it as stored by the server.
func (c *Client) Create(ctx context.Context, p objects.CreatePayload) (objects.UserObject, error) {
	var out objects.UserObject
	if err := c.do(ctx, http.MethodPost, "/objects/", p, &out); err != nil {
		return objects.UserObject{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	u := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Method: method, URL: u, Code: resp.StatusCode, Body: string(snippet)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s: %w", method, u, err)
	}
	return nil
}
