// Package meapi calls the backend's authenticated "me" endpoint.
package meapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DefaultBaseURL is the backend used when none is configured.
const DefaultBaseURL = "http://localhost:3000"

// maxBodyBytes caps how much of the response is kept.
const maxBodyBytes = 64 << 10

// Response is what the backend answered. Its shape is not interpreted.
type Response struct {
	StatusCode int
	Body       []byte
}

// Fetcher fetches the "me" resource for a bearer token.
type Fetcher interface {
	Fetch(ctx context.Context, token string) (*Response, error)
}

// Client is the HTTP Fetcher.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Client for baseURL. A nil httpClient uses http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// URL is the endpoint the client calls.
func (c *Client) URL() string {
	return c.baseURL + "/me"
}

// Fetch issues one GET with "Authorization: Bearer <token>". There is no retry.
func (c *Client) Fetch(ctx context.Context, token string) (*Response, error) {
	if token == "" {
		return nil, errors.New("meapi: empty bearer token")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(), nil)
	if err != nil {
		return nil, fmt.Errorf("meapi: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("meapi: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("meapi: read body: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}
