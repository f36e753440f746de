// Remote API client for playback and library calls
package services

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

const defaultBaseURL = "https://api.spotify.com/v1/"

// APIError is a non-2xx response from the Web API.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("spotify API error: %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("spotify API error: %s %s: status %d", e.Method, e.Path, e.StatusCode)
}

// Client performs authorized requests against the Web API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ Requester = (*Client)(nil)

// NewClient creates a new [Client]. The http client is expected to carry authorization (see [NewHTTPClient]).
func NewClient(baseURL string, client *http.Client) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/") + "/",
		httpClient: client,
	}
}

// Do sends method to path with body encoded as JSON (when non-nil) and decodes a JSON response into out (when non-nil).
//
// Empty and 204 responses leave out untouched.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	fullURL := c.baseURL + strings.TrimLeft(path, "/")

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// errorMessage extracts error.message from a Web API error body.
func errorMessage(body []byte) string {
	var envelope struct {
		Error struct {
			Status  int    `json:"status"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	return envelope.Error.Message
}

// IsLiked reports whether the track is in the user's liked songs.
func (c *Client) IsLiked(ctx context.Context, trackID string) (bool, error) {
	var contains []bool
	if err := c.Do(ctx, http.MethodGet, "me/tracks/contains?ids="+url.QueryEscape(trackID), nil, &contains); err != nil {
		return false, err
	}
	if len(contains) == 0 {
		return false, fmt.Errorf("%w: empty contains response", ErrUnexpectedResponse)
	}
	return contains[0], nil
}

// SaveLiked adds the track to the user's liked songs.
func (c *Client) SaveLiked(ctx context.Context, trackID string) error {
	return c.Do(ctx, http.MethodPut, "me/tracks", map[string][]string{"ids": {trackID}}, nil)
}

// RemoveLiked removes the track from the user's liked songs.
func (c *Client) RemoveLiked(ctx context.Context, trackID string) error {
	return c.Do(ctx, http.MethodDelete, "me/tracks", map[string][]string{"ids": {trackID}}, nil)
}

// ErrUnexpectedResponse reports a 2xx response whose shape could not be used.
var ErrUnexpectedResponse = fmt.Errorf("unexpected response")
