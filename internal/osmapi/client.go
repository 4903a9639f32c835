package osmapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Epoch is the earliest possible changeset timestamp (the project's founding
// date); every query window is bounded below by it.
const Epoch = "2004-01-01T00:00:00Z"

// MinDelay is the minimum pause owed after every successful page fetch.
// The upstream service throttles aggressive clients, so pages must never be
// fetched in parallel or faster than this.
const MinDelay = 1100 * time.Millisecond

// PageLimit caps the number of changesets returned per page
const PageLimit = 100

// ErrNotFound indicates the upstream reported no such user (HTTP 404)
var ErrNotFound = errors.New("user not found")

// Client fetches changeset listing pages from the OSM API
type Client struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

// NewClient creates a changeset listing client for the given API base URL
func NewClient(baseURL, userAgent string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// PageURL returns the listing URL for one user's changesets created in
// [Epoch, windowEnd]
func (c *Client) PageURL(user, windowEnd string) string {
	q := url.Values{}
	q.Set("display_name", user)
	q.Set("time", fmt.Sprintf("%s,%s", Epoch, windowEnd))
	q.Set("limit", fmt.Sprintf("%d", PageLimit))
	return fmt.Sprintf("%s/changesets?%s", c.baseURL, q.Encode())
}

// FetchPage issues a single GET for one page of a user's changeset history
// and returns the raw response body. A 404 maps to ErrNotFound (unknown
// username); any other non-200 status or network failure is a transport
// error. Pages are never retried here: the pagination contract restarts the
// whole fetch instead.
func (c *Client) FetchPage(ctx context.Context, user, windowEnd string) ([]byte, error) {
	pageURL := c.PageURL(user, windowEnd)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}
