// Package confluence stores documents as pages of a Confluence space.
package confluence

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/drewdunne/mrscope/internal/toolerr"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultParentTitle = "PR Analysis Reports"
)

// DocumentRef points to a stored page.
type DocumentRef struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Space   string `json:"space"`
	Version int    `json:"version"`
	URL     string `json:"url"`
	// Created is false when an existing page with the same title was updated.
	Created bool `json:"created"`
}

// Client talks to the Confluence REST API.
type Client struct {
	baseURL     string
	username    string
	token       string
	parentTitle string
	http        *retryablehttp.Client
}

// Option configures the client.
type Option func(*Client)

// WithRetryMax enables retries of failed requests (429, 5xx, connection errors).
// Zero, the default, sends every request once.
func WithRetryMax(n int) Option {
	return func(c *Client) {
		c.http.RetryMax = n
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.HTTPClient.Timeout = d
		}
	}
}

// WithParentTitle sets the title of the page new documents are created under.
// An empty title creates them at the space root.
func WithParentTitle(title string) Option {
	return func(c *Client) {
		c.parentTitle = title
	}
}

// New creates a client. With a username requests use basic auth (Atlassian
// Cloud API tokens), otherwise the token is sent as a bearer token.
func New(baseURL, username, token string, opts ...Option) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 0
	rc.Logger = nil
	rc.HTTPClient.Timeout = defaultTimeout
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		username:    username,
		token:       token,
		parentTitle: defaultParentTitle,
		http:        rc,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type content struct {
	ID        string        `json:"id,omitempty"`
	Type      string        `json:"type"`
	Title     string        `json:"title"`
	Space     *spaceRef     `json:"space,omitempty"`
	Ancestors []ancestor    `json:"ancestors,omitempty"`
	Version   *version      `json:"version,omitempty"`
	Body      *body         `json:"body,omitempty"`
	Links     *contentLinks `json:"_links,omitempty"`
}

type spaceRef struct {
	Key string `json:"key"`
}

type ancestor struct {
	ID string `json:"id"`
}

type version struct {
	Number int `json:"number"`
}

type body struct {
	Storage storage `json:"storage"`
}

type storage struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

type contentLinks struct {
	Base  string `json:"base,omitempty"`
	WebUI string `json:"webui,omitempty"`
}

type searchResult struct {
	Results []content    `json:"results"`
	Links   contentLinks `json:"_links"`
}

// StoreDocument creates the page titled title in space, or updates it when a
// page with that title already exists. Repeating the call with the same input
// leaves one page with the same body.
func (c *Client) StoreDocument(ctx context.Context, space, title, bodyXHTML string) (*DocumentRef, error) {
	existing, base, err := c.findPage(ctx, space, title)
	if err != nil {
		return nil, err
	}

	page := content{
		Type:  "page",
		Title: title,
		Space: &spaceRef{Key: space},
		Body:  &body{Storage: storage{Value: bodyXHTML, Representation: "storage"}},
	}

	var saved content
	if existing != nil {
		page.ID = existing.ID
		page.Version = &version{Number: 1}
		if existing.Version != nil {
			page.Version.Number = existing.Version.Number + 1
		}
		if err := c.do(ctx, http.MethodPut, "/rest/api/content/"+url.PathEscape(existing.ID), nil, page, &saved); err != nil {
			return nil, err
		}
	} else {
		if c.parentTitle != "" && c.parentTitle != title {
			parent, _, err := c.findPage(ctx, space, c.parentTitle)
			if err != nil {
				return nil, err
			}
			if parent != nil {
				page.Ancestors = []ancestor{{ID: parent.ID}}
			}
		}
		if err := c.do(ctx, http.MethodPost, "/rest/api/content", nil, page, &saved); err != nil {
			return nil, err
		}
	}

	ref := &DocumentRef{
		ID:      saved.ID,
		Title:   title,
		Space:   space,
		Created: existing == nil,
	}
	if saved.Version != nil {
		ref.Version = saved.Version.Number
	}
	if saved.Links != nil {
		if saved.Links.Base != "" {
			base = saved.Links.Base
		}
		if saved.Links.WebUI != "" {
			if base == "" {
				base = c.baseURL
			}
			ref.URL = base + saved.Links.WebUI
		}
	}
	return ref, nil
}

// findPage looks up a page by exact title. It returns nil when none exists.
func (c *Client) findPage(ctx context.Context, space, title string) (*content, string, error) {
	query := url.Values{}
	query.Set("spaceKey", space)
	query.Set("title", title)
	query.Set("type", "page")
	query.Set("expand", "version")

	var res searchResult
	if err := c.do(ctx, http.MethodGet, "/rest/api/content", query, nil, &res); err != nil {
		return nil, "", err
	}
	for i := range res.Results {
		if res.Results[i].Title == title {
			return &res.Results[i], res.Links.Base, nil
		}
	}
	return nil, res.Links.Base, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "marshaling request body")
		}
		reqBody = b
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return errors.Wrap(err, "creating request")
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.token)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return toolerr.Upstream(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return toolerr.Upstream(err, "reading response of %s %s", method, path)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := errors.Errorf("API error (status %d): %s", resp.StatusCode, bytes.TrimSpace(respBody))
		if resp.StatusCode == http.StatusForbidden {
			return toolerr.Permission(apiErr, "%s %s", method, path)
		}
		return toolerr.Upstream(apiErr, "%s %s", method, path)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return toolerr.Upstream(err, "decoding response of %s %s", method, path)
		}
	}
	return nil
}
