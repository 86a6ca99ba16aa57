// Package client talks to the marks server: REST for list/create/delete and
// a websocket for the change feed. It satisfies store.Bookmarks so a view
// instance can use it as its remote store.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

// Client is bound to one token, so one owner.
type Client struct {
	base   *url.URL
	token  string
	owner  string
	http   *http.Client
	log    logger.Logger
	retry  time.Duration
	ping   time.Duration
	dialer feedDialer
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithFeedRetry sets the wait between feed reconnect attempts.
func WithFeedRetry(d time.Duration) Option {
	return func(c *Client) { c.retry = d }
}

// WithFeedPing sets the server's feed ping interval. A feed that hears
// nothing for twice this long is dropped and redialed.
func WithFeedPing(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.ping = d
		}
	}
}

// New creates a client for the server at baseURL. owner is the subject of
// token; calls for any other owner are refused locally.
func New(baseURL, token, owner string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("invalid server url %q", baseURL)
	}
	if token == "" || owner == "" {
		return nil, domain.Auth(domain.MsgUnauthorized)
	}

	c := &Client{
		base:  u,
		token: token,
		owner: owner,
		http:  &http.Client{Timeout: 10 * time.Second},
		log:   logger.Nop(),
		retry: 2 * time.Second,
		ping:  defaultFeedPing,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.dialer = newWSDialer()
	return c, nil
}

type listResponse struct {
	Bookmarks []domain.Bookmark `json:"bookmarks"`
}

type createResponse struct {
	Bookmark domain.Bookmark `json:"bookmark"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// List fetches owner's bookmarks.
func (c *Client) List(ctx context.Context, owner string) ([]domain.Bookmark, error) {
	if err := c.checkOwner(owner); err != nil {
		return nil, err
	}
	var out listResponse
	if err := c.do(ctx, http.MethodGet, "/api/bookmarks", nil, http.StatusOK, &out, domain.MsgLoadFailed); err != nil {
		return nil, err
	}
	return out.Bookmarks, nil
}

// Create posts a new bookmark.
func (c *Client) Create(ctx context.Context, owner, title, url string) (domain.Bookmark, error) {
	if err := c.checkOwner(owner); err != nil {
		return domain.Bookmark{}, err
	}
	body, err := json.Marshal(map[string]string{"title": title, "url": url})
	if err != nil {
		return domain.Bookmark{}, domain.Store(domain.MsgSaveFailed, err)
	}
	var out createResponse
	if err := c.do(ctx, http.MethodPost, "/api/bookmarks", body, http.StatusCreated, &out, domain.MsgSaveFailed); err != nil {
		return domain.Bookmark{}, err
	}
	return out.Bookmark, nil
}

// Delete removes id. The server treats foreign and unknown ids as success.
func (c *Client) Delete(ctx context.Context, owner, id string) error {
	if err := c.checkOwner(owner); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return domain.Validation(domain.MsgMissingID)
	}
	return c.do(ctx, http.MethodDelete, "/api/bookmarks/"+url.PathEscape(id), nil, http.StatusOK, nil, domain.MsgDeleteFailed)
}

func (c *Client) checkOwner(owner string) error {
	if owner != c.owner {
		return domain.Auth(domain.MsgUnauthorized)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, want int, out any, fallback string) error {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, rdr)
	if err != nil {
		return domain.Store(fallback, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Store(fallback, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		return statusError(resp, fallback)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.Store(fallback, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// statusError maps 400 to validation, 401 to auth and everything else to a
// store error carrying fallback.
func statusError(resp *http.Response, fallback string) error {
	var e errorResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&e)

	switch resp.StatusCode {
	case http.StatusBadRequest:
		msg := e.Error
		if msg == "" {
			msg = domain.MsgInvalidPayload
		}
		return domain.Validation(msg)
	case http.StatusUnauthorized:
		return domain.Auth(domain.MsgUnauthorized)
	default:
		return domain.Store(fallback, fmt.Errorf("server answered %s", resp.Status))
	}
}
