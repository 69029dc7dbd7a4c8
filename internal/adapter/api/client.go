// Package api implements the authenticated HTTP client for the notes backend.
//
// Every request carries the current bearer token. A 401 on the first attempt
// of a request triggers exactly one refresh with the persisted refresh token;
// on success the request is replayed once with the new token. When no refresh
// is possible the persisted credentials are cleared and the navigator is sent
// to the login entry point.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"notes/internal/domain"
)

// DefaultTimeout is the transport-level timeout of a single attempt.
const DefaultTimeout = 15 * time.Second

// LoginPath is where the navigator is sent once credentials are lost.
const LoginPath = "/login"

const maxBodyBytes = 1 << 20

// credentialPaths exchange credentials rather than spend them. A 401 there is
// a rejected credential, so it is returned as is without a refresh.
var credentialPaths = map[string]bool{
	"/auth/telegram": true,
}

// ErrNoRefreshToken indicates that no refresh credential is persisted.
var ErrNoRefreshToken = errors.New("no refresh token")

// Listener is told about credential changes made by the client itself.
type Listener interface {
	TokenRefreshed(token string)
	CredentialsCleared()
}

// Navigator moves the user to another entry point.
type Navigator interface {
	Location() string
	Navigate(path string)
}

// Client is the authenticated request client.
type Client struct {
	base    *url.URL
	http    *http.Client
	store   domain.StateStore
	log     *zap.Logger
	metrics *metrics
	nav     Navigator

	mu       sync.RWMutex
	token    *oauth2.Token
	listener Listener
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithRegisterer registers the client metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Client) { c.metrics = newMetrics(reg) }
}

// WithNavigator sets the navigator used when credentials are lost.
func WithNavigator(n Navigator) Option {
	return func(c *Client) { c.nav = n }
}

// New creates a Client for the backend at baseURL. Refresh tokens are read
// from and new tokens written to store.
func New(baseURL string, store domain.StateStore, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	c := &Client{
		base:  u,
		http:  &http.Client{Timeout: DefaultTimeout},
		store: store,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = newMetrics(nil)
	}
	return c, nil
}

// SetListener registers the listener for refreshes and credential loss.
func (c *Client) SetListener(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listener = l
}

// SetToken installs token as the default Authorization header.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = &oauth2.Token{AccessToken: token, TokenType: "Bearer"}
}

// ClearToken removes the default Authorization header.
func (c *Client) ClearToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = nil
}

// Token returns the current default token, or "".
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token == nil {
		return ""
	}
	return c.token.AccessToken
}

func (c *Client) currentListener() Listener {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.listener
}

func (c *Client) authorize(req *http.Request) {
	c.mu.RLock()
	tok := c.token
	c.mu.RUnlock()
	if tok != nil {
		tok.SetAuthHeader(req)
	}
}

type request struct {
	method string
	path   string
	query  url.Values
	body   []byte
}

// attempt numbers the sends of one request; only the first may refresh.
type attempt struct {
	n int
}

func (a attempt) mayRefresh() bool { return a.n == 0 }

func (a attempt) next() attempt { return attempt{n: a.n + 1} }

// call sends r, decodes a 2xx JSON body into out (when out is non-nil) and
// applies the refresh-and-retry policy.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, in, out any) error {
	r := request{method: method, path: path, query: query}
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		r.body = b
	}

	for at := (attempt{}); ; at = at.next() {
		resp, err := c.send(ctx, r, at)
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusUnauthorized && at.mayRefresh() && !credentialPaths[r.path] {
			authErr := responseError(resp)
			if rerr := c.refresh(ctx); rerr != nil {
				c.log.Warn("token refresh failed", zap.String("path", r.path), zap.Error(rerr))
				c.expireSession(ctx)
				return authErr
			}
			continue
		}
		return decode(resp, out)
	}
}

func (c *Client) send(ctx context.Context, r request, at attempt) (*http.Response, error) {
	u := c.endpoint(r.path)
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", r.method, r.path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.request(r.method, 0)
		c.log.Debug("request failed", zap.String("method", r.method), zap.String("path", r.path), zap.Int("attempt", at.n), zap.Error(err))
		return nil, &Error{Kind: KindNetwork, Err: err}
	}
	c.metrics.request(r.method, resp.StatusCode)
	c.log.Debug("request",
		zap.String("method", r.method),
		zap.String("path", r.path),
		zap.Int("status", resp.StatusCode),
		zap.Int("attempt", at.n),
		zap.String("request_id", req.Header.Get("X-Request-ID")),
	)
	return resp, nil
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// refresh exchanges the persisted refresh token for a new bearer token. It
// bypasses call so a failing refresh is never itself refreshed.
func (c *Client) refresh(ctx context.Context) error {
	rt, err := c.store.Get(ctx, domain.RefreshTokenKey)
	if err != nil || rt == "" {
		c.metrics.refresh("missing")
		if err == nil || errors.Is(err, domain.ErrNotFound) {
			return ErrNoRefreshToken
		}
		return fmt.Errorf("read refresh token: %w", err)
	}

	body, err := json.Marshal(refreshRequest{RefreshToken: rt})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/auth/refresh").String(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.refresh("error")
		return &Error{Kind: KindNetwork, Err: err}
	}

	var out refreshResponse
	if err := decode(resp, &out); err != nil {
		c.metrics.refresh("rejected")
		return err
	}
	if out.Token == "" {
		c.metrics.refresh("rejected")
		return errors.New("refresh response carried no token")
	}

	if err := c.store.Set(ctx, domain.TokenKey, out.Token); err != nil {
		c.metrics.refresh("error")
		return fmt.Errorf("persist refreshed token: %w", err)
	}
	if out.RefreshToken != "" {
		if err := c.store.Set(ctx, domain.RefreshTokenKey, out.RefreshToken); err != nil {
			c.log.Warn("persist rotated refresh token", zap.Error(err))
		}
	}
	c.SetToken(out.Token)
	if l := c.currentListener(); l != nil {
		l.TokenRefreshed(out.Token)
	}
	c.metrics.refresh("success")
	c.log.Info("token refreshed")
	return nil
}

// expireSession drops every persisted credential and sends the navigator to
// the login entry point unless it is already there.
func (c *Client) expireSession(ctx context.Context) {
	if err := c.store.Delete(ctx, domain.TokenKey, domain.RefreshTokenKey); err != nil {
		c.log.Warn("clear persisted credentials", zap.Error(err))
	}
	c.ClearToken()
	if l := c.currentListener(); l != nil {
		l.CredentialsCleared()
	}
	if c.nav != nil && c.nav.Location() != LoginPath {
		c.nav.Navigate(LoginPath)
	}
}

// endpoint joins the base URL with an already escaped path.
func (c *Client) endpoint(escaped string) *url.URL {
	u := *c.base
	raw := strings.TrimRight(c.base.EscapedPath(), "/") + escaped
	p, err := url.PathUnescape(raw)
	if err != nil {
		p = raw
	}
	u.Path = p
	u.RawPath = raw
	return &u
}

func decode(resp *http.Response, out any) error {
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return responseErrorFromBody(resp.StatusCode, resp.Body)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func responseError(resp *http.Response) error {
	defer func() { _ = resp.Body.Close() }()
	return responseErrorFromBody(resp.StatusCode, resp.Body)
}
