// Package client is the Go SDK for the Churchly API. It keeps the session
// token in a TokenStore, attaches it to every request and logs out when the
// server answers 401.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"
)

var (
	ErrNotLoggedIn  = errors.New("not logged in")
	ErrUnauthorized = errors.New("unauthorized")
)

// APIError is a non-2xx response. Message is the server's "error" field.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("churchly: %d %s", e.Status, e.Message)
}

// Is lets callers match a 401 with errors.Is(err, ErrUnauthorized).
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

type Config struct {
	BaseURL  string
	Store    TokenStore
	Timeout  time.Duration
	Logger   logrus.FieldLogger
	OnLogout func()
}

type Client struct {
	BaseURL string

	store      TokenStore
	httpClient *http.Client
	log        logrus.FieldLogger
	now        func() time.Time

	mu       sync.Mutex
	token    string
	onLogout func()
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	store := cfg.Store
	if store == nil {
		store = NewMemoryTokenStore()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	c := &Client{
		BaseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		store:    store,
		log:      logger,
		now:      time.Now,
		onLogout: cfg.OnLogout,
	}
	c.httpClient = &http.Client{
		Timeout:   timeout,
		Transport: &authTransport{base: http.DefaultTransport, client: c},
	}
	return c
}

// OnLogout replaces the callback fired whenever the session is dropped.
func (c *Client) OnLogout(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onLogout = fn
}

func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) LoggedIn() bool {
	return c.Token() != ""
}

func (c *Client) setToken(token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = token
	if err := c.store.Save(token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// Logout forgets the token, clears the store and fires the callback.
func (c *Client) Logout() {
	c.mu.Lock()
	onLogout := c.dropSessionLocked()
	c.mu.Unlock()

	if onLogout != nil {
		onLogout()
	}
}

// expireSession logs out only while token is still the active session.
func (c *Client) expireSession(token string) bool {
	c.mu.Lock()
	if c.token != token {
		c.mu.Unlock()
		return false
	}
	onLogout := c.dropSessionLocked()
	c.mu.Unlock()

	if onLogout != nil {
		onLogout()
	}
	return true
}

func (c *Client) dropSessionLocked() func() {
	c.token = ""
	if err := c.store.Clear(); err != nil {
		c.log.WithError(err).Warn("failed to clear stored token")
	}
	return c.onLogout
}

// RestoreSession loads the stored token. The signature is not checked here
// since the server does that on every call; a missing, malformed or
// expired token logs the client out.
func (c *Client) RestoreSession() error {
	token, err := c.store.Load()
	if err != nil {
		c.Logout()
		return fmt.Errorf("%w: %v", ErrNotLoggedIn, err)
	}
	if token == "" {
		c.Logout()
		return ErrNotLoggedIn
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		c.log.WithError(err).Info("stored token is malformed, logging out")
		c.Logout()
		return fmt.Errorf("%w: malformed token", ErrNotLoggedIn)
	}

	exp, ok := claims["exp"].(float64)
	if !ok || c.now().Unix() >= int64(exp) {
		c.log.Info("stored token has expired, logging out")
		c.Logout()
		return fmt.Errorf("%w: token expired", ErrNotLoggedIn)
	}

	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	return nil
}

// authTransport adds the bearer token and logs out on a 401 to an
// authenticated request, unless a newer session replaced the token sent.
type authTransport struct {
	base   http.RoundTripper
	client *Client
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token := t.client.Token()
	if token != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && token != "" {
		if t.client.expireSession(token) {
			t.client.log.WithField("path", req.URL.Path).Info("session rejected, logged out")
		}
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &payload) == nil && payload.Error != "" {
			apiErr.Message = payload.Error
		}
		return apiErr
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func (c *Client) requireSession() error {
	if !c.LoggedIn() {
		return ErrNotLoggedIn
	}
	return nil
}
