// Package identity establishes lightweight anonymous sessions with the
// identity provider. The remote store's access rules require some
// authenticated principal even for the bootstrap read during login, so the
// engine obtains an anonymous session before its first remote call.
package identity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Session is an authenticated-but-anonymous principal.
type Session struct {
	UID       string    `json:"uid"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Valid reports whether the session can still be presented.
func (s Session) Valid() bool {
	return s.Token != "" && time.Now().Before(s.ExpiresAt)
}

// Provider issues anonymous sessions. The engine depends on this interface
// so tests can stub session establishment.
type Provider interface {
	EnsureAnonymous(ctx context.Context) (Session, error)
}

// Client talks to the identity provider over HTTP.
type Client struct {
	http   *resty.Client
	apiKey string
	logger *zap.Logger

	mu      sync.Mutex
	current Session
}

// New creates a client for the identity provider.
func New(baseURL, apiKey string, logger *zap.Logger) *Client {
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{http: http, apiKey: apiKey, logger: logger}
}

type signInResponse struct {
	UID       string `json:"localId"`
	Token     string `json:"idToken"`
	ExpiresIn int64  `json:"expiresIn"` // seconds
}

// EnsureAnonymous returns the cached session when still valid, otherwise
// signs in anonymously. Concurrent callers share one sign-in.
func (c *Client) EnsureAnonymous(ctx context.Context) (Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current.Valid() {
		return c.current, nil
	}

	var out signInResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetBody(map[string]bool{"returnSecureToken": true}).
		SetResult(&out).
		Post("/v1/accounts:signUp")
	if err != nil {
		return Session{}, fmt.Errorf("anonymous sign-in: %w", err)
	}
	if resp.IsError() || out.Token == "" {
		return Session{}, fmt.Errorf("anonymous sign-in: status %d", resp.StatusCode())
	}

	c.current = Session{
		UID:       out.UID,
		Token:     out.Token,
		ExpiresAt: time.Now().Add(time.Duration(out.ExpiresIn) * time.Second),
	}
	c.logger.Debug("anonymous session established", zap.String("uid", out.UID))
	return c.current, nil
}

// Clear drops the cached session. Called on logout.
func (c *Client) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = Session{}
}

// Local is a Provider for deployments without an identity provider
// (blank identity_base_url). It issues a static local session so login
// and sync proceed without a network round trip.
type Local struct{}

// EnsureAnonymous returns a session that is always valid.
func (Local) EnsureAnonymous(context.Context) (Session, error) {
	return Session{
		UID:       "local",
		Token:     "local",
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}, nil
}
