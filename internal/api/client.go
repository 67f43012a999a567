// Package api is the gateway between the client and the clinic REST
// backend. It owns credential injection, response decoding, and the
// error taxonomy; domain services never touch net/http directly.
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
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Credentials provides the persisted bearer tokens. The store behind it
// has a single writer (the login/refresh flow) and many readers (every
// outbound call); reads must tolerate absence and return empty strings.
type Credentials interface {
	AccessToken() (string, error)
	RefreshToken() (string, error)
	SetAccessToken(token string) error
}

// Client issues JSON round trips against the clinic backend. A nil
// Credentials is valid and produces unauthenticated calls.
type Client struct {
	base  *url.URL
	http  *http.Client
	creds Credentials
	log   *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying transport.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger attaches a structured logger for call diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New builds a gateway client for the given base URL.
func New(baseURL string, creds Credentials, opts ...Option) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	// Relative paths resolve against the base directory, so the base
	// path must end in a slash or its last segment gets dropped.
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	c := &Client{
		base:  base,
		http:  &http.Client{Timeout: 15 * time.Second},
		creds: creds,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Do performs one round trip. Path is relative to the base URL, body is
// JSON-encoded when non-nil, and a non-nil out receives the decoded
// response. Failures come back as *Error. A 401 triggers one silent
// refresh-and-retry; if that fails the Unauthorized error surfaces and
// the caller is expected to drop the session.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	err := c.do(ctx, method, path, body, out)
	if err == nil || !IsUnauthorized(err) {
		return err
	}
	if refreshErr := c.refresh(ctx); refreshErr != nil {
		return err
	}
	return c.do(ctx, method, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	ref, err := url.Parse(path)
	if err != nil {
		return Errorf(KindUnknown, "bad request path %q", path)
	}
	target := c.base.ResolveReference(ref)

	var payload io.Reader
	if body != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return Wrap(KindUnknown, err)
		}
		payload = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), payload)
	if err != nil {
		return Wrap(KindUnknown, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	if c.creds != nil {
		token, err := c.creds.AccessToken()
		if err == nil && token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("call failed before response",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Error(err))
		return Wrap(KindNetwork, err)
	}
	defer resp.Body.Close()

	c.log.Debug("call completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			if err == io.EOF {
				return nil
			}
			return Wrap(KindUnknown, err)
		}
		return nil
	}

	msg := responseMessage(resp.Body)
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return &Error{Kind: KindUnauthorized, Status: resp.StatusCode, Message: msg}
	case resp.StatusCode == http.StatusNotFound:
		return &Error{Kind: KindNotFound, Status: resp.StatusCode, Message: msg}
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return &Error{Kind: KindValidation, Status: resp.StatusCode, Message: msg}
	default:
		return &Error{Kind: KindUnknown, Status: resp.StatusCode, Message: msg}
	}
}

// refresh exchanges the refresh token for a new access token and stores
// it. The refresh token rides in the Authorization header, matching the
// backend's renewal contract.
func (c *Client) refresh(ctx context.Context) error {
	if c.creds == nil {
		return Errorf(KindUnauthorized, "no credentials to refresh")
	}
	refreshToken, err := c.creds.RefreshToken()
	if err != nil || refreshToken == "" {
		return Errorf(KindUnauthorized, "no refresh token")
	}

	target := c.base.ResolveReference(&url.URL{Path: "refresh"})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), nil)
	if err != nil {
		return Wrap(KindUnknown, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+refreshToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return Wrap(KindNetwork, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &Error{Kind: KindUnauthorized, Status: resp.StatusCode, Message: responseMessage(resp.Body)}
	}

	var issued struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&issued); err != nil || issued.AccessToken == "" {
		return Errorf(KindUnauthorized, "refresh returned no token")
	}
	if err := c.creds.SetAccessToken(issued.AccessToken); err != nil {
		return Wrap(KindUnknown, err)
	}
	c.log.Info("access token refreshed")
	return nil
}

// responseMessage pulls a human-readable message out of an error body.
// The backend answers with {"error": ...} or {"message": ...}.
func responseMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return strings.TrimSpace(string(data))
}
