// Package client is a Go client for the taskboard API. It keeps the
// session in a TokenStore and renews it transparently: a request that
// comes back 401 triggers one refresh, shared by every request that hit
// the 401 at the same time, and is then retried once.
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
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/iliyamo/taskboard/internal/model"
)

// ErrSessionExpired is returned when the refresh token was rejected. The
// store has been cleared and the user must sign in again.
var ErrSessionExpired = errors.New("session expired, please log in again")

// ErrNotLoggedIn is returned by calls that need a session when the store
// holds none.
var ErrNotLoggedIn = errors.New("not logged in")

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
	Fields  []model.FieldError
}

func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		parts := make([]string, len(e.Fields))
		for i, f := range e.Fields {
			parts[i] = f.Path + ": " + f.Message
		}
		return fmt.Sprintf("%s (%d): %s", e.Message, e.Status, strings.Join(parts, "; "))
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Status)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

type Client struct {
	base  string
	http  *http.Client
	store TokenStore
	group singleflight.Group
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func New(baseURL string, store TokenStore, opts ...Option) *Client {
	c := &Client{
		base:  strings.TrimRight(baseURL, "/"),
		http:  &http.Client{Timeout: 30 * time.Second},
		store: store,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Session returns the stored session.
func (c *Client) Session() (Session, error) {
	return c.store.Load()
}

// do sends one API call. in is encoded as the JSON body when non-nil and
// out receives the decoded 2xx body when non-nil.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = b
	}

	sess, err := c.store.Load()
	if err != nil {
		return err
	}
	resp, err := c.send(ctx, method, path, body, sess.AccessToken)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && sess.AccessToken != "" {
		drain(resp)
		token, err := c.renew(ctx, sess.AccessToken)
		if err != nil {
			return err
		}
		resp, err = c.send(ctx, method, path, body, token)
		if err != nil {
			return err
		}
	}
	return decodeResponse(resp, out)
}

// renew returns a usable access token after stale was rejected. Callers
// that arrive while a refresh is running share its result; a caller whose
// stale token was already replaced in the store reuses the replacement.
func (c *Client) renew(ctx context.Context, stale string) (string, error) {
	v, err, _ := c.group.Do("refresh", func() (any, error) {
		sess, err := c.store.Load()
		if err != nil {
			return "", err
		}
		if sess.AccessToken != "" && sess.AccessToken != stale {
			return sess.AccessToken, nil
		}
		if sess.RefreshToken == "" {
			_ = c.store.Clear()
			return "", ErrSessionExpired
		}

		var pair struct {
			AccessToken  string `json:"accessToken"`
			RefreshToken string `json:"refreshToken"`
		}
		body, _ := json.Marshal(map[string]string{"refreshToken": sess.RefreshToken})
		resp, err := c.send(context.WithoutCancel(ctx), http.MethodPost, "/api/auth/refresh", body, "")
		if err != nil {
			return "", err
		}
		if err := decodeResponse(resp, &pair); err != nil {
			if StatusOf(err) != 0 {
				_ = c.store.Clear()
				return "", ErrSessionExpired
			}
			return "", err
		}
		sess.AccessToken, sess.RefreshToken = pair.AccessToken, pair.RefreshToken
		if err := c.store.Save(sess); err != nil {
			return "", err
		}
		return pair.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) send(ctx context.Context, method, path string, body []byte, token string) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	return resp, nil
}

func decodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var e struct {
			Message string             `json:"message"`
			Errors  []model.FieldError `json:"errors"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Message == "" {
			e.Message = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: e.Message, Fields: e.Errors}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
