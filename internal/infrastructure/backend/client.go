// Package backend is the client of the remote marketplace REST API.
package backend

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
	"time"

	"github.com/rs/zerolog"

	"github.com/mvcmarket/marketplace/internal/core/domain"
)

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 4 << 10
)

// Client talks to the marketplace API. Every request is bounded by the
// client timeout and the caller's context. Requests are never retried.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

func (c *Client) Login(ctx context.Context, username, secret string) (*domain.User, error) {
	var out wireUser
	err := c.do(ctx, http.MethodPost, "/api/login", nil, credentialsRequest{Username: username, Password: secret}, &out, map[int]error{
		http.StatusBadRequest:   domain.ErrInvalidCredentials,
		http.StatusUnauthorized: domain.ErrInvalidCredentials,
	})
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return out.toDomain(), nil
}

func (c *Client) Register(ctx context.Context, username, secret, email string) (*domain.User, error) {
	var out wireUser
	err := c.do(ctx, http.MethodPost, "/api/register", nil, credentialsRequest{Username: username, Password: secret, Email: email}, &out, map[int]error{
		http.StatusBadRequest: domain.ErrInvalidCredentials,
		http.StatusConflict:   domain.ErrUserExists,
	})
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	u := out.toDomain()
	if u.Email == "" {
		u.Email = email
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	return u, nil
}

func (c *Client) ListListings(ctx context.Context, kind domain.ListingKind) ([]domain.Listing, error) {
	return c.list(ctx, "/api/"+collection(kind), kind)
}

func (c *Client) ListOwnerListings(ctx context.Context, kind domain.ListingKind, ownerID string) ([]domain.Listing, error) {
	return c.list(ctx, "/api/users/"+url.PathEscape(ownerID)+"/"+collection(kind), kind)
}

func (c *Client) CreateListing(ctx context.Context, l domain.Listing) (*domain.Listing, error) {
	var out wireListing
	err := c.do(ctx, http.MethodPost, "/api/"+collection(l.Kind), nil, toWire(l), &out, listingErrors)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", l.Kind, err)
	}
	created := out.toDomain(l.Kind)
	if created.ID == "" {
		return nil, fmt.Errorf("create %s: %w: response without id", l.Kind, domain.ErrBackendUnavailable)
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}
	if created.UpdatedAt.IsZero() {
		created.UpdatedAt = created.CreatedAt
	}
	return &created, nil
}

func (c *Client) DeleteListing(ctx context.Context, kind domain.ListingKind, id string, actor domain.User) error {
	headers := http.Header{}
	headers.Set("User-Id", actor.ID)
	headers.Set("User-Role", actor.Role)

	err := c.do(ctx, http.MethodDelete, "/api/"+collection(kind)+"/"+url.PathEscape(id), headers, nil, nil, listingErrors)
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, id, err)
	}
	return nil
}

// Ping reports whether the API answers at all; any HTTP status counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/items", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

var listingErrors = map[int]error{
	http.StatusBadRequest:   domain.ErrInvalidListing,
	http.StatusUnauthorized: domain.ErrForbidden,
	http.StatusForbidden:    domain.ErrForbidden,
	http.StatusNotFound:     domain.ErrListingNotFound,
}

func (c *Client) list(ctx context.Context, path string, kind domain.ListingKind) ([]domain.Listing, error) {
	var out []wireListing
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out, listingErrors); err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	ls := make([]domain.Listing, 0, len(out))
	for _, w := range out {
		ls = append(ls, w.toDomain(kind))
	}
	return ls, nil
}

// do sends one JSON request. Statuses found in known map to the given domain
// error; every other non-2xx status and all transport failures map to
// domain.ErrBackendUnavailable.
func (c *Client) do(ctx context.Context, method, path string, headers http.Header, body, out any, known map[int]error) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("method", method).Str("path", path).Msg("backend request failed")
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("backend request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp, known)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrBackendUnavailable, err)
	}
	return nil
}

func statusError(resp *http.Response, known map[int]error) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(raw))
	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil && eb.Error != "" {
		msg = eb.Error
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	if sentinel, ok := known[resp.StatusCode]; ok {
		return &StatusError{Code: resp.StatusCode, Message: msg, err: sentinel}
	}
	return &StatusError{Code: resp.StatusCode, Message: msg, err: domain.ErrBackendUnavailable}
}

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	Code    int
	Message string
	err     error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: %d %s", e.err, e.Code, e.Message)
}

func (e *StatusError) Unwrap() error { return e.err }

// AsStatusError extracts the API status from err, if any.
func AsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	ok := errors.As(err, &se)
	return se, ok
}

func collection(kind domain.ListingKind) string {
	if kind == domain.KindMusic {
		return "music"
	}
	return "items"
}
