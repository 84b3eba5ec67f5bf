// Package authapi talks to the authentication backend's JSON API on behalf
// of the signed-in user.
package authapi

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

	"github.com/go-auth-flow/internal/domain"
)

// APIError is a non-2xx response from the backend. It unwraps to the domain
// sentinel matching the status code.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("auth api: status %d", e.Status)
	}
	return e.Message
}

// UserFacing reports whether the backend's message explains a refusal the
// user can act on. Server-side failures are not shown.
func (e *APIError) UserFacing() bool {
	return e.Message != "" && e.Status >= 400 && e.Status < 500
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return domain.ErrBadRequest
	case http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case http.StatusForbidden:
		return domain.ErrForbidden
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusConflict:
		return domain.ErrConflict
	}
	return nil
}

// messageEnvelope mirrors the backend's generic response wrapper.
type messageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Client is shared by all requests; bind it to a user with ForToken.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return NewClientWithHTTP(baseURL, &http.Client{Timeout: timeout})
}

func NewClientWithHTTP(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// ForToken returns a client that acts as the user owning bearer.
func (c *Client) ForToken(bearer string) *UserClient {
	return &UserClient{c: c, bearer: bearer}
}

// UserClient calls the backend as one user.
type UserClient struct {
	c      *Client
	bearer string
}

// confirmPath maps an attribute to its confirmation resource.
func confirmPath(attr domain.ContactAttribute) (string, error) {
	switch attr {
	case domain.AttrEmail:
		return "/v1/confirm-email", nil
	case domain.AttrPhoneNumber:
		return "/v1/confirm-phone", nil
	}
	return "", fmt.Errorf("unknown contact attribute %q: %w", attr, domain.ErrBadRequest)
}

// VerifyCurrentUserAttribute asks the backend to send a code to attr.
func (u *UserClient) VerifyCurrentUserAttribute(ctx context.Context, attr domain.ContactAttribute) (*domain.AttributeResult, error) {
	base, err := confirmPath(attr)
	if err != nil {
		return nil, err
	}
	var env messageEnvelope
	if err := u.do(ctx, http.MethodPost, base+"/request", nil, &env); err != nil {
		return nil, err
	}
	return &domain.AttributeResult{Message: env.Message}, nil
}

// VerifyCurrentUserAttributeSubmit confirms attr with the code the user
// received. Email confirmations post {"token"}, phone ones {"otp"}.
func (u *UserClient) VerifyCurrentUserAttributeSubmit(ctx context.Context, attr domain.ContactAttribute, code string) (*domain.AttributeResult, error) {
	base, err := confirmPath(attr)
	if err != nil {
		return nil, err
	}
	body := map[string]string{"token": code}
	if attr == domain.AttrPhoneNumber {
		body = map[string]string{"otp": code}
	}
	var env messageEnvelope
	if err := u.do(ctx, http.MethodPost, base+"/validate-code", body, &env); err != nil {
		return nil, err
	}
	return &domain.AttributeResult{Message: env.Message}, nil
}

// CurrentUser fetches the user resource.
func (u *UserClient) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	var usr domain.User
	if err := u.do(ctx, http.MethodGet, "/v1/users/"+url.PathEscape(userID), nil, &usr); err != nil {
		return nil, err
	}
	return &usr, nil
}

// VerifiedContact returns the user snapshot split into verified and
// unverified contact records.
func (u *UserClient) VerifiedContact(ctx context.Context, userID string) (*domain.AuthData, error) {
	usr, err := u.CurrentUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return domain.NewAuthData(usr), nil
}

func (u *UserClient) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if u.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+u.bearer)
	}

	resp, err := u.c.http.Do(req)
	if err != nil {
		return fmt.Errorf("auth api %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env messageEnvelope
		_ = json.Unmarshal(raw, &env)
		return &APIError{Status: resp.StatusCode, Message: env.Error}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
