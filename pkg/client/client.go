// Package client is the HTTP client for the academic-erp API, used by the
// web frontend. Every call is context-aware and returns *APIError for
// non-2xx responses, with the server's message extracted when the body
// carries one.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"academic-erp/pkg/models"
)

// APIError is a non-2xx response from the API.
type APIError struct {
	Status           int
	Message          string
	ValidationErrors map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// TokenSource supplies the bearer token per request. An empty token omits
// the Authorization header.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed-token TokenSource.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// Client talks to the academic-erp API.
type Client struct {
	base   string
	http   *http.Client
	tokens TokenSource
}

// New creates a client for the API at base. tokens may be nil for
// unauthenticated use.
func New(base string, tokens TokenSource) *Client {
	return &Client{
		base:   strings.TrimRight(base, "/"),
		http:   &http.Client{Timeout: 15 * time.Second},
		tokens: tokens,
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiErrorFrom(resp, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// apiErrorFrom normalizes error bodies: a JSON body yields its message field
// (plus field errors), a text body is used verbatim, anything else falls back
// to the status text.
func apiErrorFrom(resp *http.Response, data []byte) *APIError {
	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	switch {
	case strings.Contains(mediaType, "json"):
		var body struct {
			Message          string            `json:"message"`
			ValidationErrors map[string]string `json:"validationErrors"`
		}
		if err := json.Unmarshal(data, &body); err == nil && body.Message != "" {
			apiErr.Message = body.Message
			apiErr.ValidationErrors = body.ValidationErrors
		} else if text := strings.TrimSpace(string(data)); text != "" {
			apiErr.Message = text
		}
	default:
		if text := strings.TrimSpace(string(data)); text != "" {
			apiErr.Message = text
		}
	}
	return apiErr
}

// ListAll fetches every organisation.
func (c *Client) ListAll(ctx context.Context) ([]models.Organisation, error) {
	var orgs []models.Organisation
	if err := c.do(ctx, http.MethodGet, "/api/organisations", nil, nil, &orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}

// Search fetches organisations matching term.
func (c *Client) Search(ctx context.Context, term string) ([]models.Organisation, error) {
	q := url.Values{"searchTerm": {term}}
	var orgs []models.Organisation
	if err := c.do(ctx, http.MethodGet, "/api/organisations/search", q, nil, &orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}

// GetByID fetches one organisation.
func (c *Client) GetByID(ctx context.Context, id int64) (*models.Organisation, error) {
	var org models.Organisation
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/organisations/%d", id), nil, nil, &org); err != nil {
		return nil, err
	}
	return &org, nil
}

// Create stores a new organisation and returns it with its assigned id.
func (c *Client) Create(ctx context.Context, req *models.OrganisationRequest) (*models.Organisation, error) {
	var org models.Organisation
	if err := c.do(ctx, http.MethodPost, "/api/organisations", nil, req, &org); err != nil {
		return nil, err
	}
	return &org, nil
}

// Update replaces an organisation's fields.
func (c *Client) Update(ctx context.Context, id int64, req *models.OrganisationUpdate) (*models.Organisation, error) {
	var org models.Organisation
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/organisations/%d", id), nil, req, &org); err != nil {
		return nil, err
	}
	return &org, nil
}

// Remove deletes an organisation.
func (c *Client) Remove(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/organisations/%d", id), nil, nil, nil)
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, username, password string) (*models.TokenResponse, error) {
	var resp models.TokenResponse
	req := models.LoginRequest{Username: username, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UserInfo resolves a token to the holder's profile.
func (c *Client) UserInfo(ctx context.Context, token string) (*models.UserInfo, error) {
	var info models.UserInfo
	req := models.UserInfoRequest{Token: token}
	if err := c.do(ctx, http.MethodPost, "/api/auth/user-info", nil, req, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ExchangeCode trades an OAuth authorization code for a token.
func (c *Client) ExchangeCode(ctx context.Context, code, state string) (*models.TokenResponse, error) {
	var resp models.TokenResponse
	req := models.OAuthExchangeRequest{Code: code, State: state}
	if err := c.do(ctx, http.MethodPost, "/api/auth/oauth/token", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
