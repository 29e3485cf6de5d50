// Package client is a Go consumer for the blog API. It owns token storage
// behind an injectable TokenStore and translates provider error messages into
// text fit for end users.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"inkwell/internal/models"
)

// TokenStore persists the caller's access token between requests.
type TokenStore interface {
	Token() string
	SetToken(token string) error
	Clear() error
}

// MemoryTokenStore is the default in-process TokenStore.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

func (s *MemoryTokenStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *MemoryTokenStore) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

// APIError is a non-2xx response decoded into the API's error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// Identity mirrors the API's resolved user identity.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session mirrors the API's issued session.
type Session struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	ExpiresIn   int      `json:"expires_in"`
	User        Identity `json:"user"`
}

// AuthResult is the response body of signin/signup.
type AuthResult struct {
	User    Identity `json:"user"`
	Session Session  `json:"session"`
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTokenStore overrides the token store.
func WithTokenStore(ts TokenStore) Option {
	return func(c *Client) { c.tokens = ts }
}

// Client talks to the blog API.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore
}

// New creates a Client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		tokens:  &MemoryTokenStore{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// translateAuthMessage rewrites provider error text into user-facing wording.
// Unrecognized messages pass through unchanged.
func translateAuthMessage(msg string) string {
	if msg == "Invalid login credentials" {
		return "Incorrect email or password."
	}
	if strings.Contains(strings.ToLower(msg), "email rate limit") {
		return "Too many attempts. Please try again later."
	}
	return msg
}

// Login signs in and stores the session token on success.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	return c.authenticate(ctx, "/auth/signin", email, password)
}

// Register signs up and stores the session token on success.
func (c *Client) Register(ctx context.Context, email, password string) (*AuthResult, error) {
	return c.authenticate(ctx, "/auth/signup", email, password)
}

func (c *Client) authenticate(ctx context.Context, path, email, password string) (*AuthResult, error) {
	var result AuthResult
	err := c.do(ctx, http.MethodPost, path, map[string]string{
		"email":    email,
		"password": password,
	}, &result)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			apiErr.Message = translateAuthMessage(apiErr.Message)
			return nil, apiErr
		}
		return nil, err
	}

	if err := c.tokens.SetToken(result.Session.AccessToken); err != nil {
		return nil, fmt.Errorf("storing token: %w", err)
	}
	return &result, nil
}

// Logout discards the stored token.
func (c *Client) Logout() error {
	return c.tokens.Clear()
}

// IsAuthenticated reports whether a token is currently stored.
func (c *Client) IsAuthenticated() bool {
	return c.tokens.Token() != ""
}

// ListOptions are the query parameters of the list endpoint.
type ListOptions struct {
	Page  int
	Limit int
	Query string
}

// ListPosts fetches a page of posts.
func (c *Client) ListPosts(ctx context.Context, opts ListOptions) (*models.PostList, error) {
	params := url.Values{}
	if opts.Page > 0 {
		params.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Query != "" {
		params.Set("q", opts.Query)
	}

	path := "/posts"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var list models.PostList
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetPost fetches a single post by numeric ID or slug.
func (c *Client) GetPost(ctx context.Context, idOrSlug string) (*models.Post, error) {
	var post models.Post
	if err := c.do(ctx, http.MethodGet, "/posts/"+url.PathEscape(idOrSlug), nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// PostInput is the create-post request body.
type PostInput struct {
	Title   string          `json:"title"`
	Content string          `json:"content"`
	Slug    string          `json:"slug,omitempty"`
	Date    *string         `json:"date,omitempty"`
	Cover   *string         `json:"cover,omitempty"`
	Tag     json.RawMessage `json:"tag,omitempty"`
	Author  string          `json:"author,omitempty"`
}

// CreatePost creates a post. Requires authentication.
func (c *Client) CreatePost(ctx context.Context, input PostInput) (*models.Post, error) {
	var post models.Post
	if err := c.do(ctx, http.MethodPost, "/posts", input, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// PostUpdate is the update-post request body. Nil fields are left untouched.
type PostUpdate struct {
	Title   *string         `json:"title,omitempty"`
	Content *string         `json:"content,omitempty"`
	Slug    *string         `json:"slug,omitempty"`
	Date    *string         `json:"date,omitempty"`
	Cover   *string         `json:"cover,omitempty"`
	Tag     json.RawMessage `json:"tag,omitempty"`
	Author  *string         `json:"author,omitempty"`
}

// UpdatePost updates a post by ID. Requires authentication.
func (c *Client) UpdatePost(ctx context.Context, id uint, update PostUpdate) (*models.Post, error) {
	var post models.Post
	path := "/posts/" + strconv.FormatUint(uint64(id), 10)
	if err := c.do(ctx, http.MethodPut, path, update, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// DeletePost deletes a post by ID. Requires authentication.
func (c *Client) DeletePost(ctx context.Context, id uint) error {
	path := "/posts/" + strconv.FormatUint(uint64(id), 10)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// Route describes a navigable destination and whether it needs a session.
type Route struct {
	Name         string
	RequiresAuth bool
}

// Guard resolves where navigation to target should land: the target itself,
// or loginRoute when the target needs a session and none is stored.
func (c *Client) Guard(target, loginRoute Route) Route {
	if target.RequiresAuth && !c.IsAuthenticated() {
		return loginRoute
	}
	return target
}

// do performs a request, attaching the stored token when present, and decodes
// the response into out (when non-nil). Non-2xx responses become *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var envelope models.ErrorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&envelope); decodeErr == nil {
			apiErr.Message = envelope.Error
			apiErr.Code = envelope.Code
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
