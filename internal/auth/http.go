package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"inkwell/internal/observability"
)

// HTTPProvider talks to the hosted auth service over its REST API using the
// project anon key. It is the production Provider implementation.
type HTTPProvider struct {
	BaseURL    string
	AnonKey    string
	HTTPClient *http.Client
}

// NewHTTPProvider creates a provider for the hosted auth service at baseURL.
func NewHTTPProvider(baseURL, anonKey string) *HTTPProvider {
	return &HTTPProvider{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		AnonKey:    anonKey,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// serviceError is the hosted service's error body shape. Older endpoints use
// msg, newer ones error_description.
type serviceError struct {
	Msg         string `json:"msg"`
	Message     string `json:"message"`
	Description string `json:"error_description"`
}

func (e *serviceError) text() string {
	switch {
	case e.Description != "":
		return e.Description
	case e.Msg != "":
		return e.Msg
	default:
		return e.Message
	}
}

// SignUp registers a new credential pair and returns the issued session.
func (p *HTTPProvider) SignUp(ctx context.Context, email, password string) (*Session, error) {
	return p.credentialCall(ctx, "/auth/v1/signup", email, password)
}

// SignIn exchanges a credential pair for a session.
func (p *HTTPProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	return p.credentialCall(ctx, "/auth/v1/token?grant_type=password", email, password)
}

func (p *HTTPProvider) credentialCall(ctx context.Context, path, email, password string) (*Session, error) {
	ctx, span := observability.TraceAuthCall(ctx, "credentials")
	defer span.End()

	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", p.AnonKey)

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth service unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, p.mapError(resp.StatusCode, raw)
	}

	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode auth response: %w", err)
	}
	return &session, nil
}

// ResolveToken asks the auth service which identity the bearer token belongs to.
func (p *HTTPProvider) ResolveToken(ctx context.Context, token string) (*Identity, error) {
	ctx, span := observability.TraceAuthCall(ctx, "resolve_token")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", p.AnonKey)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrInvalidToken
	}

	var identity Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, fmt.Errorf("decode identity: %w", err)
	}
	if identity.ID == "" {
		return nil, ErrInvalidToken
	}
	return &identity, nil
}

func (p *HTTPProvider) mapError(status int, raw []byte) error {
	var svcErr serviceError
	_ = json.Unmarshal(raw, &svcErr)
	msg := svcErr.text()

	switch {
	case status == http.StatusTooManyRequests || strings.Contains(strings.ToLower(msg), "rate limit"):
		return ErrRateLimited
	case strings.Contains(strings.ToLower(msg), "already registered"):
		return ErrUserExists
	case status == http.StatusBadRequest || status == http.StatusUnauthorized:
		return ErrInvalidCredentials
	default:
		if msg == "" {
			msg = string(raw)
		}
		return fmt.Errorf("auth service error (%d): %s", status, msg)
	}
}
