// Package auth abstracts the external hosted auth service behind an injected
// Provider interface so handlers never touch credential or token internals and
// tests can substitute a local implementation.
package auth

import (
	"context"
	"errors"
)

// Identity is a resolved user identity from the auth service.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is an issued credential session.
type Session struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	ExpiresIn   int      `json:"expires_in"`
	User        Identity `json:"user"`
}

// Sentinel errors distinguishing caller-actionable failures from generic ones.
var (
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrRateLimited        = errors.New("email rate limit exceeded")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUserExists         = errors.New("user already registered")
)

// Provider resolves credentials to sessions and tokens to identities.
//
// Two operations reach the hosted service: credentials -> token (SignIn/SignUp)
// and token -> identity (ResolveToken). Everything else about authentication is
// the provider's business.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	ResolveToken(ctx context.Context, token string) (*Identity, error)
}
