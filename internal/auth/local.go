package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// LocalProvider is an in-process Provider for development and tests. It issues
// HS256 tokens over an in-memory credential table. Never selected in
// production; config validation requires the hosted service there.
type LocalProvider struct {
	secret   []byte
	tokenTTL time.Duration

	mu    sync.Mutex
	users map[string]localUser // keyed by lowercased email
}

type localUser struct {
	id    string
	email string
	hash  []byte
}

// NewLocalProvider creates a LocalProvider signing tokens with secret.
func NewLocalProvider(secret string) *LocalProvider {
	return &LocalProvider{
		secret:   []byte(secret),
		tokenTTL: time.Hour,
		users:    make(map[string]localUser),
	}
}

// WithTokenTTL overrides the issued token lifetime. A negative TTL produces
// already-expired tokens, which tests use to exercise the expiry path.
func (p *LocalProvider) WithTokenTTL(ttl time.Duration) *LocalProvider {
	p.tokenTTL = ttl
	return p
}

// SignUp registers the credential pair and returns a fresh session.
func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (*Session, error) {
	key := strings.ToLower(strings.TrimSpace(email))

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	if _, exists := p.users[key]; exists {
		p.mu.Unlock()
		return nil, ErrUserExists
	}
	u := localUser{id: uuid.NewString(), email: key, hash: hash}
	p.users[key] = u
	p.mu.Unlock()

	return p.issueSession(u)
}

// SignIn verifies the credential pair and returns a fresh session.
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	key := strings.ToLower(strings.TrimSpace(email))

	p.mu.Lock()
	u, exists := p.users[key]
	p.mu.Unlock()

	if !exists {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.hash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return p.issueSession(u)
}

// ResolveToken validates the token signature and expiry and returns the identity.
func (p *LocalProvider) ResolveToken(ctx context.Context, token string) (*Identity, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return p.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	if sub == "" {
		return nil, ErrInvalidToken
	}
	return &Identity{ID: sub, Email: email}, nil
}

func (p *LocalProvider) issueSession(u localUser) (*Session, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   u.id,
		"email": u.email,
		"iss":   "inkwell-auth",
		"iat":   now.Unix(),
		"exp":   now.Add(p.tokenTTL).Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return nil, err
	}

	return &Session{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(p.tokenTTL.Seconds()),
		User:        Identity{ID: u.id, Email: u.email},
	}, nil
}
