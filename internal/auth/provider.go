// Package auth defines the identity port. Session management itself
// lives outside this service; all it needs is a way to resolve a
// session token to a stable user id.
package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/albertomtferreira/devflow/internal/models"
)

// ErrInvalidSession means the token does not resolve to a user.
var ErrInvalidSession = errors.New("invalid session")

// Provider resolves session tokens to acting identities.
type Provider interface {
	ValidateSession(ctx context.Context, token string) (*models.User, error)
}

// StaticProvider is a fixed token-to-user table. It backs tests and
// single-user dev runs; production deployments plug in the real
// session service.
type StaticProvider struct {
	mu     sync.RWMutex
	tokens map[string]models.User
}

var _ Provider = (*StaticProvider)(nil)

// NewStaticProvider creates an empty provider.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{tokens: make(map[string]models.User)}
}

// Register maps a token to a user.
func (p *StaticProvider) Register(token string, user models.User) {
	p.mu.Lock()
	p.tokens[token] = user
	p.mu.Unlock()
}

// ValidateSession resolves a registered token.
func (p *StaticProvider) ValidateSession(_ context.Context, token string) (*models.User, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	user, ok := p.tokens[token]
	if !ok {
		return nil, ErrInvalidSession
	}
	return &user, nil
}
