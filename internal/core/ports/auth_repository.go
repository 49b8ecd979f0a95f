package ports

import (
	"context"

	"github.com/mvcmarket/marketplace/internal/core/domain"
)

// UserDirectory is the roster of accounts known to the marketplace.
type UserDirectory interface {
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// List returns the roster in registration order.
	List(ctx context.Context) ([]domain.User, error)
	Remove(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// CredentialProvider is one link of the login/registration chain. Returning
// domain.ErrNotHandled passes control to the next provider; any other error
// ends the attempt.
type CredentialProvider interface {
	Name() string
	Authenticate(ctx context.Context, username, secret string) (*domain.User, error)
	Register(ctx context.Context, username, secret, email string) (*domain.User, error)
}

// SessionStore persists the single active session between restarts.
type SessionStore interface {
	// Load returns (nil, nil) when no session is stored.
	Load(ctx context.Context) (*domain.User, error)
	Save(ctx context.Context, user domain.User) error
	Clear(ctx context.Context) error
}
