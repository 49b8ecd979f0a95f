package ports

import (
	"context"

	"github.com/mvcmarket/marketplace/internal/core/domain"
)

// SessionService owns the single active session of the process.
type SessionService interface {
	// Restore rehydrates the session from the store. A missing or unreadable
	// entry leaves the process unauthenticated.
	Restore(ctx context.Context) *domain.User
	Login(ctx context.Context, username, secret string) (*domain.User, error)
	Register(ctx context.Context, username, secret, email string) (*domain.User, error)
	Logout(ctx context.Context)
	Current() *domain.User
	IsAuthenticated() bool
	IsAdmin() bool
}

// AdminService holds moderation use cases. Every call requires an admin actor.
type AdminService interface {
	Users(ctx context.Context, actor domain.User) ([]domain.User, error)
	RemoveUser(ctx context.Context, actor domain.User, userID string) error
}
