package ports

import (
	"context"

	"github.com/mvcmarket/marketplace/internal/core/domain"
)

// ListingRepository owns the shared listing collection. Implementations hand
// out copies; callers never alias stored entries.
type ListingRepository interface {
	// Insert fails with domain.ErrDuplicateListing when the id is taken.
	Insert(ctx context.Context, l domain.Listing) error
	// Delete removes exactly one entry and returns it.
	Delete(ctx context.Context, id string) (*domain.Listing, error)
	// DeleteByOwner removes every listing of ownerID and reports how many went.
	DeleteByOwner(ctx context.Context, ownerID string) (int, error)
	FindByID(ctx context.Context, id string) (*domain.Listing, error)
	// List returns the collection in insertion order.
	List(ctx context.Context) ([]domain.Listing, error)
	// Replace swaps every listing of kind for ls, leaving other kinds alone.
	Replace(ctx context.Context, kind domain.ListingKind, ls []domain.Listing) error
}

// Backend is the remote marketplace REST API.
type Backend interface {
	Login(ctx context.Context, username, secret string) (*domain.User, error)
	Register(ctx context.Context, username, secret, email string) (*domain.User, error)
	ListListings(ctx context.Context, kind domain.ListingKind) ([]domain.Listing, error)
	ListOwnerListings(ctx context.Context, kind domain.ListingKind, ownerID string) ([]domain.Listing, error)
	CreateListing(ctx context.Context, l domain.Listing) (*domain.Listing, error)
	DeleteListing(ctx context.Context, kind domain.ListingKind, id string, actor domain.User) error
}

// Notifier delivers user-visible toasts.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}

// EventPublisher forwards catalog events to interested parties.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.CatalogEvent) error
}
