package ports

import (
	"context"

	"github.com/mvcmarket/marketplace/internal/core/domain"
)

// CreateListingInput carries a listing draft as entered by the seller. Price
// is kept textual so the service owns the parse.
type CreateListingInput struct {
	Kind        domain.ListingKind
	Title       string
	Description string
	Price       string
	Category    string
	Condition   string
	Tag         string
	Location    string
	Media       []string
}

// CatalogStats feeds the dashboard charts.
type CatalogStats struct {
	Kind         domain.ListingKind
	Listings     int
	TotalValue   float64
	AveragePrice float64
	Categories   []domain.FacetCount
	Conditions   []domain.FacetCount
}

// CatalogService defines use-case operations on the shared catalog.
type CatalogService interface {
	Browse(ctx context.Context, q domain.ListingQuery) ([]domain.Listing, error)
	MyListings(ctx context.Context, owner domain.User, q domain.ListingQuery) ([]domain.Listing, error)
	Get(ctx context.Context, id string) (*domain.Listing, error)
	Featured(ctx context.Context, n int) ([]domain.Listing, error)
	Create(ctx context.Context, actor domain.User, in CreateListingInput) (*domain.Listing, error)
	Delete(ctx context.Context, actor domain.User, id string) error
	Refresh(ctx context.Context) error
	Stats(ctx context.Context, kind domain.ListingKind) (*CatalogStats, error)
}
