package memory

import (
	"context"
	"sync"

	"github.com/mvcmarket/marketplace/internal/core/domain"
)

// ListingRepository keeps the catalog in insertion order behind a RWMutex.
// Every read and write copies, so no caller shares storage with another.
type ListingRepository struct {
	mu       sync.RWMutex
	listings []domain.Listing
}

func NewListingRepository(seed []domain.Listing) *ListingRepository {
	r := &ListingRepository{listings: make([]domain.Listing, 0, len(seed))}
	for _, l := range seed {
		r.listings = append(r.listings, l.Clone())
	}
	return r
}

func (r *ListingRepository) Insert(_ context.Context, l domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.index(l.ID) >= 0 {
		return domain.ErrDuplicateListing
	}
	r.listings = append(r.listings, l.Clone())
	return nil
}

func (r *ListingRepository) Delete(_ context.Context, id string) (*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(id)
	if i < 0 {
		return nil, domain.ErrListingNotFound
	}
	removed := r.listings[i]
	r.listings = append(r.listings[:i:i], r.listings[i+1:]...)
	return &removed, nil
}

func (r *ListingRepository) DeleteByOwner(_ context.Context, ownerID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := make([]domain.Listing, 0, len(r.listings))
	for _, l := range r.listings {
		if l.UserID != ownerID {
			kept = append(kept, l)
		}
	}
	removed := len(r.listings) - len(kept)
	r.listings = kept
	return removed, nil
}

func (r *ListingRepository) FindByID(_ context.Context, id string) (*domain.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := r.index(id)
	if i < 0 {
		return nil, domain.ErrListingNotFound
	}
	l := r.listings[i].Clone()
	return &l, nil
}

func (r *ListingRepository) List(_ context.Context) ([]domain.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Listing, len(r.listings))
	for i, l := range r.listings {
		out[i] = l.Clone()
	}
	return out, nil
}

func (r *ListingRepository) Replace(_ context.Context, kind domain.ListingKind, ls []domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := make([]domain.Listing, 0, len(r.listings)+len(ls))
	for _, l := range r.listings {
		if l.Kind != kind {
			next = append(next, l)
		}
	}
	for _, l := range ls {
		l.Kind = kind
		next = append(next, l.Clone())
	}
	r.listings = next
	return nil
}

func (r *ListingRepository) index(id string) int {
	for i, l := range r.listings {
		if l.ID == id {
			return i
		}
	}
	return -1
}
