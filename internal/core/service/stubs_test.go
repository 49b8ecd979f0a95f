package service

import (
	"context"
	"sync"

	"github.com/mvcmarket/marketplace/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Shared stubs
// ---------------------------------------------------------------------------

type stubNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (n *stubNotifier) Notify(_ context.Context, note domain.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, note)
}

func (n *stubNotifier) last() domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		return domain.Notification{}
	}
	return n.sent[len(n.sent)-1]
}

type stubPublisher struct {
	events []domain.CatalogEvent
	err    error
}

func (p *stubPublisher) Publish(_ context.Context, e domain.CatalogEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

type stubDirectory struct {
	users     []domain.User
	lookupErr error
}

func (d *stubDirectory) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	if d.lookupErr != nil {
		return nil, d.lookupErr
	}
	for _, u := range d.users {
		if domain.UsernameKey(u.Username) == domain.UsernameKey(username) {
			clone := u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (d *stubDirectory) FindByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range d.users {
		if u.ID == id {
			clone := u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (d *stubDirectory) List(_ context.Context) ([]domain.User, error) {
	return append([]domain.User(nil), d.users...), nil
}

func (d *stubDirectory) Remove(_ context.Context, id string) error {
	for i, u := range d.users {
		if u.ID == id {
			d.users = append(d.users[:i], d.users[i+1:]...)
			return nil
		}
	}
	return domain.ErrUserNotFound
}

func (d *stubDirectory) Count(_ context.Context) (int, error) {
	return len(d.users), nil
}

type stubListingRepo struct {
	listings  []domain.Listing
	insertErr error
}

func (r *stubListingRepo) Insert(_ context.Context, l domain.Listing) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	for _, x := range r.listings {
		if x.ID == l.ID {
			return domain.ErrDuplicateListing
		}
	}
	r.listings = append(r.listings, l.Clone())
	return nil
}

func (r *stubListingRepo) Delete(_ context.Context, id string) (*domain.Listing, error) {
	for i, l := range r.listings {
		if l.ID == id {
			r.listings = append(r.listings[:i], r.listings[i+1:]...)
			return &l, nil
		}
	}
	return nil, domain.ErrListingNotFound
}

func (r *stubListingRepo) DeleteByOwner(_ context.Context, ownerID string) (int, error) {
	kept := r.listings[:0]
	removed := 0
	for _, l := range r.listings {
		if l.UserID == ownerID {
			removed++
			continue
		}
		kept = append(kept, l)
	}
	r.listings = kept
	return removed, nil
}

func (r *stubListingRepo) FindByID(_ context.Context, id string) (*domain.Listing, error) {
	for _, l := range r.listings {
		if l.ID == id {
			clone := l.Clone()
			return &clone, nil
		}
	}
	return nil, domain.ErrListingNotFound
}

func (r *stubListingRepo) List(_ context.Context) ([]domain.Listing, error) {
	out := make([]domain.Listing, len(r.listings))
	for i, l := range r.listings {
		out[i] = l.Clone()
	}
	return out, nil
}

func (r *stubListingRepo) Replace(_ context.Context, kind domain.ListingKind, ls []domain.Listing) error {
	kept := r.listings[:0]
	for _, l := range r.listings {
		if l.Kind != kind {
			kept = append(kept, l)
		}
	}
	r.listings = append(kept, ls...)
	return nil
}

type stubBackend struct {
	listings map[domain.ListingKind][]domain.Listing
	listErr  error
	owner    map[string][]domain.Listing
	created  []domain.Listing
	deleted  []string
	err      error
}

func (b *stubBackend) Login(context.Context, string, string) (*domain.User, error) {
	return nil, domain.ErrInvalidCredentials
}

func (b *stubBackend) Register(context.Context, string, string, string) (*domain.User, error) {
	return nil, domain.ErrUserExists
}

func (b *stubBackend) ListListings(_ context.Context, kind domain.ListingKind) ([]domain.Listing, error) {
	if b.listErr != nil {
		return nil, b.listErr
	}
	return append([]domain.Listing(nil), b.listings[kind]...), nil
}

func (b *stubBackend) ListOwnerListings(_ context.Context, kind domain.ListingKind, ownerID string) ([]domain.Listing, error) {
	if b.listErr != nil {
		return nil, b.listErr
	}
	var out []domain.Listing
	for _, l := range b.owner[ownerID] {
		if l.Kind == kind {
			out = append(out, l)
		}
	}
	return out, nil
}

func (b *stubBackend) CreateListing(_ context.Context, l domain.Listing) (*domain.Listing, error) {
	if b.err != nil {
		return nil, b.err
	}
	l.ID = "remote-1"
	b.created = append(b.created, l)
	return &l, nil
}

func (b *stubBackend) DeleteListing(_ context.Context, _ domain.ListingKind, id string, _ domain.User) error {
	if b.err != nil {
		return b.err
	}
	b.deleted = append(b.deleted, id)
	return nil
}
