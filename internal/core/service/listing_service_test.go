package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mvcmarket/marketplace/internal/core/domain"
	"github.com/mvcmarket/marketplace/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var t0 = time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)

func item(id, owner string, price float64, day int) domain.Listing {
	return domain.Listing{
		ID:          id,
		UserID:      owner,
		Kind:        domain.KindItem,
		Title:       "Item " + id,
		Description: "Description " + id,
		Price:       price,
		Category:    "Electronics",
		Condition:   "good",
		Location:    "Boston, MA",
		Media:       []string{"/placeholder.svg"},
		CreatedAt:   t0.AddDate(0, 0, day),
		UpdatedAt:   t0.AddDate(0, 0, day),
	}
}

func seededListings() *stubListingRepo {
	return &stubListingRepo{listings: []domain.Listing{
		item("1", "1", 1899.99, 1),
		item("2", "2", 120, 2),
		item("3", "1", 650, 3),
		item("4", "2", 3500, 4),
	}}
}

func newCatalogSvc(repo *stubListingRepo, backend *stubBackend, pub *stubPublisher, notifier *stubNotifier) *CatalogService {
	var b ports.Backend
	if backend != nil {
		b = backend
	}
	svc := NewCatalogService(repo, b, pub, notifier, 0, zerolog.Nop())
	svc.now = func() time.Time { return t0 }
	svc.newID = func() string { return "fresh-id" }
	return svc
}

func validInput() ports.CreateListingInput {
	return ports.CreateListingInput{
		Kind:        domain.KindItem,
		Title:       "Road bike",
		Description: "Barely used",
		Price:       "450.50",
		Category:    "Sports & Outdoors",
		Condition:   "like new",
		Location:    "Portland, OR",
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestCatalogService_Browse_DefaultPriceCeiling(t *testing.T) {
	svc := newCatalogSvc(seededListings(), nil, &stubPublisher{}, &stubNotifier{})

	got, err := svc.Browse(context.Background(), domain.ListingQuery{})
	if err != nil {
		t.Fatalf("Browse returned error: %v", err)
	}
	// Listing 4 is above the default ceiling; the rest come newest first.
	want := []string{"3", "2", "1"}
	if len(got) != len(want) {
		t.Fatalf("expected %d listings, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
}

func TestCatalogService_Browse_ExplicitRange(t *testing.T) {
	svc := newCatalogSvc(seededListings(), nil, &stubPublisher{}, &stubNotifier{})

	got, _ := svc.Browse(context.Background(), domain.ListingQuery{Price: &domain.PriceRange{Lo: 0, Hi: 10000}, Sort: domain.SortPriceDesc})
	if len(got) != 4 || got[0].ID != "4" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestCatalogService_MyListings_Offline(t *testing.T) {
	svc := newCatalogSvc(seededListings(), nil, &stubPublisher{}, &stubNotifier{})

	got, err := svc.MyListings(context.Background(), muser, domain.ListingQuery{Sort: domain.SortOldest})
	if err != nil {
		t.Fatalf("MyListings returned error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "3" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestCatalogService_MyListings_Backend(t *testing.T) {
	backend := &stubBackend{owner: map[string][]domain.Listing{"1": {item("r1", "1", 10, 1)}}}
	svc := newCatalogSvc(&stubListingRepo{}, backend, &stubPublisher{}, &stubNotifier{})

	got, err := svc.MyListings(context.Background(), muser, domain.ListingQuery{Kind: domain.KindItem})
	if err != nil {
		t.Fatalf("MyListings returned error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "r1" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestCatalogService_Featured(t *testing.T) {
	svc := newCatalogSvc(seededListings(), nil, &stubPublisher{}, &stubNotifier{})

	got, _ := svc.Featured(context.Background(), 2)
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "2" {
		t.Fatalf("expected first two in source order, got %+v", got)
	}
}

func TestCatalogService_Create_Offline(t *testing.T) {
	repo := &stubListingRepo{}
	pub := &stubPublisher{}
	notifier := &stubNotifier{}
	svc := newCatalogSvc(repo, nil, pub, notifier)

	l, err := svc.Create(context.Background(), muser, validInput())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if l.ID != "fresh-id" || l.UserID != "1" || l.Price != 450.50 || !l.CreatedAt.Equal(t0) {
		t.Fatalf("unexpected listing: %+v", l)
	}
	if len(l.Media) != 1 || l.Media[0] != placeholderImage {
		t.Fatalf("expected placeholder image, got %v", l.Media)
	}
	if len(repo.listings) != 1 {
		t.Fatalf("expected listing to be stored")
	}
	if len(pub.events) != 1 || pub.events[0].Type != domain.EventListingCreated {
		t.Fatalf("expected listing.created event, got %+v", pub.events)
	}
	if notifier.last().Level != domain.LevelSuccess {
		t.Fatalf("expected success toast")
	}
}

func TestCatalogService_Create_Validation(t *testing.T) {
	cases := map[string]func(*ports.CreateListingInput){
		"missing title":    func(in *ports.CreateListingInput) { in.Title = "" },
		"price not number": func(in *ports.CreateListingInput) { in.Price = "cheap" },
		"negative price":   func(in *ports.CreateListingInput) { in.Price = "-3" },
		"missing price":    func(in *ports.CreateListingInput) { in.Price = " " },
		"bad condition":    func(in *ports.CreateListingInput) { in.Condition = "mint" },
		"music without url": func(in *ports.CreateListingInput) {
			in.Kind = domain.KindMusic
			in.Condition = "slow"
		},
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			repo := &stubListingRepo{}
			notifier := &stubNotifier{}
			svc := newCatalogSvc(repo, nil, &stubPublisher{}, notifier)

			in := validInput()
			mutate(&in)
			if _, err := svc.Create(context.Background(), muser, in); !errors.Is(err, domain.ErrInvalidListing) {
				t.Fatalf("expected ErrInvalidListing, got %v", err)
			}
			if len(repo.listings) != 0 {
				t.Fatalf("collection must not change")
			}
			if notifier.last().Level != domain.LevelError {
				t.Fatalf("expected error toast")
			}
		})
	}
}

func TestCatalogService_Create_BackendFailureLeavesCollection(t *testing.T) {
	repo := &stubListingRepo{}
	backend := &stubBackend{err: domain.ErrBackendUnavailable}
	svc := newCatalogSvc(repo, backend, &stubPublisher{}, &stubNotifier{})

	if _, err := svc.Create(context.Background(), muser, validInput()); !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if len(repo.listings) != 0 {
		t.Fatalf("collection must not change on backend failure")
	}
}

func TestCatalogService_Create_AdoptsBackendRecord(t *testing.T) {
	repo := &stubListingRepo{}
	svc := newCatalogSvc(repo, &stubBackend{}, &stubPublisher{}, &stubNotifier{})

	l, err := svc.Create(context.Background(), muser, validInput())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if l.ID != "remote-1" || repo.listings[0].ID != "remote-1" {
		t.Fatalf("expected backend id to be adopted, got %+v", l)
	}
}

func TestCatalogService_Delete_RemovesExactlyOne(t *testing.T) {
	repo := seededListings()
	pub := &stubPublisher{}
	svc := newCatalogSvc(repo, nil, pub, &stubNotifier{})

	if err := svc.Delete(context.Background(), muser, "3"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if len(repo.listings) != 3 {
		t.Fatalf("expected 3 listings left, got %d", len(repo.listings))
	}
	for _, l := range repo.listings {
		if l.ID == "3" {
			t.Fatalf("listing 3 still present")
		}
	}
	if len(pub.events) != 1 || pub.events[0].Type != domain.EventListingDeleted {
		t.Fatalf("expected listing.deleted event, got %+v", pub.events)
	}
}

func TestCatalogService_Delete_Forbidden(t *testing.T) {
	repo := seededListings()
	svc := newCatalogSvc(repo, nil, &stubPublisher{}, &stubNotifier{})

	if err := svc.Delete(context.Background(), muser, "2"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if len(repo.listings) != 4 {
		t.Fatalf("collection must not change")
	}
}

func TestCatalogService_Delete_AdminMayRemoveAny(t *testing.T) {
	repo := seededListings()
	backend := &stubBackend{}
	svc := newCatalogSvc(repo, backend, &stubPublisher{}, &stubNotifier{})

	if err := svc.Delete(context.Background(), mvc, "1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if len(backend.deleted) != 1 || backend.deleted[0] != "1" {
		t.Fatalf("expected remote delete, got %v", backend.deleted)
	}
}

func TestCatalogService_Delete_NotFound(t *testing.T) {
	svc := newCatalogSvc(seededListings(), nil, &stubPublisher{}, &stubNotifier{})

	if err := svc.Delete(context.Background(), mvc, "nope"); !errors.Is(err, domain.ErrListingNotFound) {
		t.Fatalf("expected ErrListingNotFound, got %v", err)
	}
}

func TestCatalogService_Delete_ListingOnlyKnownRemotely(t *testing.T) {
	repo := &stubListingRepo{}
	remote := item("r1", muser.ID, 80, 1)
	backend := &stubBackend{owner: map[string][]domain.Listing{muser.ID: {remote}}}
	pub := &stubPublisher{}
	svc := newCatalogSvc(repo, backend, pub, &stubNotifier{})

	mine, err := svc.MyListings(context.Background(), muser, domain.ListingQuery{})
	if err != nil {
		t.Fatalf("MyListings returned error: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != "r1" {
		t.Fatalf("expected r1 on the dashboard, got %+v", mine)
	}

	if err := svc.Delete(context.Background(), muser, "r1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if len(backend.deleted) != 1 || backend.deleted[0] != "r1" {
		t.Fatalf("expected remote delete of r1, got %v", backend.deleted)
	}
	if len(pub.events) != 1 || pub.events[0].ListingID != "r1" || pub.events[0].UserID != muser.ID {
		t.Fatalf("expected listing.deleted for r1, got %+v", pub.events)
	}
}

func TestCatalogService_Delete_UnknownEverywhere(t *testing.T) {
	backend := &stubBackend{owner: map[string][]domain.Listing{muser.ID: {item("r1", muser.ID, 80, 1)}}}
	svc := newCatalogSvc(&stubListingRepo{}, backend, &stubPublisher{}, &stubNotifier{})

	if err := svc.Delete(context.Background(), muser, "r2"); !errors.Is(err, domain.ErrListingNotFound) {
		t.Fatalf("expected ErrListingNotFound, got %v", err)
	}
	if len(backend.deleted) != 0 {
		t.Fatalf("no remote delete expected, got %v", backend.deleted)
	}
}

func TestCatalogService_Refresh(t *testing.T) {
	repo := seededListings()
	backend := &stubBackend{listings: map[domain.ListingKind][]domain.Listing{
		domain.KindItem:  {item("x", "1", 5, 1)},
		domain.KindMusic: {item("m", "2", 1, 1)},
	}}
	svc := newCatalogSvc(repo, backend, &stubPublisher{}, &stubNotifier{})

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if len(repo.listings) != 2 {
		t.Fatalf("expected collection to be replaced, got %d entries", len(repo.listings))
	}
	for _, l := range repo.listings {
		if l.ID == "m" && l.Kind != domain.KindMusic {
			t.Fatalf("expected music kind to be stamped, got %s", l.Kind)
		}
	}
}

func TestCatalogService_Refresh_FailureKeepsLocalState(t *testing.T) {
	repo := seededListings()
	notifier := &stubNotifier{}
	svc := newCatalogSvc(repo, &stubBackend{listErr: domain.ErrBackendUnavailable}, &stubPublisher{}, notifier)

	if err := svc.Refresh(context.Background()); !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if len(repo.listings) != 4 {
		t.Fatalf("local state must be kept")
	}
	if notifier.last().Level != domain.LevelError {
		t.Fatalf("expected error toast")
	}
}

func TestCatalogService_Stats(t *testing.T) {
	svc := newCatalogSvc(seededListings(), nil, &stubPublisher{}, &stubNotifier{})

	stats, err := svc.Stats(context.Background(), domain.KindItem)
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if stats.Listings != 4 {
		t.Fatalf("expected 4 listings, got %d", stats.Listings)
	}
	if len(stats.Categories) != 1 || stats.Categories[0].Count != 4 {
		t.Fatalf("unexpected categories: %+v", stats.Categories)
	}
	if len(stats.Conditions) != len(domain.Conditions) {
		t.Fatalf("expected every condition, got %+v", stats.Conditions)
	}
	if stats.AveragePrice != 1542.5 {
		t.Fatalf("unexpected average price: %v", stats.AveragePrice)
	}
}
