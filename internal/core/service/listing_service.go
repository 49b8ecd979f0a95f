package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mvcmarket/marketplace/internal/api/metrics"
	"github.com/mvcmarket/marketplace/internal/core/domain"
	"github.com/mvcmarket/marketplace/internal/core/ports"
)

const (
	defaultFeatured  = 4
	placeholderImage = "/placeholder.svg"
)

// CatalogService implements the catalog use cases over one shared listing
// collection. backend is nil in offline mode.
type CatalogService struct {
	repo         ports.ListingRepository
	backend      ports.Backend
	events       ports.EventPublisher
	notifier     ports.Notifier
	priceCeiling float64
	logger       zerolog.Logger

	now   func() time.Time
	newID func() string
}

func NewCatalogService(
	repo ports.ListingRepository,
	backend ports.Backend,
	events ports.EventPublisher,
	notifier ports.Notifier,
	priceCeiling float64,
	logger zerolog.Logger,
) *CatalogService {
	if priceCeiling <= 0 {
		priceCeiling = domain.DefaultPriceCeiling
	}
	return &CatalogService{
		repo:         repo,
		backend:      backend,
		events:       events,
		notifier:     notifier,
		priceCeiling: priceCeiling,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
		newID:        uuid.NewString,
	}
}

// Browse runs the query pipeline over the whole collection. A query without a
// price range is limited to [0, ceiling].
func (s *CatalogService) Browse(ctx context.Context, q domain.ListingQuery) ([]domain.Listing, error) {
	if q.Price == nil {
		q.Price = &domain.PriceRange{Lo: 0, Hi: s.priceCeiling}
	}
	source, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("browse: %w", err)
	}
	return s.apply(source, q), nil
}

// MyListings narrows to the owner's listings. With a backend configured the
// owner's listings are read from it.
func (s *CatalogService) MyListings(ctx context.Context, owner domain.User, q domain.ListingQuery) ([]domain.Listing, error) {
	q.OwnerID = owner.ID

	if s.backend == nil {
		source, err := s.repo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("my listings: %w", err)
		}
		return s.apply(source, q), nil
	}

	kinds := []domain.ListingKind{domain.KindItem, domain.KindMusic}
	if q.Kind != "" {
		kinds = []domain.ListingKind{q.Kind}
	}
	var source []domain.Listing
	for _, kind := range kinds {
		ls, err := s.backend.ListOwnerListings(ctx, kind, owner.ID)
		if err != nil {
			metrics.BackendErrorsTotal.WithLabelValues("list_owner").Inc()
			s.logger.Error().Err(err).Str("user_id", owner.ID).Str("kind", string(kind)).Msg("failed to fetch owner listings")
			return nil, notifyFailure(ctx, s.notifier, "Failed to load your listings", err)
		}
		source = append(source, withKind(ls, kind)...)
	}
	return s.apply(source, q), nil
}

func (s *CatalogService) Get(ctx context.Context, id string) (*domain.Listing, error) {
	return s.repo.FindByID(ctx, id)
}

// Featured returns the first n listings in collection order.
func (s *CatalogService) Featured(ctx context.Context, n int) ([]domain.Listing, error) {
	if n <= 0 {
		n = defaultFeatured
	}
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("featured: %w", err)
	}
	if len(all) > n {
		all = all[:n]
	}
	return all, nil
}

func (s *CatalogService) Create(ctx context.Context, actor domain.User, in ports.CreateListingInput) (*domain.Listing, error) {
	title := createTitle(in.Kind)

	l, err := s.draft(actor, in)
	if err != nil {
		return nil, notifyFailure(ctx, s.notifier, title, err)
	}

	if s.backend != nil {
		created, err := s.backend.CreateListing(ctx, l)
		if err != nil {
			metrics.BackendErrorsTotal.WithLabelValues("create").Inc()
			s.logger.Error().Err(err).Str("kind", string(l.Kind)).Str("user_id", actor.ID).Msg("backend rejected listing")
			return nil, notifyFailure(ctx, s.notifier, title, err)
		}
		l = created.Clone()
		l.Kind = in.Kind
		if l.SellerUsername == "" {
			l.SellerUsername = actor.Username
		}
	} else {
		now := s.now()
		l.ID = s.newID()
		l.CreatedAt = now
		l.UpdatedAt = now
	}

	if err := s.repo.Insert(ctx, l); err != nil {
		s.logger.Error().Err(err).Str("listing_id", l.ID).Msg("failed to store listing")
		return nil, notifyFailure(ctx, s.notifier, title, err)
	}

	metrics.ListingsMutatedTotal.WithLabelValues("create", string(l.Kind)).Inc()
	s.publish(ctx, domain.CatalogEvent{Type: domain.EventListingCreated, ListingID: l.ID, UserID: l.UserID, Kind: l.Kind, ActorID: actor.ID})
	s.logger.Info().Str("listing_id", l.ID).Str("kind", string(l.Kind)).Str("user_id", actor.ID).Msg("listing created")

	if l.Kind == domain.KindMusic {
		s.notifier.Notify(ctx, domain.Success("Track uploaded", "Your track has been uploaded successfully."))
	} else {
		s.notifier.Notify(ctx, domain.Success("Item listed", "Your item has been listed successfully."))
	}
	return &l, nil
}

// Delete removes one listing. Only its owner or an admin may delete it. With
// a backend configured, a listing missing from the local collection is looked
// up among the actor's remote listings, the same set MyListings shows.
func (s *CatalogService) Delete(ctx context.Context, actor domain.User, id string) error {
	const title = "Failed to delete listing"

	l, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, domain.ErrListingNotFound) && s.backend != nil {
		l, err = s.findOwnerListing(ctx, actor, id)
	}
	if err != nil {
		return notifyFailure(ctx, s.notifier, title, err)
	}
	if l.UserID != actor.ID && !actor.IsAdmin() {
		s.logger.Warn().Str("listing_id", id).Str("user_id", actor.ID).Msg("delete refused")
		return notifyFailure(ctx, s.notifier, title, domain.ErrForbidden)
	}

	if s.backend != nil {
		if err := s.backend.DeleteListing(ctx, l.Kind, id, actor); err != nil {
			metrics.BackendErrorsTotal.WithLabelValues("delete").Inc()
			s.logger.Error().Err(err).Str("listing_id", id).Msg("backend rejected delete")
			return notifyFailure(ctx, s.notifier, title, err)
		}
	}

	if _, err := s.repo.Delete(ctx, id); err != nil {
		// A listing known only remotely has no local copy to remove.
		if s.backend == nil || !errors.Is(err, domain.ErrListingNotFound) {
			return notifyFailure(ctx, s.notifier, title, err)
		}
	}

	metrics.ListingsMutatedTotal.WithLabelValues("delete", string(l.Kind)).Inc()
	s.publish(ctx, domain.CatalogEvent{Type: domain.EventListingDeleted, ListingID: id, UserID: l.UserID, Kind: l.Kind, ActorID: actor.ID})
	s.logger.Info().Str("listing_id", id).Str("user_id", actor.ID).Msg("listing deleted")
	s.notifier.Notify(ctx, domain.Success("Listing deleted", "The listing has been removed."))
	return nil
}

func (s *CatalogService) findOwnerListing(ctx context.Context, owner domain.User, id string) (*domain.Listing, error) {
	for _, kind := range []domain.ListingKind{domain.KindItem, domain.KindMusic} {
		ls, err := s.backend.ListOwnerListings(ctx, kind, owner.ID)
		if err != nil {
			metrics.BackendErrorsTotal.WithLabelValues("list_owner").Inc()
			return nil, fmt.Errorf("delete: lookup %s: %w", id, err)
		}
		for _, l := range ls {
			if l.ID == id {
				found := l.Clone()
				found.Kind = kind
				if found.UserID == "" {
					found.UserID = owner.ID
				}
				return &found, nil
			}
		}
	}
	return nil, domain.ErrListingNotFound
}

// Refresh replaces the local collection with the backend's. Both kinds are
// fetched before anything is replaced so a failure keeps local state intact.
func (s *CatalogService) Refresh(ctx context.Context) error {
	if s.backend == nil {
		s.logger.Debug().Msg("refresh skipped: no backend configured")
		return nil
	}

	kinds := []domain.ListingKind{domain.KindItem, domain.KindMusic}
	fetched := make([][]domain.Listing, len(kinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() error {
			ls, err := s.backend.ListListings(gctx, kind)
			if err != nil {
				metrics.BackendErrorsTotal.WithLabelValues("list").Inc()
				s.logger.Error().Err(err).Str("kind", string(kind)).Msg("catalog refresh failed")
				return err
			}
			fetched[i] = withKind(ls, kind)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return notifyFailure(ctx, s.notifier, "Failed to load listings", err)
	}

	for i, kind := range kinds {
		if err := s.repo.Replace(ctx, kind, fetched[i]); err != nil {
			return notifyFailure(ctx, s.notifier, "Failed to load listings", fmt.Errorf("refresh %s: %w", kind, err))
		}
	}
	s.logger.Info().Int("items", len(fetched[0])).Int("tracks", len(fetched[1])).Msg("catalog refreshed")
	return nil
}

// Stats summarises the collection, or one kind of it when kind is set.
func (s *CatalogService) Stats(ctx context.Context, kind domain.ListingKind) (*ports.CatalogStats, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}

	selected := all[:0:0]
	for _, l := range all {
		if kind == "" || l.Kind == kind {
			selected = append(selected, l)
		}
	}

	stats := &ports.CatalogStats{
		Kind:       kind,
		Listings:   len(selected),
		Categories: domain.CategoryCounts(selected),
	}
	if kind != "" {
		stats.Conditions = domain.ConditionCounts(selected, kind)
	} else {
		stats.Conditions = domain.ConditionCounts(selected, domain.KindItem)
	}
	for _, l := range selected {
		stats.TotalValue += l.Price
	}
	if stats.Listings > 0 {
		stats.AveragePrice = math.Round(stats.TotalValue/float64(stats.Listings)*100) / 100
	}
	return stats, nil
}

func (s *CatalogService) apply(source []domain.Listing, q domain.ListingQuery) []domain.Listing {
	start := time.Now()
	out := domain.Apply(source, q)

	sortLabel := string(q.Sort)
	if sortLabel == "" {
		sortLabel = string(domain.SortNewest)
	}
	metrics.QueryDuration.WithLabelValues(sortLabel).Observe(time.Since(start).Seconds())
	metrics.QueryResults.Observe(float64(len(out)))
	return out
}

func (s *CatalogService) draft(actor domain.User, in ports.CreateListingInput) (domain.Listing, error) {
	kind := in.Kind
	if kind == "" {
		kind = domain.KindItem
	}

	raw := strings.TrimSpace(in.Price)
	if raw == "" {
		return domain.Listing{}, fmt.Errorf("%w: missing price", domain.ErrInvalidListing)
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
		return domain.Listing{}, fmt.Errorf("%w: price %q is not a number", domain.ErrInvalidListing, in.Price)
	}

	var media []string
	for _, m := range in.Media {
		if m = strings.TrimSpace(m); m != "" {
			media = append(media, m)
		}
	}
	if len(media) == 0 && kind == domain.KindItem {
		media = []string{placeholderImage}
	}

	l := domain.Listing{
		UserID:         actor.ID,
		Kind:           kind,
		Title:          strings.TrimSpace(in.Title),
		Description:    strings.TrimSpace(in.Description),
		Price:          price,
		Category:       strings.TrimSpace(in.Category),
		Condition:      strings.TrimSpace(in.Condition),
		Tag:            strings.TrimSpace(in.Tag),
		Location:       strings.TrimSpace(in.Location),
		Media:          media,
		SellerUsername: actor.Username,
	}
	if err := l.Validate(); err != nil {
		return domain.Listing{}, err
	}
	return l, nil
}

func (s *CatalogService) publish(ctx context.Context, e domain.CatalogEvent) {
	if s.events == nil {
		return
	}
	e.At = s.now()
	if err := s.events.Publish(ctx, e); err != nil {
		s.logger.Warn().Err(err).Str("type", string(e.Type)).Str("key", e.Key()).Msg("failed to publish catalog event")
	}
}

func createTitle(kind domain.ListingKind) string {
	if kind == domain.KindMusic {
		return "Failed to upload track"
	}
	return "Failed to list item"
}

func withKind(ls []domain.Listing, kind domain.ListingKind) []domain.Listing {
	for i := range ls {
		ls[i].Kind = kind
	}
	return ls
}
