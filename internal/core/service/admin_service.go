package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mvcmarket/marketplace/internal/core/domain"
	"github.com/mvcmarket/marketplace/internal/core/ports"
)

type adminService struct {
	directory ports.UserDirectory
	listings  ports.ListingRepository
	events    ports.EventPublisher
	notifier  ports.Notifier
	log       zerolog.Logger
}

// NewAdminService returns an AdminService implementation.
func NewAdminService(
	directory ports.UserDirectory,
	listings ports.ListingRepository,
	events ports.EventPublisher,
	notifier ports.Notifier,
	log zerolog.Logger,
) ports.AdminService {
	return &adminService{
		directory: directory,
		listings:  listings,
		events:    events,
		notifier:  notifier,
		log:       log,
	}
}

func (s *adminService) Users(ctx context.Context, actor domain.User) ([]domain.User, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	users, err := s.directory.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	for i := range users {
		users[i] = users[i].Scrubbed()
	}
	return users, nil
}

// RemoveUser deletes a user and every listing they own. An admin can never
// remove their own account.
func (s *adminService) RemoveUser(ctx context.Context, actor domain.User, userID string) error {
	const title = "Failed to delete user"

	if !actor.IsAdmin() {
		return notifyFailure(ctx, s.notifier, title, domain.ErrForbidden)
	}
	if actor.ID == userID {
		s.log.Warn().Str("user_id", userID).Msg("admin attempted self-removal")
		return notifyFailure(ctx, s.notifier, title, domain.ErrSelfRemoval)
	}

	if err := s.directory.Remove(ctx, userID); err != nil {
		return notifyFailure(ctx, s.notifier, title, err)
	}

	removed, err := s.listings.DeleteByOwner(ctx, userID)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("failed to remove listings of deleted user")
	}

	if s.events != nil {
		e := domain.CatalogEvent{Type: domain.EventUserRemoved, UserID: userID, ActorID: actor.ID, At: time.Now().UTC()}
		if err := s.events.Publish(ctx, e); err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("failed to publish user removal")
		}
	}

	s.log.Info().Str("user_id", userID).Str("actor_id", actor.ID).Int("listings_removed", removed).Msg("user removed")
	s.notifier.Notify(ctx, domain.Success("User deleted", "The user has been successfully removed from the system."))
	return nil
}
