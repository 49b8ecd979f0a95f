package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mvcmarket/marketplace/internal/api/metrics"
	"github.com/mvcmarket/marketplace/internal/core/domain"
	"github.com/mvcmarket/marketplace/internal/core/ports"
)

// SessionManager implements login, registration and the single active session.
type SessionManager struct {
	providers []ports.CredentialProvider
	directory ports.UserDirectory
	store     ports.SessionStore
	notifier  ports.Notifier
	logger    zerolog.Logger

	mu      sync.RWMutex
	current *domain.User
}

// NewSessionManager returns a manager that consults providers in the given order.
func NewSessionManager(
	directory ports.UserDirectory,
	store ports.SessionStore,
	notifier ports.Notifier,
	logger zerolog.Logger,
	providers ...ports.CredentialProvider,
) *SessionManager {
	return &SessionManager{
		providers: providers,
		directory: directory,
		store:     store,
		notifier:  notifier,
		logger:    logger,
	}
}

func (s *SessionManager) Restore(ctx context.Context) *domain.User {
	user, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("discarding unreadable stored session")
		if clearErr := s.store.Clear(ctx); clearErr != nil {
			s.logger.Error().Err(clearErr).Msg("failed to clear stored session")
		}
		s.set(nil)
		return nil
	}
	if user == nil {
		s.set(nil)
		return nil
	}

	scrubbed := user.Scrubbed()
	s.set(&scrubbed)
	s.logger.Info().Str("username", scrubbed.Username).Msg("session restored")
	return s.Current()
}

func (s *SessionManager) Login(ctx context.Context, username, secret string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || secret == "" {
		return nil, s.fail(ctx, "login", "Login failed", domain.ErrInvalidCredentials)
	}

	for _, p := range s.providers {
		user, err := p.Authenticate(ctx, username, secret)
		if errors.Is(err, domain.ErrNotHandled) {
			metrics.ProviderCallsTotal.WithLabelValues(p.Name(), "passed").Inc()
			continue
		}
		if err != nil {
			metrics.ProviderCallsTotal.WithLabelValues(p.Name(), "failed").Inc()
			s.logger.Warn().Err(err).Str("username", username).Str("provider", p.Name()).Msg("login rejected")
			return nil, s.fail(ctx, "login", "Login failed", err)
		}
		metrics.ProviderCallsTotal.WithLabelValues(p.Name(), "accepted").Inc()
		return s.adopt(ctx, "login", *user, p.Name(), domain.Success("Login successful", "Welcome back, "+user.Username+"!"))
	}

	return nil, s.fail(ctx, "login", "Login failed", domain.ErrInvalidCredentials)
}

func (s *SessionManager) Register(ctx context.Context, username, secret, email string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || secret == "" || email == "" {
		return nil, s.fail(ctx, "register", "Registration failed", domain.ErrInvalidCredentials)
	}

	existing, err := s.directory.FindByUsername(ctx, username)
	switch {
	case err == nil && existing != nil:
		return nil, s.fail(ctx, "register", "Registration failed", domain.ErrUserExists)
	case err != nil && !errors.Is(err, domain.ErrUserNotFound):
		return nil, s.fail(ctx, "register", "Registration failed", fmt.Errorf("register: lookup %q: %w", username, err))
	}

	for _, p := range s.providers {
		user, err := p.Register(ctx, username, secret, email)
		if errors.Is(err, domain.ErrNotHandled) {
			metrics.ProviderCallsTotal.WithLabelValues(p.Name(), "passed").Inc()
			continue
		}
		if err != nil {
			metrics.ProviderCallsTotal.WithLabelValues(p.Name(), "failed").Inc()
			s.logger.Warn().Err(err).Str("username", username).Str("provider", p.Name()).Msg("registration rejected")
			return nil, s.fail(ctx, "register", "Registration failed", err)
		}
		metrics.ProviderCallsTotal.WithLabelValues(p.Name(), "accepted").Inc()
		return s.adopt(ctx, "register", *user, p.Name(), domain.Success("Registration successful", "Welcome to the marketplace, "+user.Username+"!"))
	}

	return nil, s.fail(ctx, "register", "Registration failed", domain.ErrRegistrationClosed)
}

// Logout always succeeds; a store failure is only logged.
func (s *SessionManager) Logout(ctx context.Context) {
	prev := s.Current()
	if err := s.store.Clear(ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to clear stored session")
	}
	s.set(nil)

	if prev != nil {
		s.logger.Info().Str("username", prev.Username).Msg("logged out")
	}
	s.notifier.Notify(ctx, domain.Success("Logged out", "You have been logged out successfully."))
}

// Current returns a copy of the session user, or nil.
func (s *SessionManager) Current() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	u := *s.current
	return &u
}

func (s *SessionManager) IsAuthenticated() bool {
	return s.Current() != nil
}

func (s *SessionManager) IsAdmin() bool {
	return s.Current().IsAdmin()
}

func (s *SessionManager) adopt(ctx context.Context, op string, user domain.User, provider string, toast domain.Notification) (*domain.User, error) {
	scrubbed := user.Scrubbed()
	saveErr := s.store.Save(ctx, scrubbed)
	if saveErr != nil {
		s.logger.Error().Err(saveErr).Str("username", scrubbed.Username).Msg("failed to persist session")
	}
	s.set(&scrubbed)

	metrics.SessionAttemptsTotal.WithLabelValues(op, "success").Inc()
	s.logger.Info().Str("username", scrubbed.Username).Str("provider", provider).Str("role", scrubbed.Role).Msg(op + " succeeded")
	s.notifier.Notify(ctx, toast)
	// The session stays usable in memory; the user is told it won't survive a restart.
	if saveErr != nil {
		s.notifier.Notify(ctx, domain.Warning("Session not saved", "You are signed in, but will need to sign in again after a restart."))
	}
	return s.Current(), nil
}

func (s *SessionManager) fail(ctx context.Context, op, title string, err error) error {
	metrics.SessionAttemptsTotal.WithLabelValues(op, failureReason(err)).Inc()
	return notifyFailure(ctx, s.notifier, title, err)
}

func (s *SessionManager) set(u *domain.User) {
	s.mu.Lock()
	s.current = u
	s.mu.Unlock()
}
