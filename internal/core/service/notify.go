package service

import (
	"context"
	"errors"

	"github.com/mvcmarket/marketplace/internal/core/domain"
	"github.com/mvcmarket/marketplace/internal/core/ports"
)

// notifyFailure emits an error toast for err and returns it unchanged.
func notifyFailure(ctx context.Context, n ports.Notifier, title string, err error) error {
	n.Notify(ctx, domain.Failure(title, userMessage(err)))
	return err
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrUserExists):
		return "user_exists"
	case errors.Is(err, domain.ErrBackendUnavailable):
		return "backend_unavailable"
	case errors.Is(err, domain.ErrRegistrationClosed):
		return "registration_closed"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrInvalidListing):
		return "invalid_listing"
	case errors.Is(err, domain.ErrListingNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// userMessage keeps toasts free of wrapped transport detail.
func userMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "Invalid username or password."
	case errors.Is(err, domain.ErrUserExists):
		return "Username or email already exists."
	case errors.Is(err, domain.ErrBackendUnavailable):
		return "The marketplace is unreachable. Please try again later."
	case errors.Is(err, domain.ErrRegistrationClosed):
		return "Registration is not available right now."
	case errors.Is(err, domain.ErrForbidden):
		return "You are not allowed to do that."
	case errors.Is(err, domain.ErrListingNotFound):
		return "Listing not found."
	case errors.Is(err, domain.ErrInvalidListing):
		return err.Error()
	default:
		return "Something went wrong. Please try again."
	}
}
