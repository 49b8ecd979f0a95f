package domain

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserExists         = errors.New("username already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrForbidden          = errors.New("access forbidden")
	ErrSelfRemoval        = errors.New("cannot remove your own account")
	ErrRegistrationClosed = errors.New("registration is not available")
	ErrMalformedSession   = errors.New("malformed session")

	ErrListingNotFound  = errors.New("listing not found")
	ErrDuplicateListing = errors.New("listing already exists")
	ErrInvalidListing   = errors.New("invalid listing")
	ErrInvalidSort      = errors.New("invalid sort option")

	// ErrBackendUnavailable wraps transport failures talking to the remote marketplace API.
	ErrBackendUnavailable = errors.New("marketplace backend unavailable")

	// ErrNotHandled is returned by a credential provider that has no opinion
	// about the given credentials; the next provider in the chain is tried.
	ErrNotHandled = errors.New("credentials not handled by provider")
)
