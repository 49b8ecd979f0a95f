package memory

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mvcmarket/marketplace/internal/core/domain"
)

// Directory is an in-process user roster. It doubles as the "local"
// credential provider: unknown usernames and wrong secrets are passed on to
// the next provider rather than rejected.
type Directory struct {
	mu    sync.RWMutex
	users []domain.User

	acceptRegistrations bool
	cost                int
	now                 func() time.Time
}

type DirectoryOption func(*Directory)

// WithRegistrations lets the directory create accounts itself.
func WithRegistrations() DirectoryOption {
	return func(d *Directory) { d.acceptRegistrations = true }
}

// WithHashCost overrides the bcrypt cost for new accounts.
func WithHashCost(cost int) DirectoryOption {
	return func(d *Directory) { d.cost = cost }
}

func NewDirectory(seed []domain.User, opts ...DirectoryOption) *Directory {
	d := &Directory{
		users: append([]domain.User(nil), seed...),
		cost:  bcrypt.DefaultCost,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Directory) Name() string { return "local" }

func (d *Directory) Authenticate(_ context.Context, username, secret string) (*domain.User, error) {
	d.mu.RLock()
	u, ok := d.find(username)
	d.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotHandled
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(secret)) != nil {
		return nil, domain.ErrNotHandled
	}
	return &u, nil
}

// Register creates an account when registrations are enabled. The id is the
// roster size plus one, bumped past any id still in use.
func (d *Directory) Register(_ context.Context, username, secret, email string) (*domain.User, error) {
	if !d.acceptRegistrations {
		return nil, domain.ErrNotHandled
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), d.cost)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, u := range d.users {
		if domain.UsernameKey(u.Username) == domain.UsernameKey(username) || (email != "" && strings.EqualFold(u.Email, email)) {
			return nil, domain.ErrUserExists
		}
	}

	next := len(d.users) + 1
	for d.hasID(strconv.Itoa(next)) {
		next++
	}
	u := domain.User{
		ID:           strconv.Itoa(next),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		CreatedAt:    d.now(),
	}
	d.users = append(d.users, u)
	return &u, nil
}

func (d *Directory) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if u, ok := d.find(username); ok {
		return &u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (d *Directory) FindByID(_ context.Context, id string) (*domain.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, u := range d.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (d *Directory) List(_ context.Context) ([]domain.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]domain.User(nil), d.users...), nil
}

func (d *Directory) Remove(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, u := range d.users {
		if u.ID == id {
			d.users = append(d.users[:i:i], d.users[i+1:]...)
			return nil
		}
	}
	return domain.ErrUserNotFound
}

func (d *Directory) Count(_ context.Context) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.users), nil
}

func (d *Directory) find(username string) (domain.User, bool) {
	key := domain.UsernameKey(username)
	for _, u := range d.users {
		if domain.UsernameKey(u.Username) == key {
			return u, true
		}
	}
	return domain.User{}, false
}

func (d *Directory) hasID(id string) bool {
	for _, u := range d.users {
		if u.ID == id {
			return true
		}
	}
	return false
}
