package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mvcmarket/marketplace/internal/core/domain"
	"github.com/mvcmarket/marketplace/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubProvider struct {
	name        string
	secrets     map[string]string
	users       map[string]domain.User
	canRegister bool
	err         error
	calls       int
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Authenticate(_ context.Context, username, secret string) (*domain.User, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	if s, ok := p.secrets[username]; ok && s == secret {
		u := p.users[username]
		return &u, nil
	}
	return nil, domain.ErrNotHandled
}

func (p *stubProvider) Register(_ context.Context, username, _, email string) (*domain.User, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	if !p.canRegister {
		return nil, domain.ErrNotHandled
	}
	return &domain.User{ID: "3", Username: username, Email: email, Role: domain.RoleUser, PasswordHash: "hashed", CreatedAt: time.Now()}, nil
}

type stubStore struct {
	mu      sync.Mutex
	saved   *domain.User
	loadErr error
	saveErr error
	cleared int
}

func (s *stubStore) Load(context.Context) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if s.saved == nil {
		return nil, nil
	}
	u := *s.saved
	return &u, nil
}

func (s *stubStore) Save(_ context.Context, u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = &u
	return nil
}

func (s *stubStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = nil
	s.loadErr = nil
	s.cleared++
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var (
	muser = domain.User{ID: "1", Username: "muser", Email: "muser@example.com", Role: domain.RoleUser, PasswordHash: "$2a$hash"}
	mvc   = domain.User{ID: "2", Username: "mvc", Email: "mvc@example.com", Role: domain.RoleAdmin, PasswordHash: "$2a$hash"}
)

func localProvider() *stubProvider {
	return &stubProvider{
		name:    "local",
		secrets: map[string]string{"muser": "muser", "mvc": "mvc"},
		users:   map[string]domain.User{"muser": muser, "mvc": mvc},
	}
}

func newSessionSvc(store *stubStore, notifier *stubNotifier, providers ...*stubProvider) *SessionManager {
	dir := &stubDirectory{users: []domain.User{muser, mvc}}
	chain := make([]ports.CredentialProvider, len(providers))
	for i, p := range providers {
		chain[i] = p
	}
	return NewSessionManager(dir, store, notifier, zerolog.Nop(), chain...)
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestSessionManager_Login_RoundTripThroughStore(t *testing.T) {
	store := &stubStore{}
	notifier := &stubNotifier{}
	svc := newSessionSvc(store, notifier, localProvider())

	user, err := svc.Login(context.Background(), "muser", "muser")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if user.PasswordHash != "" {
		t.Fatalf("expected scrubbed session user, got hash %q", user.PasswordHash)
	}
	if store.saved == nil || store.saved.Username != "muser" || store.saved.PasswordHash != "" {
		t.Fatalf("unexpected stored session: %+v", store.saved)
	}
	if got := notifier.last(); got.Level != domain.LevelSuccess {
		t.Fatalf("expected success toast, got %+v", got)
	}

	// A fresh manager over the same store restores the identical user.
	restored := newSessionSvc(store, &stubNotifier{}, localProvider()).Restore(context.Background())
	if restored == nil || *restored != *user {
		t.Fatalf("restore mismatch: got %+v want %+v", restored, user)
	}
}

func TestSessionManager_Login_EmptyInput(t *testing.T) {
	local := localProvider()
	notifier := &stubNotifier{}
	svc := newSessionSvc(&stubStore{}, notifier, local)

	if _, err := svc.Login(context.Background(), "  ", "x"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if local.calls != 0 {
		t.Fatalf("provider should not be consulted, got %d calls", local.calls)
	}
	if notifier.last().Level != domain.LevelError {
		t.Fatalf("expected error toast")
	}
}

func TestSessionManager_Login_FallsThroughToNextProvider(t *testing.T) {
	local := localProvider()
	remote := &stubProvider{
		name:    "remote",
		secrets: map[string]string{"alice": "pw"},
		users:   map[string]domain.User{"alice": {ID: "9", Username: "alice", Role: domain.RoleUser}},
	}
	svc := newSessionSvc(&stubStore{}, &stubNotifier{}, local, remote)

	user, err := svc.Login(context.Background(), "alice", "pw")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if user.ID != "9" || local.calls != 1 || remote.calls != 1 {
		t.Fatalf("unexpected result user=%+v local=%d remote=%d", user, local.calls, remote.calls)
	}
}

func TestSessionManager_Login_TerminalProviderError(t *testing.T) {
	local := localProvider()
	remote := &stubProvider{name: "remote", err: fmt.Errorf("post login: %w", domain.ErrBackendUnavailable)}
	store := &stubStore{}
	svc := newSessionSvc(store, &stubNotifier{}, local, remote)

	if _, err := svc.Login(context.Background(), "ghost", "pw"); !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if svc.IsAuthenticated() || store.saved != nil {
		t.Fatalf("session must stay untouched")
	}
}

func TestSessionManager_Login_ChainExhausted(t *testing.T) {
	svc := newSessionSvc(&stubStore{}, &stubNotifier{}, localProvider())

	if _, err := svc.Login(context.Background(), "muser", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestSessionManager_Login_FailureKeepsExistingSession(t *testing.T) {
	svc := newSessionSvc(&stubStore{}, &stubNotifier{}, localProvider())
	if _, err := svc.Login(context.Background(), "mvc", "mvc"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	_, _ = svc.Login(context.Background(), "muser", "nope")
	if cur := svc.Current(); cur == nil || cur.Username != "mvc" {
		t.Fatalf("expected mvc session to survive, got %+v", cur)
	}
	if !svc.IsAdmin() {
		t.Fatalf("expected admin session")
	}
}

func TestSessionManager_Register_TakenUsername(t *testing.T) {
	store := &stubStore{}
	remote := &stubProvider{name: "remote", canRegister: true}
	notifier := &stubNotifier{}
	svc := newSessionSvc(store, notifier, localProvider(), remote)

	if _, err := svc.Register(context.Background(), "mvc", "pw", "x@example.com"); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if remote.calls != 0 {
		t.Fatalf("providers must not be consulted for a taken username")
	}
	if svc.IsAuthenticated() || store.saved != nil {
		t.Fatalf("session must stay untouched")
	}
	if notifier.last().Level != domain.LevelError {
		t.Fatalf("expected error toast")
	}
}

func TestSessionManager_Register_TakenUsernameOtherCase(t *testing.T) {
	remote := &stubProvider{name: "remote", canRegister: true}
	svc := newSessionSvc(&stubStore{}, &stubNotifier{}, localProvider(), remote)

	if _, err := svc.Register(context.Background(), "MVC", "pw", "x@example.com"); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if remote.calls != 0 {
		t.Fatalf("providers must not be consulted for a taken username")
	}
}

func TestSessionManager_Register_Success(t *testing.T) {
	store := &stubStore{}
	remote := &stubProvider{name: "remote", canRegister: true}
	svc := newSessionSvc(store, &stubNotifier{}, localProvider(), remote)

	user, err := svc.Register(context.Background(), "newbie", "pw", "newbie@example.com")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Username != "newbie" || user.PasswordHash != "" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if store.saved == nil || store.saved.Username != "newbie" {
		t.Fatalf("expected registered user to be stored")
	}
}

func TestSessionManager_Register_RemoteFailureIsTerminal(t *testing.T) {
	local := localProvider()
	local.canRegister = true
	remote := &stubProvider{name: "remote", err: domain.ErrBackendUnavailable}
	// remote first: its failure must not fall back to the local directory.
	svc := newSessionSvc(&stubStore{}, &stubNotifier{}, remote, local)

	if _, err := svc.Register(context.Background(), "newbie", "pw", "n@example.com"); !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if local.calls != 0 {
		t.Fatalf("local provider must not be tried after a terminal failure")
	}
}

func TestSessionManager_Register_NoProviderAccepts(t *testing.T) {
	svc := newSessionSvc(&stubStore{}, &stubNotifier{}, localProvider())

	if _, err := svc.Register(context.Background(), "newbie", "pw", "n@example.com"); !errors.Is(err, domain.ErrRegistrationClosed) {
		t.Fatalf("expected ErrRegistrationClosed, got %v", err)
	}
}

func TestSessionManager_Restore_MalformedEntry(t *testing.T) {
	store := &stubStore{loadErr: domain.ErrMalformedSession}
	svc := newSessionSvc(store, &stubNotifier{}, localProvider())

	if u := svc.Restore(context.Background()); u != nil {
		t.Fatalf("expected no session, got %+v", u)
	}
	if store.cleared != 1 {
		t.Fatalf("expected malformed entry to be cleared, got %d clears", store.cleared)
	}
}

func TestSessionManager_Restore_Empty(t *testing.T) {
	svc := newSessionSvc(&stubStore{}, &stubNotifier{}, localProvider())
	if u := svc.Restore(context.Background()); u != nil || svc.IsAuthenticated() {
		t.Fatalf("expected unauthenticated, got %+v", u)
	}
}

func TestSessionManager_Logout(t *testing.T) {
	store := &stubStore{}
	notifier := &stubNotifier{}
	svc := newSessionSvc(store, notifier, localProvider())
	_, _ = svc.Login(context.Background(), "muser", "muser")

	svc.Logout(context.Background())

	if svc.IsAuthenticated() || store.saved != nil {
		t.Fatalf("expected cleared session")
	}
	if notifier.last().Title != "Logged out" {
		t.Fatalf("unexpected toast: %+v", notifier.last())
	}

	// Logging out twice is harmless.
	svc.Logout(context.Background())
}

func TestSessionManager_Login_SaveFailureWarns(t *testing.T) {
	store := &stubStore{saveErr: errors.New("disk full")}
	notifier := &stubNotifier{}
	svc := newSessionSvc(store, notifier, localProvider())

	if _, err := svc.Login(context.Background(), "muser", "muser"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if !svc.IsAuthenticated() {
		t.Fatalf("expected in-memory session")
	}
	if len(notifier.sent) != 2 || notifier.sent[0].Level != domain.LevelSuccess {
		t.Fatalf("expected success then warning toast, got %+v", notifier.sent)
	}
	if got := notifier.last(); got.Level != domain.LevelWarning || got.Title != "Session not saved" {
		t.Fatalf("unexpected warning toast: %+v", got)
	}
}

func TestSessionManager_Login_SavedSessionHasNoWarning(t *testing.T) {
	notifier := &stubNotifier{}
	svc := newSessionSvc(&stubStore{}, notifier, localProvider())

	if _, err := svc.Login(context.Background(), "muser", "muser"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if len(notifier.sent) != 1 || notifier.sent[0].Level != domain.LevelSuccess {
		t.Fatalf("expected a single success toast, got %+v", notifier.sent)
	}
}

func TestSessionManager_CurrentReturnsCopy(t *testing.T) {
	svc := newSessionSvc(&stubStore{}, &stubNotifier{}, localProvider())
	_, _ = svc.Login(context.Background(), "muser", "muser")

	cur := svc.Current()
	cur.Role = domain.RoleAdmin
	if svc.IsAdmin() {
		t.Fatalf("mutating the returned user must not change the session")
	}
}
