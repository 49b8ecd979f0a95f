package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/mvcmarket/marketplace/internal/core/domain"
	"github.com/mvcmarket/marketplace/internal/core/ports"
)

type stubAdminService struct {
	users   []domain.User
	removed string
	err     error
}

func (s *stubAdminService) Users(_ context.Context, actor domain.User) ([]domain.User, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return s.users, s.err
}

func (s *stubAdminService) RemoveUser(_ context.Context, actor domain.User, userID string) error {
	if actor.ID == userID {
		return domain.ErrSelfRemoval
	}
	s.removed = userID
	return s.err
}

type stubCounter int

func (n stubCounter) Count(context.Context) (int, error) { return int(n), nil }

var admin = domain.User{ID: "2", Username: "mvc", Role: domain.RoleAdmin}

func TestAdminHandler_Users(t *testing.T) {
	e := newEcho()
	handler := NewAdminHandler(&stubAdminService{users: []domain.User{seller, admin}}, &stubCatalogService{}, stubCounter(2))

	c, rec := newJSONContext(e, http.MethodGet, "/v1/admin/users", "")
	c.Set(ContextUserKey, admin)
	if err := handler.Users(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var users []domain.User
	if err := json.Unmarshal(rec.Body.Bytes(), &users); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
}

func TestAdminHandler_RemoveUser(t *testing.T) {
	e := newEcho()
	admins := &stubAdminService{}
	handler := NewAdminHandler(admins, &stubCatalogService{}, stubCounter(2))

	c, rec := newJSONContext(e, http.MethodDelete, "/v1/admin/users/1", "")
	c.SetParamNames("id")
	c.SetParamValues("1")
	c.Set(ContextUserKey, admin)
	if err := handler.RemoveUser(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || admins.removed != "1" {
		t.Fatalf("expected removal of 1, got %d %q", rec.Code, admins.removed)
	}

	c, _ = newJSONContext(e, http.MethodDelete, "/v1/admin/users/2", "")
	c.SetParamNames("id")
	c.SetParamValues("2")
	c.Set(ContextUserKey, admin)
	if err := handler.RemoveUser(c); !errors.Is(err, domain.ErrSelfRemoval) {
		t.Fatalf("expected ErrSelfRemoval, got %v", err)
	}
}

func TestAdminHandler_Stats(t *testing.T) {
	e := newEcho()
	catalog := &stubCatalogService{stats: &ports.CatalogStats{
		Listings:     2,
		TotalValue:   30,
		AveragePrice: 15,
		Categories:   []domain.FacetCount{{Name: "Books", Count: 2}},
		Conditions:   []domain.FacetCount{{Name: "new", Count: 1}, {Name: "good", Count: 1}},
	}}
	handler := NewAdminHandler(&stubAdminService{}, catalog, stubCounter(5))

	c, rec := newJSONContext(e, http.MethodGet, "/v1/admin/stats?kind=item", "")
	if err := handler.Stats(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp catalogStatsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Users != 5 || resp.Listings != 2 || resp.Kind != "item" || len(resp.Conditions) != 2 {
		t.Fatalf("unexpected stats: %+v", resp)
	}

	c, _ = newJSONContext(e, http.MethodGet, "/v1/admin/stats?kind=vinyl", "")
	err := handler.Stats(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestAdminHandler_Refresh(t *testing.T) {
	e := newEcho()
	catalog := &stubCatalogService{}
	handler := NewAdminHandler(&stubAdminService{}, catalog, stubCounter(0))

	c, rec := newJSONContext(e, http.MethodPost, "/v1/admin/refresh", "")
	if err := handler.Refresh(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || !catalog.refreshed {
		t.Fatalf("expected refresh, got %d", rec.Code)
	}

	catalog.err = domain.ErrBackendUnavailable
	c, _ = newJSONContext(e, http.MethodPost, "/v1/admin/refresh", "")
	if err := handler.Refresh(c); !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
}
