package backend

import (
	"context"

	"github.com/mvcmarket/marketplace/internal/core/domain"
)

type authenticator interface {
	Login(ctx context.Context, username, secret string) (*domain.User, error)
	Register(ctx context.Context, username, secret, email string) (*domain.User, error)
}

// Provider is the "remote" credential provider. It is last in the chain, so
// every failure it reports is terminal.
type Provider struct {
	api authenticator
}

func NewProvider(api authenticator) *Provider {
	return &Provider{api: api}
}

func (p *Provider) Name() string { return "remote" }

func (p *Provider) Authenticate(ctx context.Context, username, secret string) (*domain.User, error) {
	return p.api.Login(ctx, username, secret)
}

func (p *Provider) Register(ctx context.Context, username, secret, email string) (*domain.User, error) {
	return p.api.Register(ctx, username, secret, email)
}
