// Package sessionstore persists the active session as a signed token so that
// truncated or edited entries are detected on restore.
package sessionstore

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mvcmarket/marketplace/internal/core/domain"
)

const issuer = "marketplace"

type sessionClaims struct {
	// User never carries the secret hash; the field is not serialized.
	User domain.User `json:"usr"`
	jwt.RegisteredClaims
}

// Codec turns a session user into an HS256 token and back.
type Codec struct {
	secret []byte
	now    func() time.Time
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret), now: time.Now}
}

func (c *Codec) Encode(u domain.User) (string, error) {
	claims := sessionClaims{
		User: u.Scrubbed(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   issuer,
			Subject:  u.ID,
			IssuedAt: jwt.NewNumericDate(c.now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}
	return token, nil
}

// Decode returns domain.ErrMalformedSession for anything that is not a token
// this codec issued.
func (c *Codec) Decode(raw string) (*domain.User, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedSession, err)
	}
	u := claims.User
	if u.ID == "" || u.Username == "" || u.ID != claims.Subject {
		return nil, fmt.Errorf("%w: incomplete user", domain.ErrMalformedSession)
	}
	if u.Role != domain.RoleUser && u.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrMalformedSession, u.Role)
	}
	return &u, nil
}
