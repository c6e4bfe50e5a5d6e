package auth

import (
	"errors"
	"fmt"
	"time"

	"sosstock/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims are embedded in every token this service signs. ID (jti) is used
// for revocation on sign-out.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Kind   string `json:"kind"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 tokens.
type Issuer struct {
	secret  []byte
	access  time.Duration
	refresh time.Duration
	now     func() time.Time
}

func NewIssuer(secret string, access, refresh time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), access: access, refresh: refresh, now: time.Now}
}

// AccessTTL is the lifetime of access tokens.
func (i *Issuer) AccessTTL() time.Duration { return i.access }

// Issue signs a token of the given kind for p.
func (i *Issuer) Issue(p *model.Profile, kind string) (string, *Claims, error) {
	ttl := i.access
	if kind == KindRefresh {
		ttl = i.refresh
	}
	now := i.now()
	claims := &Claims{
		UserID: p.ID.String(),
		Email:  p.Email,
		Role:   string(p.Role),
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   p.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// Parse verifies signature and expiry and checks the token kind.
func (i *Issuer) Parse(token, kind string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Kind != kind {
		return nil, ErrInvalidToken
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ProfileID returns the user id carried by the claims.
func (c *Claims) ProfileID() uuid.UUID {
	id, _ := uuid.Parse(c.UserID)
	return id
}

// Remaining is how long the token stays valid from now.
func (c *Claims) Remaining(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Time.Sub(now)
}
