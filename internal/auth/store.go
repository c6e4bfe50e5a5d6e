package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	denyPrefix  = "auth:deny:"
	resetPrefix = "auth:reset:"
)

var ErrResetTokenNotFound = errors.New("reset token not found or already used")

// Store keeps revoked token ids and password reset tokens in Redis. Every
// key carries a TTL so nothing outlives the token it refers to.
type Store struct{ rdb *redis.Client }

func NewStore(rdb *redis.Client) *Store { return &Store{rdb: rdb} }

// Revoke deny-lists jti for ttl. A non-positive ttl means the token has
// already expired and nothing is stored.
func (s *Store) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, denyPrefix+jti, 1, ttl).Err()
}

// Claim deny-lists jti for ttl and reports whether this call did it. Of
// several concurrent claims on the same jti exactly one wins.
func (s *Store) Claim(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, nil
	}
	return s.rdb.SetNX(ctx, denyPrefix+jti, 1, ttl).Result()
}

func (s *Store) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.rdb.Exists(ctx, denyPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// PutResetToken stores a single-use token for userID.
func (s *Store) PutResetToken(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	return s.rdb.Set(ctx, resetPrefix+token, userID.String(), ttl).Err()
}

// TakeResetToken reads and deletes token atomically.
func (s *Store) TakeResetToken(ctx context.Context, token string) (uuid.UUID, error) {
	raw, err := s.rdb.GetDel(ctx, resetPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrResetTokenNotFound
	}
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrResetTokenNotFound
	}
	return id, nil
}
