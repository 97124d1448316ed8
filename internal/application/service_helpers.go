package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"

	"github.com/linkfolio/profile-service/internal/cache"
	"github.com/linkfolio/profile-service/internal/domain"
	"github.com/linkfolio/profile-service/internal/ports"
)

// ValidateToken resolves the bearer token into the caller's identity.
func (s *Service) ValidateToken(ctx context.Context, token string) (ports.AuthClaims, error) {
	if s.tokens == nil {
		return ports.AuthClaims{}, errors.New("token validator not configured")
	}
	return s.tokens.ValidateToken(ctx, token)
}

// CacheStats exposes cache counters for the readiness and debug surface.
func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// reserveIdempotency claims the Idempotency-Key for this request body.
// An empty key means the caller opted out. A key already held for a
// different body surfaces as ErrIdempotencyConflict from the store.
func (s *Service) reserveIdempotency(ctx context.Context, key string, body any) error {
	if key == "" || s.idempotency == nil {
		return nil
	}
	return s.idempotency.Reserve(ctx, key, hashRequest(body), s.nowFn().Add(s.cfg.IdempotencyTTL))
}

func hashRequest(body any) string {
	raw, err := json.Marshal(body)
	if err != nil {
		raw = []byte("{}")
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
