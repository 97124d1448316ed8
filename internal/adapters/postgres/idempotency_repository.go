package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/linkfolio/profile-service/internal/domain"
	"gorm.io/gorm"
)

type idempotencyRepository struct {
	db *gorm.DB
}

// Reserve claims an idempotency key for a request body hash. Retrying
// the same request is a no-op; reusing the key for a different body is
// rejected.
func (r *idempotencyRepository) Reserve(ctx context.Context, key, requestHash string, expiresAt time.Time) error {
	now := time.Now().UTC()
	rec := profileIdempotencyModel{
		IdempotencyKey: key,
		RequestHash:    requestHash,
		Status:         "reserved",
		ExpiresAt:      expiresAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err := r.db.WithContext(ctx).Create(&rec).Error
	if err == nil {
		return nil
	}
	if !isUniqueViolation(err) {
		return err
	}
	var existing profileIdempotencyModel
	if lookupErr := r.db.WithContext(ctx).
		Where("idempotency_key = ?", key).
		Take(&existing).Error; lookupErr != nil {
		if errors.Is(lookupErr, gorm.ErrRecordNotFound) {
			return domain.ErrIdempotencyConflict
		}
		return lookupErr
	}
	if existing.ExpiresAt.Before(now) {
		return r.db.WithContext(ctx).Model(&profileIdempotencyModel{}).
			Where("idempotency_key = ?", key).
			Updates(map[string]any{
				"request_hash": requestHash,
				"status":       "reserved",
				"expires_at":   expiresAt,
				"updated_at":   now,
			}).Error
	}
	if existing.RequestHash != requestHash {
		return fmt.Errorf("%w: key reused with a different request body", domain.ErrIdempotencyConflict)
	}
	return nil
}

func (r *idempotencyRepository) Complete(ctx context.Context, key string, responseCode int, responseBody []byte, at time.Time) error {
	payload := string(responseBody)
	return r.db.WithContext(ctx).Model(&profileIdempotencyModel{}).
		Where("idempotency_key = ?", key).
		Updates(map[string]any{
			"status":        "completed",
			"response_code": responseCode,
			"response_body": payload,
			"updated_at":    at,
		}).Error
}
