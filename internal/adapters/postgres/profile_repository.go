package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/linkfolio/profile-service/internal/domain"
	"github.com/linkfolio/profile-service/internal/ports"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type profileRepository struct {
	db *gorm.DB
}

// CreateProfileWithDefaults provisions the initial profile row. Inserts
// are idempotent on user_id so a redelivered registration event returns
// the row created the first time instead of failing.
func (r *profileRepository) CreateProfileWithDefaults(ctx context.Context, params ports.CreateProfileParams) (domain.Profile, error) {
	username := strings.ToLower(strings.TrimSpace(params.Username))
	rec := profileModel{
		UserID:             params.UserID,
		Username:           username,
		Slug:               username,
		DisplayName:        params.DisplayName,
		EmailNotifications: params.EmailNotifications,
		CreatedAt:          params.CreatedAt,
		LastEditAt:         params.CreatedAt,
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&rec)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return domain.Profile{}, domain.ErrConflict
		}
		return domain.Profile{}, res.Error
	}
	if res.RowsAffected == 0 {
		return r.GetByUserID(ctx, params.UserID)
	}
	return toDomainProfile(rec), nil
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (domain.Profile, error) {
	var rec profileModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND deleted_at IS NULL", userID).
		Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Profile{}, domain.ErrNotFound
		}
		return domain.Profile{}, err
	}
	return toDomainProfile(rec), nil
}

func (r *profileRepository) GetBySlug(ctx context.Context, slug string) (domain.Profile, error) {
	var rec profileModel
	if err := r.db.WithContext(ctx).
		Where("slug = ? AND deleted_at IS NULL", strings.ToLower(strings.TrimSpace(slug))).
		Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Profile{}, domain.ErrNotFound
		}
		return domain.Profile{}, err
	}
	return toDomainProfile(rec), nil
}

func (r *profileRepository) UpdateProfile(ctx context.Context, params ports.UpdateProfileParams) (domain.Profile, error) {
	updates := map[string]any{
		"last_edit_at": params.UpdatedAt,
	}
	if params.DisplayName != nil {
		updates["display_name"] = strings.TrimSpace(*params.DisplayName)
	}
	if params.Bio != nil {
		updates["bio"] = strings.TrimSpace(*params.Bio)
	}
	if params.AvatarURL != nil {
		updates["avatar_url"] = *params.AvatarURL
	}
	if params.BannerURL != nil {
		updates["banner_url"] = *params.BannerURL
	}
	if params.IsPrivate != nil {
		updates["is_private"] = *params.IsPrivate
	}
	if params.EmailNotifications != nil {
		updates["email_notifications"] = *params.EmailNotifications
	}
	if params.WelcomeEmailSent != nil {
		updates["welcome_email_sent"] = *params.WelcomeEmailSent
	}

	res := r.db.WithContext(ctx).Model(&profileModel{}).
		Where("user_id = ? AND deleted_at IS NULL", params.UserID).
		Updates(updates)
	if res.Error != nil {
		return domain.Profile{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Profile{}, domain.ErrNotFound
	}
	return r.GetByUserID(ctx, params.UserID)
}

// UpdateUsername renames the profile and its slug in one transaction and
// records the previous name for redirect resolution.
func (r *profileRepository) UpdateUsername(ctx context.Context, userID uuid.UUID, newUsername string, now time.Time, redirectDays int) (string, domain.Profile, error) {
	var oldProfile profileModel
	newUsername = strings.ToLower(strings.TrimSpace(newUsername))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND deleted_at IS NULL", userID).Take(&oldProfile).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		oldUsername := oldProfile.Username
		if oldUsername == newUsername {
			return nil
		}
		if err := tx.Model(&profileModel{}).
			Where("user_id = ?", userID).
			Updates(map[string]any{
				"username":                newUsername,
				"slug":                    newUsername,
				"last_username_change_at": now,
				"last_edit_at":            now,
			}).Error; err != nil {
			if isUniqueViolation(err) {
				return domain.ErrConflict
			}
			return err
		}
		if oldUsername != "" {
			history := usernameHistoryModel{
				UserID:            userID,
				OldUsername:       oldUsername,
				NewUsername:       newUsername,
				ChangedAt:         now,
				RedirectExpiresAt: now.Add(time.Duration(redirectDays) * 24 * time.Hour),
			}
			if err := tx.Create(&history).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", domain.Profile{}, err
	}
	updated, err := r.GetByUserID(ctx, userID)
	if err != nil {
		return "", domain.Profile{}, err
	}
	return oldProfile.Username, updated, nil
}

// ClaimUsername sets the username on a profile that does not have one
// yet. The partial unique index on username makes the claim first-writer
// wins: a losing concurrent claim reports claimed=false, not an error.
func (r *profileRepository) ClaimUsername(ctx context.Context, userID uuid.UUID, username string, now time.Time) (bool, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	res := r.db.WithContext(ctx).Model(&profileModel{}).
		Where("user_id = ? AND username = '' AND deleted_at IS NULL", userID).
		Updates(map[string]any{
			"username":     username,
			"slug":         username,
			"last_edit_at": now,
		})
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return false, nil
		}
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		var rec profileModel
		if err := r.db.WithContext(ctx).
			Where("user_id = ? AND deleted_at IS NULL", userID).
			Take(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, domain.ErrNotFound
			}
			return false, err
		}
		if rec.Username == username {
			return true, nil
		}
		return false, domain.ErrConflict
	}
	return true, nil
}

func (r *profileRepository) CheckUsernameAvailability(ctx context.Context, username string) (ports.UsernameAvailability, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&profileModel{}).
		Where("username = ? AND deleted_at IS NULL", strings.ToLower(strings.TrimSpace(username))).
		Count(&count).Error; err != nil {
		return ports.UsernameAvailability{}, err
	}
	if count > 0 {
		return ports.UsernameAvailability{Available: false, Reason: "taken"}, nil
	}
	return ports.UsernameAvailability{Available: true}, nil
}

func (r *profileRepository) SoftDeleteByUserID(ctx context.Context, userID uuid.UUID, deletedAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&profileModel{}).
		Where("user_id = ? AND deleted_at IS NULL", userID).
		Updates(map[string]any{
			"deleted_at":   deletedAt,
			"last_edit_at": deletedAt,
			"username":     "",
			"slug":         "",
			"display_name": "deleted user",
			"bio":          "",
			"avatar_url":   "",
			"banner_url":   "",
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
