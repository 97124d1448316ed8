package application

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/linkfolio/profile-service/internal/cache"
	"github.com/linkfolio/profile-service/internal/domain"
	"github.com/linkfolio/profile-service/internal/ports"
)

const (
	opGetProfile       = "getProfile"
	opGetProfileBySlug = "getProfileBySlug"
	opCheckUsername    = "checkUsername"

	tableProfiles = "profiles"
)

func profileParams(userID uuid.UUID) map[string]string {
	return map[string]string{"userId": userID.String()}
}

func slugParams(slug string) map[string]string {
	return map[string]string{"slug": slug}
}

func usernameParams(username string) map[string]string {
	return map[string]string{"username": username}
}

// registerInvalidationRules binds the profiles table to the exact cache
// keys a changed record affects: its user id, its username and slug, and
// (after a rename) the previous username and slug.
func (s *Service) registerInvalidationRules() {
	s.cache.RegisterTableOps(tableProfiles, opGetProfile, opGetProfileBySlug, opCheckUsername)
	s.cache.RegisterRule(tableProfiles, func(changed map[string]string) []string {
		var keys []string
		if id := changed["id"]; id != "" {
			keys = append(keys, cache.Key(opGetProfile, map[string]string{"userId": id}))
		}
		for _, field := range []string{"username", "old_username"} {
			if v := changed[field]; v != "" {
				keys = append(keys, cache.Key(opCheckUsername, usernameParams(v)))
			}
		}
		for _, field := range []string{"slug", "old_slug"} {
			if v := changed[field]; v != "" {
				keys = append(keys, cache.Key(opGetProfileBySlug, slugParams(v)))
			}
		}
		return keys
	})
}

func changedProfile(p domain.Profile, oldUsername string) map[string]string {
	return map[string]string{
		"id":           p.UserID.String(),
		"username":     p.Username,
		"slug":         p.Slug,
		"old_username": oldUsername,
		"old_slug":     oldUsername,
	}
}

// GetProfile is the read-through profile lookup by user id.
func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (ProfileLookup, error) {
	params := profileParams(userID)
	if cached, ok := cache.GetTyped[domain.Profile](s.cache, opGetProfile, params); ok {
		return ProfileLookup{Profile: toProfileResponse(cached), FromCache: true}, nil
	}
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return ProfileLookup{}, err
	}
	s.cache.Set(opGetProfile, params, profile)
	return ProfileLookup{Profile: toProfileResponse(profile)}, nil
}

// GetProfileNoCache bypasses the cache entirely. Used when strict
// freshness is required, e.g. immediately after the caller's own edit.
func (s *Service) GetProfileNoCache(ctx context.Context, userID uuid.UUID) (ProfileLookup, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return ProfileLookup{}, err
	}
	return ProfileLookup{Profile: toProfileResponse(profile)}, nil
}

// GetProfileBySlug is the read-through public lookup. A slug that no
// longer resolves is checked against username history for a redirect.
func (s *Service) GetProfileBySlug(ctx context.Context, slug string) (ProfileLookup, error) {
	slug = domain.NormalizeUsername(slug)
	if err := domain.ValidateUsername(slug); err != nil {
		return ProfileLookup{}, err
	}
	params := slugParams(slug)
	if cached, ok := cache.GetTyped[domain.Profile](s.cache, opGetProfileBySlug, params); ok {
		return ProfileLookup{Profile: toPublicProfileResponse(cached), FromCache: true}, nil
	}
	profile, err := s.profiles.GetBySlug(ctx, slug)
	if err == nil {
		s.cache.Set(opGetProfileBySlug, params, profile)
		return ProfileLookup{Profile: toPublicProfileResponse(profile)}, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return ProfileLookup{}, err
	}
	redirectTo, found, rErr := s.usernameHistory.ResolveRedirect(ctx, slug, s.nowFn())
	if rErr != nil {
		return ProfileLookup{}, rErr
	}
	if found {
		return ProfileLookup{RedirectTo: redirectTo}, nil
	}
	return ProfileLookup{}, domain.ErrNotFound
}

// GetProfileBySlugNoCache mirrors GetProfileBySlug without cache
// interaction (no read, no store).
func (s *Service) GetProfileBySlugNoCache(ctx context.Context, slug string) (ProfileLookup, error) {
	slug = domain.NormalizeUsername(slug)
	profile, err := s.profiles.GetBySlug(ctx, slug)
	if err != nil {
		return ProfileLookup{}, err
	}
	return ProfileLookup{Profile: toPublicProfileResponse(profile)}, nil
}

// UpdateProfile applies the defined fields only, then flushes the cache
// atomically together with the targeted invalidation for this record.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest, idempotencyKey string) (ProfileResponse, error) {
	if req.DisplayName != nil {
		if err := domain.ValidateDisplayName(*req.DisplayName); err != nil {
			return ProfileResponse{}, err
		}
	}
	if req.Bio != nil {
		if err := domain.ValidateBio(*req.Bio); err != nil {
			return ProfileResponse{}, err
		}
	}
	if err := s.reserveIdempotency(ctx, idempotencyKey, req); err != nil {
		return ProfileResponse{}, err
	}

	updated, err := s.profiles.UpdateProfile(ctx, ports.UpdateProfileParams{
		UserID:      userID,
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		AvatarURL:   req.AvatarURL,
		BannerURL:   req.BannerURL,
		UpdatedAt:   s.nowFn(),
	})
	if err != nil {
		return ProfileResponse{}, err
	}
	s.cache.FlushAfterWrite(tableProfiles, changedProfile(updated, ""))
	_ = s.enqueueProfileUpdated(ctx, updated)

	fresh, err := s.GetProfileNoCache(ctx, userID)
	if err != nil {
		return ProfileResponse{}, err
	}
	return fresh.Profile, nil
}

// UpdateSettings changes the profile's privacy and notification flags.
func (s *Service) UpdateSettings(ctx context.Context, userID uuid.UUID, req UpdateSettingsRequest, idempotencyKey string) (ProfileResponse, error) {
	if err := s.reserveIdempotency(ctx, idempotencyKey, req); err != nil {
		return ProfileResponse{}, err
	}
	updated, err := s.profiles.UpdateProfile(ctx, ports.UpdateProfileParams{
		UserID:             userID,
		IsPrivate:          req.IsPrivate,
		EmailNotifications: req.EmailNotifications,
		UpdatedAt:          s.nowFn(),
	})
	if err != nil {
		return ProfileResponse{}, err
	}
	s.cache.FlushAfterWrite(tableProfiles, changedProfile(updated, ""))
	_ = s.enqueueProfileUpdated(ctx, updated)
	return toProfileResponse(updated), nil
}
