package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/linkfolio/profile-service/internal/cache"
	"github.com/linkfolio/profile-service/internal/domain"
)

const (
	reasonInvalid  = "invalid_format"
	reasonReserved = "reserved"
	reasonTaken    = "taken"
)

// CheckUsername reports availability for a candidate username. Results
// are served read-through from the cache; invalid input is an error so
// the transport can reject it before any lookup happens.
func (s *Service) CheckUsername(ctx context.Context, username string) (UsernameAvailabilityResponse, error) {
	username = domain.NormalizeUsername(username)
	if err := domain.ValidateUsername(username); err != nil {
		return UsernameAvailabilityResponse{}, err
	}
	params := usernameParams(username)
	if cached, ok := cache.GetTyped[UsernameAvailabilityResponse](s.cache, opCheckUsername, params); ok {
		cached.FromCache = true
		return cached, nil
	}

	resp := UsernameAvailabilityResponse{Username: username, Available: true}
	reserved, err := s.reservedUsernames.IsReserved(ctx, username)
	if err != nil {
		return UsernameAvailabilityResponse{}, err
	}
	if reserved {
		resp.Available = false
		resp.Reason = reasonReserved
	} else {
		availability, err := s.profiles.CheckUsernameAvailability(ctx, username)
		if err != nil {
			return UsernameAvailabilityResponse{}, err
		}
		if !availability.Available {
			resp.Available = false
			resp.Reason = reasonTaken
		}
	}
	s.cache.Set(opCheckUsername, params, resp)
	return resp, nil
}

// ClaimUsername assigns a username to a profile that has never had one.
// The claim is first-writer-wins: a concurrent claim of the same name
// surfaces as ErrConflict, never as a double assignment.
func (s *Service) ClaimUsername(ctx context.Context, userID uuid.UUID, username string, idempotencyKey string) (ProfileResponse, error) {
	username = domain.NormalizeUsername(username)
	if err := domain.ValidateUsername(username); err != nil {
		return ProfileResponse{}, err
	}
	reserved, err := s.reservedUsernames.IsReserved(ctx, username)
	if err != nil {
		return ProfileResponse{}, err
	}
	if reserved {
		return ProfileResponse{}, fmt.Errorf("%w: username is reserved", domain.ErrConflict)
	}
	if err := s.reserveIdempotency(ctx, idempotencyKey, ClaimUsernameRequest{Username: username}); err != nil {
		return ProfileResponse{}, err
	}

	claimed, err := s.profiles.ClaimUsername(ctx, userID, username, s.nowFn())
	if err != nil {
		return ProfileResponse{}, err
	}
	if !claimed {
		return ProfileResponse{}, fmt.Errorf("%w: username %q is taken", domain.ErrConflict, username)
	}

	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return ProfileResponse{}, err
	}
	s.cache.FlushAfterWrite(tableProfiles, changedProfile(profile, ""))
	_ = s.enqueueUsernameClaimed(ctx, profile)
	return toProfileResponse(profile), nil
}

// ChangeUsername renames an existing username subject to the cooldown
// window, records the old name in history for redirects, and invalidates
// both the old and new identities in the cache.
func (s *Service) ChangeUsername(ctx context.Context, userID uuid.UUID, newUsername string, idempotencyKey string) (ProfileResponse, error) {
	newUsername = domain.NormalizeUsername(newUsername)
	if err := domain.ValidateUsername(newUsername); err != nil {
		return ProfileResponse{}, err
	}
	reserved, err := s.reservedUsernames.IsReserved(ctx, newUsername)
	if err != nil {
		return ProfileResponse{}, err
	}
	if reserved {
		return ProfileResponse{}, fmt.Errorf("%w: username is reserved", domain.ErrConflict)
	}

	current, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return ProfileResponse{}, err
	}
	if current.Username == "" {
		return ProfileResponse{}, fmt.Errorf("%w: no username claimed yet", domain.ErrInvalidInput)
	}
	if current.Username == newUsername {
		return toProfileResponse(current), nil
	}
	now := s.nowFn()
	if current.LastUsernameChangeAt != nil {
		cooldown := time.Duration(s.cfg.UsernameCooldownDays) * 24 * time.Hour
		if elapsed := now.Sub(*current.LastUsernameChangeAt); elapsed < cooldown {
			return ProfileResponse{}, fmt.Errorf("%w: username can change again in %s",
				domain.ErrConflict, (cooldown - elapsed).Round(time.Hour))
		}
	}
	if err := s.reserveIdempotency(ctx, idempotencyKey, ChangeUsernameRequest{Username: newUsername}); err != nil {
		return ProfileResponse{}, err
	}

	oldUsername, updated, err := s.profiles.UpdateUsername(ctx, userID, newUsername, now, s.cfg.UsernameRedirectDays)
	if err != nil {
		return ProfileResponse{}, err
	}
	s.cache.FlushAfterWrite(tableProfiles, changedProfile(updated, oldUsername))
	_ = s.enqueueUsernameChanged(ctx, updated, oldUsername)
	return toProfileResponse(updated), nil
}

// UsernameHistory lists the caller's past renames, newest first.
func (s *Service) UsernameHistory(ctx context.Context, userID uuid.UUID, limit int) ([]UsernameHistoryEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	records, err := s.usernameHistory.ListByUserID(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]UsernameHistoryEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, UsernameHistoryEntry{
			OldUsername: r.OldUsername,
			NewUsername: r.NewUsername,
			ChangedAt:   r.ChangedAt,
		})
	}
	return entries, nil
}

func marshalPayload(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return b
}

var errNoOutbox = errors.New("outbox repository not configured")
