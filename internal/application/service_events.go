package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/linkfolio/profile-service/internal/domain"
	"github.com/linkfolio/profile-service/internal/ports"
)

// Event types this service produces and consumes.
const (
	EventUserRegistered  = "user.registered"
	EventUserDeleted     = "user.deleted"
	EventProfileCreated  = "profile.created"
	EventProfileUpdated  = "profile.updated"
	EventUsernameClaimed = "profile.username_claimed"
	EventUsernameChanged = "profile.username_changed"
	EventWelcomeEmail    = "notification.welcome_email"
)

// UserRegisteredEvent is the payload consumed from the users stream.
type UserRegisteredEvent struct {
	EventID string `json:"event_id"`
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
}

// UserDeletedEvent is consumed when an account is removed upstream.
type UserDeletedEvent struct {
	EventID string `json:"event_id"`
	UserID  string `json:"user_id"`
}

// HandleUserRegistered provisions a default profile for a new account and
// queues the welcome email. Redelivered events are dropped by the dedup
// store, and a profile that already exists is treated as processed.
func (s *Service) HandleUserRegistered(ctx context.Context, raw []byte) error {
	var event UserRegisteredEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return fmt.Errorf("%w: malformed user.registered payload: %v", domain.ErrInvalidInput, err)
	}
	userID, err := uuid.Parse(event.UserID)
	if err != nil {
		return fmt.Errorf("%w: user.registered user_id: %v", domain.ErrInvalidInput, err)
	}
	now := s.nowFn()
	if event.EventID != "" {
		dup, err := s.eventDedup.IsDuplicate(ctx, event.EventID, now)
		if err != nil {
			return err
		}
		if dup {
			return nil
		}
	}

	profile, err := s.profiles.CreateProfileWithDefaults(ctx, ports.CreateProfileParams{
		UserID:             userID,
		DisplayName:        displayNameFromEmail(event.Email),
		EmailNotifications: true,
		CreatedAt:          now,
	})
	if err != nil {
		return err
	}
	s.cache.InvalidateTable(tableProfiles, changedProfile(profile, ""))

	if !profile.WelcomeEmailSent {
		if err := s.enqueueWelcomeEmail(ctx, profile, event.Email); err != nil {
			return err
		}
		sent := true
		if _, err := s.profiles.UpdateProfile(ctx, ports.UpdateProfileParams{
			UserID:           userID,
			WelcomeEmailSent: &sent,
			UpdatedAt:        now,
		}); err != nil {
			return err
		}
	}
	_ = s.enqueueProfileCreated(ctx, profile)

	if event.EventID != "" {
		return s.eventDedup.MarkProcessed(ctx, event.EventID, EventUserRegistered, now.Add(s.cfg.EventDedupTTL))
	}
	return nil
}

// HandleUserDeleted soft deletes the profile and flushes every cached
// view of it.
func (s *Service) HandleUserDeleted(ctx context.Context, raw []byte) error {
	var event UserDeletedEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return fmt.Errorf("%w: malformed user.deleted payload: %v", domain.ErrInvalidInput, err)
	}
	userID, err := uuid.Parse(event.UserID)
	if err != nil {
		return fmt.Errorf("%w: user.deleted user_id: %v", domain.ErrInvalidInput, err)
	}
	now := s.nowFn()
	if event.EventID != "" {
		dup, err := s.eventDedup.IsDuplicate(ctx, event.EventID, now)
		if err != nil {
			return err
		}
		if dup {
			return nil
		}
	}

	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err == nil {
		if err := s.profiles.SoftDeleteByUserID(ctx, userID, now); err != nil {
			return err
		}
		s.cache.FlushAfterWrite(tableProfiles, changedProfile(profile, ""))
	} else if !isNotFound(err) {
		return err
	}

	if event.EventID != "" {
		return s.eventDedup.MarkProcessed(ctx, event.EventID, EventUserDeleted, now.Add(s.cfg.EventDedupTTL))
	}
	return nil
}

func (s *Service) enqueueProfileCreated(ctx context.Context, p domain.Profile) error {
	return s.enqueue(ctx, EventProfileCreated, p.UserID.String(), map[string]any{
		"profile_id": p.ProfileID.String(),
		"user_id":    p.UserID.String(),
		"created_at": p.CreatedAt,
	})
}

func (s *Service) enqueueProfileUpdated(ctx context.Context, p domain.Profile) error {
	return s.enqueue(ctx, EventProfileUpdated, p.UserID.String(), map[string]any{
		"profile_id":   p.ProfileID.String(),
		"user_id":      p.UserID.String(),
		"last_edit_at": p.LastEditAt,
	})
}

func (s *Service) enqueueUsernameClaimed(ctx context.Context, p domain.Profile) error {
	return s.enqueue(ctx, EventUsernameClaimed, p.UserID.String(), map[string]any{
		"user_id":  p.UserID.String(),
		"username": p.Username,
		"slug":     p.Slug,
	})
}

func (s *Service) enqueueUsernameChanged(ctx context.Context, p domain.Profile, oldUsername string) error {
	return s.enqueue(ctx, EventUsernameChanged, p.UserID.String(), map[string]any{
		"user_id":      p.UserID.String(),
		"old_username": oldUsername,
		"new_username": p.Username,
		"changed_at":   p.LastEditAt,
	})
}

func (s *Service) enqueueWelcomeEmail(ctx context.Context, p domain.Profile, email string) error {
	return s.enqueue(ctx, EventWelcomeEmail, p.UserID.String(), map[string]any{
		"user_id":      p.UserID.String(),
		"email":        email,
		"display_name": p.DisplayName,
	})
}

func (s *Service) enqueue(ctx context.Context, eventType, partitionKey string, payload map[string]any) error {
	if s.outbox == nil {
		return errNoOutbox
	}
	return s.outbox.Enqueue(ctx, ports.OutboxEvent{
		EventID:       uuid.New(),
		EventType:     eventType,
		PartitionKey:  partitionKey,
		Payload:       marshalPayload(payload),
		OccurredAt:    s.nowFn(),
		SchemaVersion: "v1",
	})
}

// displayNameFromEmail derives an initial display name from the part of
// the address before the @, stripped to characters the display name
// validation allows.
func displayNameFromEmail(email string) string {
	local := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		local = email[:at]
	}
	var b strings.Builder
	for _, r := range local {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.', r == '-':
			b.WriteRune(r)
		}
	}
	name := b.String()
	if name == "" {
		name = "New User"
	}
	if len(name) > 50 {
		name = name[:50]
	}
	return name
}
