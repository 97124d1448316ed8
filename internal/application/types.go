package application

import (
	"time"

	"github.com/linkfolio/profile-service/internal/domain"
)

type Config struct {
	ServiceName          string
	UsernameCooldownDays int
	UsernameRedirectDays int
	IdempotencyTTL       time.Duration
	EventDedupTTL        time.Duration
}

type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name,omitempty"`
	Bio         *string `json:"bio,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
	BannerURL   *string `json:"banner_url,omitempty"`
}

type UpdateSettingsRequest struct {
	IsPrivate          *bool `json:"is_private,omitempty"`
	EmailNotifications *bool `json:"email_notifications,omitempty"`
}

type ChangeUsernameRequest struct {
	Username string `json:"username"`
}

type ClaimUsernameRequest struct {
	Username string `json:"username"`
}

type CheckUsernameRequest struct {
	Username string `json:"username"`
}

type ProfileResponse struct {
	ProfileID          string    `json:"profile_id,omitempty"`
	UserID             string    `json:"user_id,omitempty"`
	Username           string    `json:"username,omitempty"`
	Slug               string    `json:"slug,omitempty"`
	DisplayName        string    `json:"display_name"`
	Bio                string    `json:"bio,omitempty"`
	AvatarURL          string    `json:"avatar_url,omitempty"`
	BannerURL          string    `json:"banner_url,omitempty"`
	IsPrivate          bool      `json:"is_private,omitempty"`
	EmailNotifications bool      `json:"email_notifications"`
	CreatedAt          time.Time `json:"created_at,omitempty"`
	LastEditAt         time.Time `json:"last_edit_at,omitempty"`
	Message            string    `json:"message,omitempty"`
}

// ProfileLookup is a profile read outcome. FromCache distinguishes cached
// reads for logging and UX; RedirectTo is set when a renamed slug should
// redirect instead of resolving.
type ProfileLookup struct {
	Profile    ProfileResponse
	RedirectTo string
	FromCache  bool
}

type UsernameAvailabilityResponse struct {
	Username  string `json:"username"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
	FromCache bool   `json:"-"`
}

type UsernameHistoryEntry struct {
	OldUsername string    `json:"old_username"`
	NewUsername string    `json:"new_username"`
	ChangedAt   time.Time `json:"changed_at"`
}

func toProfileResponse(p domain.Profile) ProfileResponse {
	return ProfileResponse{
		ProfileID:          p.ProfileID.String(),
		UserID:             p.UserID.String(),
		Username:           p.Username,
		Slug:               p.Slug,
		DisplayName:        p.DisplayName,
		Bio:                p.Bio,
		AvatarURL:          p.AvatarURL,
		BannerURL:          p.BannerURL,
		IsPrivate:          p.IsPrivate,
		EmailNotifications: p.EmailNotifications,
		CreatedAt:          p.CreatedAt,
		LastEditAt:         p.LastEditAt,
	}
}

func toPublicProfileResponse(p domain.Profile) ProfileResponse {
	resp := ProfileResponse{
		Username:    p.Username,
		Slug:        p.Slug,
		DisplayName: p.DisplayName,
		Bio:         p.Bio,
		AvatarURL:   p.AvatarURL,
		BannerURL:   p.BannerURL,
		CreatedAt:   p.CreatedAt,
	}
	if p.IsPrivate {
		resp.Bio = ""
		resp.AvatarURL = ""
		resp.BannerURL = ""
		resp.IsPrivate = true
		resp.Message = "This profile is private"
	}
	return resp
}
