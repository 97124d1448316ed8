package postgres

import (
	"github.com/linkfolio/profile-service/internal/domain"
)

func toDomainProfile(rec profileModel) domain.Profile {
	return domain.Profile{
		ProfileID:            rec.ProfileID,
		UserID:               rec.UserID,
		Username:             rec.Username,
		Slug:                 rec.Slug,
		DisplayName:          rec.DisplayName,
		Bio:                  rec.Bio,
		AvatarURL:            rec.AvatarURL,
		BannerURL:            rec.BannerURL,
		IsPrivate:            rec.IsPrivate,
		EmailNotifications:   rec.EmailNotifications,
		WelcomeEmailSent:     rec.WelcomeEmailSent,
		LastUsernameChangeAt: rec.LastUsernameChangeAt,
		CreatedAt:            rec.CreatedAt,
		LastEditAt:           rec.LastEditAt,
		DeletedAt:            rec.DeletedAt,
	}
}

func toDomainUsernameHistory(rec usernameHistoryModel) domain.UsernameHistory {
	return domain.UsernameHistory{
		HistoryID:         rec.HistoryID,
		UserID:            rec.UserID,
		OldUsername:       rec.OldUsername,
		NewUsername:       rec.NewUsername,
		ChangedAt:         rec.ChangedAt,
		RedirectExpiresAt: rec.RedirectExpiresAt,
	}
}
