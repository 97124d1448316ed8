package domain

import (
	"time"

	"github.com/google/uuid"
)

type Profile struct {
	ProfileID            uuid.UUID
	UserID               uuid.UUID
	Username             string
	Slug                 string
	DisplayName          string
	Bio                  string
	AvatarURL            string
	BannerURL            string
	IsPrivate            bool
	EmailNotifications   bool
	WelcomeEmailSent     bool
	LastUsernameChangeAt *time.Time
	CreatedAt            time.Time
	LastEditAt           time.Time
	DeletedAt            *time.Time
}

type UsernameHistory struct {
	HistoryID         uuid.UUID
	UserID            uuid.UUID
	OldUsername       string
	NewUsername       string
	ChangedAt         time.Time
	RedirectExpiresAt time.Time
}

type UserIdentity struct {
	UserID uuid.UUID
	Email  string
	Role   string
}
