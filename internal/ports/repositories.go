package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/linkfolio/profile-service/internal/domain"
)

type CreateProfileParams struct {
	UserID             uuid.UUID
	Username           string
	DisplayName        string
	EmailNotifications bool
	CreatedAt          time.Time
}

type UpdateProfileParams struct {
	UserID             uuid.UUID
	DisplayName        *string
	Bio                *string
	AvatarURL          *string
	BannerURL          *string
	IsPrivate          *bool
	EmailNotifications *bool
	WelcomeEmailSent   *bool
	UpdatedAt          time.Time
}

type UsernameAvailability struct {
	Available bool
	Reason    string
}

type ProfileRepository interface {
	CreateProfileWithDefaults(ctx context.Context, params CreateProfileParams) (domain.Profile, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (domain.Profile, error)
	GetBySlug(ctx context.Context, slug string) (domain.Profile, error)
	UpdateProfile(ctx context.Context, params UpdateProfileParams) (domain.Profile, error)
	UpdateUsername(ctx context.Context, userID uuid.UUID, newUsername string, now time.Time, redirectDays int) (oldUsername string, updated domain.Profile, err error)
	ClaimUsername(ctx context.Context, userID uuid.UUID, username string, now time.Time) (claimed bool, err error)
	CheckUsernameAvailability(ctx context.Context, username string) (UsernameAvailability, error)
	SoftDeleteByUserID(ctx context.Context, userID uuid.UUID, deletedAt time.Time) error
}

type ReservedUsernameRepository interface {
	IsReserved(ctx context.Context, username string) (bool, error)
}

type UsernameHistoryRepository interface {
	ResolveRedirect(ctx context.Context, oldSlug string, now time.Time) (newSlug string, found bool, err error)
	ListByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]domain.UsernameHistory, error)
}

type OutboxEvent struct {
	EventID       uuid.UUID
	EventType     string
	PartitionKey  string
	Payload       []byte
	OccurredAt    time.Time
	SchemaVersion string
}

type OutboxRecord struct {
	OutboxID     uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	RetryCount   int
	PublishedAt  *time.Time
	LastError    *string
	LastErrorAt  *time.Time
	FirstSeenAt  time.Time
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, event OutboxEvent) error
	FetchUnpublished(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, outboxID uuid.UUID, errMsg string, at time.Time) error
}

type EventDedupRepository interface {
	IsDuplicate(ctx context.Context, eventID string, now time.Time) (bool, error)
	MarkProcessed(ctx context.Context, eventID, eventType string, expiresAt time.Time) error
}

type IdempotencyRepository interface {
	Reserve(ctx context.Context, key, requestHash string, expiresAt time.Time) error
	Complete(ctx context.Context, key string, responseCode int, responseBody []byte, at time.Time) error
}
