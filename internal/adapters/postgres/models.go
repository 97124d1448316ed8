package postgres

import (
	"time"

	"github.com/google/uuid"
)

type profileModel struct {
	ProfileID            uuid.UUID  `gorm:"column:profile_id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID               uuid.UUID  `gorm:"column:user_id"`
	Username             string     `gorm:"column:username"`
	Slug                 string     `gorm:"column:slug"`
	DisplayName          string     `gorm:"column:display_name"`
	Bio                  string     `gorm:"column:bio"`
	AvatarURL            string     `gorm:"column:avatar_url"`
	BannerURL            string     `gorm:"column:banner_url"`
	IsPrivate            bool       `gorm:"column:is_private"`
	EmailNotifications   bool       `gorm:"column:email_notifications"`
	WelcomeEmailSent     bool       `gorm:"column:welcome_email_sent"`
	LastUsernameChangeAt *time.Time `gorm:"column:last_username_change_at"`
	CreatedAt            time.Time  `gorm:"column:created_at"`
	LastEditAt           time.Time  `gorm:"column:last_edit_at"`
	DeletedAt            *time.Time `gorm:"column:deleted_at"`
}

func (profileModel) TableName() string { return "profiles" }

type usernameHistoryModel struct {
	HistoryID         uuid.UUID `gorm:"column:history_id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID            uuid.UUID `gorm:"column:user_id"`
	OldUsername       string    `gorm:"column:old_username"`
	NewUsername       string    `gorm:"column:new_username"`
	ChangedAt         time.Time `gorm:"column:changed_at"`
	RedirectExpiresAt time.Time `gorm:"column:redirect_expires_at"`
}

func (usernameHistoryModel) TableName() string { return "username_history" }

type reservedUsernameModel struct {
	ReservedUsernameID uuid.UUID `gorm:"column:reserved_username_id;type:uuid;default:gen_random_uuid();primaryKey"`
	Username           string    `gorm:"column:username"`
	ReservedAt         time.Time `gorm:"column:reserved_at"`
	Reason             string    `gorm:"column:reason"`
}

func (reservedUsernameModel) TableName() string { return "reserved_usernames" }

type profileOutboxModel struct {
	OutboxID      uuid.UUID  `gorm:"column:outbox_id;type:uuid;primaryKey"`
	EventType     string     `gorm:"column:event_type"`
	PartitionKey  string     `gorm:"column:partition_key"`
	Payload       string     `gorm:"column:payload"`
	SchemaVersion string     `gorm:"column:schema_version"`
	FirstSeenAt   time.Time  `gorm:"column:first_seen_at"`
	PublishedAt   *time.Time `gorm:"column:published_at"`
	RetryCount    int        `gorm:"column:retry_count"`
	LastError     *string    `gorm:"column:last_error"`
	LastErrorAt   *time.Time `gorm:"column:last_error_at"`
}

func (profileOutboxModel) TableName() string { return "profile_outbox" }

type profileIdempotencyModel struct {
	IdempotencyKey string    `gorm:"column:idempotency_key;primaryKey"`
	RequestHash    string    `gorm:"column:request_hash"`
	Status         string    `gorm:"column:status"`
	ResponseCode   int       `gorm:"column:response_code"`
	ResponseBody   *string   `gorm:"column:response_body"`
	ExpiresAt      time.Time `gorm:"column:expires_at"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (profileIdempotencyModel) TableName() string { return "profile_idempotency" }

type profileEventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	EventType   string    `gorm:"column:event_type"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (profileEventDedupModel) TableName() string { return "profile_event_dedup" }
