package postgres

import (
	"github.com/linkfolio/profile-service/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	Profiles          ports.ProfileRepository
	ReservedUsernames ports.ReservedUsernameRepository
	UsernameHistory   ports.UsernameHistoryRepository
	Outbox            ports.OutboxRepository
	EventDedup        ports.EventDedupRepository
	Idempotency       ports.IdempotencyRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Profiles:          &profileRepository{db: db},
		ReservedUsernames: &reservedUsernameRepository{db: db},
		UsernameHistory:   &usernameHistoryRepository{db: db},
		Outbox:            &outboxRepository{db: db},
		EventDedup:        &eventDedupRepository{db: db},
		Idempotency:       &idempotencyRepository{db: db},
	}
}
