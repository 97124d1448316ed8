package application

import (
	"time"

	"github.com/linkfolio/profile-service/internal/cache"
	"github.com/linkfolio/profile-service/internal/ports"
)

type Service struct {
	cfg               Config
	profiles          ports.ProfileRepository
	reservedUsernames ports.ReservedUsernameRepository
	usernameHistory   ports.UsernameHistoryRepository
	outbox            ports.OutboxRepository
	eventDedup        ports.EventDedupRepository
	idempotency       ports.IdempotencyRepository
	tokens            ports.TokenValidator
	cache             *cache.Manager
	nowFn             func() time.Time
}

type Dependencies struct {
	Config            Config
	Profiles          ports.ProfileRepository
	ReservedUsernames ports.ReservedUsernameRepository
	UsernameHistory   ports.UsernameHistoryRepository
	Outbox            ports.OutboxRepository
	EventDedup        ports.EventDedupRepository
	Idempotency       ports.IdempotencyRepository
	Tokens            ports.TokenValidator
	Cache             *cache.Manager
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "profile-service"
	}
	if cfg.UsernameCooldownDays <= 0 {
		cfg.UsernameCooldownDays = 30
	}
	if cfg.UsernameRedirectDays <= 0 {
		cfg.UsernameRedirectDays = 90
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = 7 * 24 * time.Hour
	}
	if cfg.EventDedupTTL <= 0 {
		cfg.EventDedupTTL = 7 * 24 * time.Hour
	}
	if deps.Cache == nil {
		deps.Cache = cache.NewManager(nil)
	}

	s := &Service{
		cfg:               cfg,
		profiles:          deps.Profiles,
		reservedUsernames: deps.ReservedUsernames,
		usernameHistory:   deps.UsernameHistory,
		outbox:            deps.Outbox,
		eventDedup:        deps.EventDedup,
		idempotency:       deps.Idempotency,
		tokens:            deps.Tokens,
		cache:             deps.Cache,
		nowFn:             func() time.Time { return time.Now().UTC() },
	}
	s.registerInvalidationRules()
	return s
}
