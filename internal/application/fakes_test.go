package application

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/linkfolio/profile-service/internal/domain"
	"github.com/linkfolio/profile-service/internal/ports"
)

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]domain.Profile
	history  []domain.UsernameHistory

	getByUserIDCalls int
	getBySlugCalls   int
	checkCalls       int
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[uuid.UUID]domain.Profile)}
}

func (r *fakeProfileRepo) put(p domain.Profile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.UserID] = p
}

func (r *fakeProfileRepo) CreateProfileWithDefaults(_ context.Context, params ports.CreateProfileParams) (domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.profiles[params.UserID]; ok {
		return existing, nil
	}
	p := domain.Profile{
		ProfileID:          uuid.New(),
		UserID:             params.UserID,
		Username:           params.Username,
		Slug:               params.Username,
		DisplayName:        params.DisplayName,
		EmailNotifications: params.EmailNotifications,
		CreatedAt:          params.CreatedAt,
		LastEditAt:         params.CreatedAt,
	}
	r.profiles[params.UserID] = p
	return p, nil
}

func (r *fakeProfileRepo) GetByUserID(_ context.Context, userID uuid.UUID) (domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getByUserIDCalls++
	p, ok := r.profiles[userID]
	if !ok || p.DeletedAt != nil {
		return domain.Profile{}, domain.ErrNotFound
	}
	return p, nil
}

func (r *fakeProfileRepo) GetBySlug(_ context.Context, slug string) (domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getBySlugCalls++
	for _, p := range r.profiles {
		if p.Slug == slug && p.DeletedAt == nil {
			return p, nil
		}
	}
	return domain.Profile{}, domain.ErrNotFound
}

func (r *fakeProfileRepo) UpdateProfile(_ context.Context, params ports.UpdateProfileParams) (domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[params.UserID]
	if !ok || p.DeletedAt != nil {
		return domain.Profile{}, domain.ErrNotFound
	}
	if params.DisplayName != nil {
		p.DisplayName = strings.TrimSpace(*params.DisplayName)
	}
	if params.Bio != nil {
		p.Bio = strings.TrimSpace(*params.Bio)
	}
	if params.AvatarURL != nil {
		p.AvatarURL = *params.AvatarURL
	}
	if params.BannerURL != nil {
		p.BannerURL = *params.BannerURL
	}
	if params.IsPrivate != nil {
		p.IsPrivate = *params.IsPrivate
	}
	if params.EmailNotifications != nil {
		p.EmailNotifications = *params.EmailNotifications
	}
	if params.WelcomeEmailSent != nil {
		p.WelcomeEmailSent = *params.WelcomeEmailSent
	}
	p.LastEditAt = params.UpdatedAt
	r.profiles[params.UserID] = p
	return p, nil
}

func (r *fakeProfileRepo) UpdateUsername(_ context.Context, userID uuid.UUID, newUsername string, now time.Time, redirectDays int) (string, domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return "", domain.Profile{}, domain.ErrNotFound
	}
	for _, other := range r.profiles {
		if other.UserID != userID && other.Username == newUsername {
			return "", domain.Profile{}, domain.ErrConflict
		}
	}
	old := p.Username
	p.Username = newUsername
	p.Slug = newUsername
	p.LastUsernameChangeAt = &now
	p.LastEditAt = now
	r.profiles[userID] = p
	if old != "" {
		r.history = append(r.history, domain.UsernameHistory{
			HistoryID:         uuid.New(),
			UserID:            userID,
			OldUsername:       old,
			NewUsername:       newUsername,
			ChangedAt:         now,
			RedirectExpiresAt: now.Add(time.Duration(redirectDays) * 24 * time.Hour),
		})
	}
	return old, p, nil
}

func (r *fakeProfileRepo) ClaimUsername(_ context.Context, userID uuid.UUID, username string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return false, domain.ErrNotFound
	}
	for _, other := range r.profiles {
		if other.UserID != userID && other.Username == username {
			return false, nil
		}
	}
	if p.Username != "" && p.Username != username {
		return false, domain.ErrConflict
	}
	p.Username = username
	p.Slug = username
	p.LastEditAt = now
	r.profiles[userID] = p
	return true, nil
}

func (r *fakeProfileRepo) CheckUsernameAvailability(_ context.Context, username string) (ports.UsernameAvailability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkCalls++
	for _, p := range r.profiles {
		if p.Username == username && p.DeletedAt == nil {
			return ports.UsernameAvailability{Available: false, Reason: "taken"}, nil
		}
	}
	return ports.UsernameAvailability{Available: true}, nil
}

func (r *fakeProfileRepo) SoftDeleteByUserID(_ context.Context, userID uuid.UUID, deletedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return domain.ErrNotFound
	}
	p.DeletedAt = &deletedAt
	p.Username = ""
	p.Slug = ""
	r.profiles[userID] = p
	return nil
}

type fakeReservedRepo struct {
	names map[string]bool
}

func (r *fakeReservedRepo) IsReserved(_ context.Context, username string) (bool, error) {
	return r.names[username], nil
}

type fakeHistoryRepo struct {
	profiles *fakeProfileRepo
}

func (r *fakeHistoryRepo) ResolveRedirect(_ context.Context, oldSlug string, now time.Time) (string, bool, error) {
	r.profiles.mu.Lock()
	defer r.profiles.mu.Unlock()
	var best *domain.UsernameHistory
	for i := range r.profiles.history {
		h := r.profiles.history[i]
		if h.OldUsername == oldSlug && h.RedirectExpiresAt.After(now) {
			if best == nil || h.ChangedAt.After(best.ChangedAt) {
				best = &h
			}
		}
	}
	if best == nil {
		return "", false, nil
	}
	return best.NewUsername, true, nil
}

func (r *fakeHistoryRepo) ListByUserID(_ context.Context, userID uuid.UUID, limit int) ([]domain.UsernameHistory, error) {
	r.profiles.mu.Lock()
	defer r.profiles.mu.Unlock()
	var out []domain.UsernameHistory
	for i := len(r.profiles.history) - 1; i >= 0 && len(out) < limit; i-- {
		if r.profiles.history[i].UserID == userID {
			out = append(out, r.profiles.history[i])
		}
	}
	return out, nil
}

type fakeOutbox struct {
	mu     sync.Mutex
	events []ports.OutboxEvent
}

func (o *fakeOutbox) Enqueue(_ context.Context, event ports.OutboxEvent) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
	return nil
}

func (o *fakeOutbox) FetchUnpublished(_ context.Context, limit int) ([]ports.OutboxRecord, error) {
	return nil, nil
}

func (o *fakeOutbox) MarkPublished(_ context.Context, _ uuid.UUID, _ time.Time) error { return nil }
func (o *fakeOutbox) MarkFailed(_ context.Context, _ uuid.UUID, _ string, _ time.Time) error {
	return nil
}

func (o *fakeOutbox) eventsOfType(eventType string) []ports.OutboxEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []ports.OutboxEvent
	for _, e := range o.events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

type fakeDedup struct {
	mu        sync.Mutex
	processed map[string]time.Time
}

func newFakeDedup() *fakeDedup {
	return &fakeDedup{processed: make(map[string]time.Time)}
}

func (d *fakeDedup) IsDuplicate(_ context.Context, eventID string, now time.Time) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	expiry, ok := d.processed[eventID]
	return ok && expiry.After(now), nil
}

func (d *fakeDedup) MarkProcessed(_ context.Context, eventID, _ string, expiresAt time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.processed[eventID] = expiresAt
	return nil
}

type fakeIdempotency struct {
	mu     sync.Mutex
	hashes map[string]string
}

func newFakeIdempotency() *fakeIdempotency {
	return &fakeIdempotency{hashes: make(map[string]string)}
}

func (i *fakeIdempotency) Reserve(_ context.Context, key, requestHash string, _ time.Time) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if existing, ok := i.hashes[key]; ok && existing != requestHash {
		return domain.ErrIdempotencyConflict
	}
	i.hashes[key] = requestHash
	return nil
}

func (i *fakeIdempotency) Complete(_ context.Context, _ string, _ int, _ []byte, _ time.Time) error {
	return nil
}
