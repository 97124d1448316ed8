package availability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/linkfolio/profile-service/internal/domain"
)

const (
	defaultDebounce     = time.Second
	defaultCheckTimeout = 10 * time.Second
)

// OnResult receives availability outcomes. available is nil while loading
// and on indeterminate failures; loading is true exactly once per issued
// network call, when the request actually starts. Callers must compare the
// username against their current input before applying the result.
type OnResult func(username string, available *bool, loading bool)

type checkRequest struct {
	Username string `json:"username"`
}

type checkResponse struct {
	Available bool   `json:"available"`
	Username  string `json:"username"`
	Error     string `json:"error,omitempty"`
}

// Checker collapses rapid Check calls into at most one remote availability
// request per settled input. Superseded in-flight requests are not aborted;
// their results are suppressed (soft cancellation).
type Checker struct {
	endpoint   string
	httpClient *http.Client
	cache      *Cache
	debounce   time.Duration
	timeout    time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending map[string]struct{}
	latest  string
}

func NewChecker(endpoint string, cache *Cache) *Checker {
	if cache == nil {
		cache = NewCache(defaultMaxEntries, defaultEntryTTL)
	}
	return &Checker{
		endpoint:   endpoint,
		httpClient: &http.Client{},
		cache:      cache,
		debounce:   defaultDebounce,
		timeout:    defaultCheckTimeout,
		pending:    make(map[string]struct{}),
	}
}

// SetDebounce overrides the settle window. Intended for tests.
func (c *Checker) SetDebounce(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.debounce = d
}

// Cache returns the underlying username cache.
func (c *Checker) Cache() *Cache { return c.cache }

// Check validates the username, serves a still-valid cached result
// immediately, and otherwise (re)starts the debounce timer. Each call
// supersedes any earlier value still waiting or in flight.
func (c *Checker) Check(username string, onResult OnResult) error {
	if err := domain.ValidateUsername(username); err != nil {
		return err
	}
	username = domain.NormalizeUsername(username)

	if cached, ok := c.cache.CachedResult(username); ok {
		result := cached
		onResult(username, &result, false)
		c.mu.Lock()
		c.latest = username
		if c.timer != nil {
			c.timer.Stop()
			c.timer = nil
		}
		c.mu.Unlock()
		return nil
	}

	c.mu.Lock()
	c.latest = username
	if c.timer != nil {
		c.timer.Stop()
	}
	debounce := c.debounce
	c.timer = time.AfterFunc(debounce, func() {
		c.performCheck(username, onResult)
	})
	c.mu.Unlock()
	return nil
}

// CancelPending stops the debounce timer and drops the pending set.
// Outstanding network requests are not aborted; marking every value stale
// suppresses their callbacks instead.
func (c *Checker) CancelPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.pending = make(map[string]struct{})
	c.latest = ""
}

func (c *Checker) performCheck(username string, onResult OnResult) {
	c.mu.Lock()
	if _, inFlight := c.pending[username]; inFlight {
		c.mu.Unlock()
		return
	}
	c.pending[username] = struct{}{}
	c.mu.Unlock()

	onResult(username, nil, true)

	available, err := c.checkRemote(username)

	c.mu.Lock()
	delete(c.pending, username)
	stale := c.latest != username
	c.mu.Unlock()

	if err != nil {
		if !stale {
			onResult(username, nil, false)
		}
		return
	}
	c.cache.CacheResult(username, available, 0)
	if stale {
		return
	}
	result := available
	onResult(username, &result, false)
}

func (c *Checker) checkRemote(username string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	body, err := json.Marshal(checkRequest{Username: username})
	if err != nil {
		return false, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("availability check failed with status %d", resp.StatusCode)
	}
	var parsed checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return false, err
	}
	if parsed.Error != "" {
		return false, fmt.Errorf("availability check failed: %s", parsed.Error)
	}
	return parsed.Available, nil
}
