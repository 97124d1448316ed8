// Package cache implements the process-wide read-through cache for
// database reads, with table-scoped invalidation rules. Entries have no
// read-path TTL: they stay fresh until a write invalidates them. A
// background sweep drops very old entries as a memory-safety net only.
//
// The manager is safe for concurrent use within one process. It is NOT
// shared across instances; a multi-instance deployment serves stale reads
// until the other instance's sweep. Known limitation.
package cache

import (
	"log/slog"
	"strings"
	"sync"
	"time"
)

const (
	defaultSweepInterval = time.Minute
	defaultMaxEntryAge   = 24 * time.Hour
)

type entry struct {
	data     any
	storedAt time.Time
	version  uint64
}

// Rule maps a changed record (identifying field name → value) to the exact
// cache keys it affects.
type Rule func(changed map[string]string) []string

// Stats is a point-in-time snapshot of manager counters.
type Stats struct {
	Entries       int
	Hits          uint64
	Misses        uint64
	Invalidations uint64
	Swept         uint64
	Version       uint64
}

type Manager struct {
	mu        sync.Mutex
	entries   map[string]entry
	rules     map[string][]Rule
	fragments map[string][]string
	version   uint64

	sweepInterval time.Duration
	maxEntryAge   time.Duration
	nowFn         func() time.Time
	logger        *slog.Logger

	stopOnce sync.Once
	stopCh   chan struct{}

	hits          uint64
	misses        uint64
	invalidations uint64
	swept         uint64
}

func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		entries:       make(map[string]entry),
		rules:         make(map[string][]Rule),
		fragments:     make(map[string][]string),
		sweepInterval: defaultSweepInterval,
		maxEntryAge:   defaultMaxEntryAge,
		nowFn:         time.Now,
		logger:        logger,
		stopCh:        make(chan struct{}),
	}
}

// SetSweepPolicy overrides the safety-sweep cadence and entry age bound.
// Call before Start.
func (m *Manager) SetSweepPolicy(interval, maxAge time.Duration) {
	if interval > 0 {
		m.sweepInterval = interval
	}
	if maxAge > 0 {
		m.maxEntryAge = maxAge
	}
}

// Start launches the background safety sweep. Stop releases it; the
// manager owns its ticker so tests and hot restarts do not leak timers.
func (m *Manager) Start() {
	go func() {
		ticker := time.NewTicker(m.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.sweep()
			case <-m.stopCh:
				return
			}
		}
	}()
}

func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// Get returns the cached payload for the operation and parameters. There
// is no TTL on this path: a present entry is valid until invalidated.
func (m *Manager) Get(operation string, params map[string]string) (any, bool) {
	key := Key(operation, params)
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		m.misses++
		return nil, false
	}
	m.hits++
	return e.data, true
}

// Set stores the payload stamped with the current global version.
func (m *Manager) Set(operation string, params map[string]string, data any) {
	key := Key(operation, params)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry{data: data, storedAt: m.nowFn(), version: m.version}
}

// GetTyped is the typed read used by callers that know the payload shape
// stored under an operation name. A type mismatch counts as a miss.
func GetTyped[T any](m *Manager, operation string, params map[string]string) (T, bool) {
	var zero T
	raw, ok := m.Get(operation, params)
	if !ok {
		return zero, false
	}
	typed, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// RegisterRule attaches an invalidation rule to a table. A table may carry
// several rules (one per identifying field, typically).
func (m *Manager) RegisterRule(table string, rule Rule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules[table] = append(m.rules[table], rule)
}

// RegisterTableOps records the operation-name fragments owned by a table.
// They drive the blanket substring sweep used when an invalidation has no
// changed-record data to compute exact keys from.
func (m *Manager) RegisterTableOps(table string, operations ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fragments[table] = append(m.fragments[table], operations...)
}

// InvalidateTable removes the cache entries affected by a change to the
// table. With changed-record data and registered rules it deletes exactly
// the computed keys; otherwise it falls back to deleting every key that
// contains one of the table's registered operation fragments.
func (m *Manager) InvalidateTable(table string, changed map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidateTableLocked(table, changed)
}

// FlushAfterWrite wipes the whole cache and records the targeted
// invalidation for the changed record in one atomic step, so no concurrent
// reader can repopulate a stale entry between the two.
func (m *Manager) FlushAfterWrite(table string, changed map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dropped := len(m.entries)
	m.entries = make(map[string]entry)
	m.invalidateTableLocked(table, changed)
	m.logger.Debug("cache flushed after write",
		"module", "cache.manager",
		"table", table,
		"dropped_entries", dropped,
	)
}

func (m *Manager) invalidateTableLocked(table string, changed map[string]string) {
	// The version counter is an observability signal, not a freshness
	// check: reads never compare versions.
	m.version++

	rules := m.rules[table]
	if changed != nil && len(rules) > 0 {
		for _, rule := range rules {
			for _, key := range rule(changed) {
				if _, ok := m.entries[key]; ok {
					delete(m.entries, key)
					m.invalidations++
				}
			}
		}
		return
	}

	for _, fragment := range m.fragments[table] {
		for key := range m.entries {
			if strings.Contains(key, fragment) {
				delete(m.entries, key)
				m.invalidations++
			}
		}
	}
}

func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.version++
	m.entries = make(map[string]entry)
}

func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		Entries:       len(m.entries),
		Hits:          m.hits,
		Misses:        m.misses,
		Invalidations: m.invalidations,
		Swept:         m.swept,
		Version:       m.version,
	}
}

func (m *Manager) sweep() {
	now := m.nowFn()
	m.mu.Lock()
	removed := 0
	for key, e := range m.entries {
		if now.Sub(e.storedAt) > m.maxEntryAge {
			delete(m.entries, key)
			removed++
		}
	}
	m.swept += uint64(removed)
	m.mu.Unlock()
	if removed > 0 {
		m.logger.Debug("cache sweep removed stale entries",
			"module", "cache.manager",
			"removed", removed,
		)
	}
}
