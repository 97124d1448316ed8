package cache

import (
	"testing"
	"time"
)

func TestManagerGetSet(t *testing.T) {
	t.Parallel()

	m := NewManager(nil)
	params := map[string]string{"userId": "u1"}
	if _, ok := m.Get("getProfile", params); ok {
		t.Fatalf("empty manager returned a hit")
	}
	m.Set("getProfile", params, "payload")
	got, ok := m.Get("getProfile", params)
	if !ok || got != "payload" {
		t.Fatalf("Get = (%v, %v)", got, ok)
	}

	stats := m.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Fatalf("stats = %+v, want 1 hit 1 miss", stats)
	}
}

func TestGetTypedMismatchIsMiss(t *testing.T) {
	t.Parallel()

	m := NewManager(nil)
	m.Set("getProfile", map[string]string{"userId": "u1"}, 42)
	if _, ok := GetTyped[string](m, "getProfile", map[string]string{"userId": "u1"}); ok {
		t.Fatalf("type mismatch served as hit")
	}
	if v, ok := GetTyped[int](m, "getProfile", map[string]string{"userId": "u1"}); !ok || v != 42 {
		t.Fatalf("typed get = (%v, %v)", v, ok)
	}
}

func TestInvalidateTableUsesExactRuleKeys(t *testing.T) {
	t.Parallel()

	m := NewManager(nil)
	m.RegisterTableOps("profiles", "getProfile", "checkUsername")
	m.RegisterRule("profiles", func(changed map[string]string) []string {
		if id := changed["id"]; id != "" {
			return []string{Key("getProfile", map[string]string{"userId": id})}
		}
		return nil
	})

	m.Set("getProfile", map[string]string{"userId": "u1"}, "one")
	m.Set("getProfile", map[string]string{"userId": "u2"}, "two")

	m.InvalidateTable("profiles", map[string]string{"id": "u1"})

	if _, ok := m.Get("getProfile", map[string]string{"userId": "u1"}); ok {
		t.Fatalf("changed record survived invalidation")
	}
	if _, ok := m.Get("getProfile", map[string]string{"userId": "u2"}); !ok {
		t.Fatalf("unrelated record was invalidated")
	}
}

func TestInvalidateTableFallsBackToFragmentSweep(t *testing.T) {
	t.Parallel()

	m := NewManager(nil)
	m.RegisterTableOps("profiles", "getProfile", "checkUsername")

	m.Set("getProfile", map[string]string{"userId": "u1"}, "one")
	m.Set("checkUsername", map[string]string{"username": "jane"}, "check")
	m.Set("getSettings", map[string]string{"userId": "u1"}, "other-table")

	// No changed-record data: every key owned by the table goes.
	m.InvalidateTable("profiles", nil)

	if _, ok := m.Get("getProfile", map[string]string{"userId": "u1"}); ok {
		t.Fatalf("fragment sweep missed getProfile")
	}
	if _, ok := m.Get("checkUsername", map[string]string{"username": "jane"}); ok {
		t.Fatalf("fragment sweep missed checkUsername")
	}
	if _, ok := m.Get("getSettings", map[string]string{"userId": "u1"}); !ok {
		t.Fatalf("fragment sweep removed another table's key")
	}
}

func TestFlushAfterWriteDropsEverything(t *testing.T) {
	t.Parallel()

	m := NewManager(nil)
	m.RegisterTableOps("profiles", "getProfile")
	m.Set("getProfile", map[string]string{"userId": "u1"}, "one")
	m.Set("unrelatedOp", map[string]string{"x": "y"}, "other")

	before := m.Stats().Version
	m.FlushAfterWrite("profiles", map[string]string{"id": "u1"})

	if m.Stats().Entries != 0 {
		t.Fatalf("entries remain after flush: %d", m.Stats().Entries)
	}
	if m.Stats().Version <= before {
		t.Fatalf("version did not advance on flush")
	}
}

func TestVersionAdvancesOnEveryInvalidation(t *testing.T) {
	t.Parallel()

	m := NewManager(nil)
	v0 := m.Stats().Version
	m.InvalidateTable("profiles", nil)
	v1 := m.Stats().Version
	m.Clear()
	v2 := m.Stats().Version
	if !(v0 < v1 && v1 < v2) {
		t.Fatalf("version sequence %d, %d, %d not strictly increasing", v0, v1, v2)
	}
}

func TestSweepRemovesOnlyAgedEntries(t *testing.T) {
	t.Parallel()

	m := NewManager(nil)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.nowFn = func() time.Time { return now }

	m.Set("getProfile", map[string]string{"userId": "old"}, "old")
	now = now.Add(25 * time.Hour)
	m.Set("getProfile", map[string]string{"userId": "new"}, "new")

	m.sweep()

	if _, ok := m.Get("getProfile", map[string]string{"userId": "old"}); ok {
		t.Fatalf("aged entry survived sweep")
	}
	if _, ok := m.Get("getProfile", map[string]string{"userId": "new"}); !ok {
		t.Fatalf("fresh entry swept")
	}
	if m.Stats().Swept != 1 {
		t.Fatalf("swept counter = %d, want 1", m.Stats().Swept)
	}
}

func TestStartStopIdempotent(t *testing.T) {
	t.Parallel()

	m := NewManager(nil)
	m.SetSweepPolicy(10*time.Millisecond, time.Hour)
	m.Start()
	m.Stop()
	m.Stop()
}
