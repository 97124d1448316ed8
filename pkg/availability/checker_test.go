package availability

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type recordedResult struct {
	username  string
	available *bool
	loading   bool
}

type resultRecorder struct {
	mu      sync.Mutex
	results []recordedResult
	done    chan recordedResult
}

func newResultRecorder() *resultRecorder {
	return &resultRecorder{done: make(chan recordedResult, 16)}
}

func (r *resultRecorder) callback(username string, available *bool, loading bool) {
	rec := recordedResult{username: username, available: available, loading: loading}
	r.mu.Lock()
	r.results = append(r.results, rec)
	r.mu.Unlock()
	if !loading {
		r.done <- rec
	}
}

func (r *resultRecorder) waitFinal(t *testing.T) recordedResult {
	t.Helper()
	select {
	case rec := <-r.done:
		return rec
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for checker result")
		return recordedResult{}
	}
}

func availabilityServer(t *testing.T, calls *atomic.Int64, available bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req checkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(checkResponse{Available: available, Username: req.Username})
	}))
}

func TestCheckRejectsInvalidUsername(t *testing.T) {
	t.Parallel()

	c := NewChecker("http://unused.invalid", nil)
	if err := c.Check("ab", func(string, *bool, bool) {}); err == nil {
		t.Fatalf("expected validation error for short username")
	}
	if err := c.Check("Bad Name!", func(string, *bool, bool) {}); err == nil {
		t.Fatalf("expected validation error for illegal characters")
	}
}

func TestCheckServesCachedResultImmediately(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	server := availabilityServer(t, &calls, true)
	defer server.Close()

	c := NewChecker(server.URL, nil)
	c.Cache().CacheResult("jane", false, time.Minute)

	rec := newResultRecorder()
	if err := c.Check("jane", rec.callback); err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	final := rec.waitFinal(t)
	if final.available == nil || *final.available {
		t.Fatalf("expected cached unavailable result, got %+v", final)
	}
	if calls.Load() != 0 {
		t.Fatalf("cached hit issued %d network calls", calls.Load())
	}
}

func TestCheckDebounceCollapsesRapidInput(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	server := availabilityServer(t, &calls, true)
	defer server.Close()

	c := NewChecker(server.URL, nil)
	c.SetDebounce(40 * time.Millisecond)

	rec := newResultRecorder()
	for _, name := range []string{"jan", "jane", "jane_d", "jane_doe"} {
		if len(name) < 3 {
			continue
		}
		if err := c.Check(name, rec.callback); err != nil {
			t.Fatalf("Check(%q): %v", name, err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	final := rec.waitFinal(t)
	if final.username != "jane_doe" {
		t.Fatalf("final result for %q, want last typed value", final.username)
	}
	if final.available == nil || !*final.available {
		t.Fatalf("expected available=true, got %+v", final)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("debounce issued %d network calls, want 1", got)
	}
	// Exactly one loading notification, for the request that ran.
	loadingCount := 0
	rec.mu.Lock()
	for _, r := range rec.results {
		if r.loading {
			loadingCount++
		}
	}
	rec.mu.Unlock()
	if loadingCount != 1 {
		t.Fatalf("loading fired %d times, want 1", loadingCount)
	}
}

func TestCheckSuppressesStaleResult(t *testing.T) {
	t.Parallel()

	firstStarted := make(chan struct{})
	releaseFirst := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req checkRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Username == "first_name" {
			close(firstStarted)
			<-releaseFirst
		}
		_ = json.NewEncoder(w).Encode(checkResponse{Available: true, Username: req.Username})
	}))
	defer server.Close()

	c := NewChecker(server.URL, nil)
	c.SetDebounce(10 * time.Millisecond)

	rec := newResultRecorder()
	if err := c.Check("first_name", rec.callback); err != nil {
		t.Fatalf("Check: %v", err)
	}
	<-firstStarted
	if err := c.Check("second_name", rec.callback); err != nil {
		t.Fatalf("Check: %v", err)
	}
	close(releaseFirst)

	final := rec.waitFinal(t)
	if final.username != "second_name" {
		t.Fatalf("final callback was for %q, want second_name", final.username)
	}
	// The suppressed result still lands in the cache for future lookups.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := c.Cache().CachedResult("first_name"); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("stale result was not cached")
		}
		time.Sleep(5 * time.Millisecond)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	for _, r := range rec.results {
		if r.username == "first_name" && !r.loading {
			t.Fatalf("superseded request delivered a result: %+v", r)
		}
	}
}

func TestCheckReportsIndeterminateOnServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewChecker(server.URL, nil)
	c.SetDebounce(10 * time.Millisecond)

	rec := newResultRecorder()
	if err := c.Check("jane_doe", rec.callback); err != nil {
		t.Fatalf("Check: %v", err)
	}
	final := rec.waitFinal(t)
	if final.available != nil {
		t.Fatalf("error outcome must be indeterminate, got %v", *final.available)
	}
	// Failures are never cached.
	if _, ok := c.Cache().CachedResult("jane_doe"); ok {
		t.Fatalf("failed check was cached")
	}
}

func TestCancelPendingStopsDebouncedCheck(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	server := availabilityServer(t, &calls, true)
	defer server.Close()

	c := NewChecker(server.URL, nil)
	c.SetDebounce(30 * time.Millisecond)

	rec := newResultRecorder()
	if err := c.Check("jane_doe", rec.callback); err != nil {
		t.Fatalf("Check: %v", err)
	}
	c.CancelPending()
	time.Sleep(80 * time.Millisecond)
	if calls.Load() != 0 {
		t.Fatalf("cancelled check still issued %d network calls", calls.Load())
	}
}
