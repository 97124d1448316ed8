// Package ratelimit provides a fixed-window request limiter for the
// availability endpoint. The limiter is constructed explicitly and owns
// its cleanup ticker; Stop releases it.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

type windowState struct {
	count    int
	windowAt time.Time
}

type WindowLimiter struct {
	mu      sync.Mutex
	windows map[string]*windowState
	limit   int
	window  time.Duration
	nowFn   func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewWindowLimiter(limit int, window time.Duration) *WindowLimiter {
	if limit <= 0 {
		limit = 30
	}
	if window <= 0 {
		window = time.Minute
	}
	l := &WindowLimiter{
		windows: make(map[string]*windowState),
		limit:   limit,
		window:  window,
		nowFn:   time.Now,
		stopCh:  make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

func (l *WindowLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := l.nowFn()
	l.mu.Lock()
	defer l.mu.Unlock()
	state, ok := l.windows[key]
	if !ok || now.Sub(state.windowAt) >= l.window {
		l.windows[key] = &windowState{count: 1, windowAt: now}
		return true, nil
	}
	state.count++
	return state.count <= l.limit, nil
}

func (l *WindowLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

func (l *WindowLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := l.nowFn()
			l.mu.Lock()
			for key, state := range l.windows {
				if now.Sub(state.windowAt) >= 2*l.window {
					delete(l.windows, key)
				}
			}
			l.mu.Unlock()
		case <-l.stopCh:
			return
		}
	}
}
