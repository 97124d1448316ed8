// Package availability provides the client-side username availability kit:
// a taken-name bloom filter, a TTL result cache, and a debounced checker
// that talks to the availability endpoint.
package availability

import (
	"strings"
	"sync"
)

const (
	defaultBloomSize      = 1000
	defaultBloomHashCount = 3
)

// BloomFilter is a fixed-size probabilistic membership set over strings.
// A false result is authoritative ("never added"); a true result means
// "possibly added" and must be confirmed elsewhere.
type BloomFilter struct {
	mu        sync.RWMutex
	bits      []bool
	hashCount int
}

func NewBloomFilter(size, hashCount int) *BloomFilter {
	if size <= 0 {
		size = defaultBloomSize
	}
	if hashCount <= 0 {
		hashCount = defaultBloomHashCount
	}
	return &BloomFilter{
		bits:      make([]bool, size),
		hashCount: hashCount,
	}
}

// positions computes the bit index for each hash function. Each function is
// a rolling hash over the lowercased item with a distinct multiplicative
// seed per index.
func (f *BloomFilter) positions(item string) []int {
	item = strings.ToLower(item)
	out := make([]int, f.hashCount)
	for i := 0; i < f.hashCount; i++ {
		seed := i*31 + 1
		hash := 0
		for _, ch := range item {
			hash = (hash*seed + int(ch)) % len(f.bits)
		}
		out[i] = hash
	}
	return out
}

// Add marks the item as seen. Idempotent; bits are never unset except by
// Clear.
func (f *BloomFilter) Add(item string) {
	positions := f.positions(item)
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range positions {
		f.bits[p] = true
	}
}

// MightContain reports whether the item may have been added. False means
// the item was definitely never added.
func (f *BloomFilter) MightContain(item string) bool {
	positions := f.positions(item)
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, p := range positions {
		if !f.bits[p] {
			return false
		}
	}
	return true
}

// FillRatio returns the fraction of bits set. Diagnostic only.
func (f *BloomFilter) FillRatio() float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	set := 0
	for _, b := range f.bits {
		if b {
			set++
		}
	}
	return float64(set) / float64(len(f.bits))
}

func (f *BloomFilter) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.bits {
		f.bits[i] = false
	}
}
