package availability

import (
	"fmt"
	"testing"
)

func TestBloomFilterNoFalseNegatives(t *testing.T) {
	t.Parallel()

	f := NewBloomFilter(1000, 3)
	names := make([]string, 0, 200)
	for i := 0; i < 200; i++ {
		names = append(names, fmt.Sprintf("user_%d", i))
	}
	for _, name := range names {
		f.Add(name)
	}
	for _, name := range names {
		if !f.MightContain(name) {
			t.Fatalf("added name %q reported absent", name)
		}
	}
}

func TestBloomFilterCaseInsensitive(t *testing.T) {
	t.Parallel()

	f := NewBloomFilter(1000, 3)
	f.Add("JaneDoe")
	if !f.MightContain("janedoe") {
		t.Fatalf("expected lowercase lookup to hit")
	}
}

func TestBloomFilterFillRatioMonotonic(t *testing.T) {
	t.Parallel()

	f := NewBloomFilter(1000, 3)
	prev := f.FillRatio()
	if prev != 0 {
		t.Fatalf("empty filter fill ratio = %v, want 0", prev)
	}
	for i := 0; i < 50; i++ {
		f.Add(fmt.Sprintf("name_%d", i))
		ratio := f.FillRatio()
		if ratio < prev {
			t.Fatalf("fill ratio decreased from %v to %v", prev, ratio)
		}
		prev = ratio
	}
	if prev <= 0 || prev > 1 {
		t.Fatalf("fill ratio out of range: %v", prev)
	}
}

func TestBloomFilterClear(t *testing.T) {
	t.Parallel()

	f := NewBloomFilter(1000, 3)
	f.Add("taken_name")
	f.Clear()
	if f.FillRatio() != 0 {
		t.Fatalf("expected empty filter after clear")
	}
	if f.MightContain("taken_name") {
		t.Fatalf("cleared filter still reports membership")
	}
}

func TestBloomFilterDefaults(t *testing.T) {
	t.Parallel()

	f := NewBloomFilter(0, 0)
	f.Add("someone")
	if !f.MightContain("someone") {
		t.Fatalf("default-sized filter lost membership")
	}
}
