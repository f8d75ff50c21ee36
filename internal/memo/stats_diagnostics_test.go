//go:build diagnostics

package memo

import "testing"

func TestStatisticsCountersCollected(t *testing.T) {
	c := NewCache[int, string]()

	c.TryGet(1) // miss
	c.Set(1, "one")
	c.TryGet(1) // hit
	c.TryGet(2) // miss
	c.GetOrCompute(1, func() string { return "x" }) // hit
	c.GetOrCompute(3, func() string { return "three" }) // miss

	stats, collected := c.Statistics()
	if !collected {
		t.Fatal("Expected counters to be collected in diagnostic builds")
	}
	if stats.Hits != 2 {
		t.Errorf("Hits = %d, want 2", stats.Hits)
	}
	if stats.Misses != 3 {
		t.Errorf("Misses = %d, want 3", stats.Misses)
	}
	if stats.Entries != 2 {
		t.Errorf("Entries = %d, want 2", stats.Entries)
	}
}
