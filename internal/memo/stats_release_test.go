//go:build !diagnostics

package memo

import "testing"

func TestStatisticsCountersDisabled(t *testing.T) {
	c := NewCache[int, string]()

	c.TryGet(1)
	c.Set(1, "one")
	c.TryGet(1)

	stats, collected := c.Statistics()
	if collected {
		t.Error("Expected counters to be disabled outside diagnostic builds")
	}
	if stats.Hits != 0 || stats.Misses != 0 {
		t.Errorf("Expected zero counters, got hits=%d misses=%d", stats.Hits, stats.Misses)
	}
	// Entry count is real in every build
	if stats.Entries != 1 {
		t.Errorf("Entries = %d, want 1", stats.Entries)
	}
}
