//go:build diagnostics

package memo

import "sync/atomic"

// cacheStats counts hits and misses in diagnostic builds.
type cacheStats struct {
	hits   atomic.Uint64
	misses atomic.Uint64
}

func (s *cacheStats) hit()  { s.hits.Add(1) }
func (s *cacheStats) miss() { s.misses.Add(1) }

func (s *cacheStats) snapshot() (Statistics, bool) {
	return Statistics{
		Hits:   s.hits.Load(),
		Misses: s.misses.Load(),
	}, true
}
