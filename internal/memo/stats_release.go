//go:build !diagnostics

package memo

// cacheStats compiles to nothing outside diagnostic builds. The empty
// struct and no-op methods let call sites stay unconditional.
type cacheStats struct{}

func (cacheStats) hit()  {}
func (cacheStats) miss() {}

func (cacheStats) snapshot() (Statistics, bool) {
	return Statistics{}, false
}
