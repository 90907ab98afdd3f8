// Package parallel normalizes worker counts for errgroup fan-outs.
package parallel

import "runtime"

// Limit returns n, or GOMAXPROCS when n <= 0. errgroup.SetLimit(0) would
// block every Go call, so callers pass their count through Limit.
func Limit(n int) int {
	if n <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return n
}
