package morph

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// parallelRows splits [0, rows) into contiguous chunks and runs fn on each
// chunk concurrently. Every output row is owned by exactly one chunk so fn
// needs no synchronization as long as it only writes rows in [y0, y1).
func parallelRows(rows int, fn func(y0, y1 int) error) error {
	workers := runtime.GOMAXPROCS(0)
	if workers > rows {
		workers = rows
	}
	if workers <= 1 {
		return fn(0, rows)
	}
	chunk := (rows + workers - 1) / workers
	var g errgroup.Group
	for y0 := 0; y0 < rows; y0 += chunk {
		y1 := min(y0+chunk, rows)
		g.Go(func() error { return fn(y0, y1) })
	}
	return g.Wait()
}
