// Package utils contains small helpers shared by the image transforms.
package utils

import (
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// ParallelFactor controls the max level of parallelization. This might be useful
// to set in tests where too much parallelism actually slows tests down in
// aggregate.
var ParallelFactor = runtime.GOMAXPROCS(0)

func init() {
	if ParallelFactor <= 0 {
		ParallelFactor = 1
	}
	quarterProcs := float64(ParallelFactor) * .25
	if quarterProcs > 8 {
		ParallelFactor = int(quarterProcs)
	}
}

// ParallelForEachRow calls f for every row in [0, height). Rows are split into at most
// ParallelFactor contiguous bands, one goroutine each, and f must be safe to call
// concurrently for different rows. It returns once every band is done; a panic in f stops
// its band and is returned as an error, so the caller must not trust the rows it wrote.
func ParallelForEachRow(height int, f func(y int)) error {
	if height <= 0 {
		return nil
	}
	bands := ParallelFactor
	if bands > height {
		bands = height
	}
	rowsPerBand := height / bands
	extra := height % bands

	var bigError error
	var bigErrorMutex sync.Mutex
	storeError := func(err error) {
		bigErrorMutex.Lock()
		defer bigErrorMutex.Unlock()
		bigError = multierr.Combine(bigError, err)
	}

	var wait sync.WaitGroup
	wait.Add(bands)
	from := 0
	for band := 0; band < bands; band++ {
		to := from + rowsPerBand
		if band == bands-1 {
			to += extra
		}
		go func(bandFrom, bandTo int) {
			defer func() {
				if thePanic := recover(); thePanic != nil {
					storeError(errors.Errorf("got panic processing rows [%d, %d): %v", bandFrom, bandTo, thePanic))
				}
				wait.Done()
			}()
			for y := bandFrom; y < bandTo; y++ {
				f(y)
			}
		}(from, to)
		from = to
	}
	wait.Wait()
	return bigError
}
