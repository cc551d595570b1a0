// Package dashboard holds the presentation controllers of the COVID dashboard.
// Subpackages drive rendering ports; the shared pieces live here.
package dashboard

import (
	"errors"
	"sync/atomic"
)

// Fence issues monotonic request ids so that only the latest response is applied
type Fence struct {
	seq atomic.Uint64
}

// Next issues a new id, superseding every earlier one
func (f *Fence) Next() uint64 {
	return f.seq.Add(1)
}

// Current reports whether id is still the latest issued
func (f *Fence) Current(id uint64) bool {
	return f.seq.Load() == id
}

// Invalidate supersedes every outstanding id without issuing a request
func (f *Fence) Invalidate() {
	f.seq.Add(1)
}

// ErrSuperseded is returned by a load whose result was dropped because a newer one was issued
var ErrSuperseded = errors.New("superseded by a newer request")
