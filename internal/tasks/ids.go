package tasks

import (
	"sync"
	"time"
)

// IDAllocator hands out time-based task ids. Ids are strictly increasing
// within a session and never collide with ids already loaded from the
// store.
type IDAllocator struct {
	mu    sync.Mutex
	clock func() time.Time
	last  int64
}

// NewIDAllocator returns an allocator reading the given clock.
func NewIDAllocator(clock func() time.Time) *IDAllocator {
	if clock == nil {
		clock = time.Now
	}
	return &IDAllocator{clock: clock}
}

// Seed makes sure future ids are greater than max.
func (a *IDAllocator) Seed(max int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if max > a.last {
		a.last = max
	}
}

// Next returns a fresh id.
func (a *IDAllocator) Next() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := a.clock().UnixMilli()
	if id <= a.last {
		id = a.last + 1
	}
	a.last = id
	return id
}
