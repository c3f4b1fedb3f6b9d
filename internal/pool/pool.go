// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pool

import (
	"errors"
	"fmt"
)

// ErrForeignEntry is returned (wrapped in a panic) when an entry is released
// into a pool that did not create it.
var ErrForeignEntry = errors.New("pool: entry belongs to another pool")

// Entry is a pooled resource together with the key it was created for.
type Entry[K comparable, V any] struct {
	// Key is the compatibility descriptor the resource was created for.
	Key K

	// Value is the pooled resource.
	Value V

	age   int
	owner *Pool[K, V]
}

// Age returns how many Age calls the entry has spent on the free list since
// it was last released.
func (e *Entry[K, V]) Age() int {
	return e.age
}

// Config holds the hooks and limits of a Pool.
type Config[K comparable, V any] struct {
	// Create allocates a new resource for key. Required.
	Create func(key K) (V, error)

	// Destroy frees a resource evicted by Sweep or Destroy. Optional.
	Destroy func(value V)

	// Reset is called on every entry handed out by Acquire, whether it
	// was reused or freshly created. Optional.
	Reset func(value V)

	// MaxAge is the number of Age calls after which an unused entry is
	// destroyed by Sweep. Values below 1 are treated as 1.
	MaxAge int
}

// Stats contains pool counters.
type Stats struct {
	// Free is the number of entries currently on the free list.
	Free int

	// Allocations is the total number of Create calls that succeeded.
	Allocations uint64

	// Reuses is the total number of acquisitions served from the free list.
	Reuses uint64

	// Evictions is the total number of entries destroyed by Sweep.
	Evictions uint64
}

// String returns a human-readable summary of the counters.
func (s Stats) String() string {
	return fmt.Sprintf("Pool[%d free, %d allocs, %d reuses, %d evictions]",
		s.Free, s.Allocations, s.Reuses, s.Evictions)
}

// Pool is a free list of reusable resources with age-based eviction.
type Pool[K comparable, V any] struct {
	cfg  Config[K, V]
	free []*Entry[K, V]

	allocations uint64
	reuses      uint64
	evictions   uint64
}

// New creates an empty pool.
func New[K comparable, V any](cfg Config[K, V]) *Pool[K, V] {
	if cfg.MaxAge < 1 {
		cfg.MaxAge = 1
	}
	return &Pool[K, V]{cfg: cfg}
}

// Acquire returns a free entry whose key equals key, or creates a new one.
// The returned entry is owned by the caller until it is passed to Release.
func (p *Pool[K, V]) Acquire(key K) (*Entry[K, V], error) {
	for i, e := range p.free {
		if e.Key != key {
			continue
		}
		p.free = append(p.free[:i], p.free[i+1:]...)
		e.age = 0
		p.reuses++
		if p.cfg.Reset != nil {
			p.cfg.Reset(e.Value)
		}
		return e, nil
	}

	v, err := p.cfg.Create(key)
	if err != nil {
		return nil, err
	}
	p.allocations++
	e := &Entry[K, V]{Key: key, Value: v, owner: p}
	if p.cfg.Reset != nil {
		p.cfg.Reset(e.Value)
	}
	return e, nil
}

// Release returns an entry to the free list. The resource is not destroyed
// until it ages out.
func (p *Pool[K, V]) Release(e *Entry[K, V]) {
	if e.owner != p {
		panic(ErrForeignEntry)
	}
	e.age = 0
	p.free = append(p.free, e)
}

// Age increments the age of every entry on the free list.
func (p *Pool[K, V]) Age() {
	for _, e := range p.free {
		e.age++
	}
}

// Sweep destroys every free entry whose age reached MaxAge and returns how
// many were destroyed.
func (p *Pool[K, V]) Sweep() int {
	kept := p.free[:0]
	n := 0
	for _, e := range p.free {
		if e.age < p.cfg.MaxAge {
			kept = append(kept, e)
			continue
		}
		p.destroy(e)
		n++
	}
	clear(p.free[len(kept):])
	p.free = kept
	p.evictions += uint64(n) //nolint:gosec // n is a non-negative count
	return n
}

// Destroy frees every entry on the free list. Entries that are currently
// acquired are not tracked by the pool and must be released first.
func (p *Pool[K, V]) Destroy() {
	for _, e := range p.free {
		p.destroy(e)
	}
	p.free = nil
}

// Len returns the number of entries on the free list.
func (p *Pool[K, V]) Len() int {
	return len(p.free)
}

// Stats returns the pool counters.
func (p *Pool[K, V]) Stats() Stats {
	return Stats{
		Free:        len(p.free),
		Allocations: p.allocations,
		Reuses:      p.reuses,
		Evictions:   p.evictions,
	}
}

func (p *Pool[K, V]) destroy(e *Entry[K, V]) {
	if p.cfg.Destroy != nil {
		p.cfg.Destroy(e.Value)
	}
	e.owner = nil
}
