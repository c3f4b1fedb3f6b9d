// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package pool provides an age-evicting free list of reusable resources.
//
// A Pool hands out entries keyed by a compatibility descriptor. Released
// entries wait on the free list until they are acquired again with an equal
// key, or until they have stayed unused for MaxAge calls to Age, at which
// point Sweep destroys them.
//
//	p := pool.New(pool.Config[key, *surface]{
//	    Create:  newSurface,
//	    Destroy: destroySurface,
//	    MaxAge:  1,
//	})
//	p.Age()
//	e, err := p.Acquire(k)
//	...
//	p.Release(e)
//	p.Sweep()
//
// # Thread Safety
//
// Pool is NOT safe for concurrent use. It is owned by a single frame
// executor and is only touched from its goroutine.
package pool
