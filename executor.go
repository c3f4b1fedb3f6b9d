// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import (
	"errors"
	"fmt"

	"github.com/gogpu/framegraph/internal/pool"
)

// Executor owns the resource pools and runs graphs against a Device.
//
// An Executor is not safe for concurrent use. Build and execute graphs
// from one goroutine, typically the render thread.
type Executor struct {
	device Device
	opts   options

	surfaces *surfacePool
	copies   *copyPool

	building  bool
	executing bool
	destroyed bool
	frames    uint64
}

// New creates an Executor issuing work to device.
func New(device Device, opts ...Option) *Executor {
	if device == nil {
		panic("framegraph: nil device")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	e := &Executor{device: device, opts: o}
	e.surfaces = pool.New(pool.Config[resourceKey, *physicalSurface]{
		Create:  e.createSurface,
		Destroy: e.destroySurface,
		Reset:   func(s *physicalSurface) { s.needsClear = true },
		MaxAge:  o.maxAge,
	})
	e.copies = pool.New(pool.Config[resourceKey, *physicalCopy]{
		Create:  e.createCopy,
		Destroy: e.destroyCopy,
		MaxAge:  o.maxAge,
	})
	return e
}

// Begin opens a Builder for a new graph. Only one Builder may be open at a
// time, and Begin must not be called from a pass callback.
func (e *Executor) Begin() *Builder {
	e.checkAlive()
	if e.building {
		fatalf(ErrReentrant, "Begin while a graph is being built")
	}
	if e.executing {
		fatalf(ErrReentrant, "Begin during Execute")
	}
	e.building = true
	return &Builder{e: e, g: &Graph{}}
}

// Execute schedules g, then creates, records and submits its passes in
// order. present is the texture receiving the output of present passes;
// it may be nil when g has none.
//
// Free pooled resources are aged before scheduling. Those that reach the
// configured maximum age without being reused by g are destroyed once
// scheduling completes.
//
// Device failures are returned wrapped; every resource held by g goes back
// to its pool. Invariant violations panic.
func (e *Executor) Execute(g *Graph, present Texture) error {
	e.checkAlive()
	if e.executing {
		fatalf(ErrReentrant, "Execute from a pass callback")
	}
	if g == nil {
		return errors.New("framegraph: nil graph")
	}
	if g.consumed {
		fatalf(ErrGraphConsumed, "graph with %d passes", len(g.passes))
	}
	g.consumed = true

	e.executing = true
	defer func() { e.executing = false }()

	e.surfaces.Age()
	e.copies.Age()

	passes, err := newScheduler(g, e.surfaces, e.copies, present).run()
	if err != nil {
		return fmt.Errorf("framegraph: schedule: %w", err)
	}

	if n := e.surfaces.Sweep() + e.copies.Sweep(); n > 0 {
		Logger().Debug("framegraph: evicted pooled resources", "count", n)
	}

	for i := range passes {
		if err := e.runPass(&passes[i]); err != nil {
			return fmt.Errorf("framegraph: %w", err)
		}
	}

	e.frames++
	return nil
}

func (e *Executor) runPass(sp *scheduledPass) error {
	rp, err := e.device.CreateRenderPass(&sp.desc)
	if err != nil {
		return fmt.Errorf("create render pass %q: %w", sp.name, err)
	}
	e.device.SetViewport(rp, sp.viewport)

	if sp.execute != nil {
		scope := &Scope{
			name:     sp.name,
			pass:     rp,
			viewport: sp.viewport,
			inputs:   sp.inputs,
			active:   true,
		}
		func() {
			defer func() { scope.active = false }()
			sp.execute(scope)
		}()
	}

	if err := e.device.SubmitPass(rp); err != nil {
		return fmt.Errorf("submit render pass %q: %w", sp.name, err)
	}
	return nil
}

// Destroy releases every pooled resource. The Executor cannot be used
// afterwards. Destroy is a no-op on an already destroyed Executor.
func (e *Executor) Destroy() {
	if e.destroyed {
		return
	}
	if e.building || e.executing {
		fatalf(ErrReentrant, "Destroy while a graph is open")
	}
	e.surfaces.Destroy()
	e.copies.Destroy()
	e.destroyed = true
}

// Stats returns a snapshot of the pool counters.
func (e *Executor) Stats() Stats {
	return Stats{
		Frames:   e.frames,
		Surfaces: e.surfaces.Stats(),
		Copies:   e.copies.Stats(),
	}
}

func (e *Executor) checkAlive() {
	if e.destroyed {
		fatalf(ErrDestroyed, "executor used after Destroy")
	}
}

func (e *Executor) createSurface(k resourceKey) (*physicalSurface, error) {
	desc := k.textureDesc(e.opts.labelPrefix + "_surface")
	if k.sampleCount > 1 {
		att, err := e.device.CreateAttachment(desc)
		if err != nil {
			return nil, fmt.Errorf("create attachment %s: %w", desc.Label, err)
		}
		return &physicalSurface{attachment: att, needsClear: true}, nil
	}

	tex, err := e.device.CreateTexture(desc)
	if err != nil {
		return nil, fmt.Errorf("create texture %s: %w", desc.Label, err)
	}
	att, err := e.device.CreateAttachmentFromTexture(tex)
	if err != nil {
		e.device.DestroyTexture(tex)
		return nil, fmt.Errorf("create attachment for %s: %w", desc.Label, err)
	}
	return &physicalSurface{attachment: att, texture: tex, needsClear: true}, nil
}

func (e *Executor) destroySurface(s *physicalSurface) {
	e.device.DestroyAttachment(s.attachment)
	if s.texture != nil {
		e.device.DestroyTexture(s.texture)
	}
}

func (e *Executor) createCopy(k resourceKey) (*physicalCopy, error) {
	desc := k.textureDesc(e.opts.labelPrefix + "_copy")
	tex, err := e.device.CreateTexture(desc)
	if err != nil {
		return nil, fmt.Errorf("create texture %s: %w", desc.Label, err)
	}
	return &physicalCopy{texture: tex}, nil
}

func (e *Executor) destroyCopy(c *physicalCopy) {
	e.device.DestroyTexture(c.texture)
}

// PoolStats holds the counters of one resource pool.
type PoolStats = pool.Stats

// Stats holds executor counters.
type Stats struct {
	// Frames is the number of graphs executed successfully.
	Frames uint64

	Surfaces PoolStats
	Copies   PoolStats
}

// String returns a one-line summary.
func (s Stats) String() string {
	return fmt.Sprintf("Executor[%d frames] surfaces=%s copies=%s", s.Frames, s.Surfaces, s.Copies)
}
