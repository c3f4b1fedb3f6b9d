// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

// Builder constructs a Graph. It is obtained from Executor.Begin and
// finished with End; only one Builder per Executor may be open at a time.
type Builder struct {
	e *Executor
	g *Graph
}

// CreateSurface registers a logical surface and returns its id.
// It panics with ErrInvalidSurface for a malformed description.
func (b *Builder) CreateSurface(desc SurfaceDesc) SurfaceID {
	b.check()
	if err := desc.validate(); err != nil {
		panic(err)
	}
	b.g.surfaces = append(b.g.surfaces, desc)
	return SurfaceID(len(b.g.surfaces) - 1)
}

// PushPass appends a pass named name. setup runs synchronously to bind
// slots, declare inputs and set the viewport, present flag and callback.
// Passes execute in the order they are pushed. A pass flagged Present must
// bind SlotColor0; PushPass panics with ErrPresentWithoutColor otherwise.
func (b *Builder) PushPass(name string, setup func(*PassSetup)) {
	b.check()
	p := &pass{name: name, viewport: FullViewport}
	ps := &PassSetup{g: b.g, p: p}
	if setup != nil {
		setup(ps)
	}
	ps.done = true
	if p.present && !p.slots[SlotColor0].bound {
		fatalf(ErrPresentWithoutColor, "pass %q", name)
	}
	b.g.passes = append(b.g.passes, p)
}

// RequestCopy registers a sampleable copy of surface id as written by the
// most recent pass that wrote it. Later writes do not affect the copy.
// Requesting the same write twice returns the same id.
// It panics with ErrNoWriter if no pass has written id yet.
func (b *Builder) RequestCopy(id SurfaceID) CopyID {
	b.check()
	b.g.checkSurface(id)
	for i := len(b.g.passes) - 1; i >= 0; i-- {
		p := b.g.passes[i]
		slot, ok := p.writes(id)
		if !ok {
			continue
		}
		// A write has a single resolve target; repeated requests share it.
		if p.slots[slot].hasCopy {
			return p.slots[slot].copyOut
		}
		c := CopyID(len(b.g.copies))
		b.g.copies = append(b.g.copies, copyRecord{surface: id, pass: i, slot: slot})
		p.slots[slot].copyOut = c
		p.slots[slot].hasCopy = true
		return c
	}
	fatalf(ErrNoWriter, "surface %d (%q)", id, b.g.surfaces[id].Label)
	return 0
}

// End finishes construction and returns the graph.
func (b *Builder) End() *Graph {
	b.check()
	g := b.g
	b.g = nil
	b.e.building = false
	return g
}

func (b *Builder) check() {
	if b.g == nil {
		fatalf(ErrReentrant, "builder already ended")
	}
}
