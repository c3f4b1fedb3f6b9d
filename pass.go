// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import "fmt"

// Slot is an attachment binding point of a pass.
type Slot int

const (
	// SlotColor0 is the color attachment.
	SlotColor0 Slot = iota

	// SlotDepthStencil is the depth/stencil attachment.
	SlotDepthStencil

	numSlots
)

// String returns the string representation of the slot.
func (s Slot) String() string {
	switch s {
	case SlotColor0:
		return "Color0"
	case SlotDepthStencil:
		return "DepthStencil"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Viewport is a viewport in normalized [0,1] target coordinates.
type Viewport struct {
	X, Y, Width, Height float32
}

// FullViewport covers the whole target. It is the default of every pass.
var FullViewport = Viewport{X: 0, Y: 0, Width: 1, Height: 1}

// pixels scales the viewport to a w×h target.
func (v Viewport) pixels(w, h uint32) PixelViewport {
	fw, fh := float32(w), float32(h)
	return PixelViewport{X: v.X * fw, Y: v.Y * fh, Width: v.Width * fw, Height: v.Height * fh}
}

// binding is the state of one slot of a pass.
type binding struct {
	surface SurfaceID
	bound   bool

	// copyOut is the copy registered against this slot by RequestCopy.
	copyOut CopyID
	hasCopy bool
}

type pass struct {
	name     string
	slots    [numSlots]binding
	inputs   []CopyID
	present  bool
	viewport Viewport
	execute  func(*Scope)
}

func (p *pass) writes(id SurfaceID) (Slot, bool) {
	for s := range numSlots {
		if p.slots[s].bound && p.slots[s].surface == id {
			return s, true
		}
	}
	return 0, false
}

// PassSetup configures a pass inside the setup callback of Builder.PushPass.
// It must not be retained after the callback returns.
type PassSetup struct {
	g    *Graph
	p    *pass
	done bool
}

func (s *PassSetup) check() {
	if s.done {
		fatalf(ErrSetupDone, "pass %q", s.p.name)
	}
}

// Write binds surface id to slot. Each slot may be bound once per pass.
func (s *PassSetup) Write(slot Slot, id SurfaceID) {
	s.check()
	if slot < 0 || slot >= numSlots {
		panic(fmt.Errorf("framegraph: invalid slot %d", int(slot)))
	}
	s.g.checkSurface(id)
	b := &s.p.slots[slot]
	if b.bound {
		fatalf(ErrSlotBound, "pass %q slot %v already writes surface %d", s.p.name, slot, b.surface)
	}
	b.surface = id
	b.bound = true
}

// WriteColor binds surface id to SlotColor0.
func (s *PassSetup) WriteColor(id SurfaceID) {
	s.Write(SlotColor0, id)
}

// WriteDepthStencil binds surface id to SlotDepthStencil.
func (s *PassSetup) WriteDepthStencil(id SurfaceID) {
	s.Write(SlotDepthStencil, id)
}

// Read declares copy id as an input of the pass. Only declared inputs can
// be resolved with Scope.Lookup.
func (s *PassSetup) Read(id CopyID) {
	s.check()
	s.g.checkCopy(id)
	s.p.inputs = append(s.p.inputs, id)
}

// SetViewport sets the normalized viewport of the pass.
func (s *PassSetup) SetViewport(vp Viewport) {
	s.check()
	s.p.viewport = vp
}

// Present routes the SlotColor0 output of the pass to the present texture
// given to Executor.Execute. The depth/stencil slot is never presented.
func (s *PassSetup) Present() {
	s.check()
	s.p.present = true
}

// Execute sets the callback run while the pass is recorded.
func (s *PassSetup) Execute(fn func(*Scope)) {
	s.check()
	s.p.execute = fn
}
