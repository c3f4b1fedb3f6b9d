// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/framegraph/internal/pool"
	"github.com/gogpu/gputypes"
)

// physicalSurface is a pooled device attachment. texture is nil for
// multi-sampled surfaces, which cannot be sampled directly.
type physicalSurface struct {
	attachment Attachment
	texture    Texture

	// needsClear is set whenever the surface enters the alive set and
	// cleared after the first pass that writes it.
	needsClear bool
}

// physicalCopy is a pooled single-sampled texture receiving a resolve.
type physicalCopy struct {
	texture Texture
}

type (
	surfacePool  = pool.Pool[resourceKey, *physicalSurface]
	copyPool     = pool.Pool[resourceKey, *physicalCopy]
	surfaceEntry = pool.Entry[resourceKey, *physicalSurface]
	copyEntry    = pool.Entry[resourceKey, *physicalCopy]
)

// scheduledPass is a pass with every logical reference resolved.
type scheduledPass struct {
	name     string
	desc     RenderPassDesc
	viewport PixelViewport
	inputs   map[CopyID]Texture
	execute  func(*Scope)
}

// scheduler assigns physical resources to one graph.
//
// It runs in two passes. countUses computes how many times every surface
// and copy is referenced; schedulePass then walks the passes in order,
// acquiring a resource on its first reference and returning it to its pool
// when the last reference is released. Acquisition only happens inside
// schedulePass, so a resource released by one pass may be handed to a
// later pass of the same graph.
type scheduler struct {
	g        *Graph
	surfaces *surfacePool
	copies   *copyPool
	present  Texture
	log      *slog.Logger

	surfaceUses []int
	copyUses    []int

	aliveSurfaces map[SurfaceID]*surfaceEntry
	aliveCopies   map[CopyID]*copyEntry

	// snapshot marks copies of single-sampled surfaces that are written
	// again before the copy's last read. They need a physical copy.
	snapshot []bool
}

func newScheduler(g *Graph, surfaces *surfacePool, copies *copyPool, present Texture) *scheduler {
	return &scheduler{
		g:             g,
		surfaces:      surfaces,
		copies:        copies,
		present:       present,
		log:           Logger(),
		surfaceUses:   make([]int, len(g.surfaces)),
		copyUses:      make([]int, len(g.copies)),
		aliveSurfaces: make(map[SurfaceID]*surfaceEntry),
		aliveCopies:   make(map[CopyID]*copyEntry),
		snapshot:      make([]bool, len(g.copies)),
	}
}

// run schedules every pass. On a device error all live resources go back
// to their pools and the error is returned.
func (s *scheduler) run() ([]scheduledPass, error) {
	s.countUses()

	passes := make([]scheduledPass, 0, len(s.g.passes))
	for i, p := range s.g.passes {
		sp, err := s.schedulePass(p)
		if err != nil {
			s.abort()
			return nil, fmt.Errorf("pass %d %q: %w", i, p.name, err)
		}
		passes = append(passes, sp)
	}

	s.verify()
	return passes, nil
}

// countUses references every bound slot once, and every consumed copy once
// on the copy and once on its source surface. It also marks the copies that
// cannot be served from their source surface's texture.
func (s *scheduler) countUses() {
	lastRead := make([]int, len(s.g.copies))
	for i := range lastRead {
		lastRead[i] = -1
	}
	for i, p := range s.g.passes {
		for slot := range numSlots {
			if b := p.slots[slot]; b.bound {
				s.surfaceUses[b.surface]++
			}
		}
		for _, c := range p.inputs {
			s.copyUses[c]++
			s.surfaceUses[s.g.copies[c].surface]++
			lastRead[c] = i
		}
	}

	for c, rec := range s.g.copies {
		for i := rec.pass + 1; i <= lastRead[c]; i++ {
			if _, ok := s.g.passes[i].writes(rec.surface); ok {
				s.snapshot[c] = true
				break
			}
		}
	}
}

func (s *scheduler) schedulePass(p *pass) (scheduledPass, error) {
	sp := scheduledPass{name: p.name, execute: p.execute}
	color, depth := p.slots[SlotColor0], p.slots[SlotDepthStencil]

	if color.bound && depth.bound {
		cd, dd := &s.g.surfaces[color.surface], &s.g.surfaces[depth.surface]
		if cd.Width != dd.Width || cd.Height != dd.Height || cd.samples() != dd.samples() {
			fatalf(ErrAttachmentMismatch, "pass %q: color %dx%dx%d, depth/stencil %dx%dx%d",
				p.name, cd.Width, cd.Height, cd.samples(), dd.Width, dd.Height, dd.samples())
		}
	}

	// Acquire on first touch and remember whether this pass must clear.
	var attached [numSlots]*surfaceEntry
	var firstTouch [numSlots]bool
	for slot := range numSlots {
		b := p.slots[slot]
		if !b.bound {
			continue
		}
		e, err := s.acquireSurface(b.surface)
		if err != nil {
			return sp, err
		}
		attached[slot] = e
		firstTouch[slot] = e.Value.needsClear
	}
	for _, e := range attached {
		if e != nil {
			e.Value.needsClear = false
		}
	}

	var target *SurfaceDesc
	switch {
	case color.bound:
		target = &s.g.surfaces[color.surface]
	case depth.bound:
		target = &s.g.surfaces[depth.surface]
	}
	if target != nil {
		sp.desc.Width = target.Width
		sp.desc.Height = target.Height
		sp.desc.SampleCount = target.samples()
		sp.viewport = p.viewport.pixels(target.Width, target.Height)
	}
	sp.desc.Label = p.name

	if color.bound {
		desc := &s.g.surfaces[color.surface]
		ca := &ColorAttachment{
			Attachment: attached[SlotColor0].Value.attachment,
			LoadOp:     gputypes.LoadOpLoad,
			StoreOp:    gputypes.StoreOpStore,
		}
		if firstTouch[SlotColor0] && !desc.Color.Preserve {
			ca.LoadOp = gputypes.LoadOpClear
			ca.ClearValue = desc.Color.Value
		}
		out, err := s.outputTarget(p, SlotColor0)
		if err != nil {
			return sp, err
		}
		ca.ResolveTarget = out
		sp.desc.Color = ca
	}

	if depth.bound {
		desc := &s.g.surfaces[depth.surface]
		da := &DepthStencilAttachment{
			Attachment:     attached[SlotDepthStencil].Value.attachment,
			DepthLoadOp:    gputypes.LoadOpLoad,
			DepthStoreOp:   gputypes.StoreOpStore,
			StencilLoadOp:  gputypes.LoadOpLoad,
			StencilStoreOp: gputypes.StoreOpStore,
		}
		if firstTouch[SlotDepthStencil] {
			if !desc.Depth.Preserve {
				da.DepthLoadOp = gputypes.LoadOpClear
				da.DepthClearValue = desc.Depth.Value
			}
			if !desc.Stencil.Preserve {
				da.StencilLoadOp = gputypes.LoadOpClear
				da.StencilClearValue = desc.Stencil.Value
			}
		}
		out, err := s.outputTarget(p, SlotDepthStencil)
		if err != nil {
			return sp, err
		}
		da.ResolveTarget = out
		sp.desc.DepthStencil = da
	}

	if len(p.inputs) > 0 {
		sp.inputs = make(map[CopyID]Texture, len(p.inputs))
	}
	for _, c := range p.inputs {
		sp.inputs[c] = s.consume(p, c)
	}

	for slot := range numSlots {
		if b := p.slots[slot]; b.bound {
			s.releaseSurface(b.surface)
		}
	}
	for _, c := range p.inputs {
		s.releaseCopy(c)
	}

	return sp, nil
}

// outputTarget returns the resolve target of one slot of p: the present
// texture, a pooled copy, or nil.
func (s *scheduler) outputTarget(p *pass, slot Slot) (Texture, error) {
	b := p.slots[slot]

	if p.present && slot == SlotColor0 {
		if s.present == nil {
			fatalf(ErrNoPresentTarget, "pass %q", p.name)
		}
		if b.hasCopy && s.copyUses[b.copyOut] > 0 {
			fatalf(ErrCopyUnavailable, "pass %q presents the output copy %d reads", p.name, b.copyOut)
		}
		return s.present, nil
	}

	if !b.hasCopy {
		return nil, nil
	}
	c := b.copyOut
	if s.copyUses[c] == 0 {
		s.log.Debug("framegraph: skip unread copy", "pass", p.name, "copy", int(c))
		return nil, nil
	}

	desc := &s.g.surfaces[b.surface]
	if !desc.multisampled() && !s.snapshot[c] {
		s.log.Debug("framegraph: copy passthrough", "pass", p.name, "copy", int(c), "surface", int(b.surface))
		return nil, nil
	}

	e, err := s.copies.Acquire(desc.copyKey())
	if err != nil {
		return nil, fmt.Errorf("acquire copy %d of surface %d: %w", c, b.surface, err)
	}
	s.aliveCopies[c] = e
	s.log.Debug("framegraph: acquire copy", "pass", p.name, "copy", int(c), "slot", slot.String())
	return e.Value.texture, nil
}

// consume resolves copy c for pass p and drops the reference c holds on its
// source surface.
func (s *scheduler) consume(p *pass, c CopyID) Texture {
	rec := s.g.copies[c]

	var tex Texture
	if e, ok := s.aliveCopies[c]; ok {
		tex = e.Value.texture
	} else {
		src, ok := s.aliveSurfaces[rec.surface]
		if !ok || src.Value.texture == nil {
			fatalf(ErrCopyUnavailable, "pass %q reads copy %d of multi-sampled surface %d",
				p.name, c, rec.surface)
		}
		tex = src.Value.texture
	}

	s.releaseSurface(rec.surface)
	return tex
}

func (s *scheduler) acquireSurface(id SurfaceID) (*surfaceEntry, error) {
	if e, ok := s.aliveSurfaces[id]; ok {
		return e, nil
	}
	desc := &s.g.surfaces[id]
	e, err := s.surfaces.Acquire(desc.surfaceKey())
	if err != nil {
		return nil, fmt.Errorf("acquire surface %d (%q): %w", id, desc.Label, err)
	}
	s.aliveSurfaces[id] = e
	s.log.Debug("framegraph: acquire surface", "surface", int(id), "label", desc.Label,
		"width", desc.Width, "height", desc.Height, "samples", desc.samples())
	return e, nil
}

func (s *scheduler) releaseSurface(id SurfaceID) {
	if s.surfaceUses[id] == 0 {
		fatalf(ErrUseCount, "surface %d", id)
	}
	s.surfaceUses[id]--
	if s.surfaceUses[id] > 0 {
		return
	}

	e, ok := s.aliveSurfaces[id]
	if !ok {
		fatalf(ErrLeak, "surface %d released but never acquired", id)
	}
	delete(s.aliveSurfaces, id)
	e.Value.needsClear = true
	s.surfaces.Release(e)
	s.log.Debug("framegraph: release surface", "surface", int(id))
}

func (s *scheduler) releaseCopy(c CopyID) {
	if s.copyUses[c] == 0 {
		fatalf(ErrUseCount, "copy %d", c)
	}
	s.copyUses[c]--
	if s.copyUses[c] > 0 {
		return
	}

	if e, ok := s.aliveCopies[c]; ok {
		delete(s.aliveCopies, c)
		s.copies.Release(e)
		s.log.Debug("framegraph: release copy", "copy", int(c))
	}
}

// verify checks that every reference was released.
func (s *scheduler) verify() {
	for id, n := range s.surfaceUses {
		if n != 0 {
			fatalf(ErrLeak, "surface %d still has %d uses", id, n)
		}
	}
	for id, n := range s.copyUses {
		if n != 0 {
			fatalf(ErrLeak, "copy %d still has %d uses", id, n)
		}
	}
	if len(s.aliveSurfaces) != 0 || len(s.aliveCopies) != 0 {
		fatalf(ErrLeak, "%d surfaces and %d copies alive", len(s.aliveSurfaces), len(s.aliveCopies))
	}
}

// abort returns every live resource to its pool.
func (s *scheduler) abort() {
	for id, e := range s.aliveSurfaces {
		e.Value.needsClear = true
		s.surfaces.Release(e)
		delete(s.aliveSurfaces, id)
	}
	for id, e := range s.aliveCopies {
		s.copies.Release(e)
		delete(s.aliveCopies, id)
	}
}
