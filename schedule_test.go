// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import (
	"strings"
	"testing"

	"github.com/gogpu/gputypes"
)

var red = gputypes.Color{R: 1, G: 0, B: 0, A: 1}

func attachmentTexture(t *testing.T, att Attachment) *mockTexture {
	t.Helper()
	a, ok := att.(*mockAttachment)
	if !ok || a.tex == nil {
		t.Fatalf("attachment %#v has no texture", att)
	}
	return a.tex
}

func TestScheduleCopyPassthrough(t *testing.T) {
	dev := newMockDevice()
	e := New(dev)
	present := &mockTexture{id: -1}

	b := e.Begin()
	src := rgbaSurface(256, 256)
	src.Color = ColorClear{Value: red}
	s1 := b.CreateSurface(src)
	s2 := b.CreateSurface(rgbaSurface(256, 256))

	b.PushPass("draw", func(ps *PassSetup) { ps.WriteColor(s1) })
	c := b.RequestCopy(s1)

	var looked Texture
	b.PushPass("blur", func(ps *PassSetup) {
		ps.Read(c)
		ps.WriteColor(s2)
		ps.Execute(func(s *Scope) { looked = s.Lookup(c) })
	})
	b.PushPass("present", func(ps *PassSetup) {
		ps.WriteColor(s2)
		ps.Present()
	})

	if err := e.Execute(b.End(), present); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(dev.passes) != 3 {
		t.Fatalf("got %d passes, want 3", len(dev.passes))
	}

	draw := dev.passes[0].desc.Color
	if draw.LoadOp != gputypes.LoadOpClear || draw.ClearValue != red {
		t.Errorf("draw: LoadOp=%v ClearValue=%v, want clear to red", draw.LoadOp, draw.ClearValue)
	}
	if draw.ResolveTarget != nil {
		t.Errorf("draw: single-sampled copy got a resolve target %v", draw.ResolveTarget)
	}
	if want := attachmentTexture(t, draw.Attachment); looked != Texture(want) {
		t.Errorf("Lookup() = %v, want the surface texture %v", looked, want)
	}

	if op := dev.passes[1].desc.Color.LoadOp; op != gputypes.LoadOpClear {
		t.Errorf("blur: first write of s2 LoadOp = %v, want clear", op)
	}
	last := dev.passes[2].desc.Color
	if last.LoadOp != gputypes.LoadOpLoad {
		t.Errorf("present: LoadOp = %v, want load", last.LoadOp)
	}
	if last.ResolveTarget != Texture(present) {
		t.Errorf("present: ResolveTarget = %v, want present texture", last.ResolveTarget)
	}

	st := e.Stats()
	if st.Copies.Allocations != 0 {
		t.Errorf("copy allocations = %d, want 0", st.Copies.Allocations)
	}
	if st.Surfaces.Allocations != 2 || st.Surfaces.Free != 2 {
		t.Errorf("surface stats = %v, want 2 allocations and 2 free", st.Surfaces)
	}
}

func TestScheduleMultisampledSnapshot(t *testing.T) {
	dev := newMockDevice()
	e := New(dev)

	b := e.Begin()
	s := b.CreateSurface(msaaSurface(64, 64))
	out := b.CreateSurface(rgbaSurface(64, 64))
	b.PushPass("a", func(ps *PassSetup) { ps.WriteColor(s) })
	c := b.RequestCopy(s)
	b.PushPass("b", func(ps *PassSetup) { ps.WriteColor(s) })

	var looked Texture
	b.PushPass("c", func(ps *PassSetup) {
		ps.Read(c)
		ps.WriteColor(out)
		ps.Execute(func(sc *Scope) { looked = sc.Lookup(c) })
	})
	if err := e.Execute(b.End(), nil); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	a, second := dev.passes[0].desc, dev.passes[1].desc
	if a.SampleCount != 4 {
		t.Errorf("a: SampleCount = %d, want 4", a.SampleCount)
	}
	resolve, ok := a.Color.ResolveTarget.(*mockTexture)
	if !ok {
		t.Fatalf("a: ResolveTarget = %v, want a copy texture", a.Color.ResolveTarget)
	}
	if resolve.desc.SampleCount != 1 || !strings.Contains(resolve.desc.Label, "copy") {
		t.Errorf("copy texture desc = %+v", resolve.desc)
	}
	if looked != Texture(resolve) {
		t.Errorf("Lookup() = %v, want %v", looked, resolve)
	}
	if second.Color.ResolveTarget != nil {
		t.Errorf("b: ResolveTarget = %v, want nil", second.Color.ResolveTarget)
	}
	if second.Color.Attachment != a.Color.Attachment {
		t.Error("consecutive writes of one surface use different attachments")
	}
	if second.Color.LoadOp != gputypes.LoadOpLoad {
		t.Errorf("b: LoadOp = %v, want load", second.Color.LoadOp)
	}
}

func TestScheduleUnreadCopyNotAllocated(t *testing.T) {
	dev := newMockDevice()
	e := New(dev)
	b := e.Begin()
	s := b.CreateSurface(msaaSurface(32, 32))
	b.PushPass("draw", func(ps *PassSetup) { ps.WriteColor(s) })
	b.RequestCopy(s)
	if err := e.Execute(b.End(), nil); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if rt := dev.passes[0].desc.Color.ResolveTarget; rt != nil {
		t.Errorf("ResolveTarget = %v, want nil", rt)
	}
	if dev.texturesCreated != 0 {
		t.Errorf("textures created = %d, want 0", dev.texturesCreated)
	}
}

// A single-sampled surface written again before its copy is read keeps the
// copied contents in a pooled texture instead of sharing the surface.
func TestScheduleSingleSampledSnapshot(t *testing.T) {
	tests := []struct {
		name string
		// readerWrites makes the reading pass write the surface itself.
		readerWrites bool
	}{
		{"rewritten by later pass", false},
		{"rewritten by reader", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newMockDevice()
			e := New(dev)
			b := e.Begin()
			s := b.CreateSurface(rgbaSurface(32, 32))
			out := b.CreateSurface(rgbaSurface(32, 32))
			b.PushPass("a", func(ps *PassSetup) { ps.WriteColor(s) })
			c := b.RequestCopy(s)

			var looked Texture
			read := func(ps *PassSetup) {
				ps.Read(c)
				ps.Execute(func(sc *Scope) { looked = sc.Lookup(c) })
			}
			if tt.readerWrites {
				b.PushPass("b", func(ps *PassSetup) {
					ps.WriteColor(s)
					read(ps)
				})
			} else {
				b.PushPass("b", func(ps *PassSetup) { ps.WriteColor(s) })
				b.PushPass("c", func(ps *PassSetup) {
					ps.WriteColor(out)
					read(ps)
				})
			}
			if err := e.Execute(b.End(), nil); err != nil {
				t.Fatalf("Execute() error = %v", err)
			}

			first := dev.passes[0].desc.Color
			snap, ok := first.ResolveTarget.(*mockTexture)
			if !ok {
				t.Fatalf("a: ResolveTarget = %v, want a copy texture", first.ResolveTarget)
			}
			if snap.desc.SampleCount != 1 || !strings.Contains(snap.desc.Label, "copy") {
				t.Errorf("copy texture desc = %+v", snap.desc)
			}
			if snap == attachmentTexture(t, first.Attachment) {
				t.Error("copy shares the surface texture")
			}
			if looked != Texture(snap) {
				t.Errorf("Lookup() = %v, want %v", looked, snap)
			}
			if rt := dev.passes[1].desc.Color.ResolveTarget; rt != nil {
				t.Errorf("b: ResolveTarget = %v, want nil", rt)
			}
			if n := e.Stats().Copies.Allocations; n != 1 {
				t.Errorf("copy allocations = %d, want 1", n)
			}
		})
	}
}

func TestScheduleAliasing(t *testing.T) {
	dev := newMockDevice()
	e := New(dev)
	b := e.Begin()
	s1 := b.CreateSurface(rgbaSurface(64, 64))
	s2 := b.CreateSurface(rgbaSurface(64, 64))
	b.PushPass("one", func(ps *PassSetup) { ps.WriteColor(s1) })
	b.PushPass("two", func(ps *PassSetup) { ps.WriteColor(s2) })
	if err := e.Execute(b.End(), nil); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	one, two := dev.passes[0].desc.Color, dev.passes[1].desc.Color
	if one.Attachment != two.Attachment {
		t.Error("disjoint surfaces with equal descriptions were not aliased")
	}
	if two.LoadOp != gputypes.LoadOpClear {
		t.Errorf("aliased surface LoadOp = %v, want clear", two.LoadOp)
	}
	if st := e.Stats().Surfaces; st.Allocations != 1 || st.Reuses != 1 {
		t.Errorf("surface stats = %v, want 1 allocation and 1 reuse", st)
	}
}

func TestScheduleClearPolicy(t *testing.T) {
	tests := []struct {
		name        string
		depth       SurfaceDesc
		wantDepth   gputypes.LoadOp
		wantStencil gputypes.LoadOp
	}{
		{
			name:        "clear both",
			depth:       depthSurface(16, 16, 1),
			wantDepth:   gputypes.LoadOpClear,
			wantStencil: gputypes.LoadOpClear,
		},
		{
			name: "preserve depth",
			depth: func() SurfaceDesc {
				d := depthSurface(16, 16, 1)
				d.Depth.Preserve = true
				return d
			}(),
			wantDepth:   gputypes.LoadOpLoad,
			wantStencil: gputypes.LoadOpClear,
		},
		{
			name: "preserve stencil",
			depth: func() SurfaceDesc {
				d := depthSurface(16, 16, 1)
				d.Stencil.Preserve = true
				return d
			}(),
			wantDepth:   gputypes.LoadOpClear,
			wantStencil: gputypes.LoadOpLoad,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newMockDevice()
			e := New(dev)
			b := e.Begin()
			color := rgbaSurface(16, 16)
			color.Color.Preserve = true
			cs := b.CreateSurface(color)
			ds := b.CreateSurface(tt.depth)
			b.PushPass("draw", func(ps *PassSetup) {
				ps.WriteColor(cs)
				ps.WriteDepthStencil(ds)
			})
			b.PushPass("again", func(ps *PassSetup) { ps.WriteDepthStencil(ds) })
			if err := e.Execute(b.End(), nil); err != nil {
				t.Fatalf("Execute() error = %v", err)
			}

			first := dev.passes[0].desc
			if first.Color.LoadOp != gputypes.LoadOpLoad {
				t.Errorf("preserved color LoadOp = %v, want load", first.Color.LoadOp)
			}
			ds0 := first.DepthStencil
			if ds0.DepthLoadOp != tt.wantDepth || ds0.StencilLoadOp != tt.wantStencil {
				t.Errorf("depth/stencil LoadOp = %v/%v, want %v/%v",
					ds0.DepthLoadOp, ds0.StencilLoadOp, tt.wantDepth, tt.wantStencil)
			}
			if tt.wantDepth == gputypes.LoadOpClear && ds0.DepthClearValue != 1 {
				t.Errorf("DepthClearValue = %v, want 1", ds0.DepthClearValue)
			}
			if ds0.DepthStoreOp != gputypes.StoreOpStore || ds0.StencilStoreOp != gputypes.StoreOpStore {
				t.Error("depth/stencil contents are not stored")
			}

			ds1 := dev.passes[1].desc.DepthStencil
			if ds1.DepthLoadOp != gputypes.LoadOpLoad || ds1.StencilLoadOp != gputypes.LoadOpLoad {
				t.Errorf("second write LoadOp = %v/%v, want load", ds1.DepthLoadOp, ds1.StencilLoadOp)
			}
			if dev.passes[1].desc.Color != nil {
				t.Error("depth-only pass has a color attachment")
			}
		})
	}
}

func TestScheduleAttachmentMismatch(t *testing.T) {
	tests := []struct {
		name  string
		color SurfaceDesc
		depth SurfaceDesc
	}{
		{"width", rgbaSurface(64, 64), depthSurface(32, 64, 1)},
		{"height", rgbaSurface(64, 64), depthSurface(64, 32, 1)},
		{"samples", msaaSurface(64, 64), depthSurface(64, 64, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(newMockDevice())
			b := e.Begin()
			cs, ds := b.CreateSurface(tt.color), b.CreateSurface(tt.depth)
			b.PushPass("bad", func(ps *PassSetup) {
				ps.WriteColor(cs)
				ps.WriteDepthStencil(ds)
			})
			g := b.End()
			expectFatal(t, ErrAttachmentMismatch, func() { _ = e.Execute(g, nil) })
		})
	}
}

func TestSchedulePresent(t *testing.T) {
	t.Run("missing texture", func(t *testing.T) {
		e := New(newMockDevice())
		b := e.Begin()
		s := b.CreateSurface(rgbaSurface(8, 8))
		b.PushPass("out", func(ps *PassSetup) {
			ps.WriteColor(s)
			ps.Present()
		})
		g := b.End()
		expectFatal(t, ErrNoPresentTarget, func() { _ = e.Execute(g, nil) })
	})

	t.Run("presented output also read as copy", func(t *testing.T) {
		e := New(newMockDevice())
		b := e.Begin()
		s := b.CreateSurface(msaaSurface(8, 8))
		b.PushPass("out", func(ps *PassSetup) {
			ps.WriteColor(s)
			ps.Present()
		})
		c := b.RequestCopy(s)
		b.PushPass("reader", func(ps *PassSetup) { ps.Read(c) })
		g := b.End()
		expectFatal(t, ErrCopyUnavailable, func() { _ = e.Execute(g, &mockTexture{}) })
	})
}

func TestScheduleUseCountsBalance(t *testing.T) {
	e := New(newMockDevice())
	b := e.Begin()
	a := b.CreateSurface(msaaSurface(32, 32))
	d := b.CreateSurface(depthSurface(32, 32, 4))
	s := b.CreateSurface(rgbaSurface(32, 32))
	b.PushPass("geometry", func(ps *PassSetup) {
		ps.WriteColor(a)
		ps.WriteDepthStencil(d)
	})
	ca := b.RequestCopy(a)
	b.PushPass("blit", func(ps *PassSetup) {
		ps.Read(ca)
		ps.WriteColor(s)
	})
	cs := b.RequestCopy(s)
	b.PushPass("sample twice", func(ps *PassSetup) {
		ps.Read(cs)
		ps.Read(ca)
	})
	g := b.End()

	sched := newScheduler(g, e.surfaces, e.copies, nil)
	passes, err := sched.run()
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if len(passes) != g.NumPasses() {
		t.Errorf("scheduled %d passes, want %d", len(passes), g.NumPasses())
	}
	for id, n := range sched.surfaceUses {
		if n != 0 {
			t.Errorf("surface %d use-count = %d, want 0", id, n)
		}
	}
	for id, n := range sched.copyUses {
		if n != 0 {
			t.Errorf("copy %d use-count = %d, want 0", id, n)
		}
	}
	if len(sched.aliveSurfaces) != 0 || len(sched.aliveCopies) != 0 {
		t.Errorf("alive after run: %d surfaces, %d copies", len(sched.aliveSurfaces), len(sched.aliveCopies))
	}
	if got := len(passes[2].inputs); got != 2 {
		t.Errorf("last pass has %d inputs, want 2", got)
	}
}

func TestScheduleUseCountUnderflow(t *testing.T) {
	e := New(newMockDevice())
	b := e.Begin()
	s := b.CreateSurface(rgbaSurface(8, 8))
	b.PushPass("p", func(ps *PassSetup) { ps.WriteColor(s) })
	g := b.End()

	sched := newScheduler(g, e.surfaces, e.copies, nil)
	expectFatal(t, ErrUseCount, func() { sched.releaseSurface(s) })
}

// A pass that consumes the last read of one copy while producing another
// copy must resolve its input before the input's pooled texture is reused.
func TestScheduleReleaseAfterConsume(t *testing.T) {
	dev := newMockDevice()
	e := New(dev)

	build := func() (*Graph, CopyID, CopyID) {
		b := e.Begin()
		a := b.CreateSurface(msaaSurface(32, 32))
		d := b.CreateSurface(depthSurface(32, 32, 4))
		bs := b.CreateSurface(msaaSurface(32, 32))
		out := b.CreateSurface(rgbaSurface(32, 32))
		b.PushPass("first", func(ps *PassSetup) {
			ps.WriteColor(a)
			ps.WriteDepthStencil(d)
		})
		ca := b.RequestCopy(a)
		b.PushPass("second", func(ps *PassSetup) {
			ps.Read(ca)
			ps.WriteColor(bs)
			ps.WriteDepthStencil(d)
		})
		cb := b.RequestCopy(bs)
		b.PushPass("third", func(ps *PassSetup) {
			ps.Read(cb)
			ps.WriteColor(out)
		})
		return b.End(), ca, cb
	}

	for frame := range 2 {
		g, ca, cb := build()
		looked := map[CopyID]Texture{}
		for i := 1; i < g.NumPasses(); i++ {
			g.passes[i].execute = func(s *Scope) {
				for _, c := range []CopyID{ca, cb} {
					if tex, ok := s.inputs[c]; ok {
						looked[c] = tex
					}
				}
			}
		}
		start := len(dev.passes)
		if err := e.Execute(g, nil); err != nil {
			t.Fatalf("frame %d: Execute() error = %v", frame, err)
		}

		first, second := dev.passes[start].desc, dev.passes[start+1].desc
		if looked[ca] != first.Color.ResolveTarget {
			t.Errorf("frame %d: second reads %v, want %v", frame, looked[ca], first.Color.ResolveTarget)
		}
		if looked[cb] != second.Color.ResolveTarget {
			t.Errorf("frame %d: third reads %v, want %v", frame, looked[cb], second.Color.ResolveTarget)
		}
		if first.Color.ResolveTarget == second.Color.ResolveTarget {
			t.Errorf("frame %d: live copies share a texture", frame)
		}
		if op := second.DepthStencil.DepthLoadOp; op != gputypes.LoadOpLoad {
			t.Errorf("frame %d: shared depth LoadOp = %v, want load", frame, op)
		}
	}

	if st := e.Stats().Copies; st.Allocations != 2 || st.Reuses != 2 {
		t.Errorf("copy stats = %v, want 2 allocations and 2 reuses", st)
	}
}

func TestScheduleViewport(t *testing.T) {
	dev := newMockDevice()
	e := New(dev)
	b := e.Begin()
	s := b.CreateSurface(rgbaSurface(256, 128))

	var seen PixelViewport
	b.PushPass("half", func(ps *PassSetup) {
		ps.WriteColor(s)
		ps.SetViewport(Viewport{X: 0.5, Y: 0, Width: 0.5, Height: 1})
		ps.Execute(func(sc *Scope) { seen = sc.Viewport() })
	})
	b.PushPass("empty", nil)
	if err := e.Execute(b.End(), nil); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	want := PixelViewport{X: 128, Y: 0, Width: 128, Height: 128}
	if got := dev.passes[0].viewport; got != want {
		t.Errorf("device viewport = %+v, want %+v", got, want)
	}
	if seen != want {
		t.Errorf("Scope.Viewport() = %+v, want %+v", seen, want)
	}

	empty := dev.passes[1]
	if empty.viewport != (PixelViewport{}) || empty.desc.Width != 0 || empty.desc.Color != nil {
		t.Errorf("attachment-less pass: desc=%+v viewport=%+v", empty.desc, empty.viewport)
	}
}
