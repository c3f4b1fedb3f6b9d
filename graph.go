// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import (
	"fmt"
	"strings"
)

// CopyID identifies a sampleable point-in-time copy of a surface.
type CopyID int

// copyRecord ties a copy to the pass and slot whose output it captures.
type copyRecord struct {
	surface SurfaceID
	pass    int
	slot    Slot
}

// Graph is one frame's declarative description of passes and surfaces.
// It is built by a Builder, immutable after Builder.End, and executed
// exactly once by Executor.Execute.
type Graph struct {
	surfaces []SurfaceDesc
	passes   []*pass
	copies   []copyRecord
	consumed bool
}

// NumSurfaces returns the number of logical surfaces.
func (g *Graph) NumSurfaces() int { return len(g.surfaces) }

// Surface returns the description of surface id.
func (g *Graph) Surface(id SurfaceID) SurfaceDesc {
	g.checkSurface(id)
	return g.surfaces[id]
}

// NumPasses returns the number of passes.
func (g *Graph) NumPasses() int { return len(g.passes) }

// PassName returns the name of the i-th pass.
func (g *Graph) PassName(i int) string { return g.passes[i].name }

// NumCopies returns the number of copies requested.
func (g *Graph) NumCopies() int { return len(g.copies) }

// CopySource returns the surface copy id was requested for and the index of
// the pass whose output it captures.
func (g *Graph) CopySource(id CopyID) (SurfaceID, int) {
	g.checkCopy(id)
	c := g.copies[id]
	return c.surface, c.pass
}

// String returns a dump of the graph, one line per surface and per pass.
func (g *Graph) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Graph[%d surfaces, %d passes, %d copies]", len(g.surfaces), len(g.passes), len(g.copies))
	for i := range g.surfaces {
		d := &g.surfaces[i]
		fmt.Fprintf(&sb, "\n  s%d %q %dx%d samples=%d", i, d.Label, d.Width, d.Height, d.samples())
	}
	for i, p := range g.passes {
		fmt.Fprintf(&sb, "\n  %d %q", i, p.name)
		for s := range numSlots {
			b := p.slots[s]
			if !b.bound {
				continue
			}
			fmt.Fprintf(&sb, " %v=s%d", s, b.surface)
			if b.hasCopy {
				fmt.Fprintf(&sb, "->c%d", b.copyOut)
			}
		}
		for _, in := range p.inputs {
			fmt.Fprintf(&sb, " read=c%d", in)
		}
		if p.present {
			sb.WriteString(" present")
		}
	}
	return sb.String()
}

func (g *Graph) checkSurface(id SurfaceID) {
	if id < 0 || int(id) >= len(g.surfaces) {
		fatalf(ErrUnknownSurface, "surface %d of %d", id, len(g.surfaces))
	}
}

func (g *Graph) checkCopy(id CopyID) {
	if id < 0 || int(id) >= len(g.copies) {
		fatalf(ErrUnknownCopy, "copy %d of %d", id, len(g.copies))
	}
}
