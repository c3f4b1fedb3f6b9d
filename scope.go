// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

// Scope is handed to a pass callback while the pass is being recorded.
// It is only valid for the duration of the callback.
type Scope struct {
	name     string
	pass     RenderPass
	viewport PixelViewport
	inputs   map[CopyID]Texture
	active   bool
}

// Lookup returns the sampleable texture of copy id. id must have been
// declared with PassSetup.Read.
func (s *Scope) Lookup(id CopyID) Texture {
	s.check()
	tex, ok := s.inputs[id]
	if !ok {
		fatalf(ErrCopyNotDeclared, "pass %q looks up copy %d", s.name, id)
	}
	return tex
}

// Pass returns the device render pass being recorded.
func (s *Scope) Pass() RenderPass {
	s.check()
	return s.pass
}

// Name returns the pass name.
func (s *Scope) Name() string {
	return s.name
}

// Viewport returns the pixel viewport already applied to the pass.
func (s *Scope) Viewport() PixelViewport {
	return s.viewport
}

func (s *Scope) check() {
	if s == nil || !s.active {
		name := ""
		if s != nil {
			name = s.name
		}
		fatalf(ErrScopeInactive, "pass %q", name)
	}
}
