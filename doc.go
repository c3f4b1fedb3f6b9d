// Package framegraph schedules a frame's render passes and the offscreen
// surfaces they draw into.
//
// # Overview
//
// Each frame the caller declares a Graph: logical surfaces, an ordered list
// of passes writing them, and copies that capture a surface's contents for
// sampling by later passes. An Executor then maps the logical surfaces to
// physical attachments, aliasing surfaces whose lifetimes do not overlap,
// and records each pass through a Device.
//
// # Quick Start
//
//	exec := framegraph.New(device)
//	defer exec.Destroy()
//
//	b := exec.Begin()
//	scene := b.CreateSurface(framegraph.SurfaceDesc{
//		Label:       "scene",
//		Format:      gputypes.TextureFormatRGBA8Unorm,
//		Width:       1280,
//		Height:      720,
//		SampleCount: 4,
//	})
//	b.PushPass("geometry", func(ps *framegraph.PassSetup) {
//		ps.WriteColor(scene)
//		ps.Execute(drawScene)
//	})
//	sceneCopy := b.RequestCopy(scene)
//	b.PushPass("composite", func(ps *framegraph.PassSetup) {
//		ps.WriteColor(scene)
//		ps.Read(sceneCopy)
//		ps.Present()
//		ps.Execute(func(s *framegraph.Scope) {
//			bindTexture(s.Pass(), s.Lookup(sceneCopy))
//		})
//	})
//	if err := exec.Execute(b.End(), swapchainTexture); err != nil {
//		return err
//	}
//
// # Resource Lifetime
//
// A physical surface is acquired the first time a pass references its
// logical surface and returned to the pool after the last reference. The
// first write in a frame applies the surface's clear policy; later writes
// load. Free resources are destroyed after staying unused for the number of
// frames configured with WithMaxAge.
//
// Copies of multi-sampled surfaces are resolved into pooled single-sampled
// textures. Copies of single-sampled surfaces are served directly from the
// surface texture, unless a later pass writes the surface before the copy's
// last reader runs; such copies get a pooled texture too. Copies nobody
// reads are never allocated.
//
// # Errors
//
// Misuse of the API (bad ids, reentrancy, inconsistent attachments) is a
// programming error and panics with an error wrapping one of the Err*
// sentinels. Device failures are returned from Execute.
//
// # Logging
//
// framegraph is silent by default. Use SetLogger to receive debug records
// about resource acquisition, release and eviction.
package framegraph
