// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
)

var errMockDevice = errors.New("mock device failure")

type mockTexture struct {
	id   int
	desc TextureDesc
}

type mockAttachment struct {
	id   int
	desc TextureDesc
	tex  *mockTexture
}

type mockPass struct {
	desc      RenderPassDesc
	viewport  PixelViewport
	submitted bool
}

// mockDevice records every call and tracks live handles.
type mockDevice struct {
	nextID int

	liveTextures    map[*mockTexture]bool
	liveAttachments map[*mockAttachment]bool

	texturesCreated    int
	attachmentsCreated int
	texturesDestroyed  int

	passes []*mockPass

	// failTextures makes CreateTexture fail once this many textures exist.
	failTextures int
	failPass     bool
	failSubmit   bool
}

func newMockDevice() *mockDevice {
	return &mockDevice{
		liveTextures:    make(map[*mockTexture]bool),
		liveAttachments: make(map[*mockAttachment]bool),
		failTextures:    -1,
	}
}

func (d *mockDevice) CreateTexture(desc TextureDesc) (Texture, error) {
	if d.failTextures >= 0 && len(d.liveTextures) >= d.failTextures {
		return nil, errMockDevice
	}
	d.nextID++
	t := &mockTexture{id: d.nextID, desc: desc}
	d.liveTextures[t] = true
	d.texturesCreated++
	return t, nil
}

func (d *mockDevice) CreateAttachment(desc TextureDesc) (Attachment, error) {
	d.nextID++
	a := &mockAttachment{id: d.nextID, desc: desc}
	d.liveAttachments[a] = true
	d.attachmentsCreated++
	return a, nil
}

func (d *mockDevice) CreateAttachmentFromTexture(tex Texture) (Attachment, error) {
	t := tex.(*mockTexture)
	d.nextID++
	a := &mockAttachment{id: d.nextID, desc: t.desc, tex: t}
	d.liveAttachments[a] = true
	d.attachmentsCreated++
	return a, nil
}

func (d *mockDevice) DestroyTexture(tex Texture) {
	delete(d.liveTextures, tex.(*mockTexture))
	d.texturesDestroyed++
}

func (d *mockDevice) DestroyAttachment(att Attachment) {
	delete(d.liveAttachments, att.(*mockAttachment))
}

func (d *mockDevice) CreateRenderPass(desc *RenderPassDesc) (RenderPass, error) {
	if d.failPass {
		return nil, errMockDevice
	}
	p := &mockPass{desc: *desc}
	d.passes = append(d.passes, p)
	return p, nil
}

func (d *mockDevice) SetViewport(pass RenderPass, vp PixelViewport) {
	pass.(*mockPass).viewport = vp
}

func (d *mockDevice) SubmitPass(pass RenderPass) error {
	if d.failSubmit {
		return errMockDevice
	}
	pass.(*mockPass).submitted = true
	return nil
}

func (d *mockDevice) live() int {
	return len(d.liveTextures) + len(d.liveAttachments)
}

// rgbaSurface returns a single-sampled RGBA8 surface description.
func rgbaSurface(w, h uint32) SurfaceDesc {
	return SurfaceDesc{
		Label:  "rgba",
		Format: gputypes.TextureFormatRGBA8Unorm,
		Width:  w,
		Height: h,
	}
}

func msaaSurface(w, h uint32) SurfaceDesc {
	d := rgbaSurface(w, h)
	d.Label = "msaa"
	d.SampleCount = 4
	return d
}

func depthSurface(w, h, samples uint32) SurfaceDesc {
	return SurfaceDesc{
		Label:       "depth",
		Format:      gputypes.TextureFormatDepth24PlusStencil8,
		Width:       w,
		Height:      h,
		SampleCount: samples,
		Depth:       DepthClear{Value: 1},
	}
}

// expectFatal runs fn and fails unless it panics with an error wrapping want.
func expectFatal(t *testing.T, want error, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatalf("expected panic wrapping %v, got none", want)
		}
		err, ok := r.(error)
		if !ok {
			t.Fatalf("panic value = %#v, want error wrapping %v", r, want)
		}
		if !errors.Is(err, want) {
			t.Fatalf("panic = %v, want error wrapping %v", err, want)
		}
	}()
	fn()
}
