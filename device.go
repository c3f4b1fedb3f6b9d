// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import (
	"github.com/gogpu/gputypes"
)

// Texture is an opaque sampleable texture handle created by a Device.
// The present texture passed to Executor.Execute is also a Texture.
type Texture any

// Attachment is an opaque render attachment handle created by a Device.
type Attachment any

// RenderPass is an opaque handle to a pass being recorded by a Device.
// Pass callbacks get it from Scope.Pass to record draw commands.
type RenderPass any

// TextureDesc describes a texture or attachment to allocate.
type TextureDesc struct {
	// Label is an optional debug label.
	Label string

	// Format is the pixel format.
	Format gputypes.TextureFormat

	// Width is the width in pixels.
	Width uint32

	// Height is the height in pixels.
	Height uint32

	// SampleCount is the number of samples per pixel (1 for no MSAA).
	SampleCount uint32
}

// ColorAttachment is the resolved color slot of a render pass.
type ColorAttachment struct {
	Attachment Attachment
	LoadOp     gputypes.LoadOp
	StoreOp    gputypes.StoreOp
	ClearValue gputypes.Color

	// ResolveTarget receives the final contents of the attachment: a
	// pooled copy or the present texture. Nil when neither was requested.
	ResolveTarget Texture
}

// DepthStencilAttachment is the resolved depth/stencil slot of a render pass.
// Backends ignore the ops of an aspect the format does not have.
type DepthStencilAttachment struct {
	Attachment Attachment

	DepthLoadOp     gputypes.LoadOp
	DepthStoreOp    gputypes.StoreOp
	DepthClearValue float32

	StencilLoadOp     gputypes.LoadOp
	StencilStoreOp    gputypes.StoreOp
	StencilClearValue uint32

	// ResolveTarget receives a copy of the attachment, or nil.
	ResolveTarget Texture
}

// RenderPassDesc is the fully scheduled description of one pass.
type RenderPassDesc struct {
	// Label is the pass name given to Builder.PushPass.
	Label string

	// Width, Height and SampleCount describe the bound attachments.
	// They are zero for a pass with no attachments.
	Width       uint32
	Height      uint32
	SampleCount uint32

	// Color is nil when SlotColor0 is unbound.
	Color *ColorAttachment

	// DepthStencil is nil when SlotDepthStencil is unbound.
	DepthStencil *DepthStencilAttachment
}

// PixelViewport is a viewport in pixels.
type PixelViewport struct {
	X, Y, Width, Height float32
}

// Device is the graphics API used by an Executor.
//
// Single-sampled surfaces are backed by a texture created with
// CreateTexture and an attachment from CreateAttachmentFromTexture;
// multi-sampled surfaces only by CreateAttachment. Copies are textures.
//
// A RenderPass is created, given its viewport, handed to the pass callback
// and submitted, strictly one at a time.
type Device interface {
	CreateTexture(desc TextureDesc) (Texture, error)
	CreateAttachment(desc TextureDesc) (Attachment, error)
	CreateAttachmentFromTexture(tex Texture) (Attachment, error)
	DestroyTexture(tex Texture)
	DestroyAttachment(att Attachment)

	CreateRenderPass(desc *RenderPassDesc) (RenderPass, error)
	SetViewport(pass RenderPass, vp PixelViewport)
	SubmitPass(pass RenderPass) error
}
