// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"fmt"
	"time"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// defaultTimeout bounds the wait for a submitted pass.
const defaultTimeout = 5 * time.Second

// Texture is a HAL texture with its default view. Textures created by
// WrapView have no texture of their own and are never destroyed here.
type Texture struct {
	tex  hal.Texture
	view hal.TextureView
	desc framegraph.TextureDesc
}

// WrapView wraps an externally owned view, typically the current swapchain
// view, so it can be passed to Executor.Execute as the present texture.
func WrapView(view hal.TextureView) *Texture {
	return &Texture{view: view}
}

// View returns the texture view used for binding and rendering.
func (t *Texture) View() hal.TextureView { return t.view }

// Raw returns the HAL texture, or nil for a wrapped view.
func (t *Texture) Raw() hal.Texture { return t.tex }

// Desc returns the description the texture was created with.
func (t *Texture) Desc() framegraph.TextureDesc { return t.desc }

// Attachment is a render attachment. Attachments made from a readable
// Texture share its view and leave destruction to that texture.
type Attachment struct {
	texture  *Texture
	borrowed bool
}

// View returns the attachment view.
func (a *Attachment) View() hal.TextureView { return a.texture.view }

// Pass is a render pass being recorded into its own command encoder.
type Pass struct {
	label   string
	encoder hal.CommandEncoder
	rp      hal.RenderPassEncoder

	// copies run after the pass ends, for single-sampled attachments
	// whose contents are also needed in another texture.
	copies []textureCopy
}

type textureCopy struct {
	src, dst *Texture
}

// Encoder returns the HAL render pass encoder for recording draws.
func (p *Pass) Encoder() hal.RenderPassEncoder { return p.rp }

// Device implements framegraph.Device on a HAL device and queue.
//
// Device is not safe for concurrent use.
type Device struct {
	device  hal.Device
	queue   hal.Queue
	timeout time.Duration
}

var _ framegraph.Device = (*Device)(nil)

// New creates a Device issuing work to device and queue.
func New(device hal.Device, queue hal.Queue) (*Device, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	return &Device{device: device, queue: queue, timeout: defaultTimeout}, nil
}

// NewFromProvider creates a Device sharing the HAL device of a host
// application. The provider must implement HalDevice() any and
// HalQueue() any returning hal.Device and hal.Queue.
func NewFromProvider(provider gpucontext.DeviceProvider) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHalProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHalProvider)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHalProvider)
	}
	return New(device, queue)
}

// SetTimeout sets how long SubmitPass waits for the GPU.
func (d *Device) SetTimeout(timeout time.Duration) {
	d.timeout = timeout
}

// CreateTexture creates a single-sampled texture usable as a render target
// and as a shader resource.
func (d *Device) CreateTexture(desc framegraph.TextureDesc) (framegraph.Texture, error) {
	usage := gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding |
		gputypes.TextureUsageCopySrc | gputypes.TextureUsageCopyDst
	return d.createTexture(desc, usage)
}

// CreateAttachment creates a render-only attachment, used for
// multi-sampled surfaces.
func (d *Device) CreateAttachment(desc framegraph.TextureDesc) (framegraph.Attachment, error) {
	t, err := d.createTexture(desc, gputypes.TextureUsageRenderAttachment)
	if err != nil {
		return nil, err
	}
	return &Attachment{texture: t}, nil
}

// CreateAttachmentFromTexture returns an attachment rendering into tex.
func (d *Device) CreateAttachmentFromTexture(tex framegraph.Texture) (framegraph.Attachment, error) {
	t, ok := tex.(*Texture)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotNativeHandle, tex)
	}
	return &Attachment{texture: t, borrowed: true}, nil
}

func (d *Device) createTexture(desc framegraph.TextureDesc, usage gputypes.TextureUsage) (*Texture, error) {
	samples := desc.SampleCount
	if samples == 0 {
		samples = 1
	}
	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         desc.Label,
		Size:          hal.Extent3D{Width: desc.Width, Height: desc.Height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   samples,
		Dimension:     gputypes.TextureDimension2D,
		Format:        desc.Format,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture %s: %w", desc.Label, err)
	}
	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: desc.Label + "_view",
	})
	if err != nil {
		d.device.DestroyTexture(tex)
		return nil, fmt.Errorf("create view %s: %w", desc.Label, err)
	}
	return &Texture{tex: tex, view: view, desc: desc}, nil
}

// DestroyTexture destroys a texture created by CreateTexture. Wrapped
// views are left alone.
func (d *Device) DestroyTexture(tex framegraph.Texture) {
	t, ok := tex.(*Texture)
	if !ok || t.tex == nil {
		return
	}
	d.destroy(t)
}

// DestroyAttachment destroys an attachment. Attachments made from a
// texture are released with that texture.
func (d *Device) DestroyAttachment(att framegraph.Attachment) {
	a, ok := att.(*Attachment)
	if !ok || a.borrowed {
		return
	}
	d.destroy(a.texture)
}

func (d *Device) destroy(t *Texture) {
	if t.view != nil {
		d.device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		d.device.DestroyTexture(t.tex)
		t.tex = nil
	}
}

// CreateRenderPass begins encoding a render pass.
//
// HAL only resolves multi-sampled attachments. A single-sampled color
// attachment is copied into its resolve target once the pass ends; a
// wrapped view, which has no texture to copy into, is rendered into
// directly instead.
func (d *Device) CreateRenderPass(desc *framegraph.RenderPassDesc) (framegraph.RenderPass, error) {
	rpDesc := &hal.RenderPassDescriptor{Label: desc.Label}
	var copies []textureCopy

	if c := desc.Color; c != nil {
		view, err := attachmentView(c.Attachment)
		if err != nil {
			return nil, fmt.Errorf("color attachment: %w", err)
		}
		ca := hal.RenderPassColorAttachment{
			View:       view,
			LoadOp:     c.LoadOp,
			StoreOp:    c.StoreOp,
			ClearValue: c.ClearValue,
		}
		if c.ResolveTarget != nil {
			target, err := textureView(c.ResolveTarget)
			if err != nil {
				return nil, fmt.Errorf("resolve target: %w", err)
			}
			src := c.Attachment.(*Attachment).texture
			dst := c.ResolveTarget.(*Texture)
			switch {
			case desc.SampleCount > 1:
				ca.ResolveTarget = target
			case src.tex != nil && dst.tex != nil:
				copies = append(copies, textureCopy{src: src, dst: dst})
			default:
				ca.View = target
			}
		}
		rpDesc.ColorAttachments = []hal.RenderPassColorAttachment{ca}
	}

	if ds := desc.DepthStencil; ds != nil {
		if ds.ResolveTarget != nil {
			return nil, ErrDepthResolveUnsupported
		}
		view, err := attachmentView(ds.Attachment)
		if err != nil {
			return nil, fmt.Errorf("depth/stencil attachment: %w", err)
		}
		a := ds.Attachment.(*Attachment)
		hasDepth, hasStencil := formatAspects(a.texture.desc.Format)
		dsa := &hal.RenderPassDepthStencilAttachment{View: view}
		if hasDepth {
			dsa.DepthLoadOp = ds.DepthLoadOp
			dsa.DepthStoreOp = ds.DepthStoreOp
			dsa.DepthClearValue = ds.DepthClearValue
		}
		if hasStencil {
			dsa.StencilLoadOp = ds.StencilLoadOp
			dsa.StencilStoreOp = ds.StencilStoreOp
			dsa.StencilClearValue = ds.StencilClearValue
		}
		rpDesc.DepthStencilAttachment = dsa
	}

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: desc.Label + "_encoder",
	})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(desc.Label); err != nil {
		encoder.DiscardEncoding()
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	return &Pass{
		label:   desc.Label,
		encoder: encoder,
		rp:      encoder.BeginRenderPass(rpDesc),
		copies:  copies,
	}, nil
}

// SetViewport applies vp with the full depth range.
func (d *Device) SetViewport(pass framegraph.RenderPass, vp framegraph.PixelViewport) {
	p, ok := pass.(*Pass)
	if !ok || vp.Width == 0 || vp.Height == 0 {
		return
	}
	p.rp.SetViewport(vp.X, vp.Y, vp.Width, vp.Height, 0, 1)
}

// SubmitPass ends the pass, submits its commands and waits for the GPU.
func (d *Device) SubmitPass(pass framegraph.RenderPass) error {
	p, ok := pass.(*Pass)
	if !ok {
		return fmt.Errorf("%w: %T", ErrNotNativeHandle, pass)
	}
	p.rp.End()
	for _, c := range p.copies {
		recordCopy(p.encoder, c)
	}

	cmdBuf, err := p.encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding %s: %w", p.label, err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	fence, err := d.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer d.device.DestroyFence(fence)

	if err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit %s: %w", p.label, err)
	}
	ok, err = d.device.Wait(fence, 1, d.timeout)
	if err != nil {
		return fmt.Errorf("wait for %s: %w", p.label, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrGPUTimeout, p.label)
	}
	return nil
}

// recordCopy copies a rendered single-sampled attachment into dst. The
// source goes back to RenderAttachment so later passes can draw into it.
func recordCopy(encoder hal.CommandEncoder, c textureCopy) {
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: c.src.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}, {
		Texture: c.dst.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageTextureBinding,
			NewUsage: gputypes.TextureUsageCopyDst,
		},
	}})

	encoder.CopyTextureToTexture(c.src.tex, c.dst.tex, []hal.TextureCopy{{
		SrcBase: hal.ImageCopyTexture{Texture: c.src.tex, MipLevel: 0},
		DstBase: hal.ImageCopyTexture{Texture: c.dst.tex, MipLevel: 0},
		Size:    hal.Extent3D{Width: c.src.desc.Width, Height: c.src.desc.Height, DepthOrArrayLayers: 1},
	}})

	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: c.src.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}, {
		Texture: c.dst.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopyDst,
			NewUsage: gputypes.TextureUsageTextureBinding,
		},
	}})
}

func attachmentView(att framegraph.Attachment) (hal.TextureView, error) {
	a, ok := att.(*Attachment)
	if !ok || a.texture == nil {
		return nil, fmt.Errorf("%w: %T", ErrNotNativeHandle, att)
	}
	return a.texture.view, nil
}

func textureView(tex framegraph.Texture) (hal.TextureView, error) {
	t, ok := tex.(*Texture)
	if !ok || t.view == nil {
		return nil, fmt.Errorf("%w: %T", ErrNotNativeHandle, tex)
	}
	return t.view, nil
}

// formatAspects reports which aspects a depth/stencil format carries.
func formatAspects(format gputypes.TextureFormat) (depth, stencil bool) {
	switch format {
	case gputypes.TextureFormatStencil8:
		return false, true
	case gputypes.TextureFormatDepth16Unorm,
		gputypes.TextureFormatDepth24Plus,
		gputypes.TextureFormatDepth32Float:
		return true, false
	case gputypes.TextureFormatDepth24PlusStencil8,
		gputypes.TextureFormatDepth32FloatStencil8:
		return true, true
	default:
		return true, true
	}
}
