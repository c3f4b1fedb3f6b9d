// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// SurfaceID identifies a logical surface within one Graph.
type SurfaceID int

// ColorClear is the color clear policy of a surface.
// The zero value clears to transparent black.
type ColorClear struct {
	Value gputypes.Color

	// Preserve loads the existing contents instead of clearing.
	Preserve bool
}

// DepthClear is the depth clear policy of a surface.
type DepthClear struct {
	Value    float32
	Preserve bool
}

// StencilClear is the stencil clear policy of a surface.
type StencilClear struct {
	Value    uint32
	Preserve bool
}

// SurfaceDesc describes a logical offscreen surface.
type SurfaceDesc struct {
	// Label is an optional debug label.
	Label string

	Format gputypes.TextureFormat
	Width  uint32
	Height uint32

	// SampleCount is 1, 2, 4, 8 or 16. Zero means 1.
	SampleCount uint32

	// Clear policies, applied the first time the surface is written in a
	// frame. Later writes in the same frame always load.
	Color   ColorClear
	Depth   DepthClear
	Stencil StencilClear
}

func (d *SurfaceDesc) samples() uint32 {
	if d.SampleCount == 0 {
		return 1
	}
	return d.SampleCount
}

// multisampled reports whether the surface lacks a directly readable texture.
func (d *SurfaceDesc) multisampled() bool {
	return d.samples() > 1
}

func (d *SurfaceDesc) validate() error {
	if d.Width == 0 || d.Height == 0 {
		return fmt.Errorf("%w: %q has size %dx%d", ErrInvalidSurface, d.Label, d.Width, d.Height)
	}
	if d.Format == gputypes.TextureFormatUndefined {
		return fmt.Errorf("%w: %q has undefined format", ErrInvalidSurface, d.Label)
	}
	switch d.samples() {
	case 1, 2, 4, 8, 16:
	default:
		return fmt.Errorf("%w: %q has sample count %d", ErrInvalidSurface, d.Label, d.SampleCount)
	}
	return nil
}

// resourceKey is the pool compatibility descriptor of a physical resource.
type resourceKey struct {
	format      gputypes.TextureFormat
	width       uint32
	height      uint32
	sampleCount uint32
}

func (d *SurfaceDesc) surfaceKey() resourceKey {
	return resourceKey{format: d.Format, width: d.Width, height: d.Height, sampleCount: d.samples()}
}

// copyKey is the key of the single-sampled copy of the surface.
func (d *SurfaceDesc) copyKey() resourceKey {
	return resourceKey{format: d.Format, width: d.Width, height: d.Height, sampleCount: 1}
}

func (k resourceKey) textureDesc(label string) TextureDesc {
	return TextureDesc{
		Label:       fmt.Sprintf("%s_%dx%dx%d", label, k.width, k.height, k.sampleCount),
		Format:      k.format,
		Width:       k.width,
		Height:      k.height,
		SampleCount: k.sampleCount,
	}
}
