// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package native implements framegraph.Device on top of the gogpu/wgpu
// hardware abstraction layer.
//
// Textures and attachments are hal.Texture objects paired with a default
// view. Each render pass is recorded into its own command encoder and
// submitted when the pass ends.
//
// Device sharing with a host application (for example gogpu) goes through
// NewFromProvider, which accepts any gpucontext.DeviceProvider that also
// exposes HalDevice() and HalQueue().
//
//	dev, err := native.NewFromProvider(app.DeviceProvider())
//	if err != nil {
//		return err
//	}
//	exec := framegraph.New(dev)
//	...
//	err = exec.Execute(graph, native.WrapView(swapchainView))
package native
