package native

import "errors"

// Package errors for the HAL device.
var (
	// ErrNilDevice is returned when a nil HAL device or queue is supplied.
	ErrNilDevice = errors.New("native: nil HAL device or queue")

	// ErrNoHalProvider is returned when a device provider does not expose
	// HAL types.
	ErrNoHalProvider = errors.New("native: provider does not expose HAL types")

	// ErrNotNativeHandle is returned when a handle was not created by this
	// package.
	ErrNotNativeHandle = errors.New("native: handle not created by native.Device")

	// ErrDepthResolveUnsupported is returned for a depth/stencil attachment
	// with a resolve target.
	ErrDepthResolveUnsupported = errors.New("native: depth/stencil resolve not supported")

	// ErrGPUTimeout is returned when a submitted pass does not complete in time.
	ErrGPUTimeout = errors.New("native: timed out waiting for GPU")
)
