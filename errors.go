// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import (
	"errors"
	"fmt"
)

// Invariant violations. framegraph panics with an error wrapping one of
// these sentinels; recover the value and use errors.Is to classify it.
// Device failures are returned as ordinary errors instead.
var (
	// ErrReentrant is raised by nested Begin, a second End, Execute called
	// from a pass callback, or Destroy while a graph is open.
	ErrReentrant = errors.New("framegraph: reentrant use")

	// ErrInvalidSurface is raised by CreateSurface for a malformed description.
	ErrInvalidSurface = errors.New("framegraph: invalid surface description")

	// ErrUnknownSurface is raised when a surface id is not part of the graph.
	ErrUnknownSurface = errors.New("framegraph: unknown surface id")

	// ErrUnknownCopy is raised when a copy id is not part of the graph.
	ErrUnknownCopy = errors.New("framegraph: unknown copy id")

	// ErrSlotBound is raised when a pass binds the same slot twice.
	ErrSlotBound = errors.New("framegraph: slot already bound")

	// ErrSetupDone is raised when a PassSetup is used after its setup
	// callback returned.
	ErrSetupDone = errors.New("framegraph: pass setup already finished")

	// ErrNoWriter is raised by RequestCopy when no earlier pass wrote the surface.
	ErrNoWriter = errors.New("framegraph: surface has no prior writer")

	// ErrAttachmentMismatch is raised when the two slots of a pass disagree
	// on width, height or sample count.
	ErrAttachmentMismatch = errors.New("framegraph: attachment size mismatch")

	// ErrUseCount is raised when a use-count would drop below zero.
	ErrUseCount = errors.New("framegraph: use-count underflow")

	// ErrLeak is raised when scheduling finishes with live resources.
	ErrLeak = errors.New("framegraph: resource leaked past end of graph")

	// ErrPresentWithoutColor is raised when a pass flagged Present does not
	// bind SlotColor0.
	ErrPresentWithoutColor = errors.New("framegraph: present pass has no color attachment")

	// ErrNoPresentTarget is raised when a present pass runs without a
	// present texture.
	ErrNoPresentTarget = errors.New("framegraph: present pass without present texture")

	// ErrCopyUnavailable is raised when a consumed copy has neither a
	// physical copy nor a directly readable source.
	ErrCopyUnavailable = errors.New("framegraph: copy has no readable texture")


	// ErrScopeInactive is raised by Scope.Lookup outside an executing pass.
	ErrScopeInactive = errors.New("framegraph: scope used outside its pass")

	// ErrCopyNotDeclared is raised by Scope.Lookup for an id the pass did not Read.
	ErrCopyNotDeclared = errors.New("framegraph: copy not declared as pass input")

	// ErrGraphConsumed is raised when a graph is executed more than once.
	ErrGraphConsumed = errors.New("framegraph: graph already executed")

	// ErrDestroyed is raised when an Executor is used after Destroy.
	ErrDestroyed = errors.New("framegraph: executor destroyed")
)

// fatalf panics with an error wrapping sentinel.
func fatalf(sentinel error, format string, args ...any) {
	panic(fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...)))
}
