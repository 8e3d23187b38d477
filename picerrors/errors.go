// Package picerrors provides the sentinel error values the rest of
// this module returns, one per error kind in the data plane's error
// table: configuration errors fail at construction, decomposition and
// message-passing errors are fatal to the process group, particle
// capacity errors are a domain error.
package picerrors

import "errors"

var (
	// ErrConfiguration is returned by the Mesh and FieldLayout
	// constructors on non-positive spacing or cell count, negative
	// ghost depth, or an empty global or local domain.
	ErrConfiguration = errors.New("picfield: configuration error")

	// ErrDecompositionMismatch signals a broken symmetric-matching
	// invariant (P1) between two ranks' neighbor tables — a bug in
	// FieldLayout construction, fatal to the process group.
	ErrDecompositionMismatch = errors.New("picfield: decomposition mismatch between ranks")

	// ErrMessagePassing wraps a fatal error from the underlying
	// transport. The core does not retry or recover from it.
	ErrMessagePassing = errors.New("picfield: message-passing failure")

	// ErrParticleCapacity signals integer overflow in ID assignment or
	// an impossible particle count.
	ErrParticleCapacity = errors.New("picfield: particle capacity exhausted")

	// ErrClosed names a closed communicator. Nothing in this module
	// returns it: after Close, LocalTransport sends and receives fail
	// with ErrMessagePassing.
	ErrClosed = errors.New("picfield: communicator closed")

	// ErrUnknownIntent is returned by Communicator.GetBuffer when the
	// requested intent id is already held by an outstanding operation.
	ErrUnknownIntent = errors.New("picfield: unknown buffer intent id")
)
