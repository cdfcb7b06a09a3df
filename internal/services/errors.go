// Package services defines the business logic of the introduction broker:
// contact resolution, connection requests, introductions, message rendering,
// and batch dispatch. This file centralizes the service-level error values so
// that they can be consistently returned by service methods and checked by
// callers with errors.Is.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates that the referenced contact, request,
	// introduction, or batch does not exist (or is not visible to the caller).
	ErrNotFound = errors.New("not found")

	// ErrAlreadyResolved is returned for a transition attempted on an entity
	// that already left the state the transition needs.
	ErrAlreadyResolved = errors.New("already resolved")

	// ErrInvalidIntroduction rejects structurally invalid introduction input
	// before anything is written.
	ErrInvalidIntroduction = errors.New("invalid introduction")

	// ErrForbidden is returned when the caller may not perform the action.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidRequest covers malformed input that is not an introduction.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrDuplicateRequest is returned when a pending connection request
	// already exists for the pair, in either direction.
	ErrDuplicateRequest = errors.New("a pending request already exists for this pair")

	// ErrAlreadyConnected is returned when the pair already has an edge.
	ErrAlreadyConnected = errors.New("already connected")

	// ErrUnknownTemplate is returned when no template exists for the
	// (type, channel) key.
	ErrUnknownTemplate = errors.New("unknown template")

	// ErrDispatchInProgress is returned for a recipient whose send is claimed
	// by a concurrent dispatch call.
	ErrDispatchInProgress = errors.New("dispatch in progress for recipient")

	// ErrConcurrentUpdate is returned when an introduction kept changing
	// under a responder until the retry budget ran out.
	ErrConcurrentUpdate = errors.New("concurrent update, retry")
)

// DispatchFailure is the per-recipient error of a dispatch. It never aborts
// the batch.
type DispatchFailure struct {
	RecipientID string
	Err         error
}

func (e *DispatchFailure) Error() string {
	return fmt.Sprintf("dispatch to %s: %v", e.RecipientID, e.Err)
}

func (e *DispatchFailure) Unwrap() error { return e.Err }
