// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and stable: clients branch on them, never on
// the message. Generic codes mirror the HTTP status; domain codes name the
// state-machine or dispatch condition that rejected the call.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "already_resolved",
//	  "message": "already resolved"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeTimeout          = "timeout"

	// Domain-specific:
	ErrCodeAlreadyResolved     = "already_resolved"
	ErrCodeInvalidIntroduction = "invalid_introduction"
	ErrCodeDuplicateRequest    = "duplicate_request"
	ErrCodeAlreadyConnected    = "already_connected"
	ErrCodeUnknownTemplate     = "unknown_template"
	ErrCodeDispatchInProgress  = "dispatch_in_progress"
)
