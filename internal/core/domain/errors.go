package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an upload whose content type is not accepted.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrFileTooLarge indicates an upload exceeded the configured size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrUploadUnavailable indicates no upload endpoint is configured.
	ErrUploadUnavailable = errors.New("upload endpoint unavailable")

	// ErrInvalidRatio indicates an aspect ratio label that cannot be parsed.
	ErrInvalidRatio = errors.New("invalid aspect ratio")

	// Edit Session Errors.

	// ErrSessionClosed indicates the edit session was already saved or cancelled.
	ErrSessionClosed = errors.New("edit session closed")

	// ErrSessionInProgress indicates another edit session is open for the same slot.
	ErrSessionInProgress = errors.New("edit session in progress")

	// ErrUnknownRole indicates a banner role with no ratio or fit policy.
	ErrUnknownRole = errors.New("unknown banner role")
)
