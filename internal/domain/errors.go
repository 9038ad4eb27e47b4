// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyFileURL is returned when an analysis request has no document URL.
	ErrEmptyFileURL = errors.New("file URL cannot be empty")

	// ErrInvalidFileURL is returned when the document URL is not an absolute http(s) URL.
	ErrInvalidFileURL = errors.New("file URL must be an absolute http or https URL")

	// ErrEmptyTaskID is returned when a task lookup is attempted without an ID.
	ErrEmptyTaskID = errors.New("task ID cannot be empty")

	// ErrInvalidTaskStatus is returned when a task status is not valid.
	ErrInvalidTaskStatus = errors.New("invalid task status")
)
