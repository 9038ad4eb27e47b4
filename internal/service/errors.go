// Package service provides the document analysis use cases.
package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// These errors represent common conditions that callers may want to check for with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped in AnalysisServiceError
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to {success:false, error} responses
var (
	// ErrDuplicateTask indicates a caller-supplied task id is already registered.
	ErrDuplicateTask = errors.New("task id already in use")

	// ErrServiceBusy indicates the background queue could not accept the task.
	// The task is recorded as Failed so a poll still gets an answer.
	ErrServiceBusy = errors.New("analysis service is busy, retry later with a new taskId")
)
