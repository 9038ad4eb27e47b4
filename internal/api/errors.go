package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/phrazzld/scry-summarizer/internal/domain"
	"github.com/phrazzld/scry-summarizer/internal/service"
)

// MapErrorToStatusCode maps service errors to HTTP status codes. This
// prevents leaking internal error types or messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrEmptyTaskID):
		return http.StatusBadRequest

	case errors.Is(err, service.ErrDuplicateTask):
		return http.StatusConflict

	case errors.Is(err, service.ErrServiceBusy):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a user-facing message for err.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, domain.ErrEmptyFileURL):
		return "fileUrl is required"

	case errors.Is(err, domain.ErrInvalidFileURL):
		return "fileUrl must be an absolute http or https URL"

	case errors.Is(err, domain.ErrEmptyTaskID):
		return "taskId is required"

	case errors.Is(err, domain.ErrValidation):
		return "Validation error"

	case errors.Is(err, service.ErrDuplicateTask):
		return "taskId is already in use"

	case errors.Is(err, service.ErrServiceBusy):
		return service.ErrServiceBusy.Error()

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Example format: "Key: 'StartAnalysisRequest.FileURL' Error:Field validation for 'FileURL' failed on the 'required' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := jsonFieldName(fieldParts[1])
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// jsonFieldName maps struct field names to the protocol's JSON names.
func jsonFieldName(field string) string {
	switch field {
	case "FileURL":
		return "fileUrl"
	case "FileType":
		return "fileType"
	case "TaskID":
		return "taskId"
	case "ExistingSummary":
		return "existingSummary"
	default:
		return field
	}
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "url":
		return "invalid URL"
	case "max":
		return "too long"
	default:
		return "validation failed"
	}
}
