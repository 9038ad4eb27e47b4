package generation

import "errors"

// Common errors returned by the generation package
var (
	// ErrGenerationFailed is returned when the backend rejects a request for any general reason
	ErrGenerationFailed = errors.New("failed to generate summary")

	// ErrInvalidResponse is returned when the LLM response is missing its expected output field
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the LLM blocks the content due to safety filters
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrTransientFailure is returned for timeouts and other temporary errors
	ErrTransientFailure = errors.New("transient error during summary generation")

	// ErrInvalidConfig is returned when the backend configuration is invalid
	ErrInvalidConfig = errors.New("invalid generator configuration")

	// ErrEmptyInput is returned when there is no text or file reference to summarize
	ErrEmptyInput = errors.New("nothing to summarize")
)
