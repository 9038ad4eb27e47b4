package extract

import "errors"

var (
	// ErrFetchFailed is returned when the document could not be downloaded.
	ErrFetchFailed = errors.New("failed to fetch document")

	// ErrTooLarge is returned when a binary format exceeds its download cap
	// and cannot be parsed from a partial body.
	ErrTooLarge = errors.New("document exceeds size limit")

	// ErrNoText is returned when a parser ran successfully but produced no text.
	ErrNoText = errors.New("no text found in document")

	// ErrUseMultimodal signals that a strategy cannot produce usable text and
	// the document should be handed to the multimodal summarizer by URL.
	ErrUseMultimodal = errors.New("falling back to multimodal summarizer")

	// ErrUnsupported is returned for content no strategy can handle.
	ErrUnsupported = errors.New("unsupported document format")
)
