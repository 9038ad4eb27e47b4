// Package gemini provides an implementation of the generation.Backend interface
// that uses Google's Gemini API for summarizing documents.
//
// This package is an infrastructure adapter: it translates a generation.Prompt
// into a Gemini GenerateContent request and maps the response, including safety
// blocks and API errors, onto the generation package's error taxonomy.
//
// Key components:
//
// 1. Backend:
//   - Implements the generation.Backend interface
//   - Sends the system persona as a system instruction
//   - Passes document URLs to the vision model as file data parts
//
// 2. Error Handling:
//   - Retries rate-limited and unavailable responses with exponential backoff
//   - Reports safety blocks as generation.ErrContentBlocked
//   - Reports empty or malformed candidates as generation.ErrInvalidResponse
//
// The package depends on Google's google.golang.org/genai client library.
package gemini
