// Package ollama implements generation.Backend on a local Ollama server
// using the official API client.
//
// Ollama vision models take image bytes rather than URLs, so multimodal calls
// download the referenced image first and send it inline. Documents that are
// not images cannot be read by these models and fail the call.
package ollama
