// Package generation provides the summarization client that wraps calls to an
// external generative text or multimodal LLM. It owns prompt construction,
// input length budgeting and per-call timeouts, and talks to the concrete
// provider through the Backend interface so the application is not coupled to
// DashScope, Gemini or Ollama specifically.
package generation
