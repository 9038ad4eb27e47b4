// Package extract turns a remote document into text a language model can
// summarize, or into a fixed explanation of why that is not possible.
//
// Dispatch is by normalized file type into an ordered strategy table. Each
// strategy either produces text, asks for the multimodal path by returning
// ErrUseMultimodal, or fails. The Cascade converts every failure into an
// Extraction the caller can act on, so extraction itself never errors.
package extract
