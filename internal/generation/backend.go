package generation

import (
	"context"
	"time"
)

// DefaultTemperature keeps summaries close to the source material.
const DefaultTemperature float32 = 0.3

// Prompt is a fully built request for a backend.
type Prompt struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float32
}

// Backend is a generative model provider.
type Backend interface {
	// Name identifies the provider in logs.
	Name() string

	// GenerateText sends a system + user message pair and returns the model output.
	GenerateText(ctx context.Context, prompt Prompt) (string, error)

	// GenerateMultimodal sends the prompt together with a reference to an image
	// or document the vision model reads directly.
	GenerateMultimodal(ctx context.Context, prompt Prompt, fileURL string) (string, error)
}

// DocumentKind selects the persona and instructions used for a document.
type DocumentKind string

// Document kinds
const (
	KindText         DocumentKind = "text"
	KindHTML         DocumentKind = "html"
	KindPDF          DocumentKind = "pdf"
	KindWord         DocumentKind = "word"
	KindSpreadsheet  DocumentKind = "spreadsheet"
	KindPresentation DocumentKind = "presentation"
	KindImage        DocumentKind = "image"
)

// Budget bounds one model call.
type Budget struct {
	// MaxChars caps the document text sent to the model. Zero means no cap.
	MaxChars int

	// MaxTokens caps the model output.
	MaxTokens int

	// Timeout bounds the whole call.
	Timeout time.Duration
}
