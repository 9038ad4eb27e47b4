package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// AnalysisRequest describes one document to summarize. It is immutable once
// submitted.
type AnalysisRequest struct {
	FileURL         string `json:"fileUrl"`
	FileType        string `json:"fileType"`
	IsFullAnalysis  bool   `json:"isFullAnalysis"`
	ExistingSummary string `json:"existingSummary,omitempty"`
}

// Validate checks that the request references a fetchable document.
func (r AnalysisRequest) Validate() error {
	if strings.TrimSpace(r.FileURL) == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyFileURL)
	}
	u, err := url.Parse(r.FileURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrInvalidFileURL)
	}
	return nil
}

// NormalizedFileType returns the lower-cased file type tag without a leading
// dot. When the declared type is empty the extension of the URL path is used.
func (r AnalysisRequest) NormalizedFileType() string {
	ft := strings.ToLower(strings.TrimSpace(r.FileType))
	ft = strings.TrimPrefix(ft, ".")
	if ft != "" {
		return ft
	}
	u, err := url.Parse(r.FileURL)
	if err != nil {
		return ""
	}
	p := u.Path
	if i := strings.LastIndex(p, "."); i >= 0 && i > strings.LastIndex(p, "/") {
		return strings.ToLower(p[i+1:])
	}
	return ""
}

// ExtractionResult is the product of one extraction attempt. It is never
// persisted.
type ExtractionResult struct {
	Text        string
	IsBinary    bool
	IsEncrypted bool
}

// SummaryResult is what the summarization step hands back to the orchestrator.
// IsPartial is true whenever the input text was truncated to fit the model's
// input budget.
type SummaryResult struct {
	Summary   string `json:"summary"`
	IsPartial bool   `json:"isPartial"`
}
