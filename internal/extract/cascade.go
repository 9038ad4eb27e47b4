package extract

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"

	"github.com/phrazzld/scry-summarizer/internal/domain"
	"github.com/phrazzld/scry-summarizer/internal/generation"
	"github.com/phrazzld/scry-summarizer/internal/redact"
)

// Reference points at a remote document.
type Reference struct {
	URL      string
	FileType string
}

// Action tells the orchestrator what to do with an Extraction.
type Action int

// Extraction actions.
const (
	// ActionSummarizeText sends Result.Text to the text summarizer.
	ActionSummarizeText Action = iota
	// ActionMultimodal sends the document URL to the multimodal summarizer.
	ActionMultimodal
	// ActionExplain completes the task with Explanation and no model call.
	ActionExplain
)

func (a Action) String() string {
	switch a {
	case ActionSummarizeText:
		return "summarize_text"
	case ActionMultimodal:
		return "multimodal"
	case ActionExplain:
		return "explain"
	default:
		return "unknown"
	}
}

// Extraction is the outcome of running the cascade on one document.
type Extraction struct {
	Action   Action
	Strategy string
	Kind     generation.DocumentKind
	Limits   Limits
	Result   domain.ExtractionResult

	// Truncated is true when the text was cut before it reached the
	// summarizer, for example by the download cap.
	Truncated bool

	// Cause and Explanation are set for ActionExplain.
	Cause       Cause
	Explanation string

	// Reason records why a strategy fell through or gave up.
	Reason error
}

// Budget returns the model budget for the requested analysis depth.
func (e Extraction) Budget(full bool) generation.Budget {
	return e.Limits.Budget(full)
}

// Strategy extracts text from one family of formats. Returning an error
// wrapping ErrUseMultimodal hands the document to the multimodal summarizer;
// any other error ends the cascade with an explanation.
type Strategy interface {
	Name() string
	Kind() generation.DocumentKind
	Extract(ctx context.Context, ref Reference) (Extraction, error)
}

// bodyStrategy is a Strategy that can also work on an already fetched body.
type bodyStrategy interface {
	Strategy
	decode(ctx context.Context, ref Reference, body *FetchResult) (Extraction, error)
}

type tableEntry struct {
	formats  []string
	strategy bodyStrategy
}

// Cascade dispatches documents to strategies by normalized file type.
type Cascade struct {
	table    []tableEntry
	fallback Strategy
	logger   *slog.Logger
}

// ImageFormats are summarized by the multimodal model without extraction.
var ImageFormats = []string{"jpg", "jpeg", "png", "gif", "bmp", "webp", "image"}

// NewCascade builds the strategy table. Entries are matched in order; types
// not in the table are sniffed from their content.
func NewCascade(fetcher *Fetcher, logger *slog.Logger) *Cascade {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Cascade{
		logger: logger.With("component", "extraction_cascade"),
	}
	c.table = []tableEntry{
		{ImageFormats, imageStrategy{}},
		{[]string{"pdf"}, &pdfStrategy{fetcher: fetcher}},
		{[]string{"docx"}, &docxStrategy{fetcher: fetcher}},
		{[]string{"xlsx"}, &xlsxStrategy{fetcher: fetcher}},
		{[]string{"rtf"}, &rtfStrategy{fetcher: fetcher}},
		{[]string{"doc"}, legacyStrategy{kind: generation.KindWord}},
		{[]string{"ppt", "pptx"}, legacyStrategy{kind: generation.KindPresentation}},
		{[]string{"xls"}, legacyStrategy{kind: generation.KindSpreadsheet}},
		{[]string{"html", "htm"}, &htmlStrategy{fetcher: fetcher}},
		{[]string{"txt", "csv", "md", "json", "xml", "log", "tsv", "yaml", "yml"}, &textStrategy{fetcher: fetcher}},
	}
	c.fallback = &sniffStrategy{fetcher: fetcher, lookup: c.lookup}
	return c
}

func (c *Cascade) lookup(fileType string) (bodyStrategy, bool) {
	for _, e := range c.table {
		for _, f := range e.formats {
			if f == fileType {
				return e.strategy, true
			}
		}
	}
	return nil, false
}

// Strategy returns the strategy for a normalized file type.
func (c *Cascade) Strategy(fileType string) Strategy {
	if s, ok := c.lookup(fileType); ok {
		return s
	}
	return c.fallback
}

// Extract runs the cascade for ref. It never fails: every error is turned
// into a multimodal fallback or an explanation.
func (c *Cascade) Extract(ctx context.Context, ref Reference) Extraction {
	ref.FileType = NormalizeFileType(ref.FileType)
	s := c.Strategy(ref.FileType)
	logger := c.logger.With("file_type", ref.FileType, "strategy", s.Name())

	start := time.Now()
	ext, err := s.Extract(ctx, ref)
	if err != nil {
		ext = fallThrough(s, ref, err)
	}
	if ext.Strategy == "" {
		ext.Strategy = s.Name()
	}

	attrs := []any{
		"action", ext.Action.String(),
		"chars", utf8.RuneCountInString(ext.Result.Text),
		"truncated", ext.Truncated,
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if ext.Reason != nil {
		attrs = append(attrs, "reason", redact.Error(ext.Reason))
	}
	if ext.Cause != "" {
		attrs = append(attrs, "cause", string(ext.Cause))
	}
	logger.InfoContext(ctx, "extraction finished", attrs...)

	return ext
}

// fallThrough maps a strategy error to the next step of the cascade.
func fallThrough(s Strategy, ref Reference, err error) Extraction {
	switch {
	case errors.Is(err, ErrUseMultimodal):
		return multimodalExtraction(s, err)
	case errors.Is(err, ErrFetchFailed):
		return explanation(s, CauseNetwork, ref.FileType, err)
	case errors.Is(err, ErrNoText):
		return explanation(s, CauseEmpty, ref.FileType, err)
	case errors.Is(err, ErrUnsupported):
		return explanation(s, CauseUnsupported, ref.FileType, err)
	default:
		return explanation(s, CauseCorrupted, ref.FileType, err)
	}
}

func textExtraction(s Strategy, limits Limits, text string, truncated bool) (Extraction, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Extraction{}, ErrNoText
	}
	return Extraction{
		Action:    ActionSummarizeText,
		Strategy:  s.Name(),
		Kind:      s.Kind(),
		Limits:    limits,
		Result:    domain.ExtractionResult{Text: text},
		Truncated: truncated,
	}, nil
}

func multimodalExtraction(s Strategy, reason error) Extraction {
	return Extraction{
		Action:   ActionMultimodal,
		Strategy: s.Name(),
		Kind:     s.Kind(),
		Limits:   MultimodalLimits,
		Reason:   reason,
	}
}

func explanation(s Strategy, cause Cause, fileType string, reason error) Extraction {
	ext := Extraction{
		Action:      ActionExplain,
		Strategy:    s.Name(),
		Kind:        s.Kind(),
		Cause:       cause,
		Explanation: Apology(cause, fileType),
		Reason:      reason,
	}
	switch cause {
	case CauseEncrypted:
		ext.Result.IsEncrypted = true
	case CauseBinary:
		ext.Result.IsBinary = true
	}
	return ext
}

// probeExtraction short-circuits with an explanation when sample is not
// readable text.
func probeExtraction(s Strategy, sample []byte, fileType string) (Extraction, bool) {
	switch Probe(sample) {
	case ClassEncrypted:
		return explanation(s, CauseEncrypted, fileType, nil), true
	case ClassBinary:
		return explanation(s, CauseBinary, fileType, nil), true
	}
	return Extraction{}, false
}

var fileTypeAliases = map[string]string{
	"markdown": "md",
	"text":     "txt",
	"xhtml":    "html",
	"jpe":      "jpg",
}

// NormalizeFileType lower-cases a file type tag and strips its leading dot.
// MIME types are mapped to their usual extension.
func NormalizeFileType(fileType string) string {
	ft := strings.ToLower(strings.TrimSpace(fileType))
	if strings.Contains(ft, "/") {
		mediaType, _, err := mime.ParseMediaType(ft)
		if err != nil {
			return ""
		}
		if strings.HasPrefix(mediaType, "image/") {
			return "image"
		}
		m := mimetype.Lookup(mediaType)
		if m == nil {
			return ""
		}
		ft = m.Extension()
	}
	ft = strings.TrimPrefix(ft, ".")
	if alias, ok := fileTypeAliases[ft]; ok {
		return alias
	}
	return ft
}
