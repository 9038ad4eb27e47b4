package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/phrazzld/scry-summarizer/internal/domain"
)

// TextRequest asks for a summary of already extracted text.
type TextRequest struct {
	Kind            DocumentKind
	Text            string
	Full            bool
	Budget          Budget
	ExistingSummary string

	// Truncated marks text that was already cut short upstream, for example
	// by a byte cap on the download.
	Truncated bool
}

// MultimodalRequest asks the vision model to read a file by reference.
type MultimodalRequest struct {
	Kind    DocumentKind
	FileURL string
	Full    bool
	Budget  Budget
}

// Client builds prompts, applies budgets and timeouts, and delegates the call
// to a Backend.
type Client struct {
	backend     Backend
	logger      *slog.Logger
	temperature float32
	detectLang  bool
}

// Option customizes a Client.
type Option func(*Client)

// WithTemperature overrides DefaultTemperature.
func WithTemperature(t float32) Option {
	return func(c *Client) {
		c.temperature = t
	}
}

// WithoutLanguageDetection disables the response language hint.
func WithoutLanguageDetection() Option {
	return func(c *Client) {
		c.detectLang = false
	}
}

// NewClient creates a summarization client on top of backend.
func NewClient(backend Backend, logger *slog.Logger, opts ...Option) (*Client, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: backend cannot be nil", ErrInvalidConfig)
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	c := &Client{
		backend:     backend,
		logger:      logger.With("component", "summarizer", "backend", backend.Name()),
		temperature: DefaultTemperature,
		detectLang:  true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SummarizeText summarizes req.Text. Text longer than the budget is truncated,
// marked inline and reported through SummaryResult.IsPartial.
func (c *Client) SummarizeText(ctx context.Context, req TextRequest) (domain.SummaryResult, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return domain.SummaryResult{}, ErrEmptyInput
	}

	text, cut := Truncate(text, req.Budget.MaxChars)
	partial := cut || req.Truncated

	data := promptData{
		Instruction: instruction(req.Kind, req.Full, false),
		Document:    text,
		Truncated:   partial,
		Marker:      TruncationMarker,
	}
	if req.Full {
		data.ExistingSummary = strings.TrimSpace(req.ExistingSummary)
	}
	if c.detectLang {
		data.LanguageHint = languageHint(text)
	}

	user, err := buildUserPrompt(data)
	if err != nil {
		return domain.SummaryResult{}, err
	}

	prompt := Prompt{
		System:      systemPrompt(req.Kind, req.Full),
		User:        user,
		MaxTokens:   req.Budget.MaxTokens,
		Temperature: c.temperature,
	}

	c.logger.DebugContext(ctx, "requesting text summary",
		"kind", req.Kind,
		"full_analysis", req.Full,
		"input_chars", utf8.RuneCountInString(text),
		"truncated", partial,
		"max_tokens", prompt.MaxTokens)

	summary, err := c.call(ctx, req.Budget.Timeout, func(ctx context.Context) (string, error) {
		return c.backend.GenerateText(ctx, prompt)
	})
	if err != nil {
		return domain.SummaryResult{}, err
	}

	return domain.SummaryResult{Summary: summary, IsPartial: partial}, nil
}

// SummarizeMultimodal asks the vision model to summarize the file at
// req.FileURL directly. The result is never partial.
func (c *Client) SummarizeMultimodal(ctx context.Context, req MultimodalRequest) (domain.SummaryResult, error) {
	if strings.TrimSpace(req.FileURL) == "" {
		return domain.SummaryResult{}, ErrEmptyInput
	}

	user, err := buildUserPrompt(promptData{
		Instruction:  instruction(req.Kind, req.Full, true),
		LanguageHint: "Write the summary in the language of the document.",
	})
	if err != nil {
		return domain.SummaryResult{}, err
	}

	prompt := Prompt{
		System:      systemPrompt(req.Kind, req.Full),
		User:        user,
		MaxTokens:   req.Budget.MaxTokens,
		Temperature: c.temperature,
	}

	c.logger.DebugContext(ctx, "requesting multimodal summary",
		"kind", req.Kind,
		"full_analysis", req.Full,
		"max_tokens", prompt.MaxTokens)

	summary, err := c.call(ctx, req.Budget.Timeout, func(ctx context.Context) (string, error) {
		return c.backend.GenerateMultimodal(ctx, prompt, req.FileURL)
	})
	if err != nil {
		return domain.SummaryResult{}, err
	}

	return domain.SummaryResult{Summary: summary}, nil
}

// call runs fn under timeout and normalizes its result. Timeouts are reported
// as ErrTransientFailure; an empty output is ErrInvalidResponse.
func (c *Client) call(ctx context.Context, timeout time.Duration, fn func(context.Context) (string, error)) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := fn(ctx)
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrTransientFailure) {
			err = fmt.Errorf("%w: model call timed out after %s: %w", ErrTransientFailure, timeout, err)
		}
		c.logger.WarnContext(ctx, "model call failed",
			"error", err,
			"duration_ms", elapsed.Milliseconds())
		return "", err
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("%w: empty output", ErrInvalidResponse)
	}

	c.logger.InfoContext(ctx, "model call succeeded",
		"duration_ms", elapsed.Milliseconds(),
		"output_chars", utf8.RuneCountInString(out))
	return out, nil
}
