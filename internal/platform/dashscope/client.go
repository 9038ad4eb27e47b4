package dashscope

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/phrazzld/scry-summarizer/internal/config"
	"github.com/phrazzld/scry-summarizer/internal/generation"
)

const (
	// DefaultBaseURL is the public DashScope endpoint.
	DefaultBaseURL = "https://dashscope.aliyuncs.com"

	textPath       = "/api/v1/services/aigc/text-generation/generation"
	multimodalPath = "/api/v1/services/aigc/multimodal-generation/generation"

	// codeDataInspectionFailed is returned when the content moderation
	// rejects the input or output.
	codeDataInspectionFailed = "DataInspectionFailed"

	maxResponseBytes = 4 << 20
)

// Backend implements generation.Backend over the DashScope HTTP API.
type Backend struct {
	logger      *slog.Logger
	client      *http.Client
	baseURL     string
	apiKey      string
	textModel   string
	visionModel string
	retry       generation.RetryPolicy
}

var _ generation.Backend = (*Backend)(nil)

// NewBackend creates a DashScope backend from the LLM configuration.
func NewBackend(logger *slog.Logger, cfg config.LLMConfig) (*Backend, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: dashscope API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.TextModel == "" || cfg.VisionModel == "" {
		return nil, fmt.Errorf("%w: model names cannot be empty", generation.ErrInvalidConfig)
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Backend{
		logger:      logger.With("component", "dashscope_backend"),
		client:      cleanhttp.DefaultPooledClient(),
		baseURL:     baseURL,
		apiKey:      cfg.APIKey,
		textModel:   cfg.TextModel,
		visionModel: cfg.VisionModel,
		retry: generation.RetryPolicy{
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  cfg.RetryDelay,
		},
	}, nil
}

// Name returns the provider name.
func (b *Backend) Name() string {
	return config.ProviderDashScope
}

// GenerateText sends a system and user message to the text generation endpoint.
func (b *Backend) GenerateText(ctx context.Context, prompt generation.Prompt) (string, error) {
	var messages []message
	if prompt.System != "" {
		messages = append(messages, message{Role: "system", Content: prompt.System})
	}
	messages = append(messages, message{Role: "user", Content: prompt.User})

	return b.call(ctx, textPath, b.textModel, messages, prompt)
}

// GenerateMultimodal sends the prompt and the document URL to the multimodal
// generation endpoint.
func (b *Backend) GenerateMultimodal(ctx context.Context, prompt generation.Prompt, fileURL string) (string, error) {
	var messages []message
	if prompt.System != "" {
		messages = append(messages, message{
			Role:    "system",
			Content: []contentItem{{Text: prompt.System}},
		})
	}
	messages = append(messages, message{
		Role:    "user",
		Content: []contentItem{{Text: prompt.User}, {Image: fileURL}},
	})

	return b.call(ctx, multimodalPath, b.visionModel, messages, prompt)
}

func (b *Backend) call(
	ctx context.Context,
	path string,
	model string,
	messages []message,
	prompt generation.Prompt,
) (string, error) {
	body, err := json.Marshal(request{
		Model: model,
		Input: input{Messages: messages},
		Parameters: parameters{
			Temperature: prompt.Temperature,
			MaxTokens:   prompt.MaxTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: failed to encode request: %v", generation.ErrGenerationFailed, err)
	}

	return generation.WithRetry(ctx, b.retry, b.logger, func(ctx context.Context) (string, error) {
		b.logger.DebugContext(ctx, "Making DashScope API call", "model", model, "endpoint", path)
		return b.post(ctx, path, body)
	})
}

func (b *Backend) post(ctx context.Context, path string, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: failed to build request: %v", generation.ErrGenerationFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+b.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: %w", generation.ErrTransientFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: failed to read response: %v", generation.ErrTransientFailure, err)
	}

	var parsed response
	decodeErr := json.Unmarshal(raw, &parsed)

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp.StatusCode, parsed)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("%w: malformed response body: %v", generation.ErrInvalidResponse, decodeErr)
	}
	if parsed.Code != "" {
		return "", statusError(resp.StatusCode, parsed)
	}

	return parsed.text()
}

// statusError maps an unsuccessful response onto the generation error taxonomy.
func statusError(status int, resp response) error {
	detail := resp.Message
	if detail == "" {
		detail = http.StatusText(status)
	}

	switch {
	case resp.Code == codeDataInspectionFailed:
		return fmt.Errorf("%w: %s", generation.ErrContentBlocked, detail)
	case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
		return fmt.Errorf("%w: dashscope API %d: %s", generation.ErrTransientFailure, status, detail)
	default:
		return fmt.Errorf("%w: dashscope API %d (%s): %s", generation.ErrGenerationFailed, status, resp.Code, detail)
	}
}
