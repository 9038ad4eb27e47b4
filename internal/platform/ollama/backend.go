package ollama

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/ollama/ollama/api"
	"github.com/phrazzld/scry-summarizer/internal/config"
	"github.com/phrazzld/scry-summarizer/internal/extract"
	"github.com/phrazzld/scry-summarizer/internal/generation"
)

// DefaultBaseURL is the address of a local Ollama server.
const DefaultBaseURL = "http://localhost:11434"

// maxImageBytes caps the inline image download.
const maxImageBytes = 10 << 20

// chatClient is the subset of *api.Client used by Backend.
type chatClient interface {
	Chat(ctx context.Context, req *api.ChatRequest, fn api.ChatResponseFunc) error
}

// imageFetcher downloads the image for multimodal calls.
type imageFetcher interface {
	Fetch(ctx context.Context, url string, maxBytes int64, timeout time.Duration) (*extract.FetchResult, error)
}

// Backend implements generation.Backend on the Ollama chat API.
type Backend struct {
	logger      *slog.Logger
	client      chatClient
	fetcher     imageFetcher
	textModel   string
	visionModel string
	retry       generation.RetryPolicy
}

var _ generation.Backend = (*Backend)(nil)

// NewBackend creates an Ollama backend. fetcher downloads images for
// multimodal calls.
func NewBackend(logger *slog.Logger, cfg config.LLMConfig, fetcher *extract.Fetcher) (*Backend, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("%w: fetcher cannot be nil", generation.ErrInvalidConfig)
	}
	if cfg.TextModel == "" || cfg.VisionModel == "" {
		return nil, fmt.Errorf("%w: model names cannot be empty", generation.ErrInvalidConfig)
	}

	rawURL := cfg.BaseURL
	if rawURL == "" {
		rawURL = DefaultBaseURL
	}
	base, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid ollama base URL: %v", generation.ErrInvalidConfig, err)
	}

	client := api.NewClient(base, cleanhttp.DefaultPooledClient())
	return newBackend(logger, client, fetcher, cfg), nil
}

func newBackend(logger *slog.Logger, client chatClient, fetcher imageFetcher, cfg config.LLMConfig) *Backend {
	return &Backend{
		logger:      logger.With("component", "ollama_backend"),
		client:      client,
		fetcher:     fetcher,
		textModel:   cfg.TextModel,
		visionModel: cfg.VisionModel,
		retry: generation.RetryPolicy{
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  cfg.RetryDelay,
		},
	}
}

// Name returns the provider name.
func (b *Backend) Name() string {
	return config.ProviderOllama
}

// GenerateText sends the system and user messages to the text model.
func (b *Backend) GenerateText(ctx context.Context, prompt generation.Prompt) (string, error) {
	messages := systemMessage(prompt)
	messages = append(messages, api.Message{Role: "user", Content: prompt.User})
	return b.chat(ctx, b.textModel, messages, prompt)
}

// GenerateMultimodal downloads the image at fileURL and sends it inline to
// the vision model.
func (b *Backend) GenerateMultimodal(ctx context.Context, prompt generation.Prompt, fileURL string) (string, error) {
	res, err := b.fetcher.Fetch(ctx, fileURL, maxImageBytes, 0)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: image download failed: %w", generation.ErrTransientFailure, err)
	}
	if res.Truncated {
		return "", fmt.Errorf("%w: image exceeds %d bytes", generation.ErrGenerationFailed, maxImageBytes)
	}
	if mt := mimetype.Detect(res.Body); !strings.HasPrefix(mt.String(), "image/") {
		return "", fmt.Errorf("%w: vision model cannot read %s", generation.ErrGenerationFailed, mt.String())
	}

	messages := systemMessage(prompt)
	messages = append(messages, api.Message{
		Role:    "user",
		Content: prompt.User,
		Images:  []api.ImageData{res.Body},
	})
	return b.chat(ctx, b.visionModel, messages, prompt)
}

func systemMessage(prompt generation.Prompt) []api.Message {
	if prompt.System == "" {
		return nil
	}
	return []api.Message{{Role: "system", Content: prompt.System}}
}

func (b *Backend) chat(ctx context.Context, model string, messages []api.Message, prompt generation.Prompt) (string, error) {
	stream := false
	options := map[string]any{"temperature": prompt.Temperature}
	if prompt.MaxTokens > 0 {
		options["num_predict"] = prompt.MaxTokens
	}
	req := &api.ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   &stream,
		Options:  options,
	}

	return generation.WithRetry(ctx, b.retry, b.logger, func(ctx context.Context) (string, error) {
		b.logger.DebugContext(ctx, "Making Ollama chat call", "model", model)

		var sb strings.Builder
		err := b.client.Chat(ctx, req, func(resp api.ChatResponse) error {
			sb.WriteString(resp.Message.Content)
			return nil
		})
		if err != nil {
			return "", classifyError(ctx, err)
		}

		text := strings.TrimSpace(sb.String())
		if text == "" {
			return "", fmt.Errorf("%w: empty chat response", generation.ErrInvalidResponse)
		}
		return text, nil
	})
}

// classifyError maps an Ollama client error onto the generation error taxonomy.
func classifyError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("%w: ollama %d: %s", generation.ErrTransientFailure, statusErr.StatusCode, statusErr.ErrorMessage)
		}
		return fmt.Errorf("%w: ollama %d: %s", generation.ErrGenerationFailed, statusErr.StatusCode, statusErr.ErrorMessage)
	}

	// connection refused and other transport errors
	return fmt.Errorf("%w: %w", generation.ErrTransientFailure, err)
}
