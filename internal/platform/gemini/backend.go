package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/phrazzld/scry-summarizer/internal/config"
	"github.com/phrazzld/scry-summarizer/internal/generation"
	"google.golang.org/genai"
)

// defaultFileMIMEType is sent when the MIME type cannot be derived from the
// document URL.
const defaultFileMIMEType = "image/jpeg"

// contentGenerator is the subset of *genai.Models used by Backend.
type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Backend implements generation.Backend using the Gemini API.
type Backend struct {
	// logger is used for structured logging
	logger *slog.Logger

	// models performs the GenerateContent calls
	models contentGenerator

	// textModel and visionModel are the Gemini model names for each call shape
	textModel   string
	visionModel string

	// retry bounds retries of transient API errors
	retry generation.RetryPolicy
}

var _ generation.Backend = (*Backend)(nil)

// NewBackend creates a new Gemini backend with the provided dependencies.
//
// Parameters:
//   - ctx: Context for client initialization
//   - logger: A structured logger for operation logging
//   - cfg: LLM configuration containing API key, model names and retry settings
//
// Returns:
//   - A properly initialized Backend or an error if initialization fails
func NewBackend(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Backend, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.TextModel == "" || cfg.VisionModel == "" {
		return nil, fmt.Errorf("%w: model names cannot be empty", generation.ErrInvalidConfig)
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return newBackend(logger, client.Models, cfg), nil
}

func newBackend(logger *slog.Logger, models contentGenerator, cfg config.LLMConfig) *Backend {
	return &Backend{
		logger:      logger.With("component", "gemini_backend"),
		models:      models,
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
	return config.ProviderGemini
}

// GenerateText sends the prompt to the text model.
func (b *Backend) GenerateText(ctx context.Context, prompt generation.Prompt) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt.User, genai.RoleUser),
	}
	return b.generate(ctx, b.textModel, contents, prompt)
}

// GenerateMultimodal sends the prompt together with the document URL as a
// file data part to the vision model.
func (b *Backend) GenerateMultimodal(ctx context.Context, prompt generation.Prompt, fileURL string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(prompt.User),
			genai.NewPartFromURI(fileURL, mimeTypeFor(fileURL)),
		}, genai.RoleUser),
	}
	return b.generate(ctx, b.visionModel, contents, prompt)
}

// generate makes the API call with retries for transient errors.
//
// Parameters:
//   - ctx: Context for the operation, which bounds all attempts
//   - model: The Gemini model name
//   - contents: The user content to send
//   - prompt: The prompt carrying the system persona and sampling settings
//
// Returns:
//   - The concatenated text of the first candidate
//   - An error from the generation package's error taxonomy
func (b *Backend) generate(
	ctx context.Context,
	model string,
	contents []*genai.Content,
	prompt generation.Prompt,
) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(prompt.Temperature),
	}
	if prompt.System != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: prompt.System}}}
	}
	if prompt.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(prompt.MaxTokens)
	}

	return generation.WithRetry(ctx, b.retry, b.logger, func(ctx context.Context) (string, error) {
		b.logger.DebugContext(ctx, "Making Gemini API call", "model", model)

		resp, err := b.models.GenerateContent(ctx, model, contents, cfg)
		if err != nil {
			return "", classifyError(err)
		}
		return responseText(resp)
	})
}

// responseText extracts the text of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked (%s)", generation.ErrContentBlocked, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: content blocked by safety filters", generation.ErrContentBlocked)
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("%w: candidate has no text", generation.ErrInvalidResponse)
	}
	return text, nil
}

// classifyError maps a client error onto the generation error taxonomy.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError:
			return fmt.Errorf("%w: gemini API %d: %s", generation.ErrTransientFailure, apiErr.Code, apiErr.Message)
		default:
			return fmt.Errorf("%w: gemini API %d: %s", generation.ErrGenerationFailed, apiErr.Code, apiErr.Message)
		}
	}

	// transport errors
	return fmt.Errorf("%w: %w", generation.ErrTransientFailure, err)
}

// mimeTypeFor guesses the MIME type of a document from its URL path.
func mimeTypeFor(fileURL string) string {
	u, err := url.Parse(fileURL)
	if err != nil {
		return defaultFileMIMEType
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if ext == "" {
		return defaultFileMIMEType
	}
	if t := mime.TypeByExtension(ext); t != "" {
		if mediaType, _, err := mime.ParseMediaType(t); err == nil {
			return mediaType
		}
		return t
	}
	return defaultFileMIMEType
}
