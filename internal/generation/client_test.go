package generation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend records prompts and returns canned output
type fakeBackend struct {
	mu sync.Mutex

	TextFn       func(ctx context.Context, p Prompt) (string, error)
	MultimodalFn func(ctx context.Context, p Prompt, fileURL string) (string, error)

	TextPrompts []Prompt
	FileURLs    []string
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) GenerateText(ctx context.Context, p Prompt) (string, error) {
	b.mu.Lock()
	b.TextPrompts = append(b.TextPrompts, p)
	b.mu.Unlock()
	if b.TextFn != nil {
		return b.TextFn(ctx, p)
	}
	return "a summary", nil
}

func (b *fakeBackend) GenerateMultimodal(ctx context.Context, p Prompt, fileURL string) (string, error) {
	b.mu.Lock()
	b.FileURLs = append(b.FileURLs, fileURL)
	b.mu.Unlock()
	if b.MultimodalFn != nil {
		return b.MultimodalFn(ctx, p, fileURL)
	}
	return "an image summary", nil
}

func newTestClient(t *testing.T, b Backend, opts ...Option) *Client {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := NewClient(b, logger, append([]Option{WithoutLanguageDetection()}, opts...)...)
	require.NoError(t, err)
	return c
}

func TestNewClient_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewClient(nil, slog.Default())
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewClient(&fakeBackend{}, nil)
	assert.Error(t, err)
}

func TestClient_SummarizeText(t *testing.T) {
	t.Parallel()

	budget := Budget{MaxChars: 8000, MaxTokens: 600, Timeout: time.Second}

	t.Run("text under the cap is not partial", func(t *testing.T) {
		t.Parallel()
		b := &fakeBackend{}
		c := newTestClient(t, b)

		res, err := c.SummarizeText(context.Background(), TextRequest{
			Kind:   KindText,
			Text:   strings.Repeat("a", 8000),
			Budget: budget,
		})
		require.NoError(t, err)

		assert.Equal(t, "a summary", res.Summary)
		assert.False(t, res.IsPartial)
		require.Len(t, b.TextPrompts, 1)
		assert.NotContains(t, b.TextPrompts[0].User, TruncationMarker)
		assert.Equal(t, 600, b.TextPrompts[0].MaxTokens)
		assert.InDelta(t, 0.3, b.TextPrompts[0].Temperature, 0.0001)
	})

	t.Run("text over the cap is truncated and marked", func(t *testing.T) {
		t.Parallel()
		b := &fakeBackend{}
		c := newTestClient(t, b)

		res, err := c.SummarizeText(context.Background(), TextRequest{
			Kind:   KindText,
			Text:   strings.Repeat("b", 50000),
			Budget: budget,
		})
		require.NoError(t, err)

		assert.True(t, res.IsPartial)
		user := b.TextPrompts[0].User
		assert.Contains(t, user, TruncationMarker)
		assert.Equal(t, 8000, strings.Count(user, "b"))
	})

	t.Run("upstream truncation is reported", func(t *testing.T) {
		t.Parallel()
		b := &fakeBackend{}
		c := newTestClient(t, b)

		res, err := c.SummarizeText(context.Background(), TextRequest{
			Kind:      KindText,
			Text:      "short",
			Budget:    budget,
			Truncated: true,
		})
		require.NoError(t, err)
		assert.True(t, res.IsPartial)
		assert.Contains(t, b.TextPrompts[0].User, TruncationMarker)
	})

	t.Run("persona and depth follow the request", func(t *testing.T) {
		t.Parallel()
		b := &fakeBackend{}
		c := newTestClient(t, b)

		_, err := c.SummarizeText(context.Background(), TextRequest{
			Kind:            KindPDF,
			Text:            "quarterly report",
			Full:            true,
			Budget:          budget,
			ExistingSummary: "earlier summary",
		})
		require.NoError(t, err)

		p := b.TextPrompts[0]
		assert.Contains(t, p.System, "PDF analysis expert")
		assert.Contains(t, p.System, "concise")
		assert.Contains(t, p.User, "in depth")
		assert.Contains(t, p.User, "earlier summary")
	})

	t.Run("existing summary is ignored in quick mode", func(t *testing.T) {
		t.Parallel()
		b := &fakeBackend{}
		c := newTestClient(t, b)

		_, err := c.SummarizeText(context.Background(), TextRequest{
			Kind:            KindText,
			Text:            "notes",
			Budget:          budget,
			ExistingSummary: "earlier summary",
		})
		require.NoError(t, err)
		assert.NotContains(t, b.TextPrompts[0].User, "earlier summary")
		assert.Contains(t, b.TextPrompts[0].System, "document summary assistant")
	})

	t.Run("empty text", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, &fakeBackend{})
		_, err := c.SummarizeText(context.Background(), TextRequest{Text: "  \n", Budget: budget})
		assert.ErrorIs(t, err, ErrEmptyInput)
	})

	t.Run("empty model output is an invalid response", func(t *testing.T) {
		t.Parallel()
		b := &fakeBackend{TextFn: func(ctx context.Context, p Prompt) (string, error) { return "   ", nil }}
		c := newTestClient(t, b)

		_, err := c.SummarizeText(context.Background(), TextRequest{Text: "x", Budget: budget})
		assert.ErrorIs(t, err, ErrInvalidResponse)
	})

	t.Run("timeout is transient", func(t *testing.T) {
		t.Parallel()
		b := &fakeBackend{TextFn: func(ctx context.Context, p Prompt) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}}
		c := newTestClient(t, b)

		_, err := c.SummarizeText(context.Background(), TextRequest{
			Text:   "x",
			Budget: Budget{MaxChars: 10, MaxTokens: 10, Timeout: 20 * time.Millisecond},
		})
		assert.ErrorIs(t, err, ErrTransientFailure)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("backend errors pass through", func(t *testing.T) {
		t.Parallel()
		b := &fakeBackend{TextFn: func(ctx context.Context, p Prompt) (string, error) {
			return "", ErrContentBlocked
		}}
		c := newTestClient(t, b)

		_, err := c.SummarizeText(context.Background(), TextRequest{Text: "x", Budget: budget})
		assert.True(t, errors.Is(err, ErrContentBlocked))
	})

	t.Run("custom temperature", func(t *testing.T) {
		t.Parallel()
		b := &fakeBackend{}
		c := newTestClient(t, b, WithTemperature(0.1))

		_, err := c.SummarizeText(context.Background(), TextRequest{Text: "x", Budget: budget})
		require.NoError(t, err)
		assert.InDelta(t, 0.1, b.TextPrompts[0].Temperature, 0.0001)
	})
}

func TestClient_SummarizeMultimodal(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{}
	c := newTestClient(t, b)

	res, err := c.SummarizeMultimodal(context.Background(), MultimodalRequest{
		Kind:    KindImage,
		FileURL: "https://x/photo.png",
		Budget:  Budget{MaxTokens: 500, Timeout: time.Second},
	})
	require.NoError(t, err)

	assert.Equal(t, "an image summary", res.Summary)
	assert.False(t, res.IsPartial)
	assert.Equal(t, []string{"https://x/photo.png"}, b.FileURLs)

	_, err = c.SummarizeMultimodal(context.Background(), MultimodalRequest{Kind: KindImage})
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestClient_LanguageHint(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := NewClient(b, logger)
	require.NoError(t, err)

	_, err = c.SummarizeText(context.Background(), TextRequest{
		Kind:   KindText,
		Text:   "The committee reviewed the budget and approved the new library building for next year.",
		Budget: Budget{MaxChars: 1000, MaxTokens: 100, Timeout: 5 * time.Second},
	})
	require.NoError(t, err)
	assert.Contains(t, b.TextPrompts[0].User, "English")
}

func TestWarmLanguageDetector(t *testing.T) {
	t.Parallel()

	WarmLanguageDetector()
	require.NotNil(t, detector)

	start := time.Now()
	hint := languageHint("Le comité a examiné le budget et approuvé la nouvelle bibliothèque pour l'année prochaine.")
	assert.Contains(t, hint, "French")
	assert.Less(t, time.Since(start), time.Second)
	assert.Empty(t, languageHint(""))
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	out, cut := Truncate("hello", 10)
	assert.Equal(t, "hello", out)
	assert.False(t, cut)

	out, cut = Truncate("hello", 5)
	assert.Equal(t, "hello", out)
	assert.False(t, cut)

	out, cut = Truncate("文档摘要服务", 4)
	assert.Equal(t, "文档摘要", out)
	assert.True(t, cut)

	out, cut = Truncate("anything", 0)
	assert.Equal(t, "anything", out)
	assert.False(t, cut)
}
