package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/phrazzld/scry-summarizer/internal/domain"
	"github.com/phrazzld/scry-summarizer/internal/events"
	"github.com/phrazzld/scry-summarizer/internal/extract"
	"github.com/phrazzld/scry-summarizer/internal/generation"
	"github.com/phrazzld/scry-summarizer/internal/platform/logger"
	"github.com/phrazzld/scry-summarizer/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingBackend answers every call with a fixed summary.
type recordingBackend struct {
	mu          sync.Mutex
	textPrompts []generation.Prompt
	fileURLs    []string
}

func (b *recordingBackend) Name() string { return "recording" }

func (b *recordingBackend) GenerateText(_ context.Context, prompt generation.Prompt) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.textPrompts = append(b.textPrompts, prompt)
	return "A concise summary.", nil
}

func (b *recordingBackend) GenerateMultimodal(_ context.Context, prompt generation.Prompt, fileURL string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fileURLs = append(b.fileURLs, fileURL)
	return "An image summary.", nil
}

type pipeline struct {
	service  AnalysisService
	registry *task.Registry
	backend  *recordingBackend
	server   *httptest.Server
}

// newPipeline wires the real cascade and summarization client to a document
// server and a recording backend.
func newPipeline(t *testing.T, docs map[string][]byte) *pipeline {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := docs[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)

	log, _ := logger.GetTestLogger(t)
	backend := &recordingBackend{}
	client, err := generation.NewClient(backend, log, generation.WithoutLanguageDetection())
	require.NoError(t, err)

	registry := task.NewRegistry(task.DefaultRegistryConfig(), log)
	cascade := extract.NewCascade(extract.NewFetcher("", log), log)
	emitter := events.NewInMemoryEventEmitter(log)

	svc, err := NewAnalysisService(registry, &fakeRunner{}, cascade, client, emitter, log)
	require.NoError(t, err)

	return &pipeline{service: svc, registry: registry, backend: backend, server: srv}
}

// run starts an analysis and executes it inline.
func (p *pipeline) run(t *testing.T, req domain.AnalysisRequest) domain.Task {
	t.Helper()
	ctx := context.Background()

	id, err := p.service.StartAnalysis(ctx, req, "")
	require.NoError(t, err)
	_ = p.service.ProcessAsyncDocument(ctx, id, req)

	got, err := p.service.CheckResult(ctx, id)
	require.NoError(t, err)
	return got
}

func TestPipeline_LongTextQuickIsPartial(t *testing.T) {
	p := newPipeline(t, map[string][]byte{"/a.txt": []byte(strings.Repeat("a", 50000))})

	got := p.run(t, domain.AnalysisRequest{FileURL: p.server.URL + "/a.txt", FileType: "txt"})

	assert.Equal(t, domain.TaskStatusCompleted, got.Status)
	assert.True(t, got.IsPartial)
	require.Len(t, p.backend.textPrompts, 1)
	assert.Contains(t, p.backend.textPrompts[0].User, generation.TruncationMarker)
	assert.Equal(t, extract.TextLimits.QuickTokens, p.backend.textPrompts[0].MaxTokens)
}

func TestPipeline_TextUnderFullCapIsComplete(t *testing.T) {
	p := newPipeline(t, map[string][]byte{"/a.txt": []byte(strings.Repeat("b", 10000))})

	got := p.run(t, domain.AnalysisRequest{
		FileURL:        p.server.URL + "/a.txt",
		FileType:       "txt",
		IsFullAnalysis: true,
	})

	assert.Equal(t, domain.TaskStatusCompleted, got.Status)
	assert.False(t, got.IsPartial)
	assert.Equal(t, "A concise summary.", got.Summary)
	require.Len(t, p.backend.textPrompts, 1)
	assert.NotContains(t, p.backend.textPrompts[0].User, generation.TruncationMarker)
}

func TestPipeline_ProtectedDocxIsExplained(t *testing.T) {
	// password protected OOXML files are stored in a compound file container
	protected := append([]byte{0xd0, 0xcf, 0x11, 0xe0, 0xa1, 0xb1, 0x1a, 0xe1}, make([]byte, 2048)...)
	p := newPipeline(t, map[string][]byte{"/secret.docx": protected})

	got := p.run(t, domain.AnalysisRequest{FileURL: p.server.URL + "/secret.docx", FileType: "docx"})

	assert.Equal(t, domain.TaskStatusCompleted, got.Status)
	assert.Equal(t, extract.Apology(extract.CauseEncrypted, ""), got.Summary)
	assert.Empty(t, p.backend.textPrompts)
	assert.Empty(t, p.backend.fileURLs)
}

func TestPipeline_BinaryTextFileIsExplained(t *testing.T) {
	noise := make([]byte, 1024)
	for i := range noise {
		noise[i] = byte(i % 32)
	}
	p := newPipeline(t, map[string][]byte{"/data.txt": noise})

	got := p.run(t, domain.AnalysisRequest{FileURL: p.server.URL + "/data.txt", FileType: "txt"})

	assert.Equal(t, domain.TaskStatusCompleted, got.Status)
	assert.NotEmpty(t, got.Summary)
	assert.Equal(t, extract.Apology(extract.CauseBinary, ""), got.Summary)
	assert.Empty(t, p.backend.textPrompts)
}

func TestPipeline_ImageGoesToMultimodal(t *testing.T) {
	p := newPipeline(t, nil)
	url := p.server.URL + "/photo.png"

	got := p.run(t, domain.AnalysisRequest{FileURL: url, FileType: "png"})

	assert.Equal(t, domain.TaskStatusCompleted, got.Status)
	assert.Equal(t, "An image summary.", got.Summary)
	assert.Equal(t, []string{url}, p.backend.fileURLs)
}

func TestPipeline_MissingDocumentIsExplained(t *testing.T) {
	p := newPipeline(t, nil)

	got := p.run(t, domain.AnalysisRequest{FileURL: p.server.URL + "/gone.txt", FileType: "txt"})

	assert.Equal(t, domain.TaskStatusCompleted, got.Status)
	assert.Equal(t, extract.Apology(extract.CauseNetwork, ""), got.Summary)
}

func TestPipeline_QuickSummary(t *testing.T) {
	p := newPipeline(t, map[string][]byte{"/notes.md": []byte("# Notes\n\nShip the release on Friday.")})

	result, err := p.service.ProcessQuickSummary(context.Background(), domain.AnalysisRequest{
		FileURL: p.server.URL + "/notes.md",
	})
	require.NoError(t, err)
	assert.Equal(t, "A concise summary.", result.Summary)
	assert.False(t, result.IsPartial)
	assert.Equal(t, 0, p.registry.Len())
}
