package extract

import (
	"archive/zip"
	"bytes"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/phrazzld/scry-summarizer/internal/generation"
)

type document struct {
	contentType string
	body        []byte
	status      int
}

// docServer serves fixed documents by path and counts requests.
type docServer struct {
	*httptest.Server
	hits atomic.Int32
}

func newDocServer(t *testing.T, docs map[string]document) *docServer {
	t.Helper()
	ds := &docServer{}
	ds.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ds.hits.Add(1)
		doc, ok := docs[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if doc.contentType != "" {
			w.Header().Set("Content-Type", doc.contentType)
		}
		if doc.status != 0 {
			w.WriteHeader(doc.status)
		}
		_, _ = w.Write(doc.body)
	}))
	t.Cleanup(ds.Close)
	return ds
}

func newTestCascade() *Cascade {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewCascade(NewFetcher("", logger), logger)
}

func buildPDF(t *testing.T, content string, compress bool, extraTrailer string) []byte {
	t.Helper()

	stream := []byte(content)
	dict := fmt.Sprintf("<< /Length %d >>", len(stream))
	if compress {
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		_, err := zw.Write(stream)
		require.NoError(t, err)
		require.NoError(t, zw.Close())
		stream = buf.Bytes()
		dict = fmt.Sprintf("<< /Length %d /Filter /FlateDecode >>", len(stream))
	}

	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	b.WriteString("1 0 obj\n" + dict + "\nstream\n")
	b.Write(stream)
	b.WriteString("\nendstream\nendobj\n")
	b.WriteString("trailer\n<< /Root 1 0 R " + extraTrailer + ">>\n%%EOF\n")
	return b.Bytes()
}

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0"?><Types/>`))
	require.NoError(t, err)
	w, err = zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func buildXlsx(t *testing.T) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Region"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "Revenue"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "North"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", 1200))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

const reportContent = "BT /F1 12 Tf 72 712 Td (The quarterly report shows revenue growth across all regions.) Tj " +
	"T* (Costs were stable.) Tj ET"

const wordXML = `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
	`<w:p><w:r><w:t>Project plan</w:t></w:r></w:p>` +
	`<w:p><w:r><w:t xml:space="preserve">Phase one </w:t></w:r><w:r><w:t>starts in May.</w:t></w:r></w:p>` +
	`</w:body></w:document>`

func TestCascade_PlainText(t *testing.T) {
	t.Parallel()

	gbk, err := simplifiedchinese.GBK.NewEncoder().String("季度报告显示各地区收入均有增长。")
	require.NoError(t, err)

	srv := newDocServer(t, map[string]document{
		"/long.txt":      {body: []byte(strings.Repeat("a", 50000))},
		"/binary.txt":    {body: bytes.Repeat([]byte{0x01, 0x02, 0x03, 0x04}, 512)},
		"/protected.txt": {body: []byte("This workbook is password protected.")},
		"/empty.txt":     {body: []byte("   \n")},
		"/gbk.txt":       {contentType: "text/plain; charset=gbk", body: []byte(gbk)},
		"/gone.txt":      {status: http.StatusGone, body: []byte("gone")},
	})
	c := newTestCascade()
	ctx := context.Background()

	t.Run("long text is returned whole for the summarizer to budget", func(t *testing.T) {
		ext := c.Extract(ctx, Reference{URL: srv.URL + "/long.txt", FileType: "TXT"})
		require.Equal(t, ActionSummarizeText, ext.Action)
		assert.Len(t, ext.Result.Text, 50000)
		assert.False(t, ext.Truncated)
		assert.Equal(t, generation.KindText, ext.Kind)
		assert.Equal(t, 8000, ext.Budget(false).MaxChars)
		assert.Equal(t, 12000, ext.Budget(true).MaxChars)
	})

	t.Run("binary content is explained", func(t *testing.T) {
		ext := c.Extract(ctx, Reference{URL: srv.URL + "/binary.txt", FileType: "txt"})
		require.Equal(t, ActionExplain, ext.Action)
		assert.Equal(t, CauseBinary, ext.Cause)
		assert.True(t, ext.Result.IsBinary)
		assert.NotEmpty(t, ext.Explanation)
	})

	t.Run("encryption markers are explained", func(t *testing.T) {
		ext := c.Extract(ctx, Reference{URL: srv.URL + "/protected.txt", FileType: "txt"})
		require.Equal(t, ActionExplain, ext.Action)
		assert.Equal(t, CauseEncrypted, ext.Cause)
		assert.True(t, ext.Result.IsEncrypted)
		assert.Equal(t, Apology(CauseEncrypted, "txt"), ext.Explanation)
	})

	t.Run("empty file", func(t *testing.T) {
		ext := c.Extract(ctx, Reference{URL: srv.URL + "/empty.txt", FileType: "txt"})
		require.Equal(t, ActionExplain, ext.Action)
		assert.Equal(t, CauseEmpty, ext.Cause)
	})

	t.Run("declared charset is decoded", func(t *testing.T) {
		ext := c.Extract(ctx, Reference{URL: srv.URL + "/gbk.txt", FileType: "txt"})
		require.Equal(t, ActionSummarizeText, ext.Action)
		assert.Equal(t, "季度报告显示各地区收入均有增长。", ext.Result.Text)
	})

	t.Run("fetch failure is a network explanation", func(t *testing.T) {
		ext := c.Extract(ctx, Reference{URL: srv.URL + "/gone.txt", FileType: "txt"})
		require.Equal(t, ActionExplain, ext.Action)
		assert.Equal(t, CauseNetwork, ext.Cause)
		assert.ErrorIs(t, ext.Reason, ErrFetchFailed)
	})
}

func TestCascade_HTML(t *testing.T) {
	t.Parallel()

	page := `<html><head><title>Release notes</title><style>body{color:red}</style></head>` +
		`<body><h1>Version 2</h1><p>Adds offline mode.</p><script>var x = 1;</script></body></html>`
	srv := newDocServer(t, map[string]document{
		"/notes.html": {contentType: "text/html; charset=utf-8", body: []byte(page)},
	})

	ext := newTestCascade().Extract(context.Background(), Reference{URL: srv.URL + "/notes.html", FileType: ".html"})

	require.Equal(t, ActionSummarizeText, ext.Action)
	assert.Equal(t, generation.KindHTML, ext.Kind)
	assert.Contains(t, ext.Result.Text, "Release notes")
	assert.Contains(t, ext.Result.Text, "Version 2\nAdds offline mode.")
	assert.NotContains(t, ext.Result.Text, "var x")
	assert.NotContains(t, ext.Result.Text, "color:red")
}

func TestCascade_PDF(t *testing.T) {
	t.Parallel()

	srv := newDocServer(t, map[string]document{
		"/plain.pdf":      {body: buildPDF(t, reportContent, false, "")},
		"/compressed.pdf": {body: buildPDF(t, reportContent, true, "")},
		"/encrypted.pdf":  {body: buildPDF(t, reportContent, false, "/Encrypt 5 0 R ")},
		"/scanned.pdf":    {body: buildPDF(t, "q 612 0 0 792 0 0 cm /Im1 Do Q", false, "")},
		"/fake.pdf":       {body: []byte("not a pdf at all")},
	})
	c := newTestCascade()
	ctx := context.Background()

	for _, path := range []string{"/plain.pdf", "/compressed.pdf"} {
		ext := c.Extract(ctx, Reference{URL: srv.URL + path, FileType: "pdf"})
		require.Equal(t, ActionSummarizeText, ext.Action, path)
		assert.Equal(t, "The quarterly report shows revenue growth across all regions.\nCosts were stable.", ext.Result.Text)
		assert.Equal(t, PDFLimits, ext.Limits)
	}

	ext := c.Extract(ctx, Reference{URL: srv.URL + "/encrypted.pdf", FileType: "pdf"})
	assert.Equal(t, ActionExplain, ext.Action)
	assert.Equal(t, CauseEncrypted, ext.Cause)

	for _, path := range []string{"/scanned.pdf", "/fake.pdf", "/missing.pdf"} {
		ext := c.Extract(ctx, Reference{URL: srv.URL + path, FileType: "pdf"})
		assert.Equal(t, ActionMultimodal, ext.Action, path)
		assert.Equal(t, generation.KindPDF, ext.Kind, path)
		assert.Equal(t, MultimodalLimits, ext.Limits, path)
		assert.ErrorIs(t, ext.Reason, ErrUseMultimodal, path)
	}
}

func TestCascade_Office(t *testing.T) {
	t.Parallel()

	protected := append([]byte{0xd0, 0xcf, 0x11, 0xe0, 0xa1, 0xb1, 0x1a, 0xe1}, bytes.Repeat([]byte{0x00, 0x8f}, 600)...)
	srv := newDocServer(t, map[string]document{
		"/plan.docx":      {body: buildDocx(t, wordXML)},
		"/protected.docx": {body: protected},
		"/noise.docx":     {body: bytes.Repeat([]byte{0x00, 0x9c, 0x13, 0xfe}, 400)},
		"/empty.docx":     {body: buildDocx(t, `<w:document><w:body/></w:document>`)},
		"/sales.xlsx":     {body: buildXlsx(t)},
		"/protected.xlsx": {body: protected},
		"/memo.rtf":       {body: []byte(`{\rtf1\ansi{\fonttbl{\f0 Arial;}}\pard Board memo\par Budget approved.\par}`)},
	})
	c := newTestCascade()
	ctx := context.Background()

	t.Run("docx paragraphs", func(t *testing.T) {
		ext := c.Extract(ctx, Reference{URL: srv.URL + "/plan.docx", FileType: "docx"})
		require.Equal(t, ActionSummarizeText, ext.Action)
		assert.Equal(t, "Project plan\nPhase one starts in May.", ext.Result.Text)
		assert.Equal(t, generation.KindWord, ext.Kind)
		assert.Equal(t, 5000, ext.Budget(false).MaxChars)
	})

	t.Run("protected docx is explained as encrypted", func(t *testing.T) {
		for _, path := range []string{"/protected.docx", "/noise.docx", "/protected.xlsx"} {
			ext := c.Extract(ctx, Reference{URL: srv.URL + path, FileType: strings.TrimPrefix(path[strings.LastIndex(path, "."):], ".")})
			require.Equal(t, ActionExplain, ext.Action, path)
			assert.Equal(t, CauseEncrypted, ext.Cause, path)
			assert.Equal(t, Apology(CauseEncrypted, ""), ext.Explanation, path)
		}
	})

	t.Run("docx without text falls through", func(t *testing.T) {
		ext := c.Extract(ctx, Reference{URL: srv.URL + "/empty.docx", FileType: "docx"})
		assert.Equal(t, ActionMultimodal, ext.Action)
		assert.ErrorIs(t, ext.Reason, ErrNoText)
	})

	t.Run("xlsx cells", func(t *testing.T) {
		ext := c.Extract(ctx, Reference{URL: srv.URL + "/sales.xlsx", FileType: "xlsx"})
		require.Equal(t, ActionSummarizeText, ext.Action)
		assert.Equal(t, "Sheet: Sheet1\nRegion | Revenue\nNorth | 1200", ext.Result.Text)
		assert.Equal(t, generation.KindSpreadsheet, ext.Kind)
	})

	t.Run("rtf", func(t *testing.T) {
		ext := c.Extract(ctx, Reference{URL: srv.URL + "/memo.rtf", FileType: "rtf"})
		require.Equal(t, ActionSummarizeText, ext.Action)
		assert.Equal(t, "Board memo\nBudget approved.", ext.Result.Text)
	})
}

func TestCascade_MultimodalWithoutFetch(t *testing.T) {
	t.Parallel()

	srv := newDocServer(t, nil)
	c := newTestCascade()

	tests := []struct {
		fileType string
		kind     generation.DocumentKind
	}{
		{"jpg", generation.KindImage},
		{"PNG", generation.KindImage},
		{"webp", generation.KindImage},
		{"doc", generation.KindWord},
		{"ppt", generation.KindPresentation},
		{"pptx", generation.KindPresentation},
		{"xls", generation.KindSpreadsheet},
	}
	for _, tc := range tests {
		ext := c.Extract(context.Background(), Reference{URL: srv.URL + "/file", FileType: tc.fileType})
		assert.Equal(t, ActionMultimodal, ext.Action, tc.fileType)
		assert.Equal(t, tc.kind, ext.Kind, tc.fileType)
	}

	assert.Zero(t, srv.hits.Load())
}

func TestCascade_SniffsUnknownTypes(t *testing.T) {
	t.Parallel()

	png := append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 32)...)
	srv := newDocServer(t, map[string]document{
		"/upload-1": {body: buildPDF(t, reportContent, true, "")},
		"/upload-2": {body: png},
		"/upload-3": {body: []byte("Plain notes without an extension.")},
	})
	c := newTestCascade()
	ctx := context.Background()

	ext := c.Extract(ctx, Reference{URL: srv.URL + "/upload-1"})
	require.Equal(t, ActionSummarizeText, ext.Action)
	assert.Equal(t, "pdf", ext.Strategy)

	ext = c.Extract(ctx, Reference{URL: srv.URL + "/upload-2", FileType: "bin"})
	assert.Equal(t, ActionMultimodal, ext.Action)
	assert.Equal(t, generation.KindImage, ext.Kind)

	ext = c.Extract(ctx, Reference{URL: srv.URL + "/upload-3"})
	require.Equal(t, ActionSummarizeText, ext.Action)
	assert.Equal(t, "Plain notes without an extension.", ext.Result.Text)
}

func buildZip(t *testing.T, name string, content []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	require.NoError(t, err)
	_, err = w.Write(content)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestCascade_UnsupportedFormats(t *testing.T) {
	t.Parallel()

	exe := append([]byte("MZ"), bytes.Repeat([]byte{0x90, 0x00}, 128)...)
	dwg := append([]byte("AC1015"), make([]byte, 128)...)
	noise := bytes.Repeat([]byte{0x01, 0x02, 0x03, 0x04}, 512)
	srv := newDocServer(t, map[string]document{
		"/setup":      {body: exe},
		"/floor-plan": {body: dwg},
		"/archive":    {body: buildZip(t, "data.bin", noise)},
		"/blob":       {body: noise},
	})
	c := newTestCascade()
	ctx := context.Background()

	tests := []struct {
		name      string
		path      string
		fileType  string
		wantCause Cause
		wantLabel string
	}{
		{"executable without a type", "/setup", "", CauseUnsupported, "exe"},
		{"executable declared", "/setup", "exe", CauseUnsupported, "exe"},
		{"cad drawing", "/floor-plan", "dwg", CauseUnsupported, "dwg"},
		{"zip archive", "/archive", "", CauseUnsupported, "zip"},
		{"unknown bytes declared", "/blob", "dwg", CauseUnsupported, "dwg"},
		{"unknown bytes without a type", "/blob", "", CauseBinary, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext := c.Extract(ctx, Reference{URL: srv.URL + tt.path, FileType: tt.fileType})
			require.Equal(t, ActionExplain, ext.Action)
			assert.Equal(t, tt.wantCause, ext.Cause)
			assert.Equal(t, Apology(tt.wantCause, tt.wantLabel), ext.Explanation)
			if tt.wantCause == CauseUnsupported {
				assert.ErrorIs(t, ext.Reason, ErrUnsupported)
				assert.Equal(t, "sniff", ext.Strategy)
			}
		})
	}
}

func TestNormalizeFileType(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"PDF":             "pdf",
		".Docx":           "docx",
		" txt ":           "txt",
		"markdown":        "md",
		"application/pdf": "pdf",
		"image/jpeg":      "image",
		"":                "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeFileType(in), in)
	}
}

func TestFetcher_TruncatesAtCap(t *testing.T) {
	t.Parallel()

	srv := newDocServer(t, map[string]document{
		"/big.txt": {body: bytes.Repeat([]byte("x"), 2048)},
	})
	f := NewFetcher("test-agent", slog.New(slog.NewTextHandler(io.Discard, nil)))

	res, err := f.Fetch(context.Background(), srv.URL+"/big.txt", 1024, 0)
	require.NoError(t, err)
	assert.Len(t, res.Body, 1024)
	assert.True(t, res.Truncated)

	res, err = f.Fetch(context.Background(), srv.URL+"/big.txt", 4096, 0)
	require.NoError(t, err)
	assert.Len(t, res.Body, 2048)
	assert.False(t, res.Truncated)

	_, err = f.Fetch(context.Background(), srv.URL+"/missing", 1024, 0)
	assert.ErrorIs(t, err, ErrFetchFailed)
}
