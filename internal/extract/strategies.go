package extract

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/phrazzld/scry-summarizer/internal/generation"
)

// minPDFRunes is the shortest decoded PDF text trusted as real content.
const minPDFRunes = 50

// imageStrategy hands images straight to the multimodal summarizer.
type imageStrategy struct{}

func (imageStrategy) Name() string                  { return "image" }
func (imageStrategy) Kind() generation.DocumentKind { return generation.KindImage }

func (s imageStrategy) Extract(context.Context, Reference) (Extraction, error) {
	return multimodalExtraction(s, nil), nil
}

func (s imageStrategy) decode(context.Context, Reference, *FetchResult) (Extraction, error) {
	return multimodalExtraction(s, nil), nil
}

// legacyStrategy covers formats without a parser. It is an explicit
// fallthrough to the multimodal summarizer.
type legacyStrategy struct {
	kind generation.DocumentKind
}

func (legacyStrategy) Name() string                    { return "legacy_office" }
func (s legacyStrategy) Kind() generation.DocumentKind { return s.kind }

func (s legacyStrategy) Extract(context.Context, Reference) (Extraction, error) {
	return Extraction{}, fmt.Errorf("%w: no parser for legacy or presentation formats", ErrUseMultimodal)
}

func (s legacyStrategy) decode(ctx context.Context, ref Reference, _ *FetchResult) (Extraction, error) {
	return s.Extract(ctx, ref)
}

// textStrategy handles plain-text-like formats.
type textStrategy struct {
	fetcher *Fetcher
}

func (*textStrategy) Name() string                  { return "plain_text" }
func (*textStrategy) Kind() generation.DocumentKind { return generation.KindText }

func (s *textStrategy) Extract(ctx context.Context, ref Reference) (Extraction, error) {
	body, err := s.fetcher.Fetch(ctx, ref.URL, TextLimits.FetchBytes, TextLimits.FetchTimeout)
	if err != nil {
		return Extraction{}, err
	}
	return s.decode(ctx, ref, body)
}

func (s *textStrategy) decode(_ context.Context, ref Reference, body *FetchResult) (Extraction, error) {
	raw, truncated := capBody(body, TextLimits.FetchBytes)
	text := decodeText(raw, body.ContentType)
	if ext, ok := probeExtraction(s, []byte(text), ref.FileType); ok {
		return ext, nil
	}
	return textExtraction(s, TextLimits, text, truncated)
}

// htmlStrategy reduces web pages to their visible text.
type htmlStrategy struct {
	fetcher *Fetcher
}

func (*htmlStrategy) Name() string                  { return "html" }
func (*htmlStrategy) Kind() generation.DocumentKind { return generation.KindHTML }

func (s *htmlStrategy) Extract(ctx context.Context, ref Reference) (Extraction, error) {
	body, err := s.fetcher.Fetch(ctx, ref.URL, TextLimits.FetchBytes, TextLimits.FetchTimeout)
	if err != nil {
		return Extraction{}, err
	}
	return s.decode(ctx, ref, body)
}

func (s *htmlStrategy) decode(_ context.Context, ref Reference, body *FetchResult) (Extraction, error) {
	raw, truncated := capBody(body, TextLimits.FetchBytes)
	page := decodeText(raw, body.ContentType)
	if ext, ok := probeExtraction(s, []byte(page), ref.FileType); ok {
		return ext, nil
	}
	text, err := htmlText(page)
	if err != nil {
		return Extraction{}, err
	}
	return textExtraction(s, TextLimits, text, truncated)
}

// pdfStrategy decodes PDF text heuristically and falls back to the
// multimodal summarizer when the result cannot be trusted.
type pdfStrategy struct {
	fetcher *Fetcher
}

func (*pdfStrategy) Name() string                  { return "pdf" }
func (*pdfStrategy) Kind() generation.DocumentKind { return generation.KindPDF }

func (s *pdfStrategy) Extract(ctx context.Context, ref Reference) (Extraction, error) {
	body, err := s.fetcher.Fetch(ctx, ref.URL, PDFLimits.FetchBytes, PDFLimits.FetchTimeout)
	if err != nil {
		return Extraction{}, fmt.Errorf("%w: %w", ErrUseMultimodal, err)
	}
	return s.decode(ctx, ref, body)
}

func (s *pdfStrategy) decode(_ context.Context, ref Reference, body *FetchResult) (Extraction, error) {
	if !bytes.HasPrefix(bytes.TrimLeft(body.Body, " \t\r\n"), pdfHeader) {
		return Extraction{}, fmt.Errorf("%w: missing PDF header", ErrUseMultimodal)
	}
	if pdfIsEncrypted(body.Body) {
		return explanation(s, CauseEncrypted, ref.FileType, nil), nil
	}
	if body.Truncated {
		return Extraction{}, fmt.Errorf("%w: %w", ErrUseMultimodal, ErrTooLarge)
	}

	text := pdfText(body.Body)
	if len([]rune(text)) < minPDFRunes {
		return Extraction{}, fmt.Errorf("%w: decoded %d characters", ErrUseMultimodal, len([]rune(text)))
	}
	if nonTextRatio(firstBytes(text, ProbeWindow)) > BinaryThreshold {
		return Extraction{}, fmt.Errorf("%w: decoded text looks like glyph codes", ErrUseMultimodal)
	}
	return textExtraction(s, PDFLimits, text, false)
}

// docxStrategy extracts paragraphs from Word documents.
type docxStrategy struct {
	fetcher *Fetcher
}

func (*docxStrategy) Name() string                  { return "docx" }
func (*docxStrategy) Kind() generation.DocumentKind { return generation.KindWord }

func (s *docxStrategy) Extract(ctx context.Context, ref Reference) (Extraction, error) {
	body, err := s.fetcher.Fetch(ctx, ref.URL, WordLimits.FetchBytes, WordLimits.FetchTimeout)
	if err != nil {
		return Extraction{}, fmt.Errorf("%w: %w", ErrUseMultimodal, err)
	}
	return s.decode(ctx, ref, body)
}

func (s *docxStrategy) decode(_ context.Context, ref Reference, body *FetchResult) (Extraction, error) {
	if ext, ok, err := notAnArchive(s, WordLimits, ref, body); ok {
		return ext, err
	}

	text, err := docxText(body.Body)
	if err != nil {
		return Extraction{}, fmt.Errorf("%w: %w", ErrUseMultimodal, err)
	}
	if text == "" {
		return Extraction{}, fmt.Errorf("%w: %w", ErrUseMultimodal, ErrNoText)
	}
	return textExtraction(s, WordLimits, text, false)
}

// xlsxStrategy concatenates spreadsheet cells sheet by sheet.
type xlsxStrategy struct {
	fetcher *Fetcher
}

func (*xlsxStrategy) Name() string                  { return "xlsx" }
func (*xlsxStrategy) Kind() generation.DocumentKind { return generation.KindSpreadsheet }

func (s *xlsxStrategy) Extract(ctx context.Context, ref Reference) (Extraction, error) {
	body, err := s.fetcher.Fetch(ctx, ref.URL, SpreadsheetLimits.FetchBytes, SpreadsheetLimits.FetchTimeout)
	if err != nil {
		return Extraction{}, fmt.Errorf("%w: %w", ErrUseMultimodal, err)
	}
	return s.decode(ctx, ref, body)
}

func (s *xlsxStrategy) decode(_ context.Context, ref Reference, body *FetchResult) (Extraction, error) {
	if ext, ok, err := notAnArchive(s, SpreadsheetLimits, ref, body); ok {
		return ext, err
	}

	// twice the full budget so truncation is still detected downstream
	text, cut, err := xlsxText(body.Body, SpreadsheetLimits.FullChars*2)
	if err != nil {
		return Extraction{}, fmt.Errorf("%w: %w", ErrUseMultimodal, err)
	}
	if text == "" {
		return Extraction{}, fmt.Errorf("%w: %w", ErrUseMultimodal, ErrNoText)
	}
	return textExtraction(s, SpreadsheetLimits, text, cut)
}

// notAnArchive handles OOXML bodies that are not zip archives. Protected
// files and other binary content are explained as encrypted; readable text
// saved under the wrong extension is summarized as is. It reports false when
// the body is a zip archive that still needs parsing.
func notAnArchive(s Strategy, limits Limits, ref Reference, body *FetchResult) (Extraction, bool, error) {
	b := body.Body
	if isZip(b) {
		if body.Truncated {
			return Extraction{}, true, fmt.Errorf("%w: %w", ErrUseMultimodal, ErrTooLarge)
		}
		return Extraction{}, false, nil
	}
	if bytes.HasPrefix(b, cfbMagic) || Probe(b) != ClassText {
		return explanation(s, CauseEncrypted, ref.FileType, nil), true, nil
	}
	ext, err := textExtraction(s, limits, decodeText(b, body.ContentType), body.Truncated)
	return ext, true, err
}

// rtfStrategy strips RTF markup.
type rtfStrategy struct {
	fetcher *Fetcher
}

func (*rtfStrategy) Name() string                  { return "rtf" }
func (*rtfStrategy) Kind() generation.DocumentKind { return generation.KindWord }

func (s *rtfStrategy) Extract(ctx context.Context, ref Reference) (Extraction, error) {
	body, err := s.fetcher.Fetch(ctx, ref.URL, WordLimits.FetchBytes, WordLimits.FetchTimeout)
	if err != nil {
		return Extraction{}, fmt.Errorf("%w: %w", ErrUseMultimodal, err)
	}
	return s.decode(ctx, ref, body)
}

func (s *rtfStrategy) decode(_ context.Context, ref Reference, body *FetchResult) (Extraction, error) {
	if !isRTF(body.Body) {
		text := decodeText(body.Body, body.ContentType)
		if ext, ok := probeExtraction(s, []byte(text), ref.FileType); ok {
			return ext, nil
		}
		return textExtraction(s, WordLimits, text, body.Truncated)
	}

	text := rtfText(body.Body)
	if text == "" {
		return Extraction{}, fmt.Errorf("%w: %w", ErrUseMultimodal, ErrNoText)
	}
	return textExtraction(s, WordLimits, text, body.Truncated)
}

// sniffStrategy handles unknown or missing file types by detecting the
// format from the content and re-dispatching to the matching strategy.
type sniffStrategy struct {
	fetcher *Fetcher
	lookup  func(fileType string) (bodyStrategy, bool)
}

func (*sniffStrategy) Name() string                  { return "sniff" }
func (*sniffStrategy) Kind() generation.DocumentKind { return generation.KindText }

func (s *sniffStrategy) Extract(ctx context.Context, ref Reference) (Extraction, error) {
	body, err := s.fetcher.Fetch(ctx, ref.URL, binaryFetchBytes, fetchTimeout)
	if err != nil {
		return Extraction{}, err
	}

	m := mimetype.Detect(body.Body)
	format := sniffFormat(m)
	next, ok := s.lookup(format)
	if !ok {
		switch {
		case isTextual(m):
			next, _ = s.lookup("txt")
		case isOpaque(m) && ref.FileType == "":
			// nothing to go on; the text probe explains binary content
			next, _ = s.lookup("txt")
		case Probe(body.Body) == ClassEncrypted:
			return explanation(s, CauseEncrypted, format, nil), nil
		default:
			label := format
			if isOpaque(m) {
				label = ref.FileType
			}
			if label == "" {
				label = m.String()
			}
			unsupported := fmt.Errorf("%w: %s", ErrUnsupported, m.String())
			return explanation(s, CauseUnsupported, label, unsupported), nil
		}
	}

	ext, err := next.decode(ctx, Reference{URL: ref.URL, FileType: format}, body)
	if err != nil {
		return fallThrough(next, ref, err), nil
	}
	return ext, nil
}

// sniffFormat returns the file type tag of the detected content. Only image
// formats the multimodal model reads are tagged as images.
func sniffFormat(m *mimetype.MIME) string {
	format := NormalizeFileType(m.Extension())
	if strings.HasPrefix(m.String(), "image/") && slices.Contains(ImageFormats, format) {
		return "image"
	}
	return format
}

// isTextual reports whether m is plain text or a text based format.
func isTextual(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// isOpaque reports whether detection found no known format at all.
func isOpaque(m *mimetype.MIME) bool {
	return m.Is("application/octet-stream")
}

// capBody limits a body to maxBytes, reporting whether anything was cut.
func capBody(body *FetchResult, maxBytes int64) ([]byte, bool) {
	if maxBytes > 0 && int64(len(body.Body)) > maxBytes {
		return body.Body[:maxBytes], true
	}
	return body.Body, body.Truncated
}

func firstBytes(s string, n int) []byte {
	if len(s) > n {
		s = s[:n]
	}
	return []byte(s)
}
