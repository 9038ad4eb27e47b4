package extract

import (
	"bytes"
	"compress/zlib"
	"io"
	"strconv"
	"strings"
	"unicode/utf16"
)

const (
	// maxInflatedStream caps the decompressed size of a single PDF stream.
	maxInflatedStream = 8 << 20

	// maxPDFText stops stream scanning once this many bytes of text exist.
	maxPDFText = 1 << 20

	// tjSpaceThreshold is the TJ kerning adjustment, in thousandths of an em,
	// treated as a word gap.
	tjSpaceThreshold = -200
)

var (
	pdfHeader     = []byte("%PDF-")
	pdfEncryptKey = []byte("/Encrypt")
	kwStream      = []byte("stream")
	kwEndstream   = []byte("endstream")
	kwObj         = []byte("obj")
)

// pdfIsEncrypted reports whether the trailer references an encryption
// dictionary.
func pdfIsEncrypted(b []byte) bool {
	return bytes.Contains(b, pdfEncryptKey)
}

// pdfText pulls the text shown by BT/ET blocks out of every uncompressed or
// Flate-compressed content stream. It does not resolve fonts, so documents
// with custom encodings decode to noise that the caller must detect.
func pdfText(b []byte) string {
	var w textWriter
	for off := 0; off < len(b) && w.sb.Len() < maxPDFText; {
		i := bytes.Index(b[off:], kwStream)
		if i < 0 {
			break
		}
		start := off + i
		if start >= 3 && bytes.Equal(b[start-3:start], []byte("end")) {
			off = start + len(kwStream)
			continue
		}

		p := start + len(kwStream)
		if p < len(b) && b[p] == '\r' {
			p++
		}
		if p < len(b) && b[p] == '\n' {
			p++
		}
		end := bytes.Index(b[p:], kwEndstream)
		if end < 0 {
			break
		}

		dict := streamDict(b, start)
		if content, ok := decodeStream(dict, b[p:p+end]); ok {
			pdfContentText(content, &w)
		}
		off = p + end + len(kwEndstream)
	}
	return strings.TrimSpace(w.sb.String())
}

// streamDict returns the bytes between the enclosing "obj" keyword and the
// stream keyword at start.
func streamDict(b []byte, start int) []byte {
	from := start - 2048
	if from < 0 {
		from = 0
	}
	window := b[from:start]
	if i := bytes.LastIndex(window, kwObj); i >= 0 {
		window = window[i:]
	}
	return window
}

func decodeStream(dict, raw []byte) ([]byte, bool) {
	for _, skip := range [][]byte{[]byte("/Image"), []byte("/Length1"), []byte("/Length2"), []byte("/Length3"), []byte("/XRef")} {
		if bytes.Contains(dict, skip) {
			return nil, false
		}
	}

	if !bytes.Contains(dict, []byte("/Filter")) {
		return raw, true
	}
	if !bytes.Contains(dict, []byte("/FlateDecode")) {
		return nil, false
	}
	for _, other := range []string{"/DCTDecode", "/JPXDecode", "/CCITTFaxDecode", "/JBIG2Decode", "/ASCII85Decode", "/LZWDecode", "/RunLengthDecode"} {
		if bytes.Contains(dict, []byte(other)) {
			return nil, false
		}
	}

	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, false
	}
	defer func() { _ = zr.Close() }()

	// a damaged stream can still yield text before the error
	out, _ := io.ReadAll(io.LimitReader(zr, maxInflatedStream))
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

// textWriter joins text runs, emitting at most one pending separator
// between them. A line break wins over a space.
type textWriter struct {
	sb      strings.Builder
	pending byte
}

func (w *textWriter) text(s string) {
	if s == "" {
		return
	}
	if w.pending != 0 && w.sb.Len() > 0 {
		w.sb.WriteByte(w.pending)
	}
	w.pending = 0
	w.sb.WriteString(s)
}

func (w *textWriter) sep(c byte) {
	if c == '\n' || w.pending == 0 {
		w.pending = c
	}
}

// pdfContentText interprets the text operators of one content stream.
func pdfContentText(content []byte, w *textWriter) {
	inText := false
	inArray := false

	for i := 0; i < len(content); i++ {
		c := content[i]
		switch {
		case c == '(':
			s, n := readPDFLiteral(content[i:])
			if inText {
				w.text(s)
			}
			i += n - 1
		case c == '<' && i+1 < len(content) && content[i+1] == '<':
			i++
		case c == '<' && inText:
			// hex strings are glyph ids without a font map
			if j := bytes.IndexByte(content[i:], '>'); j >= 0 {
				i += j
			}
		case c == '[':
			inArray = true
		case c == ']':
			inArray = false
		case c == '%':
			for i < len(content) && content[i] != '\n' && content[i] != '\r' {
				i++
			}
		case c == '-' || c == '.' || (c >= '0' && c <= '9'):
			j := i + 1
			for j < len(content) && (content[j] == '.' || (content[j] >= '0' && content[j] <= '9')) {
				j++
			}
			if inText && inArray {
				if v, err := strconv.ParseFloat(string(content[i:j]), 64); err == nil && v <= tjSpaceThreshold {
					w.sep(' ')
				}
			}
			i = j - 1
		case isOperatorByte(c):
			j := i + 1
			for j < len(content) && isOperatorByte(content[j]) {
				j++
			}
			switch string(content[i:j]) {
			case "BT":
				inText = true
			case "ET":
				inText = false
				w.sep('\n')
			case "T*", "'", "\"":
				if inText {
					w.sep('\n')
				}
			case "Td", "TD", "Tm":
				if inText {
					w.sep(' ')
				}
			case "Tj", "TJ":
				if inText {
					w.sep(' ')
				}
			}
			i = j - 1
		}
	}
}

func isOperatorByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '*' || c == '\'' || c == '"'
}

// readPDFLiteral decodes the literal string starting at b[0] == '('. It
// returns the decoded text and the number of bytes consumed.
func readPDFLiteral(b []byte) (string, int) {
	var raw []byte
	depth := 0
	i := 0
	for ; i < len(b); i++ {
		c := b[i]
		switch c {
		case '\\':
			if i+1 >= len(b) {
				break
			}
			i++
			switch e := b[i]; e {
			case 'n':
				raw = append(raw, '\n')
			case 'r':
				raw = append(raw, '\r')
			case 't':
				raw = append(raw, '\t')
			case 'b', 'f':
			case '\r', '\n':
				// line continuation
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for k := 0; k < 2 && i+1 < len(b) && b[i+1] >= '0' && b[i+1] <= '7'; k++ {
						i++
						v = v*8 + int(b[i]-'0')
					}
					raw = append(raw, byte(v))
				} else {
					raw = append(raw, e)
				}
			}
		case '(':
			if depth > 0 {
				raw = append(raw, c)
			}
			depth++
		case ')':
			depth--
			if depth == 0 {
				return pdfString(raw), i + 1
			}
			raw = append(raw, c)
		default:
			raw = append(raw, c)
		}
	}
	return pdfString(raw), i
}

// pdfString converts a decoded literal to UTF-8. Strings with a UTF-16BE byte
// order mark are decoded as such; everything else is read as Latin-1.
func pdfString(raw []byte) string {
	if len(raw) >= 2 && raw[0] == 0xfe && raw[1] == 0xff {
		u := make([]uint16, 0, (len(raw)-2)/2)
		for i := 2; i+1 < len(raw); i += 2 {
			u = append(u, uint16(raw[i])<<8|uint16(raw[i+1]))
		}
		return string(utf16.Decode(u))
	}
	runes := make([]rune, 0, len(raw))
	for _, c := range raw {
		if c < 0x20 && c != '\t' && c != '\n' && c != '\r' {
			continue
		}
		runes = append(runes, rune(c))
	}
	return string(runes)
}
