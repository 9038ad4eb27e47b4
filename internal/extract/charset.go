package extract

import (
	"bytes"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/gogs/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// minCharsetConfidence is the chardet confidence below which a guess is
// ignored.
const minCharsetConfidence = 50

// chardet reports a few charsets under names htmlindex does not know.
var charsetAliases = map[string]string{
	"gb-18030": "gb18030",
}

var (
	bomUTF8    = []byte{0xef, 0xbb, 0xbf}
	bomUTF16LE = []byte{0xff, 0xfe}
	bomUTF16BE = []byte{0xfe, 0xff}
)

// decodeText converts b to UTF-8. The charset comes from a byte order mark,
// the Content-Type header or detection, in that order. Bytes that look like
// binary data are returned unchanged so Probe can classify them.
func decodeText(b []byte, contentType string) string {
	switch {
	case bytes.HasPrefix(b, bomUTF8):
		return string(b[len(bomUTF8):])
	case bytes.HasPrefix(b, bomUTF16LE):
		return decodeWith(unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM), b)
	case bytes.HasPrefix(b, bomUTF16BE):
		return decodeWith(unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM), b)
	}

	trimmed := trimPartialRune(b)
	if utf8.Valid(trimmed) {
		return string(trimmed)
	}
	if bytes.IndexByte(b, 0) >= 0 {
		return string(b)
	}

	if enc := encodingFromContentType(contentType); enc != nil {
		return decodeWith(enc, b)
	}
	if enc := detectEncoding(b); enc != nil {
		return decodeWith(enc, b)
	}
	return string(b)
}

func encodingFromContentType(contentType string) encoding.Encoding {
	if contentType == "" {
		return nil
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil
	}
	return lookupEncoding(params["charset"])
}

func detectEncoding(b []byte) encoding.Encoding {
	sample := b
	if len(sample) > 64<<10 {
		sample = sample[:64<<10]
	}
	result, err := chardet.NewTextDetector().DetectBest(sample)
	if err != nil || result == nil || result.Confidence < minCharsetConfidence {
		return nil
	}
	return lookupEncoding(result.Charset)
}

func lookupEncoding(name string) encoding.Encoding {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil
	}
	if alias, ok := charsetAliases[name]; ok {
		name = alias
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil
	}
	return enc
}

func decodeWith(enc encoding.Encoding, b []byte) string {
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

// trimPartialRune drops an incomplete multi-byte sequence at the end of b,
// which a byte-capped download can leave behind.
func trimPartialRune(b []byte) []byte {
	for i := 1; i <= utf8.UTFMax && i <= len(b); i++ {
		c := b[len(b)-i]
		if c < utf8.RuneSelf {
			return b
		}
		if utf8.RuneStart(c) {
			if !utf8.FullRune(b[len(b)-i:]) {
				return b[:len(b)-i]
			}
			return b
		}
	}
	return b
}
