package extract

import (
	"bytes"
	"unicode/utf8"
)

// Classification is the verdict of Probe on a byte window.
type Classification int

// Probe outcomes.
const (
	ClassText Classification = iota
	ClassBinary
	ClassEncrypted
)

func (c Classification) String() string {
	switch c {
	case ClassText:
		return "text"
	case ClassBinary:
		return "binary"
	case ClassEncrypted:
		return "encrypted"
	default:
		return "unknown"
	}
}

const (
	// ProbeWindow is the number of leading bytes Probe inspects.
	ProbeWindow = 1024

	// BinaryThreshold is the share of non-text characters above which a
	// window is classified as binary.
	BinaryThreshold = 0.30
)

var encryptionMarkers = [][]byte{
	[]byte("encrypted"),
	[]byte("password"),
	[]byte("protected"),
}

// Probe classifies the first ProbeWindow bytes of b. Encryption markers win
// over the binary ratio; an empty window is text.
func Probe(b []byte) Classification {
	window := b
	if len(window) > ProbeWindow {
		window = window[:ProbeWindow]
	}
	if len(window) == 0 {
		return ClassText
	}

	lower := bytes.ToLower(window)
	for _, m := range encryptionMarkers {
		if bytes.Contains(lower, m) {
			return ClassEncrypted
		}
	}

	if nonTextRatio(window) > BinaryThreshold {
		return ClassBinary
	}
	return ClassText
}

// nonTextRatio returns the share of characters in b that are neither
// printable ASCII nor a common CJK or Latin letter. Invalid UTF-8 counts one
// non-text unit per byte. A multi-byte rune cut off at the end of the window
// is ignored.
func nonTextRatio(b []byte) float64 {
	var total, bad int
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size <= 1 {
			if !utf8.FullRune(b) {
				break
			}
			bad++
			total++
			b = b[1:]
			continue
		}
		if !isTextRune(r) {
			bad++
		}
		total++
		b = b[size:]
	}
	if total == 0 {
		return 0
	}
	return float64(bad) / float64(total)
}

func isTextRune(r rune) bool {
	switch {
	case r == '\t' || r == '\n' || r == '\r':
		return true
	case r >= 0x20 && r < 0x7f:
		return true
	case r >= 0xa0 && r <= 0x024f: // Latin-1 supplement and extended Latin
		return true
	case r >= 0x2000 && r <= 0x206f: // general punctuation
		return true
	case r >= 0x3000 && r <= 0x30ff: // CJK punctuation, hiragana, katakana
		return true
	case r >= 0x3400 && r <= 0x4dbf: // CJK extension A
		return true
	case r >= 0x4e00 && r <= 0x9fff: // CJK unified ideographs
		return true
	case r >= 0xac00 && r <= 0xd7af: // hangul syllables
		return true
	case r >= 0xff00 && r <= 0xffef: // fullwidth forms
		return true
	case r == 0xfeff:
		return true
	}
	return false
}
