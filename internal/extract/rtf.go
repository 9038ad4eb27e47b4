package extract

import (
	"bytes"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

var rtfHeader = []byte(`{\rtf`)

// Destinations whose content is never visible text.
var rtfSkipDestinations = map[string]bool{
	"fonttbl":            true,
	"colortbl":           true,
	"stylesheet":         true,
	"info":               true,
	"pict":               true,
	"object":             true,
	"themedata":          true,
	"colorschememapping": true,
	"datastore":          true,
	"listtable":          true,
	"listoverridetable":  true,
	"rsidtbl":            true,
	"generator":          true,
	"latentstyles":       true,
	"xmlnstbl":           true,
	"header":             true,
	"footer":             true,
}

func isRTF(b []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(b, " \t\r\n"), rtfHeader)
}

// rtfText strips control words and groups from an RTF document. \'hh
// escapes are read as Windows-1252 and \uN escapes as Unicode code points.
func rtfText(b []byte) string {
	type group struct {
		skip   bool
		ucSkip int
	}

	var sb strings.Builder
	stack := []group{{ucSkip: 1}}
	pendingSkip := 0 // fallback characters to drop after \uN

	cur := func() *group { return &stack[len(stack)-1] }

	for i := 0; i < len(b); i++ {
		c := b[i]
		switch c {
		case '{':
			stack = append(stack, *cur())
			pendingSkip = 0
		case '}':
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
			pendingSkip = 0
		case '\\':
			if i+1 >= len(b) {
				break
			}
			next := b[i+1]
			switch {
			case next == '\'' && i+3 < len(b):
				v, err := strconv.ParseUint(string(b[i+2:i+4]), 16, 8)
				i += 3
				if err != nil || cur().skip {
					continue
				}
				if pendingSkip > 0 {
					pendingSkip--
					continue
				}
				sb.WriteRune(charmap.Windows1252.DecodeByte(byte(v)))
			case next == '*':
				cur().skip = true
				i++
			case next == '\\' || next == '{' || next == '}':
				if !cur().skip {
					sb.WriteByte(next)
				}
				i++
			case next == '~':
				if !cur().skip {
					sb.WriteByte(' ')
				}
				i++
			case isASCIILetter(next):
				j := i + 1
				for j < len(b) && isASCIILetter(b[j]) {
					j++
				}
				word := string(b[i+1 : j])
				k := j
				if k < len(b) && (b[k] == '-' || (b[k] >= '0' && b[k] <= '9')) {
					k++
					for k < len(b) && b[k] >= '0' && b[k] <= '9' {
						k++
					}
				}
				param, hasParam := 0, k > j
				if hasParam {
					param, _ = strconv.Atoi(string(b[j:k]))
				}
				if k < len(b) && b[k] == ' ' {
					k++
				}
				i = k - 1

				g := cur()
				switch {
				case rtfSkipDestinations[word]:
					g.skip = true
				case g.skip:
				case word == "par" || word == "line" || word == "sect" || word == "page" || word == "row":
					sb.WriteByte('\n')
				case word == "tab" || word == "cell":
					sb.WriteByte('\t')
				case word == "uc" && hasParam:
					g.ucSkip = param
				case word == "u" && hasParam:
					if param < 0 {
						param += 65536
					}
					sb.WriteRune(rune(param))
					pendingSkip = g.ucSkip
				}
			default:
				// other control symbols carry no text
				i++
			}
		case '\r', '\n':
		default:
			if cur().skip {
				continue
			}
			if pendingSkip > 0 {
				pendingSkip--
				continue
			}
			if c >= 0x80 {
				sb.WriteRune(charmap.Windows1252.DecodeByte(c))
				continue
			}
			sb.WriteByte(c)
		}
	}
	return strings.TrimSpace(sb.String())
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
