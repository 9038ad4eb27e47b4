package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	htmlInvisible = "script, style, noscript, template, svg, iframe, canvas, head"
	htmlBlocks    = "p, div, br, li, tr, h1, h2, h3, h4, h5, h6, section, article, header, footer, pre, blockquote, table"
)

// htmlText reduces an HTML page to its visible text, one block per line,
// prefixed by the page title.
func htmlText(page string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find(htmlInvisible).Remove()
	doc.Find(htmlBlocks).Each(func(_ int, s *goquery.Selection) {
		s.AfterHtml("\n")
	})

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	text := collapseLines(root.Text())

	if title != "" && !strings.HasPrefix(text, title) {
		text = title + "\n\n" + text
	}
	return strings.TrimSpace(text), nil
}

// collapseLines squeezes runs of whitespace inside each line and drops
// blank lines.
func collapseLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
