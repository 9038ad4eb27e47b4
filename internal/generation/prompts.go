package generation

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// promptData represents the data passed to the user prompt template
type promptData struct {
	Instruction     string
	LanguageHint    string
	ExistingSummary string
	Document        string
	Truncated       bool
	Marker          string
}

var userPromptTemplate = template.Must(template.New("summary").Parse(
	`{{.Instruction}}{{if .LanguageHint}}
{{.LanguageHint}}{{end}}{{if .ExistingSummary}}

A brief summary of this document already exists. Extend it with details it does not cover instead of repeating it:
{{.ExistingSummary}}{{end}}{{if .Document}}

Document content:
{{.Document}}{{if .Truncated}}
{{.Marker}}{{end}}{{end}}`))

// personas maps a document kind to the system prompt persona for quick and
// full analysis.
var personas = map[DocumentKind][2]string{
	KindPDF: {
		"You are a PDF analysis expert who writes short, accurate summaries.",
		"You are a PDF analysis expert. You read reports, papers and manuals and explain their structure, arguments and conclusions.",
	},
	KindWord: {
		"You are a document summary assistant for word-processor files.",
		"You are a document analysis expert for word-processor files. You identify the purpose, structure and key decisions of a document.",
	},
	KindSpreadsheet: {
		"You are a data assistant who summarizes spreadsheets.",
		"You are a data analysis expert. You describe what each sheet contains, notable values, totals and trends.",
	},
	KindPresentation: {
		"You are a document summary assistant for slide decks.",
		"You are a presentation analysis expert. You reconstruct the storyline of a slide deck and its key messages.",
	},
	KindImage: {
		"You are a visual content assistant who describes images and scanned pages.",
		"You are a visual content analysis expert. You read any text in the image and explain what the image shows and means.",
	},
	KindHTML: {
		"You are a web page summary assistant.",
		"You are a web content analysis expert. You explain the main subject of a page and its key information.",
	},
	KindText: {
		"You are a document summary assistant.",
		"You are a document analysis expert.",
	},
}

const conciseRule = "Always be concise: no preamble, no repetition, no speculation beyond the content provided."

// systemPrompt returns the persona for kind at the requested depth.
func systemPrompt(kind DocumentKind, full bool) string {
	p, ok := personas[kind]
	if !ok {
		p = personas[KindText]
	}
	persona := p[0]
	if full {
		persona = p[1]
	}
	return persona + " " + conciseRule
}

// instruction returns the task statement at the top of the user prompt.
func instruction(kind DocumentKind, full bool, multimodal bool) string {
	subject := "the following document"
	if multimodal {
		subject = "the attached file"
		if kind == KindImage {
			subject = "the attached image"
		}
	}

	if full {
		return fmt.Sprintf("Analyze %s in depth. Cover the main topic, the key points, important details "+
			"and any conclusions or action items, using short headed sections.", subject)
	}
	return fmt.Sprintf("Summarize %s in 3 to 5 sentences, focusing on its main topic and key points.", subject)
}

// buildUserPrompt renders the user message.
func buildUserPrompt(data promptData) (string, error) {
	var buf bytes.Buffer
	if err := userPromptTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}
