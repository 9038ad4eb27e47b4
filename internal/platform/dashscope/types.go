package dashscope

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/phrazzld/scry-summarizer/internal/generation"
)

type request struct {
	Model      string     `json:"model"`
	Input      input      `json:"input"`
	Parameters parameters `json:"parameters"`
}

type input struct {
	Messages []message `json:"messages"`
}

// message content is a string for text calls and a []contentItem for
// multimodal calls.
type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentItem struct {
	Text  string `json:"text,omitempty"`
	Image string `json:"image,omitempty"`
}

type parameters struct {
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

type response struct {
	Output    output `json:"output"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type output struct {
	Text    string   `json:"text,omitempty"`
	Choices []choice `json:"choices,omitempty"`
}

type choice struct {
	FinishReason string `json:"finish_reason"`
	Message      struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"message"`
}

// text returns the generated text of the first choice, falling back to the
// legacy output.text field.
func (r response) text() (string, error) {
	if len(r.Output.Choices) > 0 {
		text, err := contentText(r.Output.Choices[0].Message.Content)
		if err != nil {
			return "", err
		}
		if text != "" {
			return text, nil
		}
	}

	if text := strings.TrimSpace(r.Output.Text); text != "" {
		return text, nil
	}
	return "", fmt.Errorf("%w: response has no output text", generation.ErrInvalidResponse)
}

// contentText accepts either a JSON string or a list of content items.
func contentText(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), nil
	}

	var items []contentItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return "", fmt.Errorf("%w: unexpected message content: %v", generation.ErrInvalidResponse, err)
	}
	var sb strings.Builder
	for _, item := range items {
		sb.WriteString(item.Text)
	}
	return strings.TrimSpace(sb.String()), nil
}
