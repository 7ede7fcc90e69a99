package chatapi

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/joelklabo/molt/internal/core"
)

type choice struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

// completionResponse is the OpenAI-compatible shape.
type completionResponse struct {
	Choices []choice `json:"choices"`
}

// legacyResponse is the DashScope native shape.
type legacyResponse struct {
	Output *struct {
		Choices []choice `json:"choices"`
		Text    *string  `json:"text"`
	} `json:"output"`
}

// variant decodes one known response shape. ok is false when the body does
// not carry content in that shape.
type variant struct {
	shape  core.Shape
	decode func(body []byte) (text string, ok bool)
}

var variants = []variant{
	{shape: core.ShapeModern, decode: decodeModern},
	{shape: core.ShapeLegacy, decode: decodeLegacy},
}

var errUnknownShape = errors.New("failed to extract content from API response")

// Decode extracts the reply text from a chat-completions body, trying the
// modern shape first and the legacy shape second.
func Decode(body []byte) (string, core.Shape, error) {
	if !json.Valid(body) {
		return "", "", core.Errorf(core.KindParse, "invalid JSON body: %s", excerpt(body))
	}
	for _, v := range variants {
		if text, ok := v.decode(body); ok {
			return text, v.shape, nil
		}
	}
	return "", "", core.Errorf(core.KindParse, "%v: %s", errUnknownShape, excerpt(body))
}

func decodeModern(body []byte) (string, bool) {
	var r completionResponse
	if err := json.Unmarshal(body, &r); err != nil || len(r.Choices) == 0 {
		return "", false
	}
	text := strings.TrimSpace(r.Choices[0].Message.Content)
	return text, text != ""
}

func decodeLegacy(body []byte) (string, bool) {
	var r legacyResponse
	if err := json.Unmarshal(body, &r); err != nil || r.Output == nil {
		return "", false
	}
	if len(r.Output.Choices) > 0 {
		if text := strings.TrimSpace(r.Output.Choices[0].Message.Content); text != "" {
			return text, true
		}
	}
	if r.Output.Text != nil {
		text := strings.TrimSpace(*r.Output.Text)
		return text, text != ""
	}
	return "", false
}
