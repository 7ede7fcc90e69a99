package chatapi

import (
	"strings"
	"testing"

	"github.com/joelklabo/molt/internal/core"
)

func TestDecodeShapesAreEquivalent(t *testing.T) {
	bodies := map[string]core.Shape{
		`{"choices":[{"message":{"content":"same reply"}}]}`:           core.ShapeModern,
		`{"output":{"choices":[{"message":{"content":"same reply"}}]}}`: core.ShapeLegacy,
		`{"output":{"text":"  same reply\n"}}`:                          core.ShapeLegacy,
	}
	for body, shape := range bodies {
		text, got, err := Decode([]byte(body))
		if err != nil {
			t.Fatalf("%s: %v", body, err)
		}
		if text != "same reply" || got != shape {
			t.Fatalf("%s: got %q/%s", body, text, got)
		}
	}
}

func TestDecodeModernEmptyFallsBackToLegacy(t *testing.T) {
	text, shape, err := Decode([]byte(`{"choices":[{"message":{"content":""}}],"output":{"text":"fallback"}}`))
	if err != nil || text != "fallback" || shape != core.ShapeLegacy {
		t.Fatalf("expected legacy fallback, got %q %s %v", text, shape, err)
	}
}

func TestDecodeNeitherShapeIsParseFailure(t *testing.T) {
	for _, body := range []string{
		`{}`,
		`{"choices":[]}`,
		`{"output":{}}`,
		`{"output":{"choices":[{"message":{}}]}}`,
		`{"choices":"nope"}`,
		`[1,2,3]`,
		`not json`,
		``,
	} {
		_, _, err := Decode([]byte(body))
		if core.KindOf(err) != core.KindParse {
			t.Fatalf("%q: expected parse failure, got %v", body, err)
		}
	}
}

func TestDecodeErrorExcerptIsTruncated(t *testing.T) {
	body := `{"junk":"` + strings.Repeat("a", 1000) + `"}`
	_, _, err := Decode([]byte(body))
	if err == nil || len(err.Error()) > 400 {
		t.Fatalf("expected truncated error, got %d chars", len(err.Error()))
	}
}
