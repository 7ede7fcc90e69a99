package core

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

type fakePrompts struct {
	min, max int
	lastText string
	lastAuth string
}

func (f *fakePrompts) Name() string { return "fake" }

func (f *fakePrompts) Build(text, author string) (string, error) {
	f.lastText, f.lastAuth = text, author
	return "reply to @" + author + ": " + text, nil
}

func (f *fakePrompts) Bounds() (int, int) { return f.min, f.max }

type scriptedAgent struct {
	calls   int
	results []AgentResponse
	errs    []error
}

func (s *scriptedAgent) Generate(ctx context.Context, req AgentRequest) (AgentResponse, error) {
	i := s.calls
	s.calls++
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	if err != nil {
		return AgentResponse{}, err
	}
	if i < len(s.results) {
		return s.results[i], nil
	}
	return AgentResponse{}, nil
}

type countingObserver struct {
	started, failed, backoffs, succeeded int
	finalKind                            Kind
}

func (c *countingObserver) AttemptStarted(int, int) { c.started++ }
func (c *countingObserver) AttemptFailed(int, Kind, error) { c.failed++ }
func (c *countingObserver) Backoff(int, time.Duration) { c.backoffs++ }
func (c *countingObserver) Succeeded(int, Shape, int) { c.succeeded++ }
func (c *countingObserver) Failed(k Kind) { c.finalKind = k }

type memHistory struct{ recs []GenerationRecord }

func (m *memHistory) AppendGeneration(rec GenerationRecord) error {
	m.recs = append(m.recs, rec)
	return nil
}

func newTestGenerator(agent Agent, prompts PromptBuilder, opts ...GeneratorOption) (*Generator, *recordingSleeper) {
	s := &recordingSleeper{}
	opts = append([]GeneratorOption{WithSleeper(s)}, opts...)
	return NewGenerator(agent, prompts, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), opts...), s
}

func validRequest() GenerationRequest {
	return GenerationRequest{
		OriginalText: "AI is going to replace a lot of jobs",
		AuthorHandle: "@cz_binance",
		Model:        "qwen-max",
		APIKey:       "sk-test",
	}
}

func TestGenerateNormalizesAuthor(t *testing.T) {
	p := &fakePrompts{min: 1, max: 500}
	ag := &scriptedAgent{results: []AgentResponse{{Text: "  hello there  ", Shape: ShapeModern}}}
	g, _ := newTestGenerator(ag, p)

	res := g.Generate(context.Background(), validRequest())
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if p.lastAuth != "cz_binance" {
		t.Fatalf("expected normalized author, got %q", p.lastAuth)
	}
	if res.Text != "hello there" {
		t.Fatalf("expected trimmed text, got %q", res.Text)
	}
}

func TestGenerateEmptyInputsShortCircuit(t *testing.T) {
	cases := map[string]func(*GenerationRequest){
		"text":   func(r *GenerationRequest) { r.OriginalText = "   " },
		"author": func(r *GenerationRequest) { r.AuthorHandle = "@" },
		"key":    func(r *GenerationRequest) { r.APIKey = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			ag := &scriptedAgent{}
			h := &memHistory{}
			g, _ := newTestGenerator(ag, &fakePrompts{}, WithHistory(h))
			req := validRequest()
			mutate(&req)
			res := g.Generate(context.Background(), req)
			if res.Success || res.Kind != KindEmptyInput {
				t.Fatalf("expected EMPTY_INPUT failure, got %+v", res)
			}
			if ag.calls != 0 {
				t.Fatalf("agent must not be called, got %d calls", ag.calls)
			}
			if res.ErrorMessage == "" {
				t.Fatalf("expected error message")
			}
		})
	}
}

func TestGenerateRetriesThenExhausts(t *testing.T) {
	reqErr := Classify(KindRequest, errors.New("connection refused"))
	ag := &scriptedAgent{errs: []error{reqErr, reqErr, reqErr}}
	obs := &countingObserver{}
	g, s := newTestGenerator(ag, &fakePrompts{}, WithPolicy(Policy{MaxAttempts: 3, Base: 2}), WithObserver(obs))

	res := g.Generate(context.Background(), validRequest())
	if res.Success || res.Kind != KindExhausted {
		t.Fatalf("expected RETRY_EXHAUSTED, got %+v", res)
	}
	if ag.calls != 3 {
		t.Fatalf("expected 3 calls, got %d", ag.calls)
	}
	if len(s.waits) != 2 || s.waits[0] != 2*time.Second || s.waits[1] != 4*time.Second {
		t.Fatalf("unexpected waits %v", s.waits)
	}
	if !strings.Contains(res.ErrorMessage, "connection refused") || !strings.Contains(res.ErrorMessage, "API request failed") {
		t.Fatalf("error message should carry last error: %s", res.ErrorMessage)
	}
	if obs.started != 3 || obs.failed != 3 || obs.backoffs != 2 || obs.finalKind != KindExhausted {
		t.Fatalf("observer counts wrong: %+v", obs)
	}
}

func TestGenerateEmptyContentIsParseFailure(t *testing.T) {
	ag := &scriptedAgent{results: []AgentResponse{{Text: "  "}, {Text: "ok now", Shape: ShapeLegacy}}}
	g, s := newTestGenerator(ag, &fakePrompts{})

	res := g.Generate(context.Background(), validRequest())
	if !res.Success || res.Attempts != 2 {
		t.Fatalf("expected success on 2nd attempt, got %+v", res)
	}
	if res.Shape != ShapeLegacy {
		t.Fatalf("expected legacy shape, got %s", res.Shape)
	}
	if len(s.waits) != 1 {
		t.Fatalf("expected one wait, got %v", s.waits)
	}
}

func TestGenerateLengthWarningStaysSuccessful(t *testing.T) {
	ag := &scriptedAgent{results: []AgentResponse{{Text: "short"}, {Text: strings.Repeat("x", 300)}}}
	g, _ := newTestGenerator(ag, &fakePrompts{min: 80, max: 200})

	short := g.Generate(context.Background(), validRequest())
	if !short.Success || !strings.Contains(short.LengthWarning, "below") {
		t.Fatalf("expected success with short warning, got %+v", short)
	}
	long := g.Generate(context.Background(), validRequest())
	if !long.Success || !strings.Contains(long.LengthWarning, "exceeds") {
		t.Fatalf("expected success with long warning, got %+v", long)
	}
}

func TestGenerateRecordsHistory(t *testing.T) {
	h := &memHistory{}
	ag := &scriptedAgent{results: []AgentResponse{{Text: "fine reply"}}}
	g, _ := newTestGenerator(ag, &fakePrompts{}, WithHistory(h))
	g.Generate(context.Background(), validRequest())
	if len(h.recs) != 1 {
		t.Fatalf("expected one record, got %d", len(h.recs))
	}
	if h.recs[0].Author != "cz_binance" || h.recs[0].Preset != "fake" || !h.recs[0].Result.Success {
		t.Fatalf("unexpected record %+v", h.recs[0])
	}
}

func TestCheckLengthCountsRunes(t *testing.T) {
	if w := CheckLength("莲花莲花", 4, 4); w != "" {
		t.Fatalf("expected no warning, got %q", w)
	}
	if w := CheckLength("ab", 3, 10); w == "" {
		t.Fatalf("expected warning")
	}
}
