package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// PromptBuilder renders the user prompt and reports the length bounds the
// reply is expected to respect.
type PromptBuilder interface {
	Name() string
	Build(text, author string) (string, error)
	Bounds() (min, max int)
}

// Generator drives one reply generation: input checks, prompt, agent calls
// under the retry policy, then the advisory length check.
type Generator struct {
	agent    Agent
	prompts  PromptBuilder
	logger   *slog.Logger
	retrier  Retrier
	observer Observer
	history  HistorySink
	system   string
	now      func() time.Time
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithPolicy overrides the retry policy.
func WithPolicy(p Policy) GeneratorOption {
	return func(g *Generator) { g.retrier.Policy = p }
}

// WithSleeper overrides how the generator waits between attempts.
func WithSleeper(s Sleeper) GeneratorOption {
	return func(g *Generator) { g.retrier.Sleeper = s }
}

// WithObserver wires an event sink (metrics, tests).
func WithObserver(o Observer) GeneratorOption {
	return func(g *Generator) {
		if o != nil {
			g.observer = o
		}
	}
}

// WithHistory records every finished generation.
func WithHistory(h HistorySink) GeneratorOption {
	return func(g *Generator) { g.history = h }
}

// WithSystemPrompt overrides the system instruction sent with each request.
func WithSystemPrompt(s string) GeneratorOption {
	return func(g *Generator) { g.system = s }
}

// DefaultSystemPrompt is sent as the system message.
const DefaultSystemPrompt = "You are a helpful assistant that strictly follows instructions."

// NewGenerator constructs a Generator. If logger is nil, slog.Default is used.
func NewGenerator(agent Agent, prompts PromptBuilder, logger *slog.Logger, opts ...GeneratorOption) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Generator{
		agent:    agent,
		prompts:  prompts,
		logger:   logger.With("component", "generator"),
		retrier:  Retrier{Policy: DefaultPolicy},
		observer: nopObserver{},
		system:   DefaultSystemPrompt,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.retrier.OnBackoff = func(attempt int, wait time.Duration) {
		g.logger.Info("waiting before retry", slog.Int("attempt", attempt), slog.Duration("wait", wait))
		g.observer.Backoff(attempt, wait)
	}
	return g
}

// NormalizeHandle trims whitespace and any leading "@" from a user handle.
func NormalizeHandle(handle string) string {
	return strings.TrimLeft(strings.TrimSpace(handle), "@")
}

// Generate produces a reply for req. It never returns an error: failures are
// reported through the result.
func (g *Generator) Generate(ctx context.Context, req GenerationRequest) GenerationResult {
	text := strings.TrimSpace(req.OriginalText)
	author := NormalizeHandle(req.AuthorHandle)
	switch {
	case text == "":
		return g.finish(req, g.fail(KindEmptyInput, "tweet content cannot be empty", 0))
	case strings.TrimSpace(req.APIKey) == "":
		return g.finish(req, g.fail(KindEmptyInput, "API key cannot be empty", 0))
	case author == "":
		return g.finish(req, g.fail(KindEmptyInput, "author username cannot be empty", 0))
	}

	prompt, err := g.prompts.Build(text, author)
	if err != nil {
		return g.finish(req, g.fail(KindOf(err), err.Error(), 0))
	}

	agentReq := AgentRequest{
		System:  g.system,
		Prompt:  prompt,
		Model:   req.Model,
		APIBase: req.APIBase,
		APIKey:  req.APIKey,
	}

	var resp AgentResponse
	max := g.retrier.Policy.attempts()
	attempts, err := g.retrier.Do(ctx, func(ctx context.Context, attempt int) error {
		g.observer.AttemptStarted(attempt, max)
		g.logger.Info("generating reply", slog.Int("attempt", attempt), slog.Int("max", max), slog.String("model", req.Model))
		r, err := g.agent.Generate(ctx, agentReq)
		if err == nil && strings.TrimSpace(r.Text) == "" {
			err = Classify(KindParse, ErrNoContent)
		}
		if err != nil {
			kind := KindOf(err)
			g.logger.Warn("attempt failed", slog.Int("attempt", attempt), slog.String("kind", string(kind)), slog.String("err", err.Error()))
			g.observer.AttemptFailed(attempt, kind, err)
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		msg := fmt.Sprintf("failed after %d retries. last error: %s", attempts, describe(err))
		return g.finish(req, g.fail(KindExhausted, msg, attempts))
	}

	reply := strings.TrimSpace(resp.Text)
	min, maxLen := g.prompts.Bounds()
	warning := CheckLength(reply, min, maxLen)
	if warning != "" {
		g.logger.Warn(warning)
	}
	n := len([]rune(reply))
	g.logger.Info("reply generated", slog.Int("length", n), slog.String("shape", string(resp.Shape)))
	g.observer.Succeeded(attempts, resp.Shape, n)

	return g.finish(req, GenerationResult{
		Success:       true,
		Text:          reply,
		LengthWarning: warning,
		Attempts:      attempts,
		Shape:         resp.Shape,
	})
}

func (g *Generator) fail(kind Kind, msg string, attempts int) GenerationResult {
	g.observer.Failed(kind)
	return GenerationResult{Success: false, ErrorMessage: msg, Kind: kind, Attempts: attempts}
}

func (g *Generator) finish(req GenerationRequest, res GenerationResult) GenerationResult {
	if g.history == nil {
		return res
	}
	rec := GenerationRecord{
		At:       g.now().UTC(),
		Author:   NormalizeHandle(req.AuthorHandle),
		Model:    req.Model,
		Preset:   g.prompts.Name(),
		Result:   res,
		Original: req.OriginalText,
	}
	if err := g.history.AppendGeneration(rec); err != nil {
		g.logger.Error("history append failed", slog.String("err", err.Error()))
	}
	return res
}

func describe(err error) string {
	switch KindOf(err) {
	case KindParse:
		return "response parsing failed: " + err.Error()
	case KindRequest:
		return "API request failed: " + err.Error()
	default:
		return err.Error()
	}
}

type nopObserver struct{}

func (nopObserver) AttemptStarted(int, int) {}
func (nopObserver) AttemptFailed(int, Kind, error) {}
func (nopObserver) Backoff(int, time.Duration) {}
func (nopObserver) Succeeded(int, Shape, int) {}
func (nopObserver) Failed(Kind) {}
