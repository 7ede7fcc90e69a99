// Package openaisdk generates replies through the go-openai client. It only
// understands the OpenAI-compatible response shape.
package openaisdk

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/joelklabo/molt/internal/agent"
	"github.com/joelklabo/molt/internal/core"
)

// Config holds sampling parameters and the transport.
type Config struct {
	Temperature float32
	TopP        float32
	MaxTokens   int
	Timeout     time.Duration
	HTTPClient  *http.Client
}

// Agent builds a go-openai client per request since the key and base URL
// travel with the request.
type Agent struct {
	cfg Config
	log *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Agent {
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.75
	}
	if cfg.TopP == 0 {
		cfg.TopP = 0.85
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{cfg: cfg, log: logger.With("agent", "openaisdk")}
}

func (a *Agent) client(req core.AgentRequest) *openai.Client {
	oc := openai.DefaultConfig(req.APIKey)
	if req.APIBase != "" {
		oc.BaseURL = strings.TrimRight(req.APIBase, "/")
	}
	if a.cfg.HTTPClient != nil {
		oc.HTTPClient = a.cfg.HTTPClient
	}
	return openai.NewClientWithConfig(oc)
}

func (a *Agent) Generate(ctx context.Context, req core.AgentRequest) (core.AgentResponse, error) {
	if strings.TrimSpace(req.APIKey) == "" {
		return core.AgentResponse{}, fmt.Errorf("api key: %w", core.ErrEmptyInput)
	}
	system := req.System
	if system == "" {
		system = core.DefaultSystemPrompt
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	resp, err := a.client(req).CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature: a.cfg.Temperature,
		TopP:        a.cfg.TopP,
		MaxTokens:   a.cfg.MaxTokens,
	})
	if err != nil {
		return core.AgentResponse{}, core.Classify(core.KindRequest, fmt.Errorf("openai completion failed: %w", err))
	}
	if len(resp.Choices) == 0 {
		return core.AgentResponse{}, core.Errorf(core.KindParse, "openai returned no choices")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return core.AgentResponse{}, core.Classify(core.KindParse, core.ErrNoContent)
	}
	a.log.Debug("openai completion",
		"model", req.Model,
		"prompt_length", len(req.Prompt),
		"response_length", len(text),
		"tokens_used", resp.Usage.TotalTokens,
	)
	return core.AgentResponse{Text: text, Shape: core.ShapeModern}, nil
}

func init() {
	agent.MustRegister("openai", func(s agent.Settings) (core.Agent, error) {
		return New(Config{
			Temperature: float32(s.Temperature),
			TopP:        float32(s.TopP),
			MaxTokens:   s.MaxTokens,
			Timeout:     s.Timeout,
			HTTPClient:  s.HTTPClient,
		}, s.Logger), nil
	})
}
