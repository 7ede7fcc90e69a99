// Package chatapi calls an OpenAI-compatible chat-completions endpoint over
// plain HTTP and understands the DashScope legacy response shape as well.
package chatapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/joelklabo/molt/internal/agent"
	"github.com/joelklabo/molt/internal/core"
)

const (
	DefaultAPIBase = "https://dashscope.aliyuncs.com/compatible-mode/v1"
	DefaultModel   = "qwen-max"

	completionsPath = "/chat/completions"
	excerptRunes    = 300
)

// Config describes a chat-completions endpoint and sampling parameters.
type Config struct {
	APIBase     string
	Model       string
	Temperature float64
	TopP        float64
	MaxTokens   int
	Timeout     time.Duration
	HTTPClient  *http.Client
}

// Agent issues one POST per Generate call.
type Agent struct {
	cfg Config
	log *slog.Logger
}

// New applies defaults to cfg. If logger is nil, slog.Default is used.
func New(cfg Config, logger *slog.Logger) *Agent {
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultAPIBase
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
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
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{cfg: cfg, log: logger.With("agent", "chatapi")}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	TopP        float64   `json:"top_p"`
	MaxTokens   int       `json:"max_tokens"`
}

// Generate posts the prompt and extracts the reply text. Transport failures
// and non-2xx statuses are request failures; a body with no usable content is
// a parse failure.
func (a *Agent) Generate(ctx context.Context, req core.AgentRequest) (core.AgentResponse, error) {
	if strings.TrimSpace(req.APIKey) == "" {
		return core.AgentResponse{}, fmt.Errorf("api key: %w", core.ErrEmptyInput)
	}
	base := req.APIBase
	if base == "" {
		base = a.cfg.APIBase
	}
	model := req.Model
	if model == "" {
		model = a.cfg.Model
	}
	system := req.System
	if system == "" {
		system = core.DefaultSystemPrompt
	}

	payload, err := json.Marshal(completionRequest{
		Model: model,
		Messages: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: req.Prompt},
		},
		Temperature: a.cfg.Temperature,
		TopP:        a.cfg.TopP,
		MaxTokens:   a.cfg.MaxTokens,
	})
	if err != nil {
		return core.AgentResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	url := strings.TrimRight(base, "/") + completionsPath
	hReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return core.AgentResponse{}, core.Classify(core.KindRequest, fmt.Errorf("build request: %w", err))
	}
	hReq.Header.Set("Authorization", "Bearer "+req.APIKey)
	hReq.Header.Set("Content-Type", "application/json")

	a.log.Debug("POST", slog.String("url", url), slog.String("model", model))
	resp, err := a.cfg.HTTPClient.Do(hReq)
	if err != nil {
		return core.AgentResponse{}, core.Classify(core.KindRequest, fmt.Errorf("http request failed: %w", err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return core.AgentResponse{}, core.Classify(core.KindRequest, fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return core.AgentResponse{}, core.Errorf(core.KindRequest, "status %d: %s", resp.StatusCode, excerpt(body))
	}

	text, shape, err := Decode(body)
	if err != nil {
		return core.AgentResponse{}, err
	}
	return core.AgentResponse{Text: text, Shape: shape}, nil
}

func excerpt(b []byte) string {
	r := []rune(strings.TrimSpace(string(b)))
	if len(r) > excerptRunes {
		return string(r[:excerptRunes])
	}
	return string(r)
}

func init() {
	agent.MustRegister("chatapi", func(s agent.Settings) (core.Agent, error) {
		return New(Config{
			Temperature: s.Temperature,
			TopP:        s.TopP,
			MaxTokens:   s.MaxTokens,
			Timeout:     s.Timeout,
			HTTPClient:  s.HTTPClient,
		}, s.Logger), nil
	})
}
