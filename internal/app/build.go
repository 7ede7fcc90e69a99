// Package app wires config into a ready generator and poster.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/joelklabo/molt/internal/agent"
	_ "github.com/joelklabo/molt/internal/agents/chatapi"
	_ "github.com/joelklabo/molt/internal/agents/echo"
	_ "github.com/joelklabo/molt/internal/agents/openaisdk"
	"github.com/joelklabo/molt/internal/config"
	"github.com/joelklabo/molt/internal/core"
	"github.com/joelklabo/molt/internal/metrics"
	"github.com/joelklabo/molt/internal/presets"
	"github.com/joelklabo/molt/internal/prompt"
	"github.com/joelklabo/molt/internal/store"
	transport "github.com/joelklabo/molt/internal/transports"
	_ "github.com/joelklabo/molt/internal/transports/mock"
	_ "github.com/joelklabo/molt/internal/transports/nostr"
	_ "github.com/joelklabo/molt/internal/transports/x"
)

// Overrides are per-invocation settings that win over the config file.
type Overrides struct {
	Preset     string
	Platform   string
	Model      string
	HTTPClient *http.Client
	Sleeper    core.Sleeper
	// Lookup replaces the config's secret sources when set.
	Lookup func(string) string
}

// App holds everything one invocation needs.
type App struct {
	Config    *config.Config
	Preset    presets.Preset
	Generator *core.Generator
	Store     *store.Store
	Metrics   *metrics.Recorder
	Lookup    func(string) string

	platform string
	model    string
	client   *http.Client
	logger   *slog.Logger
	poster   core.Poster
}

// Build constructs the agent, prompt, history, and metrics from cfg.
func Build(cfg *config.Config, logger *slog.Logger, ov Overrides) (*App, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	if logger == nil {
		logger = slog.Default()
	}

	presetName := firstNonEmpty(ov.Preset, cfg.Reply.Preset, presets.Default)
	preset, err := presets.Load(presetName)
	if err != nil {
		return nil, err
	}
	builder, err := prompt.New(preset)
	if err != nil {
		return nil, err
	}

	ag, err := agent.Build(cfg.Agent.Type, agent.Settings{
		HTTPClient:  ov.HTTPClient,
		Timeout:     cfg.RequestTimeout(),
		Temperature: cfg.Agent.Temperature,
		TopP:        cfg.Agent.TopP,
		MaxTokens:   cfg.Agent.MaxTokens,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:   cfg,
		Preset:   preset,
		Metrics:  metrics.New(),
		platform: strings.ToLower(firstNonEmpty(ov.Platform, cfg.Posting.Platform)),
		model:    firstNonEmpty(ov.Model, cfg.Agent.Model),
		client:   ov.HTTPClient,
		logger:   logger,
	}
	a.Lookup = ov.Lookup
	if a.Lookup == nil {
		a.Lookup = config.Lookup(cfg.Sources()...)
	}

	if cfg.Storage.Path != "" {
		st, err := store.New(cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		a.Store = st
	}

	opts := []core.GeneratorOption{
		core.WithPolicy(core.Policy{MaxAttempts: cfg.Agent.MaxRetries, Base: cfg.Agent.BackoffBase}),
		core.WithObserver(a.Metrics),
	}
	if s := builder.System(); s != "" {
		opts = append(opts, core.WithSystemPrompt(s))
	}
	if ov.Sleeper != nil {
		opts = append(opts, core.WithSleeper(ov.Sleeper))
	}
	if a.Store != nil {
		opts = append(opts, core.WithHistory(a.Store))
	}
	a.Generator = core.NewGenerator(ag, builder, logger, opts...)
	return a, nil
}

// Request assembles a generation request with the resolved key and model.
func (a *App) Request(text, author string) core.GenerationRequest {
	return core.GenerationRequest{
		OriginalText: text,
		AuthorHandle: author,
		Model:        a.model,
		APIBase:      a.Config.Agent.APIBase,
		APIKey:       a.Lookup(config.APIKeyName),
	}
}

// Platform returns the posting platform in effect.
func (a *App) Platform() string { return a.platform }

// Poster builds the configured poster on first use.
func (a *App) Poster() (core.Poster, error) {
	if a.poster != nil {
		return a.poster, nil
	}
	p, err := transport.Build(a.platform, transport.Settings{
		Lookup:     a.Lookup,
		Relays:     a.Config.Posting.Relays,
		APIBase:    a.Config.Posting.XAPIBase,
		HTTPClient: a.client,
		Logger:     a.logger,
	})
	if err != nil {
		return nil, err
	}
	a.poster = p
	return p, nil
}

// PostSink fans publish records out to history and metrics.
func (a *App) PostSink() core.PostSink {
	sinks := multiSink{a.Metrics}
	if a.Store != nil {
		sinks = append(sinks, a.Store)
	}
	return sinks
}

// Close flushes metrics and releases the history database.
func (a *App) Close() error {
	var errs []error
	if a.Metrics != nil {
		if err := a.Metrics.WriteTextfile(a.Config.Metrics.Textfile); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}

type multiSink []core.PostSink

func (m multiSink) AppendPost(rec core.PostingRecord) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.AppendPost(rec))
	}
	return errors.Join(errs...)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
