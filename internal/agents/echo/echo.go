package echo

import (
	"context"

	"github.com/joelklabo/molt/internal/agent"
	"github.com/joelklabo/molt/internal/core"
)

// Agent echoes the rendered prompt; used for dry runs and tests.
type Agent struct{}

func New() *Agent { return &Agent{} }

func (a *Agent) Generate(ctx context.Context, req core.AgentRequest) (core.AgentResponse, error) {
	return core.AgentResponse{Text: req.Prompt}, nil
}

func init() {
	agent.MustRegister("echo", func(agent.Settings) (core.Agent, error) { return New(), nil })
}
