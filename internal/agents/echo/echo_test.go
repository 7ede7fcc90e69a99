package echo

import (
	"context"
	"testing"

	"github.com/joelklabo/molt/internal/agent"
	"github.com/joelklabo/molt/internal/core"
)

func TestEchoGenerate(t *testing.T) {
	ag := New()
	out, err := ag.Generate(context.Background(), core.AgentRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out.Text != "hi" {
		t.Fatalf("unexpected reply %s", out.Text)
	}
}

func TestEchoRegistered(t *testing.T) {
	if _, err := agent.Build("echo", agent.Settings{}); err != nil {
		t.Fatalf("echo should self-register: %v", err)
	}
}
