package transport

import (
	"context"
	"testing"

	"github.com/joelklabo/molt/internal/core"
)

type fakePoster struct{ id string }

func (f *fakePoster) ID() string { return f.id }
func (f *fakePoster) Post(ctx context.Context, req core.PostRequest) (core.PostReceipt, error) {
	return core.PostReceipt{ID: "1"}, nil
}

func resetRegistry(t *testing.T) {
	t.Cleanup(func() {
		registryMu.Lock()
		registry = make(map[string]Constructor)
		registryMu.Unlock()
	})
}

func TestRegistryRegistersAndBuilds(t *testing.T) {
	resetRegistry(t)

	var gotLookup func(string) string
	err := Register("fake", func(s Settings) (core.Poster, error) {
		gotLookup = s.Lookup
		return &fakePoster{id: "x"}, nil
	})
	if err != nil {
		t.Fatalf("register err: %v", err)
	}
	p, err := Build("fake", Settings{})
	if err != nil {
		t.Fatalf("build err: %v", err)
	}
	if p.ID() != "x" {
		t.Fatalf("unexpected id %s", p.ID())
	}
	if gotLookup == nil || gotLookup("ANY") != "" {
		t.Fatalf("nil lookup should be replaced with an empty getter")
	}
	if kinds := RegisteredTypes(); len(kinds) != 1 || kinds[0] != "fake" {
		t.Fatalf("registered types mismatch %v", kinds)
	}
}

func TestRegistryDuplicate(t *testing.T) {
	resetRegistry(t)
	_ = Register("dup", func(Settings) (core.Poster, error) { return &fakePoster{id: "a"}, nil })
	if err := Register("dup", nil); err == nil {
		t.Fatalf("expected duplicate error")
	}
}

func TestMustRegisterPanics(t *testing.T) {
	resetRegistry(t)
	MustRegister("z", func(Settings) (core.Poster, error) { return &fakePoster{id: "z"}, nil })
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic on duplicate")
		}
	}()
	MustRegister("z", nil)
}

func TestBuildUnknown(t *testing.T) {
	resetRegistry(t)
	if _, err := Build("nope", Settings{}); err == nil {
		t.Fatalf("expected unknown poster error")
	}
}
