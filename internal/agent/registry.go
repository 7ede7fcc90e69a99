// Package agent keeps the constructors of the available model agents.
package agent

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/joelklabo/molt/internal/core"
)

// Settings are the knobs shared by agent implementations.
type Settings struct {
	HTTPClient  *http.Client
	Timeout     time.Duration
	Temperature float64
	TopP        float64
	MaxTokens   int
	Logger      *slog.Logger
}

// Constructor builds an Agent from settings.
type Constructor func(s Settings) (core.Agent, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Constructor)
)

func Register(kind string, ctor Constructor) error {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[kind]; exists {
		return fmt.Errorf("agent type %s already registered", kind)
	}
	registry[kind] = ctor
	return nil
}

func MustRegister(kind string, ctor Constructor) {
	if err := Register(kind, ctor); err != nil {
		panic(err)
	}
}

func Build(kind string, s Settings) (core.Agent, error) {
	registryMu.RLock()
	ctor, ok := registry[kind]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown agent type %s", kind)
	}
	return ctor(s)
}

// RegisteredTypes returns the registered kinds in sorted order.
func RegisteredTypes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
