// Package transport keeps the constructors of the available posters.
package transport

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"

	"github.com/joelklabo/molt/internal/core"
)

// Settings carry what a poster needs to authenticate and reach its platform.
type Settings struct {
	// Lookup resolves a secret by name; empty means absent.
	Lookup     func(name string) string
	Relays     []string
	APIBase    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Constructor builds a Poster from settings.
type Constructor func(s Settings) (core.Poster, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Constructor)
)

// Register adds a constructor for a platform.
func Register(kind string, ctor Constructor) error {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[kind]; exists {
		return fmt.Errorf("poster type %s already registered", kind)
	}
	registry[kind] = ctor
	return nil
}

// MustRegister panics on error; intended for init() in poster packages.
func MustRegister(kind string, ctor Constructor) {
	if err := Register(kind, ctor); err != nil {
		panic(err)
	}
}

// Build constructs a poster of the given type.
func Build(kind string, s Settings) (core.Poster, error) {
	registryMu.RLock()
	ctor, ok := registry[kind]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown poster type %s", kind)
	}
	if s.Lookup == nil {
		s.Lookup = func(string) string { return "" }
	}
	return ctor(s)
}

// RegisteredTypes returns a sorted snapshot of registered platforms.
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
