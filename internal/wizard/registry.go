package wizard

import (
	"sort"

	"github.com/joelklabo/molt/internal/presets"
)

// Option is one choice offered by a select prompt.
type Option struct {
	Name        string
	Description string
}

// Registry holds available options for the wizard.
type Registry struct {
	Agents    []Option
	Platforms []Option
	Presets   []Option
}

var defaultRegistry = Registry{
	Agents: []Option{
		{Name: "chatapi", Description: "OpenAI-compatible chat completions over HTTP"},
		{Name: "openai", Description: "Same endpoint through the go-openai client"},
		{Name: "echo", Description: "Echo the prompt back (offline)"},
	},
	Platforms: []Option{
		{Name: "x", Description: "X (Twitter) replies via OAuth 1.0a"},
		{Name: "nostr", Description: "Kind-1 notes over Nostr relays"},
		{Name: "mock", Description: "Offline mock poster"},
	},
	Presets: presetOptions(),
}

func presetOptions() []Option {
	list := presets.List()
	out := make([]Option, 0, len(list))
	for name, desc := range list {
		out = append(out, Option{Name: name, Description: desc})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// GetRegistry returns the default registry (copy).
func GetRegistry() Registry {
	return defaultRegistry
}

// SetRegistry overrides the global registry (primarily for tests/extensibility).
// Callers should restore the previous value after use to avoid leaking state across tests.
func SetRegistry(r Registry) {
	defaultRegistry = r
}

func names(opts []Option) []string {
	out := make([]string, 0, len(opts))
	for _, o := range opts {
		out = append(out, o.Name)
	}
	return out
}
