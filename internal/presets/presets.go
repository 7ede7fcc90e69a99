// Package presets holds the named prompt-and-bounds policies a reply can be
// generated with.
package presets

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/cybermolt.yaml
var CyberMolt []byte

//go:embed data/engagement.yaml
var Engagement []byte

// Default is the preset used when none is configured.
const Default = "cybermolt"

// Preset is a prompt template with the length bounds its replies should meet.
type Preset struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Template    string `yaml:"template"`
	MinLen      int    `yaml:"min_len"`
	MaxLen      int    `yaml:"max_len"`
	Address     string `yaml:"address,omitempty"`
	System      string `yaml:"system,omitempty"`
}

// Load returns the parsed preset called name, honouring user overrides.
func Load(name string) (Preset, error) {
	data, err := Get(name)
	if err != nil {
		return Preset{}, err
	}
	return Parse(name, data)
}

// Parse decodes and validates a preset document.
func Parse(name string, data []byte) (Preset, error) {
	var p Preset
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Preset{}, fmt.Errorf("parse preset %s: %w", name, err)
	}
	if p.Name == "" {
		p.Name = name
	}
	if strings.TrimSpace(p.Template) == "" {
		return Preset{}, fmt.Errorf("preset %s: template is required", name)
	}
	if p.MinLen < 0 || p.MaxLen < 0 || (p.MaxLen > 0 && p.MinLen > p.MaxLen) {
		return Preset{}, fmt.Errorf("preset %s: invalid length bounds %d-%d", name, p.MinLen, p.MaxLen)
	}
	return p, nil
}
