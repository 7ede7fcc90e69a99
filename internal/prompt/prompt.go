// Package prompt renders the user prompt sent to the chat model.
package prompt

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/joelklabo/molt/internal/core"
	"github.com/joelklabo/molt/internal/presets"
)

// Builder fills a preset template with tweet details.
type Builder struct {
	preset presets.Preset
	tmpl   *template.Template
}

type fields struct {
	Tweet   string
	Author  string
	MinLen  int
	MaxLen  int
	Address string
}

// New parses the preset template once.
func New(p presets.Preset) (*Builder, error) {
	tmpl, err := template.New(p.Name).Option("missingkey=error").Parse(p.Template)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", p.Name, err)
	}
	return &Builder{preset: p, tmpl: tmpl}, nil
}

// Name returns the preset name.
func (b *Builder) Name() string { return b.preset.Name }

// Bounds returns the preset's reply length bounds.
func (b *Builder) Bounds() (int, int) { return b.preset.MinLen, b.preset.MaxLen }

// System returns the preset's system prompt override, if any.
func (b *Builder) System() string { return b.preset.System }

// Build renders the prompt. text and author must be non-empty; the author's
// leading "@" is stripped.
func (b *Builder) Build(text, author string) (string, error) {
	text = strings.TrimSpace(text)
	author = core.NormalizeHandle(author)
	if text == "" {
		return "", fmt.Errorf("tweet content: %w", core.ErrEmptyInput)
	}
	if author == "" {
		return "", fmt.Errorf("author: %w", core.ErrEmptyInput)
	}
	var sb strings.Builder
	err := b.tmpl.Execute(&sb, fields{
		Tweet:   text,
		Author:  author,
		MinLen:  b.preset.MinLen,
		MaxLen:  b.preset.MaxLen,
		Address: b.preset.Address,
	})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return sb.String(), nil
}
