// Package wizard interactively writes a config.json for the reply tool.
package wizard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/AlecAivazis/survey/v2"

	"github.com/joelklabo/molt/internal/config"
	"github.com/joelklabo/molt/internal/presets"
)

// DefaultKeyringService is the keychain service secrets are stored under.
const DefaultKeyringService = "molt"

// Prompter abstracts survey for testability.
type Prompter interface {
	AskSelect(label string, options []string, def string) (string, error)
	AskInput(label, def string) (string, error)
	AskPassword(label string) (string, error)
	AskConfirm(label string, def bool) (bool, error)
}

// Options tune a wizard run.
type Options struct {
	// Out receives the dry-run notice; defaults to stdout.
	Out io.Writer
	// StoreSecret saves a secret to the keychain; defaults to config.StoreSecret.
	StoreSecret func(service, key, value string) error
}

// Run executes the interactive wizard and writes a config file.
func Run(ctx context.Context, path string, p Prompter, opts Options) (string, error) {
	if p == nil {
		p = &surveyPrompter{}
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.StoreSecret == nil {
		opts.StoreSecret = config.StoreSecret
	}
	if path == "" {
		path = config.DefaultPath()
	}

	if fileExists(path) {
		overwrite, err := p.AskConfirm(fmt.Sprintf("%s exists. Overwrite?", path), false)
		if err != nil {
			return "", err
		}
		if !overwrite {
			return "", fmt.Errorf("aborted: config exists at %s", path)
		}
	}

	reg := GetRegistry()
	cfg := config.Config{}

	agents := names(reg.Agents)
	agentType, err := p.AskSelect("Agent", agents, defaultChoice("chatapi", agents))
	if err != nil {
		return "", err
	}
	cfg.Agent.Type = agentType

	if agentType != "echo" {
		if cfg.Agent.APIBase, err = p.AskInput("API base URL", "https://dashscope.aliyuncs.com/compatible-mode/v1"); err != nil {
			return "", err
		}
	}
	if cfg.Agent.Model, err = p.AskInput("Model", "qwen-max"); err != nil {
		return "", err
	}

	presetNames := names(reg.Presets)
	if cfg.Reply.Preset, err = p.AskSelect("Reply preset", presetNames, defaultChoice(presets.Default, presetNames)); err != nil {
		return "", err
	}

	platforms := names(reg.Platforms)
	if cfg.Posting.Platform, err = p.AskSelect("Posting platform", platforms, defaultChoice("x", platforms)); err != nil {
		return "", err
	}
	if cfg.Posting.Platform == "nostr" {
		relays, err := p.AskInput("Relays (comma-separated)", "wss://relay.damus.io,wss://nos.lol")
		if err != nil {
			return "", err
		}
		cfg.Posting.Relays = splitCSV(relays)
	}

	key, err := p.AskPassword(config.APIKeyName + " (blank to read it from the environment)")
	if err != nil {
		return "", err
	}
	key = strings.TrimSpace(key)
	if key != "" {
		useKeyring, err := p.AskConfirm("Store the API key in the system keychain instead of the config file?", false)
		if err != nil {
			return "", err
		}
		if useKeyring {
			if err := opts.StoreSecret(DefaultKeyringService, config.APIKeyName, key); err != nil {
				return "", fmt.Errorf("store api key: %w", err)
			}
			cfg.Secrets.KeyringService = DefaultKeyringService
		} else {
			cfg.APIKey = key
		}
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	dryRun, err := p.AskConfirm("Dry-run only (preview config without writing)?", false)
	if err != nil {
		return "", err
	}
	if dryRun {
		fmt.Fprintf(opts.Out, "Dry run: config NOT written. Target path would be %s\n", path)
		return path, nil
	}

	if err := writeConfig(path, &cfg); err != nil {
		return "", err
	}
	return path, nil
}

func writeConfig(path string, cfg *config.Config) error {
	if err := cfg.ValidateDraft(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("make config dir: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func defaultChoice(defaultVal string, options []string) string {
	for _, opt := range options {
		if opt == defaultVal {
			return defaultVal
		}
	}
	if len(options) > 0 {
		return options[0]
	}
	return defaultVal
}

// surveyPrompter is the real interactive implementation.
type surveyPrompter struct{}

func (surveyPrompter) AskSelect(label string, options []string, def string) (string, error) {
	sel := def
	prompt := &survey.Select{Message: label, Options: options, Default: def}
	if err := survey.AskOne(prompt, &sel); err != nil {
		return "", err
	}
	return sel, nil
}

func (surveyPrompter) AskInput(label, def string) (string, error) {
	ans := def
	prompt := &survey.Input{Message: label, Default: def}
	if err := survey.AskOne(prompt, &ans); err != nil {
		return "", err
	}
	return ans, nil
}

func (surveyPrompter) AskPassword(label string) (string, error) {
	var ans string
	prompt := &survey.Password{Message: label}
	if err := survey.AskOne(prompt, &ans); err != nil {
		return "", err
	}
	return ans, nil
}

func (surveyPrompter) AskConfirm(label string, def bool) (bool, error) {
	ans := def
	prompt := &survey.Confirm{Message: label, Default: def}
	if err := survey.AskOne(prompt, &ans); err != nil {
		return false, err
	}
	return ans, nil
}

// StubPrompter is used in tests.
type StubPrompter struct {
	Selects   []string
	Inputs    []string
	Passwords []string
	Confirms  []bool
}

func (s *StubPrompter) AskSelect(label string, options []string, def string) (string, error) {
	if len(s.Selects) == 0 {
		return def, nil
	}
	v := s.Selects[0]
	s.Selects = s.Selects[1:]
	return v, nil
}

func (s *StubPrompter) AskInput(label, def string) (string, error) {
	if len(s.Inputs) == 0 {
		return def, nil
	}
	v := s.Inputs[0]
	s.Inputs = s.Inputs[1:]
	return v, nil
}

func (s *StubPrompter) AskPassword(label string) (string, error) {
	if len(s.Passwords) == 0 {
		return "", nil
	}
	v := s.Passwords[0]
	s.Passwords = s.Passwords[1:]
	return v, nil
}

func (s *StubPrompter) AskConfirm(label string, def bool) (bool, error) {
	if len(s.Confirms) == 0 {
		return def, nil
	}
	v := s.Confirms[0]
	s.Confirms = s.Confirms[1:]
	return v, nil
}
