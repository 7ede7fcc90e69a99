package config

import (
	"errors"
	"fmt"
)

var (
	agentTypes    = map[string]struct{}{"chatapi": {}, "openai": {}, "echo": {}}
	platformTypes = map[string]struct{}{"x": {}, "nostr": {}, "mock": {}}
)

// Validate ensures the config is usable.
func (c *Config) Validate() error {
	if _, ok := agentTypes[c.Agent.Type]; !ok {
		return fmt.Errorf("agent.type: unknown type %s", c.Agent.Type)
	}
	if _, ok := platformTypes[c.Posting.Platform]; !ok {
		return fmt.Errorf("posting.platform: unknown platform %s", c.Posting.Platform)
	}
	if c.Agent.MaxRetries < 1 {
		return errors.New("agent.max_retries must be at least 1")
	}
	if c.Agent.BackoffBase < 1 {
		return errors.New("agent.backoff_base must be at least 1")
	}
	if c.Agent.TimeoutSeconds < 0 {
		return errors.New("agent.timeout_seconds must not be negative")
	}
	if c.Agent.MaxTokens < 0 {
		return errors.New("agent.max_tokens must not be negative")
	}
	if c.Posting.Platform == "nostr" {
		for _, r := range c.Posting.Relays {
			if r == "" {
				return errors.New("posting.relays contains an empty relay url")
			}
		}
	}
	return nil
}

// ValidateDraft checks a config that is about to be written. Defaults are
// filled on a copy so unset fields do not fail validation.
func (c Config) ValidateDraft() error {
	cp := c
	cp.applyDefaults(".")
	return cp.Validate()
}
