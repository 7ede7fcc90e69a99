// Package check runs preflight checks for the secrets and endpoints a reply
// run depends on.
package check

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joelklabo/molt/internal/config"
	tnostr "github.com/joelklabo/molt/internal/transports/nostr"
	tx "github.com/joelklabo/molt/internal/transports/x"
)

// Result represents a single dependency check outcome.
type Result struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Status   string `json:"status"` // OK|MISSING|WARN
	Details  string `json:"details,omitempty"`
	Optional bool   `json:"optional,omitempty"`
}

// Checker defines an interface for running checks.
type Checker interface {
	Check(dep DepInput) Result
}

// DepInput is one thing to verify.
type DepInput struct {
	Name     string
	Type     string
	Optional bool
	Hint     string
}

// SecretChecker verifies a secret resolves through the configured sources.
// Values are never echoed.
type SecretChecker struct {
	Lookup func(string) string
}

func (c SecretChecker) Check(dep DepInput) Result {
	res := Result{Name: dep.Name, Type: dep.Type, Status: "OK", Optional: dep.Optional}
	if c.Lookup == nil || strings.TrimSpace(c.Lookup(dep.Name)) == "" {
		res.Status = missingStatus(dep.Optional)
		res.Details = fmt.Sprintf("not set (%s)", dep.Hint)
	}
	return res
}

// URLChecker checks that an HTTP endpoint answers at all.
type URLChecker struct {
	Client *http.Client
}

func (c URLChecker) Check(dep DepInput) Result {
	res := Result{Name: dep.Name, Type: dep.Type, Status: "OK", Optional: dep.Optional}
	client := c.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	resp, err := client.Head(dep.Name)
	if err != nil {
		res.Status = missingStatus(dep.Optional)
		res.Details = err.Error()
		return res
	}
	_ = resp.Body.Close()
	res.Details = resp.Status
	return res
}

// RelayChecker dials the relay host over TCP.
type RelayChecker struct{}

func (RelayChecker) Check(dep DepInput) Result {
	res := Result{Name: dep.Name, Type: dep.Type, Status: "OK", Optional: dep.Optional}
	addr, err := relayAddr(dep.Name)
	if err != nil {
		res.Status = missingStatus(dep.Optional)
		res.Details = err.Error()
		return res
	}
	conn, err := net.DialTimeout("tcp", addr, 3*time.Second)
	if err != nil {
		res.Status = missingStatus(dep.Optional)
		res.Details = err.Error()
		return res
	}
	_ = conn.Close()
	return res
}

func relayAddr(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid relay url %q", raw)
	}
	if u.Port() != "" {
		return u.Host, nil
	}
	port := "443"
	if u.Scheme == "ws" {
		port = "80"
	}
	return net.JoinHostPort(u.Hostname(), port), nil
}

// DirWriteChecker verifies a directory exists and is writable.
type DirWriteChecker struct{}

func (DirWriteChecker) Check(dep DepInput) Result {
	res := Result{Name: dep.Name, Type: dep.Type, Status: "OK", Optional: dep.Optional}
	f, err := os.CreateTemp(dep.Name, ".molt-check-*")
	if err != nil {
		res.Status = missingStatus(dep.Optional)
		res.Details = err.Error()
		return res
	}
	_ = f.Close()
	_ = os.Remove(f.Name())
	return res
}

// Plan lists what a run with cfg on platform needs.
func Plan(cfg *config.Config, platform string) []DepInput {
	var deps []DepInput
	if cfg.Agent.Type != "echo" {
		deps = append(deps,
			DepInput{Name: config.APIKeyName, Type: "secret", Hint: "config file, environment, .env, or keychain"},
			DepInput{Name: cfg.Agent.APIBase, Type: "url", Optional: true, Hint: "model endpoint"},
		)
	}
	switch platform {
	case "x":
		for _, name := range tx.CredentialNames {
			deps = append(deps, DepInput{Name: name, Type: "secret", Optional: true, Hint: "needed only with --post"})
		}
	case "nostr":
		deps = append(deps, DepInput{Name: tnostr.EnvPrivateKey, Type: "secret", Optional: true, Hint: "needed only with --post"})
		relays := cfg.Posting.Relays
		if len(relays) == 0 {
			relays = tnostr.DefaultRelays
		}
		for _, r := range relays {
			deps = append(deps, DepInput{Name: r, Type: "relay", Optional: true})
		}
	}
	if cfg.Storage.Path != "" {
		dir := filepath.Dir(cfg.Storage.Path)
		deps = append(deps, DepInput{Name: dir, Type: "dirwrite", Hint: "history database"})
	}
	return deps
}

// Run executes every dep with the checker registered for its type.
func Run(deps []DepInput, checkers map[string]Checker) []Result {
	out := make([]Result, 0, len(deps))
	for _, d := range deps {
		chk, ok := checkers[d.Type]
		if !ok {
			continue
		}
		out = append(out, chk.Check(d))
	}
	return out
}

// Missing counts required checks that failed.
func Missing(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Status == "MISSING" {
			n++
		}
	}
	return n
}

func missingStatus(optional bool) string {
	if optional {
		return "WARN"
	}
	return "MISSING"
}
