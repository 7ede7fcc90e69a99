package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var twitterVars = []string{"TWITTER_CONSUMER_KEY", "TWITTER_CONSUMER_SECRET", "TWITTER_ACCESS_TOKEN", "TWITTER_ACCESS_TOKEN_SECRET"}

func writeConfig(t *testing.T, cfg map[string]any) string {
	t.Helper()
	data, _ := json.Marshal(cfg)
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runArgs(args ...string) (int, string) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String()
}

func TestNoWordsPrintsUsage(t *testing.T) {
	code, out := runArgs()
	if code != 1 || !strings.Contains(out, "Usage: poster") {
		t.Fatalf("expected usage and exit 1, got %d %q", code, out)
	}
}

func TestWordsJoinedAndPosted(t *testing.T) {
	path := writeConfig(t, map[string]any{"posting": map[string]any{"platform": "mock"}})
	code, out := runArgs("--config", path, "gm", "builders")
	if code != 0 || out != "Successfully posted! Link: mock://post/1\n" {
		t.Fatalf("unexpected result %d %q", code, out)
	}
}

func TestMissingCredentialsNamesAllFour(t *testing.T) {
	for _, name := range twitterVars {
		t.Setenv(name, "")
	}
	path := writeConfig(t, map[string]any{})
	code, out := runArgs("--config", path, "hello")
	if code != 0 || !strings.HasPrefix(out, "Failed to post:") {
		t.Fatalf("expected failure string with exit 0, got %d %q", code, out)
	}
	for _, name := range twitterVars {
		if !strings.Contains(out, name) {
			t.Fatalf("failure should name %s: %q", name, out)
		}
	}
}

func TestPostsToXWithEnvCredentials(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &got)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"1234567890","text":"hello world"}}`))
	}))
	defer srv.Close()
	for _, name := range twitterVars {
		t.Setenv(name, "v-"+name)
	}
	path := writeConfig(t, map[string]any{"posting": map[string]any{"platform": "x", "x_api_base": srv.URL}})

	code, out := runArgs("--config", path, "--reply-to", "42", "hello", "world")
	if code != 0 || out != "Successfully posted! Link: https://x.com/user/status/1234567890\n" {
		t.Fatalf("unexpected result %d %q", code, out)
	}
	if got["text"] != "hello world" {
		t.Fatalf("unexpected body %v", got)
	}
}
