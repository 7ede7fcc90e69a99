package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/zalando/go-keyring"
)

func envFrom(m map[string]string) EnvSource {
	return EnvSource{LookupEnv: func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}}
}

func TestResolveFirstPresentWins(t *testing.T) {
	file := MapSource{Label: "config", Values: map[string]string{"KEY": ""}}
	env := envFrom(map[string]string{"KEY": "from-env"})
	v, from, ok := Resolve("KEY", file, env)
	if !ok || v != "from-env" || from != "env" {
		t.Fatalf("expected env value, got %q from %s", v, from)
	}

	file.Values["KEY"] = "from-file"
	v, from, _ = Resolve("KEY", file, env)
	if v != "from-file" || from != "config" {
		t.Fatalf("config file should win, got %q from %s", v, from)
	}
}

func TestResolveMissing(t *testing.T) {
	if _, _, ok := Resolve("NOPE", envFrom(nil), nil); ok {
		t.Fatalf("expected not found")
	}
}

func TestDotenvSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("TWITTER_ACCESS_TOKEN=tok\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	src := &DotenvSource{Path: path}
	if v, ok := src.Lookup("TWITTER_ACCESS_TOKEN"); !ok || v != "tok" {
		t.Fatalf("dotenv lookup failed: %q", v)
	}
	missing := &DotenvSource{Path: filepath.Join(t.TempDir(), "none")}
	if _, ok := missing.Lookup("X"); ok {
		t.Fatalf("missing dotenv file should yield nothing")
	}
}

func TestKeyringSource(t *testing.T) {
	keyring.MockInit()
	if err := StoreSecret("molt-test", APIKeyName, "sk-keyring"); err != nil {
		t.Fatalf("store: %v", err)
	}
	v, from, ok := Resolve(APIKeyName, envFrom(nil), KeyringSource{Service: "molt-test"})
	if !ok || v != "sk-keyring" || from != "keyring" {
		t.Fatalf("expected keyring value, got %q from %s", v, from)
	}
}

func TestConfigSourcesOrder(t *testing.T) {
	cfg := &Config{APIKey: "sk-file", Extra: map[string]string{"TWITTER_CONSUMER_KEY": "ck"}}
	cfg.applyDefaults(t.TempDir())
	get := Lookup(cfg.Sources()...)
	if get(APIKeyName) != "sk-file" {
		t.Fatalf("config file key should win")
	}
	if get("TWITTER_CONSUMER_KEY") != "ck" {
		t.Fatalf("extra file keys should resolve")
	}
}
