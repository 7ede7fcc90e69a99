package config

import (
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/zalando/go-keyring"
)

// Source is one place a secret may come from.
type Source interface {
	Name() string
	Lookup(key string) (string, bool)
}

// Resolve returns the first non-empty value for key across sources, in order,
// along with the name of the source that had it.
func Resolve(key string, sources ...Source) (string, string, bool) {
	for _, s := range sources {
		if s == nil {
			continue
		}
		if v, ok := s.Lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), s.Name(), true
		}
	}
	return "", "", false
}

// Lookup adapts Resolve to a plain getter.
func Lookup(sources ...Source) func(string) string {
	return func(key string) string {
		v, _, _ := Resolve(key, sources...)
		return v
	}
}

// MapSource serves values from an in-memory map, such as the config file.
type MapSource struct {
	Label  string
	Values map[string]string
}

func (m MapSource) Name() string { return m.Label }

func (m MapSource) Lookup(key string) (string, bool) {
	v, ok := m.Values[key]
	return v, ok
}

// EnvSource reads the process environment. LookupEnv is swappable for tests.
type EnvSource struct {
	LookupEnv func(string) (string, bool)
}

func (EnvSource) Name() string { return "env" }

func (e EnvSource) Lookup(key string) (string, bool) {
	if e.LookupEnv == nil {
		return os.LookupEnv(key)
	}
	return e.LookupEnv(key)
}

// DotenvSource reads a .env file once, on first lookup.
type DotenvSource struct {
	Path string

	once   sync.Once
	values map[string]string
}

func (d *DotenvSource) Name() string { return "dotenv" }

func (d *DotenvSource) Lookup(key string) (string, bool) {
	d.once.Do(func() {
		vals, err := godotenv.Read(d.Path)
		if err != nil {
			vals = map[string]string{}
		}
		d.values = vals
	})
	v, ok := d.values[key]
	return v, ok
}

// KeyringSource reads the OS keychain, keyed by service and secret name.
type KeyringSource struct {
	Service string
}

func (k KeyringSource) Name() string { return "keyring" }

func (k KeyringSource) Lookup(key string) (string, bool) {
	if k.Service == "" {
		return "", false
	}
	v, err := keyring.Get(k.Service, key)
	if err != nil {
		return "", false
	}
	return v, true
}

// StoreSecret writes a secret into the OS keychain.
func StoreSecret(service, key, value string) error {
	return keyring.Set(service, key, value)
}

// Sources returns the secret sources in priority order: config file,
// environment, .env file, then the OS keychain when a service is configured.
func (c *Config) Sources() []Source {
	file := map[string]string{}
	for k, v := range c.Extra {
		file[k] = v
	}
	if c.APIKey != "" {
		file[APIKeyName] = c.APIKey
	}
	srcs := []Source{
		MapSource{Label: "config", Values: file},
		EnvSource{},
		&DotenvSource{Path: c.Secrets.DotenvPath},
	}
	if c.Secrets.KeyringService != "" {
		srcs = append(srcs, KeyringSource{Service: c.Secrets.KeyringService})
	}
	return srcs
}
