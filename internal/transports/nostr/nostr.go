// Package nostr publishes replies as kind-1 text notes on Nostr relays.
package nostr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"

	"github.com/joelklabo/molt/internal/core"
	transport "github.com/joelklabo/molt/internal/transports"
)

// EnvPrivateKey holds the signing key, hex or nsec.
const EnvPrivateKey = "NOSTR_PRIVATE_KEY"

// DefaultRelays are used when none are configured.
var DefaultRelays = []string{"wss://relay.damus.io", "wss://nos.lol"}

// Config wires the poster.
type Config struct {
	PrivateKey string
	Relays     []string
}

// Poster signs and publishes notes.
type Poster struct {
	cfg    Config
	pool   Pool
	logger *slog.Logger
}

// New builds a Poster on a fresh SimplePool.
func New(cfg Config, logger *slog.Logger) *Poster {
	return NewWithPool(cfg, nostr.NewSimplePool(context.Background()), logger)
}

// NewWithPool lets tests inject a pool.
func NewWithPool(cfg Config, pool Pool, logger *slog.Logger) *Poster {
	if len(cfg.Relays) == 0 {
		cfg.Relays = DefaultRelays
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poster{cfg: cfg, pool: pool, logger: logger.With("transport", "nostr")}
}

func (p *Poster) ID() string { return "nostr" }

// Post signs a text note and succeeds once any relay accepts it.
func (p *Poster) Post(ctx context.Context, req core.PostRequest) (core.PostReceipt, error) {
	sk, err := DecodeKey(p.cfg.PrivateKey)
	if err != nil {
		return core.PostReceipt{}, err
	}
	pub, err := nostr.GetPublicKey(sk)
	if err != nil {
		return core.PostReceipt{}, fmt.Errorf("derive pubkey: %w", err)
	}

	ev := nostr.Event{
		PubKey:    pub,
		CreatedAt: nostr.Now(),
		Kind:      nostr.KindTextNote,
		Tags:      nostr.Tags{},
		Content:   req.Text,
	}
	if req.ReplyTo != "" {
		parent, err := decodeEventID(req.ReplyTo)
		if err != nil {
			return core.PostReceipt{}, err
		}
		ev.Tags = append(ev.Tags, nostr.Tag{"e", parent, "", "reply"})
	}
	if err := ev.Sign(sk); err != nil {
		return core.PostReceipt{}, fmt.Errorf("sign note: %w", err)
	}

	accepted := 0
	var firstErr error
	for res := range p.pool.PublishMany(ctx, p.cfg.Relays, ev) {
		if res.Error != nil {
			p.logger.Debug("relay rejected note", slog.String("relay", res.RelayURL), slog.String("err", res.Error.Error()))
			if firstErr == nil {
				firstErr = res.Error
			}
			continue
		}
		accepted++
	}
	if accepted == 0 {
		if firstErr == nil {
			firstErr = errors.New("no relay accepted the note")
		}
		return core.PostReceipt{}, fmt.Errorf("publish note: %w", firstErr)
	}

	link, err := Permalink(ev.ID)
	if err != nil {
		return core.PostReceipt{}, err
	}
	p.logger.Debug("note published", slog.String("id", ev.ID), slog.Int("relays", accepted))
	return core.PostReceipt{ID: ev.ID, Permalink: link}, nil
}

// Permalink returns a web link for an event id.
func Permalink(id string) (string, error) {
	note, err := nip19.EncodeNote(id)
	if err != nil {
		return "", fmt.Errorf("encode note id: %w", err)
	}
	return "https://njump.me/" + note, nil
}

// DecodeKey accepts a hex private key or an nsec and returns hex.
func DecodeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("%w: set %s", core.ErrMissingCredentials, EnvPrivateKey)
	}
	if strings.HasPrefix(key, "nsec") {
		prefix, val, err := nip19.Decode(key)
		if err != nil || prefix != "nsec" {
			return "", fmt.Errorf("invalid nsec in %s", EnvPrivateKey)
		}
		s, ok := val.(string)
		if !ok {
			return "", fmt.Errorf("invalid nsec in %s", EnvPrivateKey)
		}
		return s, nil
	}
	if !isHex64(key) {
		return "", fmt.Errorf("%s must be 64 hex characters or nsec", EnvPrivateKey)
	}
	return strings.ToLower(key), nil
}

func decodeEventID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if strings.HasPrefix(id, "note") || strings.HasPrefix(id, "nevent") {
		_, val, err := nip19.Decode(id)
		if err != nil {
			return "", fmt.Errorf("invalid reply target %q: %w", id, err)
		}
		switch v := val.(type) {
		case string:
			return v, nil
		case nostr.EventPointer:
			return v.ID, nil
		case *nostr.EventPointer:
			return v.ID, nil
		}
		return "", fmt.Errorf("invalid reply target %q", id)
	}
	if !isHex64(id) {
		return "", fmt.Errorf("invalid reply target %q", id)
	}
	return strings.ToLower(id), nil
}

func isHex64(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

func init() {
	transport.MustRegister("nostr", func(s transport.Settings) (core.Poster, error) {
		return New(Config{PrivateKey: s.Lookup(EnvPrivateKey), Relays: s.Relays}, s.Logger), nil
	})
}
