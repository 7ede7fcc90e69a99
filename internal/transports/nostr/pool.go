package nostr

import (
	"context"

	"github.com/nbd-wtf/go-nostr"
)

// Pool abstracts SimplePool for testability.
type Pool interface {
	PublishMany(ctx context.Context, relays []string, ev nostr.Event) chan nostr.PublishResult
}
