package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/joelklabo/molt/internal/core"
	transport "github.com/joelklabo/molt/internal/transports"
)

// Poster is an in-memory poster for tests and dry runs.
type Poster struct {
	id string
	// Fail, when set, is returned from every Post.
	Fail error

	mu    sync.Mutex
	Posts []core.PostRequest
}

func New(id string) *Poster {
	if id == "" {
		id = "mock"
	}
	return &Poster{id: id}
}

func (p *Poster) ID() string { return p.id }

func (p *Poster) Post(ctx context.Context, req core.PostRequest) (core.PostReceipt, error) {
	if err := ctx.Err(); err != nil {
		return core.PostReceipt{}, err
	}
	if p.Fail != nil {
		return core.PostReceipt{}, p.Fail
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Posts = append(p.Posts, req)
	id := fmt.Sprintf("%d", len(p.Posts))
	return core.PostReceipt{ID: id, Permalink: "mock://post/" + id}, nil
}

func init() {
	transport.MustRegister("mock", func(transport.Settings) (core.Poster, error) {
		return New("mock"), nil
	})
}
