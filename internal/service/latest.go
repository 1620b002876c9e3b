package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/Maristella28/Bms-1125-sub002/internal/backend"
)

// Coordinator keeps at most one in-flight fetch per key. Starting a fetch
// cancels the previous one under the same key, and a superseded fetch never
// reports its result.
type Coordinator struct {
	mu       sync.Mutex
	seq      uint64
	inflight map[string]inflight
}

type inflight struct {
	id     uint64
	cancel context.CancelFunc
}

func NewCoordinator() *Coordinator {
	return &Coordinator{inflight: make(map[string]inflight)}
}

func (c *Coordinator) begin(ctx context.Context, key string) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.inflight[key]; ok {
		prev.cancel()
	}
	c.seq++
	c.inflight[key] = inflight{id: c.seq, cancel: cancel}
	return ctx, c.seq
}

// finish releases key and reports whether id was still the latest fetch
func (c *Coordinator) finish(key string, id uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur, ok := c.inflight[key]
	if !ok || cur.id != id {
		return false
	}
	cur.cancel()
	delete(c.inflight, key)
	return true
}

// InFlight number of keys with a running fetch
func (c *Coordinator) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inflight)
}

// Latest runs fn under key; if a newer call for key started meanwhile the
// result is dropped and backend.ErrCancelled returned. An empty key runs fn
// uncoordinated.
func Latest[T any](ctx context.Context, c *Coordinator, key string, fn func(context.Context) (T, error)) (T, error) {
	if key == "" {
		return fn(ctx)
	}
	var zero T
	fctx, id := c.begin(ctx, key)
	out, err := fn(fctx)
	if !c.finish(key, id) {
		return zero, fmt.Errorf("%w: superseded fetch %s", backend.ErrCancelled, key)
	}
	if err != nil {
		return zero, err
	}
	return out, nil
}
