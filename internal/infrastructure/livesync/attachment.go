package livesync

import (
	"context"
	"sync"

	"lumisync/internal/domain/docstore"
)

// attachment owns everything one activation opened. Releasing it is the only
// way listeners are torn down.
type attachment struct {
	gen    uint64
	query  docstore.ScopedQuery
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	subs   []docstore.Subscription
	closed bool
}

func newAttachment(gen uint64, query docstore.ScopedQuery) *attachment {
	ctx, cancel := context.WithCancel(context.Background())
	return &attachment{
		gen:    gen,
		query:  query,
		ctx:    ctx,
		cancel: cancel,
	}
}

// add registers a listener. A listener arriving after the attachment has
// been closed is released immediately.
func (a *attachment) add(sub docstore.Subscription) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		sub.Unsubscribe()
		return
	}
	a.subs = append(a.subs, sub)
	a.mu.Unlock()
}

// closeListeners unsubscribes every listener but keeps the context alive for
// a fallback read.
func (a *attachment) closeListeners() {
	a.mu.Lock()
	subs := a.subs
	a.subs = nil
	a.closed = true
	a.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
}

func (a *attachment) release() {
	a.closeListeners()
	a.cancel()
}
