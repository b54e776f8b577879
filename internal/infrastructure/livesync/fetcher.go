package livesync

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"lumisync/internal/domain/docstore"
	"lumisync/pkg/errors"
	"lumisync/pkg/logger"
)

// DefaultChunkSize is Firestore's historical limit on "in" value lists.
const DefaultChunkSize = 10

// FetchError reports the chunks of a batched read that failed. The documents
// returned alongside it are the ones from chunks that succeeded.
type FetchError struct {
	Collection string
	Failed     int
	Total      int
	Errors     []error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%d of %d chunks of %s failed", e.Failed, e.Total, e.Collection)
}

func (e *FetchError) Unwrap() []error {
	return e.Errors
}

// All reports whether no chunk produced results.
func (e *FetchError) All() bool {
	return e.Failed == e.Total
}

// BatchedFetcher splits an oversized IN clause into chunks the backend
// accepts, queries the chunks concurrently and merges the pages into one
// de-duplicated, sorted list.
type BatchedFetcher struct {
	store     docstore.DocumentStore
	chunkSize int
}

func NewBatchedFetcher(store docstore.DocumentStore, chunkSize int) *BatchedFetcher {
	if chunkSize < 1 {
		chunkSize = DefaultChunkSize
	}
	return &BatchedFetcher{
		store:     store,
		chunkSize: chunkSize,
	}
}

// Fetch runs the scoped query once. With serverOrder false the chunks are
// queried without ordering and sorted locally only. A failed chunk does not
// hold back the others: the merged documents of the successful chunks are
// returned together with a *FetchError.
func (f *BatchedFetcher) Fetch(ctx context.Context, sq docstore.ScopedQuery, serverOrder bool) ([]docstore.Document, error) {
	chunks := sq.Chunks(f.chunkSize)
	if len(chunks) == 0 {
		return []docstore.Document{}, nil
	}

	pages := make([][]docstore.Document, len(chunks))
	errs := make([]error, len(chunks))

	var g errgroup.Group
	for i, q := range chunks {
		i, q := i, q
		if !serverOrder {
			q = q.WithoutOrder()
		}
		g.Go(func() error {
			docs, err := f.store.Query(ctx, q)
			if err != nil {
				errs[i] = errors.ChunkFetch(sq.Collection, i, err)
				return nil
			}
			pages[i] = docs
			return nil
		})
	}
	_ = g.Wait()

	merged := docstore.MergeDocuments(pages...)
	if merged == nil {
		merged = []docstore.Document{}
	}
	docstore.SortDocuments(merged, sq.OrderBy)

	var failed []error
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err)
		}
	}
	if len(failed) > 0 {
		for _, err := range failed {
			logger.Warn("Batched fetch: %v", err)
		}
		return merged, &FetchError{
			Collection: sq.Collection,
			Failed:     len(failed),
			Total:      len(chunks),
			Errors:     failed,
		}
	}
	return merged, nil
}

// Subscribe attaches one live query per chunk. Any chunk update triggers a
// full one-shot re-fetch across every chunk and only that merged result is
// published, so the list is always globally sorted. Re-fetches are
// serialised and coalesced. An empty scope publishes an empty list
// immediately and attaches nothing.
func (f *BatchedFetcher) Subscribe(ctx context.Context, sq docstore.ScopedQuery, fn docstore.SnapshotFunc) (docstore.Subscription, error) {
	chunks := sq.Chunks(f.chunkSize)
	if len(chunks) == 0 {
		fn([]docstore.Document{}, nil)
		return noopSubscription{}, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	live := &batchedSubscription{
		cancel: cancel,
		dirty:  make(chan struct{}, 1),
		fn:     fn,
	}

	for i, q := range chunks {
		chunk := i
		sub, err := f.store.Subscribe(ctx, q, func(_ []docstore.Document, err error) {
			if err != nil {
				live.fail(errors.Subscription(fmt.Sprintf("%s chunk %d", sq.Collection, chunk), err))
				return
			}
			live.poke()
		})
		if err != nil {
			live.Unsubscribe()
			return nil, errors.Subscription(sq.Collection, err)
		}
		live.track(sub)
	}

	go live.loop(ctx, func(ctx context.Context) ([]docstore.Document, error) {
		return f.Fetch(ctx, sq, true)
	})
	return live, nil
}

type noopSubscription struct{}

func (noopSubscription) Unsubscribe() {}

type batchedSubscription struct {
	cancel context.CancelFunc
	dirty  chan struct{}
	fn     docstore.SnapshotFunc

	subsMu sync.Mutex
	subs   []docstore.Subscription
	once   sync.Once

	// emitMu serialises fn. stopped is checked without it so Unsubscribe
	// never waits on a callback in progress.
	emitMu  sync.Mutex
	stopped atomic.Bool
}

func (b *batchedSubscription) track(sub docstore.Subscription) {
	b.subsMu.Lock()
	defer b.subsMu.Unlock()
	if b.stopped.Load() {
		sub.Unsubscribe()
		return
	}
	b.subs = append(b.subs, sub)
}

func (b *batchedSubscription) Unsubscribe() {
	b.once.Do(func() {
		b.stopped.Store(true)
		b.cancel()
		b.subsMu.Lock()
		subs := b.subs
		b.subs = nil
		b.subsMu.Unlock()
		for _, sub := range subs {
			sub.Unsubscribe()
		}
	})
}

func (b *batchedSubscription) poke() {
	select {
	case b.dirty <- struct{}{}:
	default:
	}
}

func (b *batchedSubscription) emit(docs []docstore.Document, err error) {
	b.emitMu.Lock()
	defer b.emitMu.Unlock()
	if b.stopped.Load() {
		return
	}
	if err != nil {
		b.stopped.Store(true)
	}
	b.fn(docs, err)
}

// fail reports a terminal error once and tears the chunk listeners down.
func (b *batchedSubscription) fail(err error) {
	b.emit(nil, err)
	b.Unsubscribe()
}

func (b *batchedSubscription) loop(ctx context.Context, refetch func(context.Context) ([]docstore.Document, error)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.dirty:
		}

		docs, err := refetch(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			var fe *FetchError
			if errors.As(err, &fe) && !fe.All() {
				b.emit(docs, nil)
				continue
			}
			b.fail(err)
			return
		}
		b.emit(docs, nil)
	}
}
