package livesync

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lumisync/internal/adapter/repository"
	"lumisync/internal/domain/docstore"
)

var baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// faultyStore wraps the memory store with injectable failures and a way to
// push an error into every live query.
type faultyStore struct {
	*repository.MemoryDocumentStore

	mu            sync.Mutex
	queries       []docstore.Query
	failQuery     func(q docstore.Query) error
	failSubscribe func(q docstore.Query) error
	listeners     []docstore.SnapshotFunc
}

func newFaultyStore() *faultyStore {
	return &faultyStore{MemoryDocumentStore: repository.NewMemoryDocumentStore()}
}

func (f *faultyStore) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	fail := f.failQuery
	f.mu.Unlock()
	if fail != nil {
		if err := fail(q); err != nil {
			return nil, err
		}
	}
	return f.MemoryDocumentStore.Query(ctx, q)
}

func (f *faultyStore) Subscribe(ctx context.Context, q docstore.Query, fn docstore.SnapshotFunc) (docstore.Subscription, error) {
	f.mu.Lock()
	fail := f.failSubscribe
	f.listeners = append(f.listeners, fn)
	f.mu.Unlock()
	if fail != nil {
		if err := fail(q); err != nil {
			return nil, err
		}
	}
	return f.MemoryDocumentStore.Subscribe(ctx, q, fn)
}

func (f *faultyStore) setFailQuery(fn func(q docstore.Query) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failQuery = fn
}

// trip reports err to every listener registered so far.
func (f *faultyStore) trip(err error) {
	f.mu.Lock()
	listeners := append([]docstore.SnapshotFunc(nil), f.listeners...)
	f.mu.Unlock()
	for _, fn := range listeners {
		fn(nil, err)
	}
}

func (f *faultyStore) recordedQueries() []docstore.Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]docstore.Query(nil), f.queries...)
}

func (f *faultyStore) resetQueries() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = nil
}

func inValues(q docstore.Query) []string {
	for _, flt := range q.Filters {
		if flt.Op == docstore.OpIn {
			return flt.Value.([]string)
		}
	}
	return nil
}

func propertyIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("p%02d", i+1)
	}
	return ids
}

// seedTickets writes one complaint per property, later properties newer.
func seedTickets(t *testing.T, store docstore.DocumentStore, props []string) {
	t.Helper()
	for i, p := range props {
		require.NoError(t, store.Set(context.Background(), docstore.CollectionComplaints, "t-"+p, map[string]interface{}{
			"propertyId":  p,
			"createdById": "renter-" + p,
			"createdAt":   baseTime.Add(time.Duration(i) * time.Minute),
			"status":      "open",
		}, false))
	}
}

func managerQuery(props []string) docstore.ScopedQuery {
	return docstore.ScopedQuery{
		Collection: docstore.CollectionComplaints,
		In:         &docstore.InClause{Field: "propertyId", Values: props},
		OrderBy:    &docstore.OrderBy{Field: "createdAt", Direction: docstore.Desc},
	}
}

func ids(docs []docstore.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}

type recorder[T any] struct {
	mu    sync.Mutex
	lists [][]T
}

func (r *recorder[T]) publish(items []T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists = append(r.lists, items)
}

func (r *recorder[T]) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lists)
}

func (r *recorder[T]) last() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.lists) == 0 {
		return nil
	}
	return r.lists[len(r.lists)-1]
}

func keepDocument(doc docstore.Document) (docstore.Document, bool) {
	return doc, true
}

func fixedPlan(q docstore.ScopedQuery) PlanFunc {
	return func(context.Context, string) (docstore.ScopedQuery, error) {
		return q, nil
	}
}

const (
	waitFor = 2 * time.Second
	tick    = 10 * time.Millisecond
)
