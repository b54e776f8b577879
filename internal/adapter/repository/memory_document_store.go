package repository

import (
	"context"
	"reflect"
	"strings"
	"sync"

	"github.com/google/uuid"

	"lumisync/internal/domain/docstore"
	"lumisync/pkg/errors"
)

// MemoryDocumentStore is a process-local DocumentStore. It backs
// DOCUMENT_STORE=memory and the tests. Queries follow Firestore semantics
// closely enough for the sync layer: ordered queries skip documents without
// the order field, and every write pushes a fresh snapshot to the live
// queries on that collection.
type MemoryDocumentStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]interface{}
	subs        map[uint64]*memorySubscription
	nextSub     uint64
}

func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{
		collections: make(map[string]map[string]map[string]interface{}),
		subs:        make(map[uint64]*memorySubscription),
	}
}

var _ docstore.DocumentStore = (*MemoryDocumentStore)(nil)

func (s *MemoryDocumentStore) Get(ctx context.Context, collection, id string) (*docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.collections[collection][id]
	if !ok {
		return nil, errors.NotFound(collection+"/"+id, nil)
	}
	return &docstore.Document{ID: id, Data: copyFields(data)}, nil
}

func (s *MemoryDocumentStore) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.run(q), nil
}

func (s *MemoryDocumentStore) run(q docstore.Query) []docstore.Document {
	var docs []docstore.Document
	for id, data := range s.collections[q.Collection] {
		if !matchAll(data, q.Filters) {
			continue
		}
		if q.OrderBy != nil {
			if _, ok := data[q.OrderBy.Field]; !ok {
				continue
			}
		}
		docs = append(docs, docstore.Document{ID: id, Data: copyFields(data)})
	}
	docstore.SortDocuments(docs, q.OrderBy)
	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs
}

type memorySubscription struct {
	store  *MemoryDocumentStore
	key    uint64
	query  docstore.Query
	fn     docstore.SnapshotFunc
	notify chan struct{}
	done   chan struct{}
	once   sync.Once
}

func (s *memorySubscription) Unsubscribe() {
	s.once.Do(func() {
		close(s.done)
		s.store.mu.Lock()
		delete(s.store.subs, s.key)
		s.store.mu.Unlock()
	})
}

func (s *memorySubscription) poke() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// loop delivers snapshots in order. Writes that land while a snapshot is
// being delivered coalesce into one follow-up snapshot.
func (s *memorySubscription) loop(ctx context.Context) {
	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			s.Unsubscribe()
			return
		case <-s.notify:
		}

		s.store.mu.RLock()
		docs := s.store.run(s.query)
		s.store.mu.RUnlock()

		select {
		case <-s.done:
			return
		default:
		}
		s.fn(docs, nil)
	}
}

func (s *MemoryDocumentStore) Subscribe(ctx context.Context, q docstore.Query, fn docstore.SnapshotFunc) (docstore.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.nextSub++
	sub := &memorySubscription{
		store:  s,
		key:    s.nextSub,
		query:  q,
		fn:     fn,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	s.subs[sub.key] = sub
	s.mu.Unlock()

	sub.poke()
	go sub.loop(ctx)
	return sub, nil
}

// ActiveSubscriptions counts live queries, optionally for one collection.
func (s *MemoryDocumentStore) ActiveSubscriptions(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, sub := range s.subs {
		if collection == "" || sub.query.Collection == collection {
			n++
		}
	}
	return n
}

func (s *MemoryDocumentStore) Add(ctx context.Context, collection string, fields map[string]interface{}) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
	s.write(collection, id, func(_ map[string]interface{}) map[string]interface{} {
		return copyFields(fields)
	})
	return id, nil
}

func (s *MemoryDocumentStore) Set(ctx context.Context, collection, id string, fields map[string]interface{}, merge bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.write(collection, id, func(existing map[string]interface{}) map[string]interface{} {
		if !merge || existing == nil {
			return copyFields(fields)
		}
		for k, v := range fields {
			existing[k] = v
		}
		return existing
	})
	return nil
}

func (s *MemoryDocumentStore) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	_, ok := s.collections[collection][id]
	s.mu.RUnlock()
	if !ok {
		return errors.NotFound(collection+"/"+id, nil)
	}
	return s.Set(ctx, collection, id, fields, true)
}

func (s *MemoryDocumentStore) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.write(collection, id, func(_ map[string]interface{}) map[string]interface{} {
		return nil
	})
	return nil
}

// write applies mutate under the lock. A nil result deletes the document.
func (s *MemoryDocumentStore) write(collection, id string, mutate func(existing map[string]interface{}) map[string]interface{}) {
	s.mu.Lock()
	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]map[string]interface{})
		s.collections[collection] = docs
	}
	next := mutate(docs[id])
	if next == nil {
		delete(docs, id)
	} else {
		docs[id] = next
	}
	var affected []*memorySubscription
	for _, sub := range s.subs {
		if sub.query.Collection == collection {
			affected = append(affected, sub)
		}
	}
	s.mu.Unlock()

	for _, sub := range affected {
		sub.poke()
	}
}

func matchAll(data map[string]interface{}, filters []docstore.Filter) bool {
	for _, f := range filters {
		if !match(data, f) {
			return false
		}
	}
	return true
}

func match(data map[string]interface{}, f docstore.Filter) bool {
	v, ok := data[f.Field]
	if !ok {
		return false
	}
	switch f.Op {
	case docstore.OpEqual:
		return equalValues(v, f.Value)
	case docstore.OpIn:
		for _, candidate := range asSlice(f.Value) {
			if equalValues(v, candidate) {
				return true
			}
		}
		return false
	case docstore.OpArrayContains:
		for _, item := range asSlice(v) {
			if equalValues(item, f.Value) {
				return true
			}
		}
		return false
	}
	return false
}

func asSlice(v interface{}) []interface{} {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	out := make([]interface{}, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func equalValues(a, b interface{}) bool {
	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		return ok && as == bs
	}
	return reflect.DeepEqual(a, b)
}

func copyFields(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
