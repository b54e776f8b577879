package livesync

import (
	"context"
	"sync"

	"lumisync/internal/domain/docstore"
	"lumisync/pkg/errors"
	"lumisync/pkg/logger"
)

// PlanFunc resolves what the screen reads for userID. It is called on every
// activation so role and scope are never reused across activations.
type PlanFunc func(ctx context.Context, userID string) (docstore.ScopedQuery, error)

// DecodeFunc converts a document into a list item. Returning false drops the
// document from the published list.
type DecodeFunc[T any] func(doc docstore.Document) (T, bool)

// PublishFunc receives the full materialised list on every change. It is
// called with the synchronizer's lock held and must not call back into it.
type PublishFunc[T any] func(items []T)

// Synchronizer keeps one screen's list in sync with the store.
//
// Activate attaches listeners for the planned query and publishes every
// snapshot. A listener error switches to a single unordered one-shot read
// and the list stays there until the next activation. Callbacks from an
// attachment that is no longer current are discarded.
type Synchronizer[T any] struct {
	name    string
	store   docstore.DocumentStore
	fetcher *BatchedFetcher
	plan    PlanFunc
	decode  DecodeFunc[T]
	publish PublishFunc[T]

	mu        sync.Mutex
	state     State
	gen       uint64
	current   *attachment
	published bool
	last      []T
}

func NewSynchronizer[T any](
	name string,
	store docstore.DocumentStore,
	fetcher *BatchedFetcher,
	plan PlanFunc,
	decode DecodeFunc[T],
	publish PublishFunc[T],
) *Synchronizer[T] {
	return &Synchronizer[T]{
		name:    name,
		store:   store,
		fetcher: fetcher,
		plan:    plan,
		decode:  decode,
		publish: publish,
	}
}

func (s *Synchronizer[T]) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Items returns a copy of the last published list.
func (s *Synchronizer[T]) Items() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]T(nil), s.last...)
}

// Activate detaches whatever is attached, plans the query for userID and
// attaches to it. Only a planning failure is returned; listener failures
// are handled by degrading.
func (s *Synchronizer[T]) Activate(ctx context.Context, userID string) error {
	s.mu.Lock()
	s.detachLocked()
	s.gen++
	gen := s.gen
	s.transitionLocked(StateAttaching)
	s.mu.Unlock()

	query, err := s.plan(ctx, userID)
	if err != nil {
		s.mu.Lock()
		if s.gen == gen {
			s.transitionLocked(StateDetached)
		}
		s.mu.Unlock()
		logger.Error("Failed to plan %s for user %s: %v", s.name, userID, err)
		return err
	}

	att := newAttachment(gen, query)

	s.mu.Lock()
	if s.gen != gen {
		// Deactivated or re-activated while planning.
		s.mu.Unlock()
		att.release()
		return nil
	}
	s.current = att
	s.mu.Unlock()

	onSnapshot := func(docs []docstore.Document, err error) {
		s.handleSnapshot(att, docs, err)
	}

	var sub docstore.Subscription
	if query.Batched() {
		sub, err = s.fetcher.Subscribe(att.ctx, query, onSnapshot)
	} else {
		sub, err = s.store.Subscribe(att.ctx, query.Single(), onSnapshot)
	}
	if err != nil {
		s.handleSnapshot(att, nil, errors.Subscription(query.Collection, err))
		return nil
	}
	att.add(sub)
	return nil
}

// Deactivate releases the current attachment. It is safe to call at any time
// and any number of times.
func (s *Synchronizer[T]) Deactivate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.detachLocked()
}

func (s *Synchronizer[T]) detachLocked() {
	if s.current != nil {
		s.current.release()
		s.current = nil
	}
	if s.state != StateDetached {
		s.transitionLocked(StateDetached)
	}
}

func (s *Synchronizer[T]) transitionLocked(to State) bool {
	if !canTransition(s.state, to) {
		logger.Warn("Ignoring %s transition %s -> %s", s.name, s.state, to)
		return false
	}
	logger.Debug("%s: %s -> %s", s.name, s.state, to)
	s.state = to
	return true
}

func (s *Synchronizer[T]) handleSnapshot(att *attachment, docs []docstore.Document, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != att {
		return
	}

	if err != nil {
		if s.state == StateDegraded {
			return
		}
		logger.Warn("Live %s failed, falling back to one-shot read: %v", s.name, err)
		if !s.transitionLocked(StateDegraded) {
			return
		}
		att.closeListeners()
		go s.fallback(att)
		return
	}

	switch s.state {
	case StateAttaching:
		s.transitionLocked(StateLive)
	case StateLive:
	default:
		return
	}
	s.publishLocked(docs)
}

// fallback reads the same filters once without ordering and sorts locally.
func (s *Synchronizer[T]) fallback(att *attachment) {
	var (
		docs []docstore.Document
		err  error
	)
	if att.query.Batched() {
		docs, err = s.fetcher.Fetch(att.ctx, att.query, false)
	} else {
		docs, err = s.store.Query(att.ctx, att.query.Single().WithoutOrder())
		if err == nil {
			docstore.SortDocuments(docs, att.query.OrderBy)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != att || s.state != StateDegraded {
		return
	}

	if err != nil {
		var fe *FetchError
		if !errors.As(err, &fe) || fe.All() {
			logger.Error("Fallback read of %s failed, keeping %d items: %v", s.name, len(s.last), err)
			if !s.published {
				s.publishItemsLocked([]T{})
			}
			return
		}
	}
	s.publishLocked(docs)
}

func (s *Synchronizer[T]) publishLocked(docs []docstore.Document) {
	items := make([]T, 0, len(docs))
	for _, doc := range docs {
		item, ok := s.decode(doc)
		if !ok {
			continue
		}
		items = append(items, item)
	}
	s.publishItemsLocked(items)
}

func (s *Synchronizer[T]) publishItemsLocked(items []T) {
	s.last = items
	s.published = true
	if s.publish != nil {
		out := make([]T, len(items))
		copy(out, items)
		s.publish(out)
	}
}
