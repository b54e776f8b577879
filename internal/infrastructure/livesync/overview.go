package livesync

import (
	"context"
	"sync"

	"lumisync/internal/domain/docstore"
	"lumisync/internal/domain/entity"
)

// ConversationOverview keeps a user's conversation tiles current. The
// attachment lifecycle is a Synchronizer over conversation documents; every
// snapshot is fed document by document into a ConversationMerger that lives
// as long as one activation.
type ConversationOverview struct {
	sync    *Synchronizer[entity.Conversation]
	lookup  ProfileLookup
	publish func([]entity.ConversationTile)

	mu     sync.Mutex
	merger *ConversationMerger
}

func NewConversationOverview(
	store docstore.DocumentStore,
	fetcher *BatchedFetcher,
	plan PlanFunc,
	lookup ProfileLookup,
	publish func([]entity.ConversationTile),
) *ConversationOverview {
	o := &ConversationOverview{
		lookup:  lookup,
		publish: publish,
	}
	o.sync = NewSynchronizer(docstore.CollectionConversations, store, fetcher, plan, decodeConversation, o.onConversations)
	return o
}

func decodeConversation(doc docstore.Document) (entity.Conversation, bool) {
	return entity.ConversationFromDocument(doc), true
}

func (o *ConversationOverview) State() State {
	return o.sync.State()
}

func (o *ConversationOverview) Tiles() []entity.ConversationTile {
	o.mu.Lock()
	m := o.merger
	o.mu.Unlock()
	if m == nil {
		return nil
	}
	return m.Tiles()
}

func (o *ConversationOverview) Activate(ctx context.Context, userID string) error {
	o.sync.Deactivate()

	o.mu.Lock()
	if o.merger != nil {
		o.merger.Close()
	}
	o.merger = NewConversationMerger(userID, o.lookup, o.publish)
	o.mu.Unlock()

	return o.sync.Activate(ctx, userID)
}

func (o *ConversationOverview) Deactivate() {
	o.sync.Deactivate()

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.merger != nil {
		o.merger.Close()
		o.merger = nil
	}
}

func (o *ConversationOverview) onConversations(convs []entity.Conversation) {
	o.mu.Lock()
	m := o.merger
	o.mu.Unlock()
	if m == nil {
		return
	}
	m.Reserve(convs)
	for _, conv := range convs {
		go m.Apply(conv)
	}
}
