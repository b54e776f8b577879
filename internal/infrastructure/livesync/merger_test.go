package livesync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumisync/internal/domain/docstore"
	"lumisync/internal/domain/entity"
)

type mapLookup struct {
	mu       sync.Mutex
	profiles map[string]entity.Profile
	calls    int
	// gate, when set, blocks the first lookup until it is closed.
	gate chan struct{}
}

func (l *mapLookup) Lookup(ctx context.Context, userID string) (entity.Profile, error) {
	l.mu.Lock()
	l.calls++
	first := l.calls == 1
	gate := l.gate
	p, ok := l.profiles[userID]
	l.mu.Unlock()

	if first && gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return entity.Profile{}, ctx.Err()
		}
	}
	if !ok {
		return entity.Profile{}, errors.New("user not found")
	}
	return p, nil
}

func conv(id, text string, participants ...string) entity.Conversation {
	return entity.Conversation{
		ID:              id,
		Participants:    participants,
		LastMessageText: text,
		LastMessageAt:   baseTime,
	}
}

func TestMergerUpsertIsIdempotent(t *testing.T) {
	lookup := &mapLookup{profiles: map[string]entity.Profile{"u2": {UserID: "u2", Name: "Dana"}}}
	rec := &recorder[entity.ConversationTile]{}
	m := NewConversationMerger("u1", lookup, rec.publish)

	event := conv("u1_u2", "hi", "u1", "u2")
	assert.True(t, m.Apply(event))
	m.Apply(event)

	tiles := m.Tiles()
	require.Len(t, tiles, 1)
	assert.Equal(t, "u1_u2", tiles[0].ConversationID)
	assert.Equal(t, "u2", tiles[0].OtherUserID)
	assert.Equal(t, "Dana", tiles[0].OtherUserName)
}

func TestMergerReplacesInPlaceAndAppendsNew(t *testing.T) {
	lookup := &mapLookup{profiles: map[string]entity.Profile{
		"u2": {UserID: "u2", Name: "Dana"},
		"u3": {UserID: "u3", Name: "Sam"},
	}}
	rec := &recorder[entity.ConversationTile]{}
	m := NewConversationMerger("u1", lookup, rec.publish)

	m.Apply(conv("u1_u2", "first", "u1", "u2"))
	m.Apply(conv("u1_u3", "second", "u1", "u3"))
	m.Apply(conv("u1_u2", "third", "u1", "u2"))

	tiles := rec.last()
	require.Len(t, tiles, 2)
	assert.Equal(t, "u1_u2", tiles[0].ConversationID)
	assert.Equal(t, "third", tiles[0].LastMessageText)
	assert.Equal(t, "u1_u3", tiles[1].ConversationID)
	assert.Equal(t, 3, rec.count())
}

func TestMergerDropsMalformedConversations(t *testing.T) {
	lookup := &mapLookup{profiles: map[string]entity.Profile{}}
	rec := &recorder[entity.ConversationTile]{}
	m := NewConversationMerger("u1", lookup, rec.publish)

	assert.False(t, m.Apply(conv("solo", "x", "u1")))
	assert.False(t, m.Apply(conv("self", "x", "u1", "u1")))
	assert.False(t, m.Apply(conv("", "x", "u1", "u2")))
	assert.False(t, m.Apply(conv("none", "x")))

	assert.Empty(t, m.Tiles())
	assert.Zero(t, rec.count())
	assert.Zero(t, lookup.calls)
}

func TestMergerFallsBackOnFailedLookup(t *testing.T) {
	lookup := &mapLookup{profiles: map[string]entity.Profile{}}
	m := NewConversationMerger("u1", lookup, nil)

	assert.True(t, m.Apply(conv("u1_ghost", "hello", "u1", "ghost")))
	tiles := m.Tiles()
	require.Len(t, tiles, 1)
	assert.Equal(t, entity.FallbackDisplayName, tiles[0].OtherUserName)
	assert.Equal(t, "ghost", tiles[0].OtherUserID)
}

func TestMergerLatestEventWinsWhenLookupsReorder(t *testing.T) {
	gate := make(chan struct{})
	lookup := &mapLookup{
		profiles: map[string]entity.Profile{"u2": {UserID: "u2", Name: "Dana"}},
		gate:     gate,
	}
	m := NewConversationMerger("u1", lookup, nil)

	done := make(chan bool)
	go func() { done <- m.Apply(conv("u1_u2", "older", "u1", "u2")) }()
	assert.Eventually(t, func() bool {
		lookup.mu.Lock()
		defer lookup.mu.Unlock()
		return lookup.calls == 1
	}, waitFor, tick)

	assert.True(t, m.Apply(conv("u1_u2", "newer", "u1", "u2")))
	close(gate)
	assert.False(t, <-done)

	tiles := m.Tiles()
	require.Len(t, tiles, 1)
	assert.Equal(t, "newer", tiles[0].LastMessageText)
}

func TestMergerCloseDiscardsInFlightLookups(t *testing.T) {
	gate := make(chan struct{})
	lookup := &mapLookup{
		profiles: map[string]entity.Profile{"u2": {UserID: "u2", Name: "Dana"}},
		gate:     gate,
	}
	rec := &recorder[entity.ConversationTile]{}
	m := NewConversationMerger("u1", lookup, rec.publish)

	done := make(chan bool)
	go func() { done <- m.Apply(conv("u1_u2", "hi", "u1", "u2")) }()
	assert.Eventually(t, func() bool {
		lookup.mu.Lock()
		defer lookup.mu.Unlock()
		return lookup.calls == 1
	}, waitFor, tick)

	m.Close()
	assert.False(t, <-done)
	close(gate)

	assert.Empty(t, m.Tiles())
	assert.Zero(t, rec.count())
	assert.False(t, m.Apply(conv("u1_u2", "again", "u1", "u2")))
}

func TestConversationOverviewTracksConversations(t *testing.T) {
	store := newFaultyStore()
	ctx := context.Background()
	lookup := &mapLookup{profiles: map[string]entity.Profile{
		"u2": {UserID: "u2", Name: "Dana"},
		"u3": {UserID: "u3", Name: "Sam"},
	}}
	for id, participants := range map[string][]string{
		"u1_u2":  {"u1", "u2"},
		"u1_u3":  {"u1", "u3"},
		"broken": {"u1"},
		"u2_u3":  {"u2", "u3"},
	} {
		require.NoError(t, store.Set(ctx, docstore.CollectionConversations, id, map[string]interface{}{
			"participants":    participants,
			"lastMessageText": "hello",
			"lastMessageAt":   baseTime,
		}, false))
	}

	rec := &recorder[entity.ConversationTile]{}
	plan := func(_ context.Context, userID string) (docstore.ScopedQuery, error) {
		return docstore.ScopedQuery{
			Collection: docstore.CollectionConversations,
			Filters:    []docstore.Filter{docstore.ArrayContains("participants", userID)},
			OrderBy:    &docstore.OrderBy{Field: "lastMessageAt", Direction: docstore.Desc},
		}, nil
	}
	o := NewConversationOverview(store, NewBatchedFetcher(store, 10), plan, lookup, rec.publish)

	require.NoError(t, o.Activate(ctx, "u1"))
	assert.Eventually(t, func() bool { return len(o.Tiles()) == 2 }, waitFor, tick)

	require.NoError(t, store.Set(ctx, docstore.CollectionConversations, "u1_u2", map[string]interface{}{
		"lastMessageText": "rent is due",
		"lastMessageAt":   baseTime.Add(time.Hour),
	}, true))

	assert.Eventually(t, func() bool {
		for _, tile := range o.Tiles() {
			if tile.ConversationID == "u1_u2" {
				return tile.LastMessageText == "rent is due" && tile.OtherUserName == "Dana"
			}
		}
		return false
	}, waitFor, tick)
	assert.Len(t, o.Tiles(), 2)
	assert.Equal(t, StateLive, o.State())

	o.Deactivate()
	assert.Zero(t, store.ActiveSubscriptions(docstore.CollectionConversations))
	assert.Nil(t, o.Tiles())
	assert.NotPanics(t, o.Deactivate)
}

// slowLookup answers every lookup after a per-user delay.
type slowLookup struct {
	delays map[string]time.Duration
}

func (l slowLookup) Lookup(ctx context.Context, userID string) (entity.Profile, error) {
	select {
	case <-time.After(l.delays[userID]):
	case <-ctx.Done():
		return entity.Profile{}, ctx.Err()
	}
	return entity.Profile{UserID: userID, Name: userID}, nil
}

func participantPlan(_ context.Context, userID string) (docstore.ScopedQuery, error) {
	return docstore.ScopedQuery{
		Collection: docstore.CollectionConversations,
		Filters:    []docstore.Filter{docstore.ArrayContains("participants", userID)},
		OrderBy:    &docstore.OrderBy{Field: "lastMessageAt", Direction: docstore.Desc},
	}, nil
}

func TestConversationOverviewPublishesEmptyList(t *testing.T) {
	tests := []struct {
		name string
		docs map[string][]string
	}{
		{name: "no conversations"},
		{name: "only malformed conversations", docs: map[string][]string{
			"solo":  {"u1"},
			"self":  {"u1", "u1"},
			"blank": {"u1", ""},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFaultyStore()
			ctx := context.Background()
			for id, participants := range tt.docs {
				require.NoError(t, store.Set(ctx, docstore.CollectionConversations, id, map[string]interface{}{
					"participants":  participants,
					"lastMessageAt": baseTime,
				}, false))
			}

			rec := &recorder[entity.ConversationTile]{}
			lookup := &mapLookup{}
			o := NewConversationOverview(store, NewBatchedFetcher(store, 10), participantPlan, lookup, rec.publish)
			defer o.Deactivate()

			require.NoError(t, o.Activate(ctx, "u1"))
			assert.Eventually(t, func() bool { return rec.count() == 1 }, waitFor, tick)
			assert.NotNil(t, rec.last())
			assert.Empty(t, rec.last())
			assert.Zero(t, lookup.calls)
		})
	}
}

func TestConversationOverviewKeepsSnapshotOrder(t *testing.T) {
	store := newFaultyStore()
	ctx := context.Background()
	for i, peer := range []string{"u2", "u3", "u4"} {
		require.NoError(t, store.Set(ctx, docstore.CollectionConversations, "u1_"+peer, map[string]interface{}{
			"participants":    []string{"u1", peer},
			"lastMessageText": "hello",
			"lastMessageAt":   baseTime.Add(-time.Duration(i) * time.Hour),
		}, false))
	}

	lookup := slowLookup{delays: map[string]time.Duration{
		"u2": 150 * time.Millisecond,
		"u3": 80 * time.Millisecond,
	}}
	rec := &recorder[entity.ConversationTile]{}
	o := NewConversationOverview(store, NewBatchedFetcher(store, 10), participantPlan, lookup, rec.publish)
	defer o.Deactivate()

	require.NoError(t, o.Activate(ctx, "u1"))
	assert.Eventually(t, func() bool { return len(o.Tiles()) == 3 }, waitFor, tick)

	var got []string
	for _, tile := range o.Tiles() {
		got = append(got, tile.ConversationID)
	}
	assert.Equal(t, []string{"u1_u2", "u1_u3", "u1_u4"}, got)

	// Partial lists never show a reserved placeholder.
	for _, tile := range rec.last() {
		assert.NotEmpty(t, tile.OtherUserName)
	}
}

func TestMergerReserveFixesPositions(t *testing.T) {
	lookup := &mapLookup{profiles: map[string]entity.Profile{
		"u2": {UserID: "u2", Name: "Dana"},
		"u3": {UserID: "u3", Name: "Sam"},
	}}
	rec := &recorder[entity.ConversationTile]{}
	m := NewConversationMerger("u1", lookup, rec.publish)

	first, second := conv("u1_u2", "a", "u1", "u2"), conv("u1_u3", "b", "u1", "u3")
	m.Reserve([]entity.Conversation{first, second, conv("broken", "c", "u1")})
	assert.Zero(t, rec.count())
	assert.Empty(t, m.Tiles())

	require.True(t, m.Apply(second))
	require.Len(t, m.Tiles(), 1)
	assert.Equal(t, "u1_u3", m.Tiles()[0].ConversationID)

	require.True(t, m.Apply(first))
	tiles := m.Tiles()
	require.Len(t, tiles, 2)
	assert.Equal(t, "u1_u2", tiles[0].ConversationID)
	assert.Equal(t, "u1_u3", tiles[1].ConversationID)

	// Once a list was published an empty snapshot does not publish again.
	m.Reserve(nil)
	assert.Equal(t, 2, rec.count())

	m.Close()
	m.Reserve([]entity.Conversation{conv("u1_u4", "d", "u1", "u4")})
	assert.Len(t, m.Tiles(), 2)
}
