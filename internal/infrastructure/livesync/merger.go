package livesync

import (
	"context"
	"sync"

	"lumisync/internal/domain/docstore"
	"lumisync/internal/domain/entity"
	"lumisync/pkg/errors"
	"lumisync/pkg/logger"
)

// ProfileLookup resolves a user's display identity. It is a plain read, the
// result is not kept live.
type ProfileLookup interface {
	Lookup(ctx context.Context, userID string) (entity.Profile, error)
}

// ConversationMerger folds per-conversation events into one overview list.
// Each event needs a profile lookup and lookups may finish in any order, so
// events are numbered on arrival and an older event never overwrites a
// newer one. Existing tiles are replaced in place, new ones are appended
// unless Reserve already fixed their position.
type ConversationMerger struct {
	userID  string
	lookup  ProfileLookup
	publish func([]entity.ConversationTile)
	ctx     context.Context
	cancel  context.CancelFunc

	mu      sync.Mutex
	nextSeq uint64
	applied map[string]uint64
	seen    map[string]entity.Conversation
	index   map[string]int
	tiles   []entity.ConversationTile
	// ready[i] is false while tiles[i] is a reserved slot awaiting its lookup.
	ready     []bool
	published bool
	closed    bool
}

func NewConversationMerger(userID string, lookup ProfileLookup, publish func([]entity.ConversationTile)) *ConversationMerger {
	ctx, cancel := context.WithCancel(context.Background())
	return &ConversationMerger{
		userID:  userID,
		lookup:  lookup,
		publish: publish,
		ctx:     ctx,
		cancel:  cancel,
		applied: make(map[string]uint64),
		seen:    make(map[string]entity.Conversation),
		index:   make(map[string]int),
	}
}

// Apply resolves the peer of conv and upserts its tile. It reports whether
// the list changed. Malformed conversations are dropped and a conversation
// identical to the last one applied for its id is skipped without a lookup.
func (m *ConversationMerger) Apply(conv entity.Conversation) bool {
	other, ok := m.peer(conv)
	if !ok {
		logger.Debug("Dropping conversation: %v",
			errors.MalformedDocument(docstore.CollectionConversations, conv.ID, "no distinct peer"))
		return false
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	if prev, ok := m.seen[conv.ID]; ok && sameConversation(prev, conv) {
		m.mu.Unlock()
		return false
	}
	m.seen[conv.ID] = conv
	m.nextSeq++
	seq := m.nextSeq
	m.mu.Unlock()

	profile, err := m.lookup.Lookup(m.ctx, other)
	if err != nil {
		logger.Warn("Profile lookup for %s failed: %v", other, err)
		profile = entity.Profile{UserID: other}
	}
	if profile.Name == "" {
		profile.Name = entity.FallbackDisplayName
	}

	tile := entity.ConversationTile{
		ConversationID:    conv.ID,
		OtherUserID:       other,
		OtherUserName:     profile.Name,
		OtherUserPhotoURL: profile.PhotoURL,
		LastMessageText:   conv.LastMessageText,
		LastMessageAt:     conv.LastMessageAt,
		LastSenderID:      conv.LastSenderID,
		PropertyID:        conv.PropertyID,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || seq < m.applied[conv.ID] {
		return false
	}
	m.applied[conv.ID] = seq

	if i, ok := m.index[conv.ID]; ok {
		m.tiles[i] = tile
		m.ready[i] = true
	} else {
		m.index[conv.ID] = len(m.tiles)
		m.tiles = append(m.tiles, tile)
		m.ready = append(m.ready, true)
	}
	m.publishLocked()
	return true
}

// Reserve fixes the position of every new conversation in convs, in
// snapshot order, before any lookup for them runs. If the snapshot holds
// nothing that can become a tile and no list was published yet, the current
// list is published so the screen does not wait for a tile that never comes.
func (m *ConversationMerger) Reserve(convs []entity.Conversation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}

	applicable := 0
	for _, conv := range convs {
		if _, ok := m.peer(conv); !ok {
			continue
		}
		applicable++
		if _, ok := m.index[conv.ID]; ok {
			continue
		}
		m.index[conv.ID] = len(m.tiles)
		m.tiles = append(m.tiles, entity.ConversationTile{ConversationID: conv.ID})
		m.ready = append(m.ready, false)
	}
	if applicable == 0 && !m.published {
		m.publishLocked()
	}
}

func (m *ConversationMerger) Tiles() []entity.ConversationTile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readyTilesLocked()
}

func (m *ConversationMerger) peer(conv entity.Conversation) (string, bool) {
	if conv.ID == "" {
		return "", false
	}
	return conv.OtherParticipant(m.userID)
}

func (m *ConversationMerger) readyTilesLocked() []entity.ConversationTile {
	out := make([]entity.ConversationTile, 0, len(m.tiles))
	for i, tile := range m.tiles {
		if m.ready[i] {
			out = append(out, tile)
		}
	}
	return out
}

func (m *ConversationMerger) publishLocked() {
	m.published = true
	if m.publish != nil {
		m.publish(m.readyTilesLocked())
	}
}

// Close discards every lookup still in flight.
func (m *ConversationMerger) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.cancel()
}

func sameConversation(a, b entity.Conversation) bool {
	if a.ID != b.ID ||
		a.LastMessageText != b.LastMessageText ||
		!a.LastMessageAt.Equal(b.LastMessageAt) ||
		a.LastSenderID != b.LastSenderID ||
		a.PropertyID != b.PropertyID ||
		len(a.Participants) != len(b.Participants) {
		return false
	}
	for i := range a.Participants {
		if a.Participants[i] != b.Participants[i] {
			return false
		}
	}
	return true
}
