package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lumisync/internal/adapter/repository"
	"lumisync/internal/domain/docstore"
	domainrepo "lumisync/internal/domain/repository"
	"lumisync/internal/infrastructure/livesync"
	"lumisync/internal/infrastructure/ratelimit"
	"lumisync/internal/infrastructure/storage"
)

const (
	waitFor = 2 * time.Second
	tick    = 10 * time.Millisecond
)

type fixture struct {
	store    *repository.MemoryDocumentStore
	blobs    *storage.MemoryBlobStore
	resolver *RoleResolver
	tickets  *TicketUseCase
	chat     *ChatUseCase
	contacts *ContactUseCase
	screens  *ScreenUseCase
	clock    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewMemoryDocumentStore()
	f := &fixture{
		store: store,
		blobs: storage.NewMemoryBlobStore("https://blobs.test"),
		clock: time.Date(2024, 5, 17, 8, 30, 0, 0, time.UTC),
	}

	userRepo := repository.NewUserRepository(store)
	propertyRepo := repository.NewPropertyRepository(store)
	f.resolver = NewRoleResolver(userRepo)
	f.tickets = NewTicketUseCase(
		repository.NewTicketRepository(store),
		userRepo,
		propertyRepo,
		f.resolver,
		f.blobs,
		ratelimit.NewRateLimiter(),
	)
	f.tickets.now = f.tick
	f.chat = NewChatUseCase(
		repository.NewConversationRepository(store),
		userRepo,
		propertyRepo,
		f.resolver,
		ratelimit.NewRateLimiter(),
	)
	f.chat.now = f.tick
	f.contacts = NewContactUseCase(repository.NewContactRepository(store), f.resolver, ratelimit.NewRateLimiter())
	f.contacts.now = f.tick
	f.screens = NewScreenUseCase(store, livesync.NewBatchedFetcher(store, 10), f.resolver, NewProfileUseCase(userRepo))

	f.seed(t)
	return f
}

// tick advances the clock by a minute per call.
func (f *fixture) tick() time.Time {
	f.clock = f.clock.Add(time.Minute)
	return f.clock
}

func (f *fixture) put(t *testing.T, collection, id string, fields map[string]interface{}) {
	t.Helper()
	require.NoError(t, f.store.Set(context.Background(), collection, id, fields, false))
}

// seed writes two managers, three renters and three properties.
//
//	m1 manages p1 and p2, active p1. m2 manages p3.
//	r1 rents room 4B of p1 via renters/r1. r2 has only users.propertyId p2.
//	x1 has no role.
func (f *fixture) seed(t *testing.T) {
	f.put(t, docstore.CollectionUsers, "m1", map[string]interface{}{
		"userType":         "manager",
		"name":             "Morgan",
		"profileImageUrl":  "https://img/m1.jpg",
		"managerOf":        []interface{}{"p1", "p2"},
		"activePropertyId": "p1",
	})
	f.put(t, docstore.CollectionUsers, "m2", map[string]interface{}{
		"userType":  "Manager",
		"name":      "Quinn",
		"managerOf": []string{"p3"},
	})
	f.put(t, docstore.CollectionUsers, "r1", map[string]interface{}{
		"userType":   "renter",
		"name":       "Riley",
		"propertyId": "p-stale",
	})
	f.put(t, docstore.CollectionRenters, "r1", map[string]interface{}{
		"propertyId":   "p1",
		"propertyName": "Maple Court",
		"roomNumber":   "4B",
	})
	f.put(t, docstore.CollectionUsers, "r2", map[string]interface{}{
		"userType":   "renter",
		"name":       "Avery",
		"propertyId": "p2",
		"roomNumber": "7",
	})
	f.put(t, docstore.CollectionUsers, "x1", map[string]interface{}{
		"name": "Nobody",
	})
	f.put(t, docstore.CollectionProperties, "p1", map[string]interface{}{
		"name": "Maple Court", "address": "1 Maple St", "ownerUid": "m1",
	})
	f.put(t, docstore.CollectionProperties, "p2", map[string]interface{}{
		"name": "Birch House", "managerId": "m1",
	})
	f.put(t, docstore.CollectionProperties, "p3", map[string]interface{}{
		"name": "Cedar Flats", "address": "3 Cedar Rd", "ownerUid": "m2",
	})
}

var errStoreDown = errors.New("store unavailable")

// failingStore fails every write and every read of the listed collections.
type failingStore struct {
	*repository.MemoryDocumentStore
	failReads map[string]bool
}

func (s *failingStore) Get(ctx context.Context, collection, id string) (*docstore.Document, error) {
	if s.failReads[collection] {
		return nil, errStoreDown
	}
	return s.MemoryDocumentStore.Get(ctx, collection, id)
}

func (s *failingStore) Add(context.Context, string, map[string]interface{}) (string, error) {
	return "", errStoreDown
}

func (s *failingStore) Set(context.Context, string, string, map[string]interface{}, bool) error {
	return errStoreDown
}

func (s *failingStore) Update(context.Context, string, string, map[string]interface{}) error {
	return errStoreDown
}

func repositoryOver(store docstore.DocumentStore) domainrepo.TicketRepository {
	return repository.NewTicketRepository(store)
}
