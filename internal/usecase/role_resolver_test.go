package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"lumisync/internal/adapter/repository"
	"lumisync/internal/domain/docstore"
	"lumisync/internal/domain/entity"
)

func TestResolveManagerScope(t *testing.T) {
	f := newFixture(t)

	scope := f.resolver.Resolve(context.Background(), "m1")

	assert.Equal(t, entity.RoleManager, scope.Role)
	assert.Equal(t, []string{"p1", "p2"}, scope.PropertyIDs)
	assert.Equal(t, "p1", scope.ActivePropertyID)

	scope = f.resolver.Resolve(context.Background(), "m2")
	assert.Equal(t, entity.RoleManager, scope.Role)
	assert.Equal(t, []string{"p3"}, scope.PropertyIDs)
	assert.Empty(t, scope.ActivePropertyID)
}

func TestResolveIgnoresActivePropertyOutsideScope(t *testing.T) {
	f := newFixture(t)
	f.put(t, docstore.CollectionUsers, "m3", map[string]interface{}{
		"userType":         "manager",
		"managerOf":        []string{"p3", "p3", ""},
		"activePropertyId": "p1",
	})

	scope := f.resolver.Resolve(context.Background(), "m3")

	assert.Equal(t, []string{"p3"}, scope.PropertyIDs)
	assert.Empty(t, scope.ActivePropertyID)
}

func TestResolveRenterScope(t *testing.T) {
	f := newFixture(t)

	scope := f.resolver.Resolve(context.Background(), "r1")
	assert.Equal(t, entity.RoleRenter, scope.Role)
	assert.Equal(t, []string{"p1"}, scope.PropertyIDs)
	assert.Equal(t, "4B", scope.RoomNumber)

	scope = f.resolver.Resolve(context.Background(), "r2")
	assert.Equal(t, []string{"p2"}, scope.PropertyIDs)
	assert.Equal(t, "7", scope.RoomNumber)
}

func TestResolveFailsSoftToRestrictedScope(t *testing.T) {
	f := newFixture(t)

	for _, uid := range []string{"x1", "missing"} {
		scope := f.resolver.Resolve(context.Background(), uid)
		assert.Equal(t, entity.RestrictedScope(uid), scope, uid)
		assert.False(t, scope.IsManager())
		assert.Empty(t, scope.PropertyIDs)
	}

	broken := &failingStore{
		MemoryDocumentStore: f.store,
		failReads:           map[string]bool{docstore.CollectionUsers: true},
	}
	scope := NewRoleResolver(repository.NewUserRepository(broken)).Resolve(context.Background(), "m1")
	assert.Equal(t, entity.RestrictedScope("m1"), scope)
}

func TestResolveRenterWithUnreadableTenancyUsesUserDocument(t *testing.T) {
	f := newFixture(t)
	broken := &failingStore{
		MemoryDocumentStore: f.store,
		failReads:           map[string]bool{docstore.CollectionRenters: true},
	}

	scope := NewRoleResolver(repository.NewUserRepository(broken)).Resolve(context.Background(), "r1")

	assert.Equal(t, entity.RoleRenter, scope.Role)
	assert.Equal(t, []string{"p-stale"}, scope.PropertyIDs)
}

func TestResolveReadsFreshEveryTime(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, "p1", f.resolver.Resolve(context.Background(), "m1").ActivePropertyID)

	f.put(t, docstore.CollectionUsers, "m1", map[string]interface{}{
		"userType":         "manager",
		"managerOf":        []string{"p1", "p2"},
		"activePropertyId": "p2",
	})
	assert.Equal(t, "p2", f.resolver.Resolve(context.Background(), "m1").ActivePropertyID)
}
