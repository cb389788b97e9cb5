package rbac

import (
	"context"
	"database/sql"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/permcache/pkg/observability"
	"github.com/platinummonkey/permcache/pkg/store"
)

func testLogger() *observability.Logger {
	return observability.NewLogger(observability.ErrorLevel, io.Discard)
}

// fixture bundles a seeded in-memory database with the store handles the
// tests mutate through.
type fixture struct {
	db    *sql.DB
	store *store.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := store.SetupTestDB(t)
	return &fixture{
		db:    db,
		store: store.NewStore(db),
	}
}

func (f *fixture) createUser(t *testing.T, email string) int64 {
	t.Helper()

	user := &store.User{Email: email}
	require.NoError(t, f.store.CreateUser(context.Background(), user))
	return user.ID
}

func (f *fixture) createRole(t *testing.T, name string) int64 {
	t.Helper()

	role := &store.Role{Name: name}
	require.NoError(t, f.store.CreateRole(context.Background(), role))
	return role.ID
}

func (f *fixture) createPermission(t *testing.T, name string) int64 {
	t.Helper()

	perm := &store.Permission{Name: name, ObjectType: store.ObjectTypeProcess}
	require.NoError(t, f.store.CreatePermission(context.Background(), perm))
	return perm.ID
}
