package rbac

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolverUnionsDirectAndRoleInheritedGrants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	userID := f.createUser(t, "darin@example.com")
	roleID := f.createRole(t, "operators")
	directPerm := f.createPermission(t, "reports.view")
	rolePerm := f.createPermission(t, "jobs.run")

	_, err := f.store.GrantUserPermission(ctx, userID, directPerm)
	require.NoError(t, err)
	_, err = f.store.AssignUserRole(ctx, userID, roleID)
	require.NoError(t, err)
	_, err = f.store.GrantRolePermission(ctx, roleID, rolePerm)
	require.NoError(t, err)

	resolver := NewResolver(f.db)
	perms, err := resolver.EffectivePermissionsForUser(ctx, userID)
	require.NoError(t, err)

	assert.Equal(t, []string{"jobs.run", "reports.view"}, perms.Sorted())
}

func TestResolverDeduplicatesOverlappingGrants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	userID := f.createUser(t, "darin@example.com")
	roleID := f.createRole(t, "operators")
	permID := f.createPermission(t, "jobs.run")

	// granted both directly and through the role
	_, err := f.store.GrantUserPermission(ctx, userID, permID)
	require.NoError(t, err)
	_, err = f.store.AssignUserRole(ctx, userID, roleID)
	require.NoError(t, err)
	_, err = f.store.GrantRolePermission(ctx, roleID, permID)
	require.NoError(t, err)

	resolver := NewResolver(f.db)
	perms, err := resolver.EffectivePermissionsForUser(ctx, userID)
	require.NoError(t, err)

	assert.Equal(t, []string{"jobs.run"}, perms.Sorted())
}

func TestResolverUserWithNoAssignments(t *testing.T) {
	f := newFixture(t)

	userID := f.createUser(t, "nobody@example.com")

	resolver := NewResolver(f.db)
	perms, err := resolver.EffectivePermissionsForUser(context.Background(), userID)
	require.NoError(t, err)

	assert.Empty(t, perms)
}

func TestResolverRolesUnion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	roleA := f.createRole(t, "readers")
	roleB := f.createRole(t, "writers")
	permA := f.createPermission(t, "docs.read")
	permB := f.createPermission(t, "docs.write")
	shared := f.createPermission(t, "docs.list")

	for _, grant := range []struct{ roleID, permID int64 }{
		{roleA, permA},
		{roleA, shared},
		{roleB, permB},
		{roleB, shared},
	} {
		_, err := f.store.GrantRolePermission(ctx, grant.roleID, grant.permID)
		require.NoError(t, err)
	}

	resolver := NewResolver(f.db)

	perms, err := resolver.EffectivePermissionsForRoles(ctx, NewRoleSet(roleA, roleB))
	require.NoError(t, err)
	assert.Equal(t, []string{"docs.list", "docs.read", "docs.write"}, perms.Sorted())

	perms, err = resolver.EffectivePermissionsForRoles(ctx, NewRoleSet(roleA))
	require.NoError(t, err)
	assert.Equal(t, []string{"docs.list", "docs.read"}, perms.Sorted())
}

func TestResolverRolesExcludesDirectUserGrants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	userID := f.createUser(t, "darin@example.com")
	roleID := f.createRole(t, "operators")
	directPerm := f.createPermission(t, "reports.view")
	rolePerm := f.createPermission(t, "jobs.run")

	_, err := f.store.GrantUserPermission(ctx, userID, directPerm)
	require.NoError(t, err)
	_, err = f.store.AssignUserRole(ctx, userID, roleID)
	require.NoError(t, err)
	_, err = f.store.GrantRolePermission(ctx, roleID, rolePerm)
	require.NoError(t, err)

	resolver := NewResolver(f.db)
	perms, err := resolver.EffectivePermissionsForRoles(ctx, NewRoleSet(roleID))
	require.NoError(t, err)

	assert.Equal(t, []string{"jobs.run"}, perms.Sorted())
}

func TestResolverEmptyRoleSetSkipsQuery(t *testing.T) {
	// a nil handle proves the empty set never reaches the database
	resolver := NewResolver(nil)

	perms, err := resolver.EffectivePermissionsForRoles(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, perms)
}

func TestResolverUserQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT p.name").WillReturnError(assert.AnError)

	resolver := NewResolver(db)
	_, err = resolver.EffectivePermissionsForUser(context.Background(), 42)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to query role-inherited permissions")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolverRolesQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT DISTINCT p.name").WillReturnError(assert.AnError)

	resolver := NewResolver(db)
	_, err = resolver.EffectivePermissionsForRoles(context.Background(), NewRoleSet(1, 2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to query role permissions")
	assert.NoError(t, mock.ExpectationsWereMet())
}
