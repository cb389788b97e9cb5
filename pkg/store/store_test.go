package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingHooks captures every notification a store dispatches for the
// user_permissions junction.
type recordingHooks struct {
	inserted []UserPermission
	updated  []UserPermission
	prior    []UserPermission
	deleted  []UserPermission
	err      error
}

func (h *recordingHooks) PostInsert(ctx context.Context, rows []UserPermission) error {
	h.inserted = append(h.inserted, rows...)
	return h.err
}

func (h *recordingHooks) PostUpdate(ctx context.Context, rows, oldRows []UserPermission) error {
	h.updated = append(h.updated, rows...)
	h.prior = append(h.prior, oldRows...)
	return h.err
}

func (h *recordingHooks) PostDelete(ctx context.Context, rows []UserPermission) error {
	h.deleted = append(h.deleted, rows...)
	return h.err
}

func seedEntities(t *testing.T, s *Store) (userID, roleID, permID int64) {
	t.Helper()
	ctx := context.Background()

	user := &User{Email: "darin@example.com", FullName: "Darin Kelkhoff"}
	require.NoError(t, s.CreateUser(ctx, user))

	role := &Role{Name: "operators", Description: "runs jobs"}
	require.NoError(t, s.CreateRole(ctx, role))

	perm := &Permission{Name: "jobs.run", ObjectType: ObjectTypeProcess, ObjectLabel: "runJob"}
	require.NoError(t, s.CreatePermission(ctx, perm))

	return user.ID, role.ID, perm.ID
}

func TestCreateEntitiesPopulateIDs(t *testing.T) {
	s := NewStore(SetupTestDB(t))

	userID, roleID, permID := seedEntities(t, s)
	assert.Positive(t, userID)
	assert.Positive(t, roleID)
	assert.Positive(t, permID)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	s := NewStore(SetupTestDB(t))
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, &User{Email: "dup@example.com"}))

	err := s.CreateUser(ctx, &User{Email: "dup@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create user")
}

func TestCreatePermissionRejectsUnknownObjectType(t *testing.T) {
	s := NewStore(SetupTestDB(t))

	err := s.CreatePermission(context.Background(), &Permission{
		Name:       "jobs.run",
		ObjectType: ObjectType("bogus"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid object type")
}

func TestGetPermissionByName(t *testing.T) {
	s := NewStore(SetupTestDB(t))
	_, _, permID := seedEntities(t, s)

	perm, err := s.GetPermissionByName(context.Background(), "jobs.run")
	require.NoError(t, err)
	assert.Equal(t, permID, perm.ID)
	assert.Equal(t, ObjectTypeProcess, perm.ObjectType)
	assert.Equal(t, "runJob", perm.ObjectLabel)

	_, err = s.GetPermissionByName(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission not found")
}

func TestGrantUserPermissionDispatchesPostInsert(t *testing.T) {
	s := NewStore(SetupTestDB(t))
	userID, _, permID := seedEntities(t, s)

	hooks := &recordingHooks{}
	s.RegisterUserPermissionHooks(hooks)

	row, err := s.GrantUserPermission(context.Background(), userID, permID)
	require.NoError(t, err)
	assert.Positive(t, row.ID)

	require.Len(t, hooks.inserted, 1)
	assert.Equal(t, *row, hooks.inserted[0])
}

func TestUpdateUserPermissionDispatchesPriorRow(t *testing.T) {
	s := NewStore(SetupTestDB(t))
	ctx := context.Background()
	userID, _, permID := seedEntities(t, s)
	other := &User{Email: "other@example.com"}
	require.NoError(t, s.CreateUser(ctx, other))

	row, err := s.GrantUserPermission(ctx, userID, permID)
	require.NoError(t, err)

	hooks := &recordingHooks{}
	s.RegisterUserPermissionHooks(hooks)

	moved := *row
	moved.UserID = other.ID
	require.NoError(t, s.UpdateUserPermission(ctx, moved))

	require.Len(t, hooks.updated, 1)
	require.Len(t, hooks.prior, 1)
	assert.Equal(t, other.ID, hooks.updated[0].UserID)
	assert.Equal(t, userID, hooks.prior[0].UserID)
}

func TestRevokeUserPermissionDispatchesDeletedRow(t *testing.T) {
	s := NewStore(SetupTestDB(t))
	ctx := context.Background()
	userID, _, permID := seedEntities(t, s)

	row, err := s.GrantUserPermission(ctx, userID, permID)
	require.NoError(t, err)

	hooks := &recordingHooks{}
	s.RegisterUserPermissionHooks(hooks)

	require.NoError(t, s.RevokeUserPermission(ctx, row.ID))

	require.Len(t, hooks.deleted, 1)
	assert.Equal(t, *row, hooks.deleted[0])

	err = s.RevokeUserPermission(ctx, row.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user permission not found")
}

func TestHookErrorFailsMutation(t *testing.T) {
	s := NewStore(SetupTestDB(t))
	userID, _, permID := seedEntities(t, s)

	hooks := &recordingHooks{err: errors.New("cache unavailable")}
	s.RegisterUserPermissionHooks(hooks)

	_, err := s.GrantUserPermission(context.Background(), userID, permID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "post-insert hook failed")
	assert.Contains(t, err.Error(), "cache unavailable")
}

func TestUserRoleLifecycle(t *testing.T) {
	s := NewStore(SetupTestDB(t))
	ctx := context.Background()
	userID, roleID, _ := seedEntities(t, s)

	row, err := s.AssignUserRole(ctx, userID, roleID)
	require.NoError(t, err)
	assert.Positive(t, row.ID)

	// duplicate membership violates the unique constraint
	_, err = s.AssignUserRole(ctx, userID, roleID)
	require.Error(t, err)

	other := &Role{Name: "viewers"}
	require.NoError(t, s.CreateRole(ctx, other))

	moved := *row
	moved.RoleID = other.ID
	require.NoError(t, s.UpdateUserRole(ctx, moved))

	require.NoError(t, s.RemoveUserRole(ctx, row.ID))
	err = s.RemoveUserRole(ctx, row.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user role not found")
}

func TestRolePermissionLifecycle(t *testing.T) {
	s := NewStore(SetupTestDB(t))
	ctx := context.Background()
	_, roleID, permID := seedEntities(t, s)

	row, err := s.GrantRolePermission(ctx, roleID, permID)
	require.NoError(t, err)

	_, err = s.GrantRolePermission(ctx, roleID, permID)
	require.Error(t, err)

	other := &Role{Name: "viewers"}
	require.NoError(t, s.CreateRole(ctx, other))

	moved := *row
	moved.RoleID = other.ID
	require.NoError(t, s.UpdateRolePermission(ctx, moved))

	require.NoError(t, s.RevokeRolePermission(ctx, row.ID))
	err = s.RevokeRolePermission(ctx, row.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "role permission not found")
}

func TestObjectTypeValid(t *testing.T) {
	assert.True(t, ObjectType("").Valid())
	assert.True(t, ObjectTypeTable.Valid())
	assert.True(t, ObjectTypeSpecial.Valid())
	assert.False(t, ObjectType("bogus").Valid())
}
