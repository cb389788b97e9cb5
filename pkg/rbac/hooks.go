package rbac

import (
	"context"

	"github.com/platinummonkey/permcache/pkg/store"
)

// The hook adapters below bind the invalidation coordinator to the store's
// per-junction mutation notifications. Inserts and deletes carry one row
// state; updates carry both new and prior values so a repointed row
// invalidates the old association too.

type userPermissionHook struct {
	ic *InvalidationCoordinator
}

func (h userPermissionHook) PostInsert(ctx context.Context, rows []store.UserPermission) error {
	return h.ic.UserPermissionsChanged(ctx, rows, nil)
}

func (h userPermissionHook) PostUpdate(ctx context.Context, rows, oldRows []store.UserPermission) error {
	return h.ic.UserPermissionsChanged(ctx, rows, oldRows)
}

func (h userPermissionHook) PostDelete(ctx context.Context, rows []store.UserPermission) error {
	return h.ic.UserPermissionsChanged(ctx, rows, nil)
}

type userRoleHook struct {
	ic *InvalidationCoordinator
}

func (h userRoleHook) PostInsert(ctx context.Context, rows []store.UserRole) error {
	return h.ic.UserRolesChanged(ctx, rows, nil)
}

func (h userRoleHook) PostUpdate(ctx context.Context, rows, oldRows []store.UserRole) error {
	return h.ic.UserRolesChanged(ctx, rows, oldRows)
}

func (h userRoleHook) PostDelete(ctx context.Context, rows []store.UserRole) error {
	return h.ic.UserRolesChanged(ctx, rows, nil)
}

type rolePermissionHook struct {
	ic *InvalidationCoordinator
}

func (h rolePermissionHook) PostInsert(ctx context.Context, rows []store.RolePermission) error {
	return h.ic.RolePermissionsChanged(ctx, rows, nil)
}

func (h rolePermissionHook) PostUpdate(ctx context.Context, rows, oldRows []store.RolePermission) error {
	return h.ic.RolePermissionsChanged(ctx, rows, oldRows)
}

func (h rolePermissionHook) PostDelete(ctx context.Context, rows []store.RolePermission) error {
	return h.ic.RolePermissionsChanged(ctx, rows, nil)
}

// RegisterInvalidationHooks wires the coordinator into all three junction
// notification points on the store.
func RegisterInvalidationHooks(s *store.Store, ic *InvalidationCoordinator) {
	s.RegisterUserPermissionHooks(userPermissionHook{ic: ic})
	s.RegisterUserRoleHooks(userRoleHook{ic: ic})
	s.RegisterRolePermissionHooks(rolePermissionHook{ic: ic})
}
