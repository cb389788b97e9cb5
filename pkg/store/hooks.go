package store

import "context"

// UserPermissionHooks receives notifications after committed mutations to
// the user_permissions junction table. Hooks run synchronously, before the
// mutating call returns to its caller; a hook error fails that call.
type UserPermissionHooks interface {
	PostInsert(ctx context.Context, rows []UserPermission) error

	// PostUpdate receives the rows as written alongside their prior values,
	// matched by ID.
	PostUpdate(ctx context.Context, rows []UserPermission, oldRows []UserPermission) error

	// PostDelete receives the rows as they existed before removal.
	PostDelete(ctx context.Context, rows []UserPermission) error
}

// UserRoleHooks receives notifications for the user_roles junction table.
type UserRoleHooks interface {
	PostInsert(ctx context.Context, rows []UserRole) error
	PostUpdate(ctx context.Context, rows []UserRole, oldRows []UserRole) error
	PostDelete(ctx context.Context, rows []UserRole) error
}

// RolePermissionHooks receives notifications for the role_permissions
// junction table.
type RolePermissionHooks interface {
	PostInsert(ctx context.Context, rows []RolePermission) error
	PostUpdate(ctx context.Context, rows []RolePermission, oldRows []RolePermission) error
	PostDelete(ctx context.Context, rows []RolePermission) error
}

// RegisterUserPermissionHooks registers hooks for user-permission mutations.
// Not safe to call concurrently with mutations; register during setup.
func (s *Store) RegisterUserPermissionHooks(h UserPermissionHooks) {
	s.userPermissionHooks = append(s.userPermissionHooks, h)
}

// RegisterUserRoleHooks registers hooks for user-role mutations.
func (s *Store) RegisterUserRoleHooks(h UserRoleHooks) {
	s.userRoleHooks = append(s.userRoleHooks, h)
}

// RegisterRolePermissionHooks registers hooks for role-permission mutations.
func (s *Store) RegisterRolePermissionHooks(h RolePermissionHooks) {
	s.rolePermissionHooks = append(s.rolePermissionHooks, h)
}
