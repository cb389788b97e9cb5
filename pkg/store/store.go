package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Store handles persistence for users, roles, permissions and the three
// assignment junction tables. Junction mutations dispatch registered hooks
// synchronously after the write commits.
type Store struct {
	db *sql.DB

	userPermissionHooks []UserPermissionHooks
	userRoleHooks       []UserRoleHooks
	rolePermissionHooks []RolePermissionHooks
}

// NewStore creates a new assignment store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying database handle
func (s *Store) DB() *sql.DB {
	return s.db
}

// CreateUser inserts a user and populates its ID
func (s *Store) CreateUser(ctx context.Context, user *User) error {
	query := `INSERT INTO users (email, full_name) VALUES ($1, $2) RETURNING id`

	err := s.db.QueryRowContext(ctx, query, user.Email, user.FullName).Scan(&user.ID)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// CreateRole inserts a role and populates its ID
func (s *Store) CreateRole(ctx context.Context, role *Role) error {
	query := `INSERT INTO roles (name, description) VALUES ($1, $2) RETURNING id`

	err := s.db.QueryRowContext(ctx, query, role.Name, role.Description).Scan(&role.ID)
	if err != nil {
		return fmt.Errorf("failed to create role: %w", err)
	}
	return nil
}

// CreatePermission inserts a permission and populates its ID
func (s *Store) CreatePermission(ctx context.Context, perm *Permission) error {
	if !perm.ObjectType.Valid() {
		return fmt.Errorf("invalid object type: %q", perm.ObjectType)
	}

	query := `
		INSERT INTO permissions (name, object_type, object_label, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := s.db.QueryRowContext(ctx, query,
		perm.Name,
		string(perm.ObjectType),
		perm.ObjectLabel,
		perm.Description,
	).Scan(&perm.ID)
	if err != nil {
		return fmt.Errorf("failed to create permission: %w", err)
	}
	return nil
}

// GetPermissionByName retrieves a permission by its unique name
func (s *Store) GetPermissionByName(ctx context.Context, name string) (*Permission, error) {
	query := `
		SELECT id, name, object_type, object_label, description
		FROM permissions
		WHERE name = $1
	`

	var perm Permission
	var objectType string
	err := s.db.QueryRowContext(ctx, query, name).Scan(
		&perm.ID,
		&perm.Name,
		&objectType,
		&perm.ObjectLabel,
		&perm.Description,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("permission not found: %s", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get permission: %w", err)
	}

	perm.ObjectType = ObjectType(objectType)
	return &perm, nil
}

// GrantUserPermission inserts a direct user-permission grant and dispatches
// post-insert hooks.
func (s *Store) GrantUserPermission(ctx context.Context, userID, permissionID int64) (*UserPermission, error) {
	query := `INSERT INTO user_permissions (user_id, permission_id) VALUES ($1, $2) RETURNING id`

	row := UserPermission{UserID: userID, PermissionID: permissionID}
	err := s.db.QueryRowContext(ctx, query, userID, permissionID).Scan(&row.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to grant user permission: %w", err)
	}

	for _, h := range s.userPermissionHooks {
		if err := h.PostInsert(ctx, []UserPermission{row}); err != nil {
			return nil, fmt.Errorf("post-insert hook failed for user permission %d: %w", row.ID, err)
		}
	}
	return &row, nil
}

// UpdateUserPermission rewrites an existing grant, possibly repointing it at
// a different user or permission, and dispatches post-update hooks with both
// the new and prior row values.
func (s *Store) UpdateUserPermission(ctx context.Context, row UserPermission) error {
	old, err := s.getUserPermission(ctx, row.ID)
	if err != nil {
		return err
	}

	query := `UPDATE user_permissions SET user_id = $1, permission_id = $2 WHERE id = $3`
	if _, err := s.db.ExecContext(ctx, query, row.UserID, row.PermissionID, row.ID); err != nil {
		return fmt.Errorf("failed to update user permission: %w", err)
	}

	for _, h := range s.userPermissionHooks {
		if err := h.PostUpdate(ctx, []UserPermission{row}, []UserPermission{*old}); err != nil {
			return fmt.Errorf("post-update hook failed for user permission %d: %w", row.ID, err)
		}
	}
	return nil
}

// RevokeUserPermission deletes a grant and dispatches post-delete hooks with
// the row as it existed before removal.
func (s *Store) RevokeUserPermission(ctx context.Context, id int64) error {
	old, err := s.getUserPermission(ctx, id)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM user_permissions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to revoke user permission: %w", err)
	}

	for _, h := range s.userPermissionHooks {
		if err := h.PostDelete(ctx, []UserPermission{*old}); err != nil {
			return fmt.Errorf("post-delete hook failed for user permission %d: %w", id, err)
		}
	}
	return nil
}

func (s *Store) getUserPermission(ctx context.Context, id int64) (*UserPermission, error) {
	query := `SELECT id, user_id, permission_id FROM user_permissions WHERE id = $1`

	var row UserPermission
	err := s.db.QueryRowContext(ctx, query, id).Scan(&row.ID, &row.UserID, &row.PermissionID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user permission not found: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user permission: %w", err)
	}
	return &row, nil
}

// AssignUserRole inserts a role membership and dispatches post-insert hooks
func (s *Store) AssignUserRole(ctx context.Context, userID, roleID int64) (*UserRole, error) {
	query := `INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2) RETURNING id`

	row := UserRole{UserID: userID, RoleID: roleID}
	err := s.db.QueryRowContext(ctx, query, userID, roleID).Scan(&row.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to assign user role: %w", err)
	}

	for _, h := range s.userRoleHooks {
		if err := h.PostInsert(ctx, []UserRole{row}); err != nil {
			return nil, fmt.Errorf("post-insert hook failed for user role %d: %w", row.ID, err)
		}
	}
	return &row, nil
}

// UpdateUserRole rewrites a role membership and dispatches post-update hooks
// with both the new and prior row values.
func (s *Store) UpdateUserRole(ctx context.Context, row UserRole) error {
	old, err := s.getUserRole(ctx, row.ID)
	if err != nil {
		return err
	}

	query := `UPDATE user_roles SET user_id = $1, role_id = $2 WHERE id = $3`
	if _, err := s.db.ExecContext(ctx, query, row.UserID, row.RoleID, row.ID); err != nil {
		return fmt.Errorf("failed to update user role: %w", err)
	}

	for _, h := range s.userRoleHooks {
		if err := h.PostUpdate(ctx, []UserRole{row}, []UserRole{*old}); err != nil {
			return fmt.Errorf("post-update hook failed for user role %d: %w", row.ID, err)
		}
	}
	return nil
}

// RemoveUserRole deletes a role membership and dispatches post-delete hooks
func (s *Store) RemoveUserRole(ctx context.Context, id int64) error {
	old, err := s.getUserRole(ctx, id)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM user_roles WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to remove user role: %w", err)
	}

	for _, h := range s.userRoleHooks {
		if err := h.PostDelete(ctx, []UserRole{*old}); err != nil {
			return fmt.Errorf("post-delete hook failed for user role %d: %w", id, err)
		}
	}
	return nil
}

func (s *Store) getUserRole(ctx context.Context, id int64) (*UserRole, error) {
	query := `SELECT id, user_id, role_id FROM user_roles WHERE id = $1`

	var row UserRole
	err := s.db.QueryRowContext(ctx, query, id).Scan(&row.ID, &row.UserID, &row.RoleID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user role not found: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user role: %w", err)
	}
	return &row, nil
}

// GrantRolePermission inserts a role-permission grant and dispatches
// post-insert hooks.
func (s *Store) GrantRolePermission(ctx context.Context, roleID, permissionID int64) (*RolePermission, error) {
	query := `INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2) RETURNING id`

	row := RolePermission{RoleID: roleID, PermissionID: permissionID}
	err := s.db.QueryRowContext(ctx, query, roleID, permissionID).Scan(&row.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to grant role permission: %w", err)
	}

	for _, h := range s.rolePermissionHooks {
		if err := h.PostInsert(ctx, []RolePermission{row}); err != nil {
			return nil, fmt.Errorf("post-insert hook failed for role permission %d: %w", row.ID, err)
		}
	}
	return &row, nil
}

// UpdateRolePermission rewrites a role-permission grant and dispatches
// post-update hooks with both the new and prior row values.
func (s *Store) UpdateRolePermission(ctx context.Context, row RolePermission) error {
	old, err := s.getRolePermission(ctx, row.ID)
	if err != nil {
		return err
	}

	query := `UPDATE role_permissions SET role_id = $1, permission_id = $2 WHERE id = $3`
	if _, err := s.db.ExecContext(ctx, query, row.RoleID, row.PermissionID, row.ID); err != nil {
		return fmt.Errorf("failed to update role permission: %w", err)
	}

	for _, h := range s.rolePermissionHooks {
		if err := h.PostUpdate(ctx, []RolePermission{row}, []RolePermission{*old}); err != nil {
			return fmt.Errorf("post-update hook failed for role permission %d: %w", row.ID, err)
		}
	}
	return nil
}

// RevokeRolePermission deletes a role-permission grant and dispatches
// post-delete hooks.
func (s *Store) RevokeRolePermission(ctx context.Context, id int64) error {
	old, err := s.getRolePermission(ctx, id)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM role_permissions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to revoke role permission: %w", err)
	}

	for _, h := range s.rolePermissionHooks {
		if err := h.PostDelete(ctx, []RolePermission{*old}); err != nil {
			return fmt.Errorf("post-delete hook failed for role permission %d: %w", id, err)
		}
	}
	return nil
}

func (s *Store) getRolePermission(ctx context.Context, id int64) (*RolePermission, error) {
	query := `SELECT id, role_id, permission_id FROM role_permissions WHERE id = $1`

	var row RolePermission
	err := s.db.QueryRowContext(ctx, query, id).Scan(&row.ID, &row.RoleID, &row.PermissionID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("role permission not found: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get role permission: %w", err)
	}
	return &row, nil
}
