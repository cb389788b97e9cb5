package rbac

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// Querier is the read-only query capability the resolver needs. *sql.DB
// satisfies it; tests substitute sqlmock or wrapped handles.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// Resolver computes effective permission sets from current store state.
// Both resolution paths are pure reads; they perform no mutation.
type Resolver struct {
	db Querier
}

// NewResolver creates a new resolver over the given query handle
func NewResolver(db Querier) *Resolver {
	return &Resolver{db: db}
}

// EffectivePermissionsForUser returns the union of the user's direct grants
// and every grant inherited through role membership. A user with no
// assignments of either kind yields the empty set.
func (r *Resolver) EffectivePermissionsForUser(ctx context.Context, userID int64) (PermissionSet, error) {
	roleQuery := `
		SELECT p.name
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		JOIN user_roles ur ON ur.role_id = rp.role_id
		WHERE ur.user_id = $1
	`

	fromRoles, err := r.collectNames(ctx, roleQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query role-inherited permissions: %w", err)
	}

	directQuery := `
		SELECT p.name
		FROM permissions p
		JOIN user_permissions up ON up.permission_id = p.id
		WHERE up.user_id = $1
	`

	direct, err := r.collectNames(ctx, directQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query direct permissions: %w", err)
	}

	return fromRoles.Union(direct), nil
}

// EffectivePermissionsForRoles returns the distinct permission names granted
// by the given combination of roles, independent of any specific user.
// Direct user grants are never included.
func (r *Resolver) EffectivePermissionsForRoles(ctx context.Context, roles RoleSet) (PermissionSet, error) {
	if roles.Empty() {
		return PermissionSet{}, nil
	}

	placeholders, args := inClause(1, roles)
	query := `
		SELECT DISTINCT p.name
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		WHERE rp.role_id IN (` + placeholders + `)`

	names, err := r.collectNames(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query role permissions: %w", err)
	}
	return names, nil
}

func (r *Resolver) collectNames(ctx context.Context, query string, args ...interface{}) (PermissionSet, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := PermissionSet{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		set.Add(name)
	}
	return set, rows.Err()
}

// inClause builds "$start, $start+1, ..." placeholders and the matching
// argument slice for an IN filter over role ids.
func inClause(start int, ids []int64) (string, []interface{}) {
	parts := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		parts[i] = "$" + strconv.Itoa(start+i)
		args[i] = id
	}
	return strings.Join(parts, ", "), args
}
