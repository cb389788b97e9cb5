package rbac

import (
	"context"
	"fmt"

	"github.com/platinummonkey/permcache/pkg/observability"
	"github.com/platinummonkey/permcache/pkg/store"
)

// UserIDsForUserPermissionChange computes the user ids whose cached
// resolutions a batch of user-permission changes invalidates: the owner of
// each row as written, plus, for updates, the prior owner when the row was
// repointed at a different user.
func UserIDsForUserPermissionChange(rows, oldRows []store.UserPermission) []int64 {
	seen := make(map[int64]struct{})
	for _, row := range rows {
		seen[row.UserID] = struct{}{}
	}
	for _, row := range oldRows {
		seen[row.UserID] = struct{}{}
	}
	return int64Keys(seen)
}

// UserIDsForUserRoleChange computes the user ids affected by a batch of
// user-role membership changes, accounting for updates that moved the
// membership to a different user.
func UserIDsForUserRoleChange(rows, oldRows []store.UserRole) []int64 {
	seen := make(map[int64]struct{})
	for _, row := range rows {
		seen[row.UserID] = struct{}{}
	}
	for _, row := range oldRows {
		seen[row.UserID] = struct{}{}
	}
	return int64Keys(seen)
}

// RoleIDsForRolePermissionChange computes the role ids affected by a batch
// of role-permission changes, accounting for updates that moved the grant
// to a different role.
func RoleIDsForRolePermissionChange(rows, oldRows []store.RolePermission) []int64 {
	seen := make(map[int64]struct{})
	for _, row := range rows {
		seen[row.RoleID] = struct{}{}
	}
	for _, row := range oldRows {
		seen[row.RoleID] = struct{}{}
	}
	return int64Keys(seen)
}

func int64Keys(m map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	return out
}

// InvalidationCoordinator translates committed junction changes into cache
// flushes. It runs synchronously inside the mutation hooks: by the time a
// mutating call returns, every stale entry is gone, so a read issued
// strictly after the write observes fresh state.
type InvalidationCoordinator struct {
	db      Querier
	cache   *PermissionCache
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewInvalidationCoordinator creates a coordinator over the given query
// handle and cache.
func NewInvalidationCoordinator(db Querier, cache *PermissionCache, logger *observability.Logger, metrics *observability.Metrics) *InvalidationCoordinator {
	if metrics == nil {
		metrics = observability.NewMetrics(nil)
	}
	return &InvalidationCoordinator{
		db:      db,
		cache:   cache,
		logger:  logger,
		metrics: metrics,
	}
}

// UserPermissionsChanged flushes the per-user cache for every user touched
// by a batch of direct-grant changes. The role-set cache is unaffected.
func (ic *InvalidationCoordinator) UserPermissionsChanged(ctx context.Context, rows, oldRows []store.UserPermission) error {
	userIDs := UserIDsForUserPermissionChange(rows, oldRows)
	ic.cache.FlushUsers(userIDs)
	ic.metrics.InvalidationsTotal.WithLabelValues("user_permission").Inc()
	ic.logger.WithField("user_ids", userIDs).Debug("flushed user cache for user-permission change")
	return nil
}

// UserRolesChanged flushes the per-user cache for every user touched by a
// batch of membership changes. Role-set entries are keyed purely by role
// combination and stay valid.
func (ic *InvalidationCoordinator) UserRolesChanged(ctx context.Context, rows, oldRows []store.UserRole) error {
	userIDs := UserIDsForUserRoleChange(rows, oldRows)
	ic.cache.FlushUsers(userIDs)
	ic.metrics.InvalidationsTotal.WithLabelValues("user_role").Inc()
	ic.logger.WithField("user_ids", userIDs).Debug("flushed user cache for user-role change")
	return nil
}

// RolePermissionsChanged handles the two-step propagation a role-grant
// change requires: flush every cached role combination containing an
// affected role, then find every user currently holding one of those roles
// and flush their per-user entries. A failure finding those users is fatal
// to the triggering mutation; completing it would leave the cache unsafely
// stale.
func (ic *InvalidationCoordinator) RolePermissionsChanged(ctx context.Context, rows, oldRows []store.RolePermission) error {
	roleIDs := RoleIDsForRolePermissionChange(rows, oldRows)
	if len(roleIDs) == 0 {
		return nil
	}

	ic.cache.FlushRoles(roleIDs)

	userIDs, err := ic.usersHoldingRoles(ctx, roleIDs)
	if err != nil {
		return fmt.Errorf("failed to find users holding roles %v: %w", roleIDs, err)
	}
	ic.cache.FlushUsers(userIDs)

	ic.metrics.InvalidationsTotal.WithLabelValues("role_permission").Inc()
	ic.logger.WithFields(map[string]interface{}{
		"role_ids": roleIDs,
		"user_ids": userIDs,
	}).Debug("flushed caches for role-permission change")
	return nil
}

func (ic *InvalidationCoordinator) usersHoldingRoles(ctx context.Context, roleIDs []int64) ([]int64, error) {
	placeholders, args := inClause(1, roleIDs)
	query := `SELECT DISTINCT user_id FROM user_roles WHERE role_id IN (` + placeholders + `)`

	rows, err := ic.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var userIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		userIDs = append(userIDs, id)
	}
	return userIDs, rows.Err()
}
