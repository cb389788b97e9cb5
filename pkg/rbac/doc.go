// Package rbac resolves effective permissions for users in a role-based
// access model and caches those resolutions so repeated checks stay cheap
// without ever serving a value stale relative to the latest committed
// assignment change.
//
// # Overview
//
// A user's effective permission set is the union of permissions granted
// directly (user_permissions) and permissions inherited through role
// membership (user_roles joined to role_permissions). The package computes
// that set from the assignment store, memoizes it with a time-based expiry,
// and invalidates cached entries precisely when the underlying assignments
// change.
//
// # Components
//
//   1. Resolver: computes permission sets by querying the store; a pure
//      read of current state.
//   2. PermissionCache: two independent TTL memo maps, one keyed by user
//      id, one keyed by an unordered set of role ids. Expiry is checked
//      lazily on read.
//   3. DependencyIndex: reverse map from a role id to every cached
//      role-set key containing it, enabling targeted invalidation when a
//      role's grants change.
//   4. InvalidationCoordinator: driven by the store's mutation hooks;
//      turns changed junction rows (new and, on update, prior values)
//      into the exact set of user and role flushes.
//   5. Manager: wires all of the above into the process-wide service
//      object callers share.
//
// # Usage
//
//	s := store.NewStore(db)
//	mgr := rbac.NewManager(db, rbac.DefaultConfig(), logger, metrics)
//	mgr.RegisterHooks(s)
//
//	perms, err := mgr.GetEffectivePermissionsForUser(ctx, userID)
//	if err != nil {
//		return err
//	}
//	if perms.Contains("report.run") {
//		// allowed
//	}
//
// Invalidation runs synchronously inside the store's mutation calls: once
// a grant, membership or role-grant write returns, any read issued after
// it observes fresh state. Two concurrent misses for the same key may both
// resolve and both store; the queries are idempotent reads, so last writer
// wins with an identical value.
package rbac
