package rbac

import (
	"context"
	"fmt"
	"time"

	"github.com/platinummonkey/permcache/pkg/observability"
	"github.com/platinummonkey/permcache/pkg/store"
)

// Config holds permission resolution configuration
type Config struct {
	// CacheTTL is how long a cached resolution may be served
	CacheTTL time.Duration
}

// DefaultConfig returns default resolution configuration
func DefaultConfig() Config {
	return Config{
		CacheTTL: DefaultCacheTTL,
	}
}

// Manager is the process-wide effective-permission service: resolver,
// cache, dependency index and invalidation coordinator wired together.
// Construct one per process (or per test) and pass it by reference; all
// methods are safe for concurrent use.
type Manager struct {
	db          Querier
	resolver    *Resolver
	cache       *PermissionCache
	coordinator *InvalidationCoordinator
	logger      *observability.Logger
	metrics     *observability.Metrics
}

// NewManager creates a manager over the given query handle
func NewManager(db Querier, cfg Config, logger *observability.Logger, metrics *observability.Metrics) *Manager {
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	if metrics == nil {
		metrics = observability.NewMetrics(nil)
	}

	cache := NewPermissionCache(cfg.CacheTTL, metrics)
	return &Manager{
		db:          db,
		resolver:    NewResolver(db),
		cache:       cache,
		coordinator: NewInvalidationCoordinator(db, cache, logger, metrics),
		logger:      logger,
		metrics:     metrics,
	}
}

// RegisterHooks binds the manager's invalidation coordinator to the store's
// junction mutation notifications. Call once during setup, before serving.
func (m *Manager) RegisterHooks(s *store.Store) {
	RegisterInvalidationHooks(s, m.coordinator)
}

// GetEffectivePermissionsForUser returns the union of the user's direct and
// role-inherited permission names. A non-positive user id yields the empty
// set without touching the cache or the store. Failed resolutions are never
// cached; the next call retries.
func (m *Manager) GetEffectivePermissionsForUser(ctx context.Context, userID int64) (PermissionSet, error) {
	if userID <= 0 {
		return PermissionSet{}, nil
	}

	if perms, ok := m.cache.GetUser(userID); ok {
		return perms.Clone(), nil
	}

	m.metrics.ResolverQueriesTotal.WithLabelValues(userCacheLabel).Inc()
	perms, err := m.resolver.EffectivePermissionsForUser(ctx, userID)
	if err != nil {
		m.metrics.ResolverErrorsTotal.WithLabelValues(userCacheLabel).Inc()
		return nil, fmt.Errorf("failed to resolve effective permissions for user %d: %w", userID, err)
	}

	m.cache.PutUser(userID, perms)
	return perms.Clone(), nil
}

// GetEffectivePermissionsForRoles returns the distinct permission names the
// given combination of roles grants, independent of any user. An empty set
// of role ids yields the empty set, bypassing the cache.
func (m *Manager) GetEffectivePermissionsForRoles(ctx context.Context, roleIDs RoleSet) (PermissionSet, error) {
	set := roleIDs.Normalize()
	if set.Empty() {
		return PermissionSet{}, nil
	}

	if perms, ok := m.cache.GetRoleSet(set); ok {
		return perms.Clone(), nil
	}

	m.metrics.ResolverQueriesTotal.WithLabelValues(roleSetCacheLabel).Inc()
	perms, err := m.resolver.EffectivePermissionsForRoles(ctx, set)
	if err != nil {
		m.metrics.ResolverErrorsTotal.WithLabelValues(roleSetCacheLabel).Inc()
		return nil, fmt.Errorf("failed to resolve effective permissions for roles %v: %w", set, err)
	}

	m.cache.PutRoleSet(set, perms)
	return perms.Clone(), nil
}

// FlushForUser removes the cached entry for a single user
func (m *Manager) FlushForUser(userID int64) {
	m.cache.FlushUsers([]int64{userID})
}

// FlushForUsers removes the cached entries for the given users
func (m *Manager) FlushForUsers(userIDs []int64) {
	m.cache.FlushUsers(userIDs)
}

// FlushForRoles removes every cached role-set entry that contains any of
// the given role ids.
func (m *Manager) FlushForRoles(roleIDs []int64) {
	m.cache.FlushRoles(roleIDs)
}

// FlushAll clears both caches entirely
func (m *Manager) FlushAll() {
	m.cache.FlushAll()
}

// SweepIndex prunes dependency index registrations for role sets that are
// no longer cached and returns the number removed.
func (m *Manager) SweepIndex() int {
	removed := m.cache.SweepIndex()
	if removed > 0 {
		m.logger.WithField("removed", removed).Debug("swept dependency index")
	}
	return removed
}

// CacheStats returns current cache occupancy
func (m *Manager) CacheStats() Stats {
	return m.cache.Stats()
}
