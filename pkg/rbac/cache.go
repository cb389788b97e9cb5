package rbac

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/platinummonkey/permcache/pkg/observability"
)

// DefaultCacheTTL bounds how long a resolution may be served without
// recomputation, independent of invalidation events.
const DefaultCacheTTL = 5 * time.Minute

const (
	userCacheLabel    = "user"
	roleSetCacheLabel = "role_set"
)

// PermissionCache memoizes effective-permission resolutions in two
// independent maps: one keyed by user id, one keyed by canonical role-set
// key. Entries expire TTL after being stored; expiry is checked on read.
// Both maps are safe for concurrent use.
type PermissionCache struct {
	users    *lru.LRU[int64, PermissionSet]
	roleSets *lru.LRU[string, PermissionSet]
	index    *DependencyIndex
	metrics  *observability.Metrics
}

// NewPermissionCache creates a cache with the given per-entry TTL. The
// caches are unbounded in entry count; the TTL bounds retained memory.
func NewPermissionCache(ttl time.Duration, metrics *observability.Metrics) *PermissionCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if metrics == nil {
		metrics = observability.NewMetrics(nil)
	}

	return &PermissionCache{
		users:    lru.NewLRU[int64, PermissionSet](0, nil, ttl),
		roleSets: lru.NewLRU[string, PermissionSet](0, nil, ttl),
		index:    NewDependencyIndex(),
		metrics:  metrics,
	}
}

// GetUser returns the cached permission set for a user, if present and
// unexpired.
func (c *PermissionCache) GetUser(userID int64) (PermissionSet, bool) {
	perms, ok := c.users.Get(userID)
	if ok {
		c.metrics.CacheHitsTotal.WithLabelValues(userCacheLabel).Inc()
	} else {
		c.metrics.CacheMissesTotal.WithLabelValues(userCacheLabel).Inc()
	}
	return perms, ok
}

// PutUser stores a user's permission set with a fresh TTL
func (c *PermissionCache) PutUser(userID int64, perms PermissionSet) {
	c.users.Add(userID, perms)
	c.metrics.CacheEntries.WithLabelValues(userCacheLabel).Set(float64(c.users.Len()))
}

// GetRoleSet returns the cached permission set for a role combination, if
// present and unexpired.
func (c *PermissionCache) GetRoleSet(set RoleSet) (PermissionSet, bool) {
	perms, ok := c.roleSets.Get(set.Key())
	if ok {
		c.metrics.CacheHitsTotal.WithLabelValues(roleSetCacheLabel).Inc()
	} else {
		c.metrics.CacheMissesTotal.WithLabelValues(roleSetCacheLabel).Inc()
	}
	return perms, ok
}

// PutRoleSet stores a role combination's permission set with a fresh TTL
// and registers each member role in the dependency index against the set.
func (c *PermissionCache) PutRoleSet(set RoleSet, perms PermissionSet) {
	c.index.Register(set)
	c.roleSets.Add(set.Key(), perms)
	c.metrics.CacheEntries.WithLabelValues(roleSetCacheLabel).Set(float64(c.roleSets.Len()))
	c.metrics.IndexRegistrations.Set(float64(c.index.Len()))
}

// FlushUsers unconditionally removes the per-user entries for the given
// ids, regardless of TTL state. Absent ids are no-ops.
func (c *PermissionCache) FlushUsers(userIDs []int64) {
	for _, userID := range userIDs {
		if c.users.Remove(userID) {
			c.metrics.CacheFlushesTotal.WithLabelValues(userCacheLabel).Inc()
		}
	}
}

// FlushRoles removes every role-set entry registered against any of the
// given role ids in the dependency index. The registrations themselves are
// left in place; see Sweep.
func (c *PermissionCache) FlushRoles(roleIDs []int64) {
	for _, key := range c.index.KeysForRoles(roleIDs) {
		if c.roleSets.Remove(key) {
			c.metrics.CacheFlushesTotal.WithLabelValues(roleSetCacheLabel).Inc()
		}
	}
}

// FlushAll clears both memoization maps entirely. The dependency index is
// untouched.
func (c *PermissionCache) FlushAll() {
	c.users.Purge()
	c.roleSets.Purge()
	c.metrics.CacheEntries.WithLabelValues(userCacheLabel).Set(0)
	c.metrics.CacheEntries.WithLabelValues(roleSetCacheLabel).Set(0)
}

// SweepIndex drops dependency index registrations whose role-set entry is
// no longer cached and returns the number removed. The index otherwise only
// grows as distinct role combinations are resolved over time.
func (c *PermissionCache) SweepIndex() int {
	removed := c.index.Sweep(c.roleSets.Contains)
	c.metrics.IndexRegistrations.Set(float64(c.index.Len()))
	c.metrics.IndexSweepsTotal.Inc()
	return removed
}

// Stats reports current cache occupancy
type Stats struct {
	UserEntries        int `json:"user_entries"`
	RoleSetEntries     int `json:"role_set_entries"`
	IndexRegistrations int `json:"index_registrations"`
}

// Stats returns current cache occupancy
func (c *PermissionCache) Stats() Stats {
	return Stats{
		UserEntries:        c.users.Len(),
		RoleSetEntries:     c.roleSets.Len(),
		IndexRegistrations: c.index.Len(),
	}
}
