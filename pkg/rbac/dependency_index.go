package rbac

import "sync"

// DependencyIndex is the reverse mapping from a single role id to every
// cached role-set key that contains it. It lets a change to one role find
// all role-combination cache entries that depend on it without scanning
// the cache.
//
// The index may over-approximate: it can hold keys whose cache entries
// have since expired or been flushed. That is safe; missing a live key
// would not be. Registrations are only removed by Sweep.
type DependencyIndex struct {
	mu     sync.RWMutex
	byRole map[int64]map[string]struct{}
}

// NewDependencyIndex creates an empty index
func NewDependencyIndex() *DependencyIndex {
	return &DependencyIndex{
		byRole: make(map[int64]map[string]struct{}),
	}
}

// Register records that the given role set has a cache entry, indexing its
// canonical key under each member role id.
func (idx *DependencyIndex) Register(set RoleSet) {
	key := set.Key()

	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, roleID := range set {
		keys, ok := idx.byRole[roleID]
		if !ok {
			keys = make(map[string]struct{})
			idx.byRole[roleID] = keys
		}
		keys[key] = struct{}{}
	}
}

// KeysForRoles returns the deduplicated set of role-set keys registered
// against any of the given role ids.
func (idx *DependencyIndex) KeysForRoles(roleIDs []int64) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	seen := make(map[string]struct{})
	var out []string
	for _, roleID := range roleIDs {
		for key := range idx.byRole[roleID] {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, key)
		}
	}
	return out
}

// Sweep removes registrations whose role-set key fails the isLive check and
// returns the number removed. Keeping a dead registration is harmless, so
// liveness may be answered optimistically; dropping a live one is not.
func (idx *DependencyIndex) Sweep(isLive func(key string) bool) int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	removed := 0
	for roleID, keys := range idx.byRole {
		for key := range keys {
			if !isLive(key) {
				delete(keys, key)
				removed++
			}
		}
		if len(keys) == 0 {
			delete(idx.byRole, roleID)
		}
	}
	return removed
}

// Len returns the total number of registrations across all role ids
func (idx *DependencyIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	n := 0
	for _, keys := range idx.byRole {
		n += len(keys)
	}
	return n
}
