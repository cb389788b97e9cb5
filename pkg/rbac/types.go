package rbac

import (
	"sort"
	"strconv"
	"strings"
)

// RoleSet is an unordered collection of role ids. Two sets with the same
// members are the same cache key regardless of construction order; use
// NewRoleSet or Normalize before relying on Key.
type RoleSet []int64

// NewRoleSet builds a canonical (sorted, deduplicated) role set
func NewRoleSet(ids ...int64) RoleSet {
	return RoleSet(ids).Normalize()
}

// Normalize returns a sorted, deduplicated copy of the set
func (rs RoleSet) Normalize() RoleSet {
	if len(rs) == 0 {
		return nil
	}

	out := make(RoleSet, len(rs))
	copy(out, rs)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	n := 0
	for i, id := range out {
		if i == 0 || id != out[n-1] {
			out[n] = id
			n++
		}
	}
	return out[:n]
}

// Key returns the canonical cache key for the set: the sorted ids joined
// by commas. Structural set equality maps to string equality of keys.
func (rs RoleSet) Key() string {
	norm := rs.Normalize()
	parts := make([]string, len(norm))
	for i, id := range norm {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

// Empty reports whether the set has no members
func (rs RoleSet) Empty() bool {
	return len(rs) == 0
}

// PermissionSet is a set of permission names
type PermissionSet map[string]struct{}

// NewPermissionSet builds a set from the given names
func NewPermissionSet(names ...string) PermissionSet {
	set := make(PermissionSet, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

// Add inserts a name into the set
func (ps PermissionSet) Add(name string) {
	ps[name] = struct{}{}
}

// Contains reports whether the set holds the given name
func (ps PermissionSet) Contains(name string) bool {
	_, ok := ps[name]
	return ok
}

// Union merges the other set into this one and returns it
func (ps PermissionSet) Union(other PermissionSet) PermissionSet {
	for name := range other {
		ps[name] = struct{}{}
	}
	return ps
}

// Clone returns an independent copy of the set
func (ps PermissionSet) Clone() PermissionSet {
	out := make(PermissionSet, len(ps))
	for name := range ps {
		out[name] = struct{}{}
	}
	return out
}

// Sorted returns the names in lexical order
func (ps PermissionSet) Sorted() []string {
	names := make([]string, 0, len(ps))
	for name := range ps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
