package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleSetKey(t *testing.T) {
	tests := []struct {
		name string
		ids  []int64
		want string
	}{
		{name: "empty", ids: nil, want: ""},
		{name: "single", ids: []int64{7}, want: "7"},
		{name: "sorted input", ids: []int64{1, 2, 3}, want: "1,2,3"},
		{name: "unsorted input", ids: []int64{3, 1, 2}, want: "1,2,3"},
		{name: "duplicates collapse", ids: []int64{5, 5, 2, 2}, want: "2,5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewRoleSet(tt.ids...).Key())
		})
	}
}

func TestRoleSetKeyOrderIndependent(t *testing.T) {
	a := NewRoleSet(10, 20, 30)
	b := NewRoleSet(30, 10, 20)
	assert.Equal(t, a.Key(), b.Key())
}

func TestRoleSetNormalizeDoesNotMutateInput(t *testing.T) {
	in := RoleSet{3, 1, 2}
	_ = in.Normalize()
	assert.Equal(t, RoleSet{3, 1, 2}, in)
}

func TestPermissionSetUnion(t *testing.T) {
	a := NewPermissionSet("a", "b")
	b := NewPermissionSet("b", "c")

	got := a.Union(b)
	assert.Equal(t, []string{"a", "b", "c"}, got.Sorted())
}

func TestPermissionSetClone(t *testing.T) {
	orig := NewPermissionSet("a")
	clone := orig.Clone()
	clone.Add("b")

	assert.False(t, orig.Contains("b"))
	assert.True(t, clone.Contains("b"))
}

func TestPermissionSetContains(t *testing.T) {
	set := NewPermissionSet("report.run")
	assert.True(t, set.Contains("report.run"))
	assert.False(t, set.Contains("report.edit"))
}
