package store

// ObjectType categorizes what a permission guards
type ObjectType string

const (
	ObjectTypeTable   ObjectType = "table"
	ObjectTypeProcess ObjectType = "process"
	ObjectTypeApp     ObjectType = "app"
	ObjectTypeWidget  ObjectType = "widget"
	ObjectTypeSpecial ObjectType = "special"
)

// Valid reports whether the object type is one of the known values.
// The empty string is allowed; object typing is optional metadata.
func (t ObjectType) Valid() bool {
	switch t {
	case "", ObjectTypeTable, ObjectTypeProcess, ObjectTypeApp, ObjectTypeWidget, ObjectTypeSpecial:
		return true
	}
	return false
}

// User represents an account that can hold grants
type User struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// Role represents a named bundle of permissions
type Role struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Permission represents a grantable capability. Name is the externally
// visible permission token and is unique across the table.
type Permission struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	ObjectType  ObjectType `json:"object_type,omitempty"`
	ObjectLabel string     `json:"object_label,omitempty"`
	Description string     `json:"description,omitempty"`
}

// UserPermission is a direct grant of a permission to a user.
// Unique on (UserID, PermissionID).
type UserPermission struct {
	ID           int64 `json:"id"`
	UserID       int64 `json:"user_id"`
	PermissionID int64 `json:"permission_id"`
}

// UserRole is a user's membership in a role. Unique on (UserID, RoleID).
type UserRole struct {
	ID     int64 `json:"id"`
	UserID int64 `json:"user_id"`
	RoleID int64 `json:"role_id"`
}

// RolePermission grants a permission to every member of a role.
// Unique on (RoleID, PermissionID).
type RolePermission struct {
	ID           int64 `json:"id"`
	RoleID       int64 `json:"role_id"`
	PermissionID int64 `json:"permission_id"`
}
