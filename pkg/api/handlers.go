package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/permcache/pkg/observability"
	"github.com/platinummonkey/permcache/pkg/rbac"
	"github.com/platinummonkey/permcache/pkg/store"
)

// Handlers provides the HTTP surface over the assignment store and the
// permission resolution service.
type Handlers struct {
	store   *store.Store
	manager *rbac.Manager
	logger  *observability.Logger
}

// NewHandlers creates new API handlers
func NewHandlers(s *store.Store, manager *rbac.Manager, logger *observability.Logger) *Handlers {
	return &Handlers{
		store:   s,
		manager: manager,
		logger:  logger,
	}
}

// RegisterRoutes registers all API routes
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	// Entity management
	router.HandleFunc("/v1/users", h.CreateUser).Methods("POST")
	router.HandleFunc("/v1/roles", h.CreateRole).Methods("POST")
	router.HandleFunc("/v1/permissions", h.CreatePermission).Methods("POST")

	// Effective permission resolution
	router.HandleFunc("/v1/users/{id}/permissions", h.GetUserPermissions).Methods("GET")
	router.HandleFunc("/v1/roles/permissions", h.GetRolePermissions).Methods("GET")

	// Direct grants
	router.HandleFunc("/v1/user-permissions", h.GrantUserPermission).Methods("POST")
	router.HandleFunc("/v1/user-permissions/{id}", h.UpdateUserPermission).Methods("PUT")
	router.HandleFunc("/v1/user-permissions/{id}", h.RevokeUserPermission).Methods("DELETE")

	// Role memberships
	router.HandleFunc("/v1/user-roles", h.AssignUserRole).Methods("POST")
	router.HandleFunc("/v1/user-roles/{id}", h.UpdateUserRole).Methods("PUT")
	router.HandleFunc("/v1/user-roles/{id}", h.RemoveUserRole).Methods("DELETE")

	// Role grants
	router.HandleFunc("/v1/role-permissions", h.GrantRolePermission).Methods("POST")
	router.HandleFunc("/v1/role-permissions/{id}", h.UpdateRolePermission).Methods("PUT")
	router.HandleFunc("/v1/role-permissions/{id}", h.RevokeRolePermission).Methods("DELETE")

	// Cache management
	router.HandleFunc("/v1/cache/flush", h.FlushCache).Methods("POST")
	router.HandleFunc("/v1/cache/stats", h.CacheStats).Methods("GET")

	router.HandleFunc("/healthz", h.Health).Methods("GET")
}

// CreateUser creates a new user
func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		FullName string `json:"full_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" {
		http.Error(w, "email is required", http.StatusBadRequest)
		return
	}

	user := &store.User{Email: req.Email, FullName: req.FullName}
	if err := h.store.CreateUser(r.Context(), user); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// CreateRole creates a new role
func (h *Handlers) CreateRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	role := &store.Role{Name: req.Name, Description: req.Description}
	if err := h.store.CreateRole(r.Context(), role); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, role)
}

// CreatePermission creates a new permission
func (h *Handlers) CreatePermission(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		ObjectType  string `json:"object_type"`
		ObjectLabel string `json:"object_label"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	perm := &store.Permission{
		Name:        req.Name,
		ObjectType:  store.ObjectType(req.ObjectType),
		ObjectLabel: req.ObjectLabel,
		Description: req.Description,
	}
	if !perm.ObjectType.Valid() {
		http.Error(w, "invalid object_type", http.StatusBadRequest)
		return
	}
	if err := h.store.CreatePermission(r.Context(), perm); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, perm)
}

// GetUserPermissions returns the user's effective permission names
func (h *Handlers) GetUserPermissions(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r)
	if !ok {
		return
	}

	perms, err := h.manager.GetEffectivePermissionsForUser(r.Context(), userID)
	if err != nil {
		h.logger.WithError(err).Error("failed to resolve user permissions")
		http.Error(w, "Failed to resolve permissions", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":     userID,
		"permissions": perms.Sorted(),
	})
}

// GetRolePermissions returns the permission names granted by the role
// combination given in the ids query parameter (comma-separated).
func (h *Handlers) GetRolePermissions(w http.ResponseWriter, r *http.Request) {
	idsParam := r.URL.Query().Get("ids")
	if idsParam == "" {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"role_ids":    []int64{},
			"permissions": []string{},
		})
		return
	}

	var roleIDs []int64
	for _, part := range strings.Split(idsParam, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			http.Error(w, "Invalid role id: "+part, http.StatusBadRequest)
			return
		}
		roleIDs = append(roleIDs, id)
	}

	set := rbac.NewRoleSet(roleIDs...)
	perms, err := h.manager.GetEffectivePermissionsForRoles(r.Context(), set)
	if err != nil {
		h.logger.WithError(err).Error("failed to resolve role permissions")
		http.Error(w, "Failed to resolve permissions", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"role_ids":    set,
		"permissions": perms.Sorted(),
	})
}

// GrantUserPermission creates a direct user-permission grant
func (h *Handlers) GrantUserPermission(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID       int64 `json:"user_id"`
		PermissionID int64 `json:"permission_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID <= 0 || req.PermissionID <= 0 {
		http.Error(w, "user_id and permission_id are required", http.StatusBadRequest)
		return
	}

	row, err := h.store.GrantUserPermission(r.Context(), req.UserID, req.PermissionID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, row)
}

// UpdateUserPermission rewrites an existing direct grant
func (h *Handlers) UpdateUserPermission(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req struct {
		UserID       int64 `json:"user_id"`
		PermissionID int64 `json:"permission_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	row := store.UserPermission{ID: id, UserID: req.UserID, PermissionID: req.PermissionID}
	if err := h.store.UpdateUserPermission(r.Context(), row); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, row)
}

// RevokeUserPermission deletes a direct grant
func (h *Handlers) RevokeUserPermission(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.store.RevokeUserPermission(r.Context(), id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AssignUserRole creates a role membership
func (h *Handlers) AssignUserRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID int64 `json:"user_id"`
		RoleID int64 `json:"role_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID <= 0 || req.RoleID <= 0 {
		http.Error(w, "user_id and role_id are required", http.StatusBadRequest)
		return
	}

	row, err := h.store.AssignUserRole(r.Context(), req.UserID, req.RoleID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, row)
}

// UpdateUserRole rewrites a role membership
func (h *Handlers) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req struct {
		UserID int64 `json:"user_id"`
		RoleID int64 `json:"role_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	row := store.UserRole{ID: id, UserID: req.UserID, RoleID: req.RoleID}
	if err := h.store.UpdateUserRole(r.Context(), row); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, row)
}

// RemoveUserRole deletes a role membership
func (h *Handlers) RemoveUserRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.store.RemoveUserRole(r.Context(), id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GrantRolePermission creates a role-permission grant
func (h *Handlers) GrantRolePermission(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoleID       int64 `json:"role_id"`
		PermissionID int64 `json:"permission_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.RoleID <= 0 || req.PermissionID <= 0 {
		http.Error(w, "role_id and permission_id are required", http.StatusBadRequest)
		return
	}

	row, err := h.store.GrantRolePermission(r.Context(), req.RoleID, req.PermissionID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, row)
}

// UpdateRolePermission rewrites a role-permission grant
func (h *Handlers) UpdateRolePermission(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req struct {
		RoleID       int64 `json:"role_id"`
		PermissionID int64 `json:"permission_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	row := store.RolePermission{ID: id, RoleID: req.RoleID, PermissionID: req.PermissionID}
	if err := h.store.UpdateRolePermission(r.Context(), row); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, row)
}

// RevokeRolePermission deletes a role-permission grant
func (h *Handlers) RevokeRolePermission(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.store.RevokeRolePermission(r.Context(), id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// FlushCache flushes cache entries. With no body fields set, nothing is
// flushed; "all": true clears everything.
func (h *Handlers) FlushCache(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserIDs []int64 `json:"user_ids,omitempty"`
		RoleIDs []int64 `json:"role_ids,omitempty"`
		All     bool    `json:"all,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.All {
		h.manager.FlushAll()
	} else {
		if len(req.UserIDs) > 0 {
			h.manager.FlushForUsers(req.UserIDs)
		}
		if len(req.RoleIDs) > 0 {
			h.manager.FlushForRoles(req.RoleIDs)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// CacheStats returns current cache occupancy
func (h *Handlers) CacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.CacheStats())
}

// Health reports liveness
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
