// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// UsersHandler handles username enumeration requests.
type UsersHandler struct {
	deps Dependencies
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(deps Dependencies) *UsersHandler {
	return &UsersHandler{deps: deps}
}

// HandleListUsers handles GET /stand-strategist/users?event_key= requests.
// An absent event_key selects the configured default partition.
func (h *UsersHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_users"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	eventKey := r.URL.Query().Get("event_key")
	users, err := h.deps.Users(r.Context(), eventKey)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, users)
}
