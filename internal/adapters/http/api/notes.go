// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// NotesHandler handles fetch and update requests for a user's dataset.
type NotesHandler struct {
	deps         Dependencies
	maxBodyBytes int64
}

// NewNotesHandler creates a new notes handler.
func NewNotesHandler(deps Dependencies, maxBodyBytes int64) *NotesHandler {
	return &NotesHandler{deps: deps, maxBodyBytes: maxBodyBytes}
}

// HandleNotes dispatches GET and PUT /stand-strategist requests.
func (h *NotesHandler) HandleNotes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleFetch(w, r)
	case http.MethodPut:
		h.handleUpdate(w, r)
	default:
		http.NotFound(w, r)
	}
}

// handleFetch handles GET /stand-strategist?username=&event_key= requests.
func (h *NotesHandler) handleFetch(w http.ResponseWriter, r *http.Request) {
	const op = "api.fetch_notes"
	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		writeError(w, http.StatusBadRequest, "bad_request",
			WrapKind(op, ErrBadRequest, errors.New("missing username")))
		return
	}
	eventKey := r.URL.Query().Get("event_key")
	view, err := h.deps.Fetch(r.Context(), eventKey, username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleUpdate handles PUT /stand-strategist?username=&event_key= requests
// with a client view body. Success returns 204 with no content.
func (h *NotesHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_notes"
	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		writeError(w, http.StatusBadRequest, "bad_request",
			WrapKind(op, ErrBadRequest, errors.New("missing username")))
		return
	}
	eventKey := r.URL.Query().Get("event_key")

	body := r.Body
	if h.maxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}
	var view View
	if err := json.NewDecoder(body).Decode(&view); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	if err := h.deps.Update(r.Context(), eventKey, username, view); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
