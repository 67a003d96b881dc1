// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/quailscout/standsync/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Users enumerates the usernames known to an event partition.
	Users(ctx context.Context, eventKey string) ([]string, error)

	// Fetch returns one user's full dataset reshaped into the client view.
	Fetch(ctx context.Context, eventKey, username string) (types.View, error)

	// Update replaces one user's dataset from the client view.
	Update(ctx context.Context, eventKey, username string, view types.View) error
}

// View mirrors the nested-map shape exchanged with clients.
type View = types.View

// Server wires HTTP routes for the sync API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	usersHandler  *UsersHandler
	notesHandler  *NotesHandler

	auth *APIKeyAuthorizer
}

// Config carries boundary settings for the API server.
type Config struct {
	// APIKeys lists accepted credentials; empty disables auth.
	APIKeys []string

	// MaxBodyBytes caps update request bodies. Zero means no explicit cap.
	MaxBodyBytes int64
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, cfg Config) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		usersHandler:  NewUsersHandler(deps),
		notesHandler:  NewNotesHandler(deps, cfg.MaxBodyBytes),
		auth:          NewAPIKeyAuthorizer(cfg.APIKeys),
	}
}

// Register attaches all HTTP routes to mux. The sync routes sit behind
// API key authorization; health and stats do not.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/stand-strategist/users",
		MetricsMiddleware(s.auth.Require(s.usersHandler.HandleListUsers), "users"))
	mux.HandleFunc("/stand-strategist",
		MetricsMiddleware(s.auth.Require(s.notesHandler.HandleNotes), "notes"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
