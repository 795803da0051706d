package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kozaktomas/face-attendance/internal/roster"
)

// UsersHandler handles roster listing and deletion
type UsersHandler struct {
	roster *roster.Roster
	logger *zap.Logger
}

// NewUsersHandler creates a new users handler
func NewUsersHandler(r *roster.Roster, logger *zap.Logger) *UsersHandler {
	return &UsersHandler{
		roster: r,
		logger: logger,
	}
}

// List returns registered users keyed by ID, optionally filtered by ?q= on the name
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	identities := h.roster.List(r.URL.Query().Get("q"))

	users := make(map[string]roster.Identity, len(identities))
	for _, identity := range identities {
		users[identity.ID] = identity
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"total_users": h.roster.Count(),
		"users":       users,
	})
}

// Delete removes a user. Their attendance history is kept.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	identity, err := h.roster.Delete(r.Context(), id)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	h.logger.Info("user deleted", zap.String("user_id", identity.ID), zap.String("name", identity.Name))
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("User %s deleted", identity.Name),
	})
}
