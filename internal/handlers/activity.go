package handlers

import (
	"net/http"

	"github.com/benvon/cupid-code/internal/database"
	"github.com/benvon/cupid-code/internal/middleware"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// ActivityHandler exposes the counters maintained by the activity worker
type ActivityHandler struct {
	repo   database.TaskActivityRepositoryInterface
	logger *zap.Logger
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(repo database.TaskActivityRepositoryInterface, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{repo: repo, logger: logger}
}

// RegisterRoutes registers activity routes
func (h *ActivityHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/me/activity", h.GetActivity).Methods("GET")
}

// GetActivity returns the current user's to-do activity counters
func (h *ActivityHandler) GetActivity(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, errUnauthorized, "User not found in context")
		return
	}

	activity, err := h.repo.GetByUserID(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed_to_load_task_activity",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		respondJSONError(w, http.StatusInternalServerError, errInternal, "Failed to load activity")
		return
	}
	respondJSON(w, http.StatusOK, activity)
}
