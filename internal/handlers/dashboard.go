package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"reflections/internal/store"
)

type DashboardHandler struct {
	stats *store.StatsStore
	log   *zap.Logger
}

func NewDashboardHandler(stats *store.StatsStore, log *zap.Logger) *DashboardHandler {
	return &DashboardHandler{stats: stats, log: log}
}

// Get aggregates reflection and topic counts plus per-topic usage.
// Accepts optional query param: user_id to scope the numbers to one user.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := optionalUserID(r)
	if err != nil {
		badRequest(w, "invalid user_id")
		return
	}

	overview, err := h.stats.Overview(r.Context(), userID)
	if err != nil {
		writeError(w, h.log, err, "")
		return
	}
	writeJSON(w, http.StatusOK, overview)
}
