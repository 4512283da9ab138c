package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"reflections/internal/store"
)

type UserHandler struct {
	users *store.UserStore
	log   *zap.Logger
}

func NewUserHandler(users *store.UserStore, log *zap.Logger) *UserHandler {
	return &UserHandler{users: users, log: log}
}

// List returns every user.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeError(w, h.log, err, "")
		return
	}
	writeJSON(w, http.StatusOK, users)
}
