package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"reflections/internal/db"
	"reflections/internal/services"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service error kinds to HTTP statuses. Unexpected errors
// are logged and reported without detail.
func writeError(w http.ResponseWriter, log *zap.Logger, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, services.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: notFoundMsg})
	case errors.Is(err, services.ErrIntegrity):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "request conflicts with stored data"})
	case errors.Is(err, services.ErrClassifier):
		log.Warn("classifier unavailable", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "classifier unavailable"})
	case errors.Is(err, db.ErrConnectionFailed), errors.Is(err, db.ErrTimeout):
		log.Error("storage unavailable", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "storage unavailable"})
	default:
		log.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// optionalUserID reads ?user_id=. Absent means no filter; 0 is a real id.
func optionalUserID(r *http.Request) (*int64, error) {
	raw := r.URL.Query().Get("user_id")
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
