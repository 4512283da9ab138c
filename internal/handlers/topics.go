package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"reflections/internal/services"
)

type TopicHandler struct {
	topics *services.TopicService
	log    *zap.Logger
}

func NewTopicHandler(topics *services.TopicService, log *zap.Logger) *TopicHandler {
	return &TopicHandler{topics: topics, log: log}
}

// Create godoc
// @Summary Get or create topics
// @Description Returns one topic per requested name, in request order, creating missing ones
// @Tags topics
// @Accept json
// @Produce json
// @Param user_id query int true "Owner"
// @Success 200 {array} TopicDTO
// @Router /topics [post]
func (h *TopicHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := optionalUserID(r)
	if err != nil || userID == nil {
		badRequest(w, "user_id query parameter is required")
		return
	}
	var body topicsRequest
	if err := decodeJSON(r, &body); err != nil {
		badRequest(w, "invalid body")
		return
	}

	topics, err := h.topics.CreateTopics(r.Context(), *userID, body.Names)
	if err != nil {
		writeError(w, h.log, err, "")
		return
	}
	writeJSON(w, http.StatusOK, toTopicDTOs(topics))
}

// List returns all topics, or one user's with ?user_id=.
func (h *TopicHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := optionalUserID(r)
	if err != nil {
		badRequest(w, "invalid user_id")
		return
	}
	topics, err := h.topics.GetTopics(r.Context(), userID)
	if err != nil {
		writeError(w, h.log, err, "")
		return
	}
	writeJSON(w, http.StatusOK, toTopicDTOs(topics))
}
