package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"reflections/internal/services"
)

const reflectionNotFound = "Reflection not found"

type ReflectionHandler struct {
	workflow *services.ReflectionWorkflow
	log      *zap.Logger
}

func NewReflectionHandler(workflow *services.ReflectionWorkflow, log *zap.Logger) *ReflectionHandler {
	return &ReflectionHandler{workflow: workflow, log: log}
}

// Classify godoc
// @Summary Suggest topics for a draft reflection
// @Description Read-only; nothing is stored
// @Tags reflections
// @Accept json
// @Produce json
// @Success 200 {object} classifyResponse
// @Failure 400 {object} errorResponse
// @Failure 502 {object} errorResponse "Classifier unavailable"
// @Router /reflections/classify [post]
func (h *ReflectionHandler) Classify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	topics, err := h.workflow.Classify(r.Context(), services.ClassifyInput{
		UserID:    req.UserID,
		Title:     req.Title,
		Text:      req.Text,
		Timestamp: req.Timestamp.Time,
	})
	if err != nil {
		writeError(w, h.log, err, "")
		return
	}
	writeJSON(w, http.StatusOK, classifyResponse{Topics: topics})
}

// Create godoc
// @Summary Store a reflection with its topics
// @Tags reflections
// @Accept json
// @Produce json
// @Success 200 {object} createReflectionResponse
// @Failure 400 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /reflections [post]
func (h *ReflectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createReflectionRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	id, err := h.workflow.Persist(r.Context(), services.CreateInput{
		UserID:    req.UserID,
		Title:     req.Title,
		Text:      req.Text,
		Timestamp: req.Timestamp.Time,
		Topics:    req.Topics,
	})
	if err != nil {
		writeError(w, h.log, err, "")
		return
	}
	writeJSON(w, http.StatusOK, createReflectionResponse{ReflectionID: id})
}

func (h *ReflectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: reflectionNotFound})
		return
	}

	reflection, err := h.workflow.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.log, err, reflectionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toReflectionDetailDTO(reflection))
}

func (h *ReflectionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := optionalUserID(r)
	if err != nil {
		badRequest(w, "invalid user_id")
		return
	}

	list, err := h.workflow.List(r.Context(), userID)
	if err != nil {
		writeError(w, h.log, err, "")
		return
	}
	out := make([]ReflectionDTO, len(list))
	for i, refl := range list {
		out[i] = toReflectionDTO(refl)
	}
	writeJSON(w, http.StatusOK, out)
}
