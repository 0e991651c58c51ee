package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/service"
)

type QuestionHandler struct {
	svc *service.QuestionService
	log *zap.Logger
}

func NewQuestionHandler(svc *service.QuestionService, logger *zap.Logger) *QuestionHandler {
	return &QuestionHandler{svc: svc, log: logger}
}

func (h *QuestionHandler) List(w http.ResponseWriter, r *http.Request) {
	qs, err := h.svc.List(actor(r), chi.URLParam(r, "formId"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, qs)
}

func (h *QuestionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.QuestionInput
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	q, err := h.svc.Add(actor(r), chi.URLParam(r, "formId"), req)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (h *QuestionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch service.QuestionPatch
	if err := readJSON(w, r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	q, err := h.svc.Update(actor(r), chi.URLParam(r, "formId"), chi.URLParam(r, "questionId"), patch)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *QuestionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "questionId")
	if err := h.svc.Delete(actor(r), chi.URLParam(r, "formId"), id); err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

// Move handles a drag-and-drop: the question at index from lands at to.
func (h *QuestionHandler) Move(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From *int `json:"from"`
		To   *int `json:"to"`
	}
	if err := readJSON(w, r, &req); err != nil || req.From == nil || req.To == nil {
		writeError(w, http.StatusBadRequest, "from and to are required")
		return
	}
	qs, err := h.svc.Move(actor(r), chi.URLParam(r, "formId"), *req.From, *req.To)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, qs)
}

func (h *QuestionHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	qs, err := h.svc.Reorder(actor(r), chi.URLParam(r, "formId"), req.IDs)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, qs)
}
