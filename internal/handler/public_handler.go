package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/models"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/service"
)

// PublicHandler serves the respondent-facing survey endpoints. No
// authentication.
type PublicHandler struct {
	svc *service.SubmissionService
	log *zap.Logger
}

func NewPublicHandler(svc *service.SubmissionService, logger *zap.Logger) *PublicHandler {
	return &PublicHandler{svc: svc, log: logger}
}

func (h *PublicHandler) Survey(w http.ResponseWriter, r *http.Request) {
	survey, err := h.svc.PublicSurvey(chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, survey)
}

func (h *PublicHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Answers []models.Answer `json:"answers"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.svc.Submit(chi.URLParam(r, "slug"), req.Answers, r.UserAgent())
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}
