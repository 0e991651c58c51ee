package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/service"
)

type SubmissionHandler struct {
	svc *service.SubmissionService
	log *zap.Logger
}

func NewSubmissionHandler(svc *service.SubmissionService, logger *zap.Logger) *SubmissionHandler {
	return &SubmissionHandler{svc: svc, log: logger}
}

func (h *SubmissionHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.List(actor(r), chi.URLParam(r, "formId"), queryInt(r, "skip", 0), queryInt(r, "limit", 0))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *SubmissionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sub, err := h.svc.Get(actor(r), chi.URLParam(r, "formId"), chi.URLParam(r, "subId"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (h *SubmissionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "subId")
	if err := h.svc.Delete(actor(r), chi.URLParam(r, "formId"), id); err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

// Search accepts q, outcome, critical, minScore, maxScore, skip and limit
// query parameters.
func (h *SubmissionHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := service.SearchRequest{
		Text:    q.Get("q"),
		Outcome: q.Get("outcome"),
		Skip:    queryInt(r, "skip", 0),
		Limit:   queryInt(r, "limit", 0),
	}
	var err error
	if req.Critical, err = queryBool(r, "critical"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.MinScore, err = queryFloat(r, "minScore"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.MaxScore, err = queryFloat(r, "maxScore"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.svc.Search(actor(r), chi.URLParam(r, "formId"), req)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
