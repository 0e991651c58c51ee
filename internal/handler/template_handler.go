package handler

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/service"
)

type TemplateHandler struct {
	svc *service.TemplateService
	log *zap.Logger
}

func NewTemplateHandler(svc *service.TemplateService, logger *zap.Logger) *TemplateHandler {
	return &TemplateHandler{svc: svc, log: logger}
}

func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	tpls, err := h.svc.List(r.URL.Query().Get("category"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, tpls)
}

func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Get(chi.URLParam(r, "templateId"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Use creates a form from a template. The body is optional.
func (h *TemplateHandler) Use(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := readJSON(w, r, &req); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	form, err := h.svc.CreateFromTemplate(actor(r), chi.URLParam(r, "templateId"), req.Title)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, form)
}

func (h *TemplateHandler) SaveFromForm(w http.ResponseWriter, r *http.Request) {
	var req service.SaveTemplateInput
	if err := readJSON(w, r, &req); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t, err := h.svc.SaveAsTemplate(actor(r), chi.URLParam(r, "formId"), req)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}
