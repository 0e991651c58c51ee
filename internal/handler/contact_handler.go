package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/service"
)

type ContactHandler struct {
	svc *service.ContactService
	log *zap.Logger
}

func NewContactHandler(svc *service.ContactService, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{svc: svc, log: logger}
}

func (h *ContactHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req service.ContactInput
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.Send(r.Context(), req); err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"sent": true})
}
