package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/service"
)

// ResultsHandler serves analytics, sharing and export of one form.
type ResultsHandler struct {
	analytics *service.AnalyticsService
	share     *service.ShareService
	exports   *service.ExportService
	log       *zap.Logger
}

func NewResultsHandler(analytics *service.AnalyticsService, share *service.ShareService, exports *service.ExportService, logger *zap.Logger) *ResultsHandler {
	return &ResultsHandler{analytics: analytics, share: share, exports: exports, log: logger}
}

func (h *ResultsHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	sum, err := h.analytics.Summarize(actor(r), chi.URLParam(r, "formId"), queryInt(r, "days", 0))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (h *ResultsHandler) ShareLink(w http.ResponseWriter, r *http.Request) {
	link, err := h.share.Link(actor(r), chi.URLParam(r, "formId"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

func (h *ResultsHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	png, err := h.share.QRCode(actor(r), chi.URLParam(r, "formId"), queryInt(r, "size", 0))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.Write(png)
}

func (h *ResultsHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	dl, err := h.exports.XLSX(actor(r), chi.URLParam(r, "formId"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+dl.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(dl.Data)))
	w.Write(dl.Data)
}

func (h *ResultsHandler) ExportSheets(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SpreadsheetID string `json:"spreadsheetId"`
		Sheet         string `json:"sheet"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.exports.SyncSheets(r.Context(), actor(r), chi.URLParam(r, "formId"), req.SpreadsheetID, req.Sheet)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
