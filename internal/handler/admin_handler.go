package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/db"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/service"
)

type AdminHandler struct {
	svc  *service.AdminService
	pool *db.Pool
	log  *zap.Logger
}

func NewAdminHandler(svc *service.AdminService, pool *db.Pool, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, pool: pool, log: logger}
}

func (h *AdminHandler) ListIndexes(w http.ResponseWriter, r *http.Request) {
	collection := r.URL.Query().Get("collection")
	indexes, err := h.svc.ListIndexes(collection)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"indexes": indexes})
}

func (h *AdminHandler) Compact(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Compact(r.URL.Query().Get("collection"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	h.log.Info("collection compacted", zap.Any("stats", stats))
	writeJSON(w, http.StatusOK, stats)
}

// Health reports whether the database answers a ping.
func (h *AdminHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.pool.Ping(); err != nil {
		h.log.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
