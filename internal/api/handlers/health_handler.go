package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/autoprovider/fileparse/internal/api/respond"
	"github.com/autoprovider/fileparse/internal/core"
)

// HealthHandler exposes the collaborator connectivity probes.
type HealthHandler struct {
	store    core.SourceStore
	uploader core.Uploader
	log      *zap.Logger
}

func NewHealthHandler(store core.SourceStore, uploader core.Uploader, log *zap.Logger) *HealthHandler {
	return &HealthHandler{store: store, uploader: uploader, log: log}
}

func (h *HealthHandler) DBConnection(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.log.Error("database probe failed", zap.Error(err))
		respond.Fail(w, http.StatusInternalServerError, "database connection failed")
		return
	}
	respond.OK(w, "database connection ok", nil)
}

func (h *HealthHandler) StorageConnection(w http.ResponseWriter, r *http.Request) {
	if err := h.uploader.Ping(r.Context()); err != nil {
		h.log.Error("object storage probe failed", zap.Error(err))
		respond.Fail(w, http.StatusInternalServerError, "object storage connection failed")
		return
	}
	respond.OK(w, "object storage connection ok", nil)
}
