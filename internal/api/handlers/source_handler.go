package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	middleware "github.com/autoprovider/fileparse/internal/api/middlewares"
	"github.com/autoprovider/fileparse/internal/api/respond"
	"github.com/autoprovider/fileparse/internal/core"
	"github.com/autoprovider/fileparse/internal/core/ingestion_engine"
	"github.com/autoprovider/fileparse/internal/models"
)

const maxBindIDs = 200

type SourceHandler struct {
	store    core.SourceStore
	pipeline *ingestion_engine.Pipeline
	log      *zap.Logger
}

func NewSourceHandler(store core.SourceStore, pipeline *ingestion_engine.Pipeline, log *zap.Logger) *SourceHandler {
	return &SourceHandler{store: store, pipeline: pipeline, log: log}
}

// UploadAndParse ingests a multipart batch of documents and images and
// returns one outcome per file. Batch-level problems are 400s; individual
// file failures ride inside the data array.
func (h *SourceHandler) UploadAndParse(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "user identity missing from request")
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		respond.Fail(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	if r.MultipartForm == nil || len(r.MultipartForm.File["files"]) == 0 {
		respond.Fail(w, http.StatusBadRequest, "no uploaded files found; send them in the files field")
		return
	}

	var batch []ingestion_engine.FileSubmission
	for _, fh := range r.MultipartForm.File["files"] {
		if fh.Filename == "" {
			continue
		}
		f, err := fh.Open()
		if err != nil {
			respond.Fail(w, http.StatusBadRequest, fmt.Sprintf("cannot read file %q", fh.Filename))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			respond.Fail(w, http.StatusBadRequest, fmt.Sprintf("cannot read file %q", fh.Filename))
			return
		}
		batch = append(batch, ingestion_engine.FileSubmission{Filename: fh.Filename, Data: data})
	}

	projectID := formPtr(r, "project_id")
	sessionID := formPtr(r, "session_id")

	outcomes, err := h.pipeline.Run(r.Context(), userID, batch, projectID, sessionID)
	if err != nil {
		var be *ingestion_engine.BatchError
		if errors.As(err, &be) {
			respond.Fail(w, http.StatusBadRequest, be.Message)
			return
		}
		h.log.Error("upload batch failed", zap.Error(err))
		respond.Fail(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond.OK(w, fmt.Sprintf("processed %d files", len(outcomes)), outcomes)
}

// sourceSummary is the listing row shape; source_content never leaves the
// database through this endpoint.
type sourceSummary struct {
	SourceID   string  `json:"source_id"`
	SourceURL  string  `json:"source_url"`
	SourceType string  `json:"source_type"`
	ProjectID  *string `json:"project_id"`
	Status     int     `json:"source_status"`
	CreateTime string  `json:"create_time"`
	FileSize   int64   `json:"file_size"`
	DialogueID *string `json:"dialogue_id"`
	SessionID  *string `json:"session_id"`
	SourceName string  `json:"source_name"`
}

// ListUnbound lists the caller's sources that are not yet bound to a
// dialogue. session_id beats project_id; with neither, only project-less
// sources are shown.
func (h *SourceHandler) ListUnbound(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "user identity missing from request")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if limit < 1 {
		limit = 1
	}
	if limit > 200 {
		limit = 200
	}

	filter := models.UnboundFilter{
		Limit:     limit,
		SessionID: queryPtr(r, "session_id"),
		ProjectID: queryPtr(r, "project_id"),
	}

	sources, err := h.store.ListUnboundSources(r.Context(), userID, filter)
	if err != nil {
		h.log.Error("listing unbound sources failed", zap.Error(err))
		respond.Fail(w, http.StatusInternalServerError, "listing unbound sources failed")
		return
	}

	data := make([]sourceSummary, 0, len(sources))
	for _, s := range sources {
		data = append(data, sourceSummary{
			SourceID:   s.SourceID,
			SourceURL:  s.SourceURL,
			SourceType: s.SourceType,
			ProjectID:  s.ProjectID,
			Status:     s.Status,
			CreateTime: s.CreatedAt.Format("2006-01-02 15:04:05"),
			FileSize:   s.FileSize,
			DialogueID: s.DialogueID,
			SessionID:  s.SessionID,
			SourceName: s.SourceName,
		})
	}
	respond.OK(w, "success", data)
}

type bindRequest struct {
	SourceIDs  []string `json:"source_ids"`
	ProjectID  *string  `json:"project_id"`
	SessionID  *string  `json:"session_id"`
	DialogueID *string  `json:"dialogue_id"`
}

// BindSources attaches already-ingested sources to a project, session and/or
// dialogue. Only rows owned by the caller and still active are touched.
func (h *SourceHandler) BindSources(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "user identity missing from request")
		return
	}

	var req bindRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Fail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.SourceIDs) == 0 {
		respond.Fail(w, http.StatusBadRequest, "source_ids must be a non-empty array")
		return
	}
	if len(req.SourceIDs) > maxBindIDs {
		respond.Fail(w, http.StatusBadRequest, fmt.Sprintf("at most %d sources can be bound at once", maxBindIDs))
		return
	}

	binding := models.Binding{ProjectID: req.ProjectID, SessionID: req.SessionID, DialogueID: req.DialogueID}
	if binding.Empty() {
		respond.Fail(w, http.StatusBadRequest, "provide at least one of project_id, session_id or dialogue_id")
		return
	}

	affected, err := h.store.BindSources(r.Context(), userID, req.SourceIDs, binding)
	if err != nil {
		h.log.Error("binding sources failed", zap.Error(err))
		respond.Fail(w, http.StatusInternalServerError, "binding sources failed")
		return
	}
	respond.OK(w, "sources bound", map[string]int64{"affected": affected})
}

type cancelRequest struct {
	SourceID string `json:"source_id"`
}

// CancelSource marks one of the caller's sources cancelled. Cancelling a
// missing, foreign or already-cancelled source is a logical failure.
func (h *SourceHandler) CancelSource(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "user identity missing from request")
		return
	}

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SourceID == "" {
		respond.Fail(w, http.StatusBadRequest, "source_id is required")
		return
	}

	affected, err := h.store.CancelSource(r.Context(), userID, req.SourceID)
	if err != nil {
		h.log.Error("cancelling source failed", zap.Error(err))
		respond.Fail(w, http.StatusInternalServerError, "cancelling source failed")
		return
	}
	if affected == 0 {
		respond.Fail(w, http.StatusBadRequest, "source not found, not owned by you, or already cancelled")
		return
	}
	respond.OK(w, "source cancelled", map[string]int64{"affected": affected})
}

func formPtr(r *http.Request, key string) *string {
	if v := r.FormValue(key); v != "" {
		return &v
	}
	return nil
}

func queryPtr(r *http.Request, key string) *string {
	if v := r.URL.Query().Get(key); v != "" {
		return &v
	}
	return nil
}
