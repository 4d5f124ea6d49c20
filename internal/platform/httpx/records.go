package httpx

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RecordService is the index-addressed CRUD surface of one stored array.
type RecordService interface {
	List(ctx context.Context, workspace string) ([]json.RawMessage, error)
	Create(ctx context.Context, workspace string, record json.RawMessage) error
	Update(ctx context.Context, workspace string, idx int, record json.RawMessage) error
	Delete(ctx context.Context, workspace string, idx int) error
}

// WorkspaceFunc resolves the caller's workspace.
type WorkspaceFunc func(ctx context.Context) (string, bool)

// MountRecords registers list and create on pattern, update and delete on pattern/{idx}.
func MountRecords(r chi.Router, pattern string, svc RecordService, workspace WorkspaceFunc, logger *slog.Logger) {
	h := recordHandler{svc: svc, workspace: workspace, logger: logger}
	r.Get(pattern, h.list)
	r.Post(pattern, h.create)
	r.Put(pattern+"/{idx}", h.update)
	r.Delete(pattern+"/{idx}", h.delete)
}

type recordHandler struct {
	svc       RecordService
	workspace WorkspaceFunc
	logger    *slog.Logger
}

func (h recordHandler) list(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(r.Context())
	if !ok {
		RespondError(w, ErrUnauthorized)
		return
	}
	records, err := h.svc.List(r.Context(), ws)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("records: list", slog.String("path", r.URL.Path), slog.Any("error", err))
		}
		RespondError(w, err)
		return
	}
	if records == nil {
		records = []json.RawMessage{}
	}
	JSON(w, http.StatusOK, records)
}

func (h recordHandler) create(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(r.Context())
	if !ok {
		RespondError(w, ErrUnauthorized)
		return
	}
	record, err := DecodeObject(r)
	if err != nil {
		RespondError(w, err)
		return
	}
	if err := h.svc.Create(r.Context(), ws, record); err != nil {
		RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h recordHandler) update(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(r.Context())
	if !ok {
		RespondError(w, ErrUnauthorized)
		return
	}
	idx, err := IndexParam(r, "idx")
	if err != nil {
		RespondError(w, err)
		return
	}
	record, err := DecodeObject(r)
	if err != nil {
		RespondError(w, err)
		return
	}
	if err := h.svc.Update(r.Context(), ws, idx, record); err != nil {
		RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h recordHandler) delete(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(r.Context())
	if !ok {
		RespondError(w, ErrUnauthorized)
		return
	}
	idx, err := IndexParam(r, "idx")
	if err != nil {
		RespondError(w, err)
		return
	}
	if err := h.svc.Delete(r.Context(), ws, idx); err != nil {
		RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
