package chat

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"vidchat/internal/turnlog"
)

type TurnLister interface {
	ListRecent(ctx context.Context, limit int) ([]turnlog.Record, error)
	ListBySession(ctx context.Context, sessionID string) ([]turnlog.Record, error)
}

// TurnsHandler serves the persisted turn audit log.
type TurnsHandler struct {
	*Handler
	repo TurnLister
}

func NewTurnsHandler(repo TurnLister) *TurnsHandler {
	return &TurnsHandler{Handler: &Handler{}, repo: repo}
}

// List returns recent turns, or every turn of one session when session_id
// is given.
func (h *TurnsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		records []turnlog.Record
		err     error
	)
	if sessionID := r.URL.Query().Get("session_id"); sessionID != "" {
		records, err = h.repo.ListBySession(ctx, sessionID)
	} else {
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, err = strconv.Atoi(raw)
			if err != nil || limit < 0 {
				h.writeError(ctx, w, "VALIDATION_ERROR", "limit must be a non-negative integer", http.StatusBadRequest)
				return
			}
		}
		records, err = h.repo.ListRecent(ctx, limit)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to list turns", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(ctx, w, http.StatusOK, map[string]interface{}{
		"data": records,
		"meta": map[string]int{"count": len(records)},
	})
}
