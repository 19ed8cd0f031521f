package stats

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"vidchat/internal/middleware"
)

type SessionCounter interface {
	Count() int
	Usage() (videos, chunks int)
}

type TurnCounter interface {
	Count(ctx context.Context) (int, error)
}

type Handler struct {
	sessions SessionCounter
	turns    TurnCounter
	backend  string
}

// NewHandler builds the stats handler. turns may be nil when the turn log
// is disabled.
func NewHandler(s SessionCounter, t TurnCounter, backend string) *Handler {
	return &Handler{sessions: s, turns: t, backend: backend}
}

type StatsResponse struct {
	Sessions      int    `json:"sessions"`
	Videos        int    `json:"videos"`
	IndexedChunks int    `json:"indexed_chunks"`
	LoggedTurns   *int   `json:"logged_turns,omitempty"`
	IndexBackend  string `json:"index_backend"`
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	correlationID := middleware.GetCorrelationID(ctx)

	slog.InfoContext(ctx, "getting stats", "correlationId", correlationID)

	videos, chunks := h.sessions.Usage()
	resp := StatsResponse{
		Sessions:      h.sessions.Count(),
		Videos:        videos,
		IndexedChunks: chunks,
		IndexBackend:  h.backend,
	}

	if h.turns != nil {
		tCount, err := h.turns.Count(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "failed to count turns", "error", err, "correlationId", correlationID)
			h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count turns", http.StatusInternalServerError)
			return
		}
		resp.LoggedTurns = &tCount
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": resp}); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
