package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"vidchat/internal/middleware"
	"vidchat/internal/session"
)

type Handler struct {
	sessions *session.Manager
}

func NewHandler(m *session.Manager) *Handler {
	return &Handler{sessions: m}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create()
	slog.InfoContext(middleware.WithSessionID(r.Context(), s.ID), "session created")

	h.writeJSON(r.Context(), w, http.StatusCreated, map[string]interface{}{
		"data": map[string]interface{}{"id": s.ID, "created_at": s.CreatedAt},
	})
}

func (h *Handler) ProcessVideo(w http.ResponseWriter, r *http.Request) {
	s, ctx, ok := h.session(w, r)
	if !ok {
		return
	}

	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		h.writeError(ctx, w, "VALIDATION_ERROR", "Please enter a valid URL.", http.StatusBadRequest)
		return
	}

	res, err := s.ProcessVideo(ctx, strings.TrimSpace(req.URL))
	if err != nil {
		h.fail(ctx, w, err)
		return
	}

	h.writeJSON(ctx, w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{"video_id": res.VideoID, "chunks": res.Chunks},
	})
}

func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	s, ctx, ok := h.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}

	reply, err := s.Ask(ctx, req.Question)
	if err != nil {
		h.fail(ctx, w, err)
		return
	}

	h.writeJSON(ctx, w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"answer":    reply.Text,
			"mode":      reply.Mode,
			"duplicate": reply.Duplicate,
		},
	})
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	s, ctx, ok := h.session(w, r)
	if !ok {
		return
	}

	videoID, _, turns := s.Snapshot()

	h.writeJSON(ctx, w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{"video_id": videoID, "turns": turns},
		"meta": map[string]int{"count": len(turns)},
	})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ctx := middleware.WithSessionID(r.Context(), id)

	if err := h.sessions.Delete(ctx, id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			h.writeError(ctx, w, "NOT_FOUND", "Session not found", http.StatusNotFound)
			return
		}
		slog.WarnContext(ctx, "failed to release session index", "error", err)
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*session.Session, context.Context, bool) {
	id := r.PathValue("id")
	ctx := middleware.WithSessionID(r.Context(), id)

	s, err := h.sessions.Get(id)
	if err != nil {
		h.writeError(ctx, w, "NOT_FOUND", "Session not found", http.StatusNotFound)
		return nil, ctx, false
	}
	return s, ctx, true
}

// fail maps domain errors onto the HTTP error envelope.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrInvalidURL):
		h.writeError(ctx, w, "INVALID_URL", "Invalid YouTube URL", http.StatusBadRequest)
	case errors.Is(err, session.ErrEmptyQuestion):
		h.writeError(ctx, w, "VALIDATION_ERROR", "Question is required", http.StatusBadRequest)
	case errors.Is(err, session.ErrUnavailable):
		h.writeError(ctx, w, "TRANSCRIPT_UNAVAILABLE", "Transcript not available for this video", http.StatusUnprocessableEntity)
	case errors.Is(err, session.ErrNoVideo):
		h.writeError(ctx, w, "NO_VIDEO", "Process a video before asking questions", http.StatusConflict)
	case errors.Is(err, session.ErrService):
		slog.ErrorContext(ctx, "upstream service failed", "error", err)
		h.writeError(ctx, w, "SERVICE_ERROR", err.Error(), http.StatusBadGateway)
	default:
		slog.ErrorContext(ctx, "operation failed", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(ctx context.Context, w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
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
