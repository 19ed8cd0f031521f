package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nsqio/go-nsq"

	"vidchat/internal/middleware"
	"vidchat/internal/turnlog"
)

type TurnStore interface {
	Save(ctx context.Context, r *turnlog.Record) error
}

// TurnConsumer persists chat.turn events.
type TurnConsumer struct {
	store   TurnStore
	timeout time.Duration
}

func NewTurnConsumer(s TurnStore) *TurnConsumer {
	return &TurnConsumer{store: s, timeout: 10 * time.Second}
}

// HandleMessage returns an error only for storage failures so NSQ requeues
// the message. Malformed messages are dropped.
func (h *TurnConsumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var event TurnEvent
	if err := json.Unmarshal(m.Body, &event); err != nil {
		slog.Error("poison pill: invalid json", "error", err)
		return nil
	}

	ctx := context.Background()
	if event.CorrelationID != "" {
		ctx = middleware.WithCorrelationID(ctx, event.CorrelationID)
	}
	if event.SessionID != "" {
		ctx = middleware.WithSessionID(ctx, event.SessionID)
	}

	if event.EventID == "" || event.SessionID == "" {
		slog.ErrorContext(ctx, "missing required fields, dropping", "event_id", event.EventID)
		return nil
	}
	if _, err := uuid.Parse(event.EventID); err != nil {
		slog.ErrorContext(ctx, "poison pill: invalid event id", "event_id", event.EventID, "error", err)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	rec := &turnlog.Record{
		EventID:       event.EventID,
		SessionID:     event.SessionID,
		VideoID:       event.VideoID,
		Question:      event.Question,
		Answer:        event.Answer,
		Mode:          event.Mode,
		CorrelationID: event.CorrelationID,
		AnsweredAt:    event.AnsweredAt,
	}
	if rec.AnsweredAt.IsZero() {
		rec.AnsweredAt = time.Now().UTC()
	}

	if err := h.store.Save(ctx, rec); err != nil {
		slog.ErrorContext(ctx, "failed to save turn", "event_id", event.EventID, "error", err)
		return err
	}

	slog.InfoContext(ctx, "turn saved", "event_id", event.EventID, "id", rec.ID)
	return nil
}
