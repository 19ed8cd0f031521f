package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"vidchat/internal/config"
	"vidchat/internal/middleware"
	"vidchat/internal/session"
)

// Publisher is satisfied by *nsq.Producer.
type Publisher interface {
	Publish(topic string, body []byte) error
}

// TurnPublisher emits a TurnEvent for every recorded session turn.
type TurnPublisher struct {
	pub   Publisher
	topic string
}

func NewTurnPublisher(p Publisher) *TurnPublisher {
	return &TurnPublisher{pub: p, topic: config.TopicChatTurn}
}

func (p *TurnPublisher) RecordTurn(ctx context.Context, sessionID, videoID string, t session.Turn) error {
	event := TurnEvent{
		EventID:       uuid.New().String(),
		SessionID:     sessionID,
		VideoID:       videoID,
		Question:      t.Question,
		Answer:        t.Answer,
		Mode:          string(t.Mode),
		CorrelationID: middleware.GetCorrelationID(ctx),
		AnsweredAt:    t.AskedAt,
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal turn event: %w", err)
	}

	if err := p.pub.Publish(p.topic, body); err != nil {
		return fmt.Errorf("publish %s: %w", p.topic, err)
	}
	slog.DebugContext(ctx, "turn event published", "event_id", event.EventID, "topic", p.topic)
	return nil
}

// NopRecorder discards turns. Used when the turn log is disabled.
type NopRecorder struct{}

func (NopRecorder) RecordTurn(context.Context, string, string, session.Turn) error { return nil }
