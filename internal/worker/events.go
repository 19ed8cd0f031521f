package worker

import "time"

// TurnEvent is the chat.turn message body.
type TurnEvent struct {
	EventID       string    `json:"event_id"`
	SessionID     string    `json:"session_id"`
	VideoID       string    `json:"video_id"`
	Question      string    `json:"question"`
	Answer        string    `json:"answer"`
	Mode          string    `json:"mode"`
	CorrelationID string    `json:"correlation_id"`
	AnsweredAt    time.Time `json:"answered_at"`
}
