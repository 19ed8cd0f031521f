package turnlog

import "time"

// Record is one audited question/answer exchange.
type Record struct {
	ID            int64     `json:"id"`
	EventID       string    `json:"event_id"`
	SessionID     string    `json:"session_id"`
	VideoID       string    `json:"video_id"`
	Question      string    `json:"question"`
	Answer        string    `json:"answer"`
	Mode          string    `json:"mode"`
	CorrelationID string    `json:"correlation_id"`
	AnsweredAt    time.Time `json:"answered_at"`
	CreatedAt     time.Time `json:"created_at"`
}
