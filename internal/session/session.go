package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"vidchat/internal/answer"
	"vidchat/internal/index"
)

// Turn is one answered question.
type Turn struct {
	Question string      `json:"question"`
	Answer   string      `json:"answer"`
	Mode     answer.Mode `json:"mode"`
	AskedAt  time.Time   `json:"asked_at"`
}

// Reply is returned by Ask. Duplicate is set when the question repeated the
// previous one and the stored answer was returned.
type Reply struct {
	Text      string
	Mode      answer.Mode
	Duplicate bool
}

// TurnRecorder receives every new turn. Recording is best effort.
type TurnRecorder interface {
	RecordTurn(ctx context.Context, sessionID, videoID string, t Turn) error
}

type state struct {
	videoID string
	idx     index.Index
	history []Turn
}

// Session owns one index and its conversation history. Operations run one
// at a time; readers always see either the old or the new state.
type Session struct {
	ID        string
	CreatedAt time.Time

	pipeline *Pipeline
	recorder TurnRecorder

	op sync.Mutex

	mu    sync.RWMutex
	state state
}

func New(id string, p *Pipeline, r TurnRecorder) *Session {
	return &Session{ID: id, CreatedAt: time.Now(), pipeline: p, recorder: r}
}

// ProcessVideo replaces the index and clears the history. On error the
// previous index and history are kept.
func (s *Session) ProcessVideo(ctx context.Context, rawURL string) (*Processed, error) {
	s.op.Lock()
	defer s.op.Unlock()

	res, err := s.pipeline.Process(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	old := s.state.idx
	s.state = state{videoID: res.VideoID, idx: res.Index}
	s.mu.Unlock()

	if old != nil {
		if err := index.Release(ctx, old); err != nil {
			slog.WarnContext(ctx, "failed to release previous index", "session_id", s.ID, "error", err)
		}
	}

	slog.InfoContext(ctx, "video processed", "session_id", s.ID, "video_id", res.VideoID, "chunks", res.Chunks)
	return res, nil
}

// Ask answers a question against the current index and appends a turn.
func (s *Session) Ask(ctx context.Context, question string) (Reply, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Reply{}, ErrEmptyQuestion
	}

	s.op.Lock()
	defer s.op.Unlock()

	s.mu.RLock()
	cur := s.state
	s.mu.RUnlock()

	if n := len(cur.history); n > 0 && cur.history[n-1].Question == question {
		last := cur.history[n-1]
		return Reply{Text: last.Answer, Mode: last.Mode, Duplicate: true}, nil
	}

	res, err := s.pipeline.Answer(ctx, cur.idx, question)
	if err != nil {
		return Reply{}, err
	}

	turn := Turn{Question: question, Answer: res.Text, Mode: res.Mode, AskedAt: time.Now()}

	s.mu.Lock()
	s.state.history = append(s.state.history, turn)
	s.mu.Unlock()

	if s.recorder != nil {
		if err := s.recorder.RecordTurn(ctx, s.ID, cur.videoID, turn); err != nil {
			slog.WarnContext(ctx, "failed to record turn", "session_id", s.ID, "error", err)
		}
	}

	return Reply{Text: res.Text, Mode: res.Mode}, nil
}

// Snapshot returns the current video id, index and a copy of the history.
func (s *Session) Snapshot() (string, index.Index, []Turn) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := make([]Turn, len(s.state.history))
	copy(turns, s.state.history)
	return s.state.videoID, s.state.idx, turns
}

// Close releases the session's index.
func (s *Session) Close(ctx context.Context) error {
	s.op.Lock()
	defer s.op.Unlock()

	s.mu.Lock()
	idx := s.state.idx
	s.state = state{}
	s.mu.Unlock()

	if idx == nil {
		return nil
	}
	return index.Release(ctx, idx)
}
