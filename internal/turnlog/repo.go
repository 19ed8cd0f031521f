package turnlog

import (
	"context"
	"database/sql"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

type Repository interface {
	Save(ctx context.Context, r *Record) error
	ListRecent(ctx context.Context, limit int) ([]Record, error)
	ListBySession(ctx context.Context, sessionID string) ([]Record, error)
	Count(ctx context.Context) (int, error)
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// Save inserts r. Redelivered events are ignored, so Save is idempotent per
// EventID; in that case r.ID stays zero.
func (r *PostgresRepo) Save(ctx context.Context, rec *Record) error {
	query := `INSERT INTO conversation_turns (event_id, session_id, video_id, question, answer, mode, correlation_id, answered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (event_id) DO NOTHING
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		rec.EventID, rec.SessionID, rec.VideoID, rec.Question, rec.Answer, rec.Mode, rec.CorrelationID, rec.AnsweredAt,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil
	}
	return err
}

func (r *PostgresRepo) ListRecent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	query := `SELECT id, event_id, session_id, video_id, question, answer, mode, correlation_id, answered_at, created_at
		FROM conversation_turns ORDER BY answered_at DESC, id DESC LIMIT $1`
	return r.query(ctx, query, limit)
}

func (r *PostgresRepo) ListBySession(ctx context.Context, sessionID string) ([]Record, error) {
	query := `SELECT id, event_id, session_id, video_id, question, answer, mode, correlation_id, answered_at, created_at
		FROM conversation_turns WHERE session_id = $1 ORDER BY answered_at ASC, id ASC`
	return r.query(ctx, query, sessionID)
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversation_turns`).Scan(&count)
	return count, err
}

func (r *PostgresRepo) query(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.EventID, &rec.SessionID, &rec.VideoID, &rec.Question, &rec.Answer,
			&rec.Mode, &rec.CorrelationID, &rec.AnsweredAt, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
