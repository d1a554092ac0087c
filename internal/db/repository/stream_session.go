package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/streamkit/stream-announcer-go/internal/db"
	"github.com/streamkit/stream-announcer-go/internal/db/models"
)

// StreamSessionRepository records broadcast start/end for analytics.
type StreamSessionRepository interface {
	// Open inserts a new session row.
	Open(ctx context.Context, s *models.StreamSession) error

	// GetOpenByStreamerID retrieves the streamer's session without an end
	// time, if any.
	GetOpenByStreamerID(ctx context.Context, streamerID int64) (*models.StreamSession, error)

	// Close sets ended_at on an open session. Closing an already-closed
	// session is a no-op; the row is append-only after close.
	Close(ctx context.Context, id uuid.UUID) error
}

type streamSessionRepository struct {
	pool *pgxpool.Pool
}

// NewStreamSessionRepository creates a new StreamSessionRepository.
func NewStreamSessionRepository(pool *pgxpool.Pool) StreamSessionRepository {
	return &streamSessionRepository{pool: pool}
}

func (r *streamSessionRepository) Open(ctx context.Context, s *models.StreamSession) error {
	query := `
		INSERT INTO stream_sessions (id, streamer_id, title, game, started_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query, s.ID, s.StreamerID, s.Title, s.Game, s.StartedAt)
	if err != nil {
		return db.WrapError(err, "open stream session")
	}
	return nil
}

func (r *streamSessionRepository) GetOpenByStreamerID(ctx context.Context, streamerID int64) (*models.StreamSession, error) {
	query := `
		SELECT id, streamer_id, title, game, started_at, ended_at
		FROM stream_sessions
		WHERE streamer_id = $1 AND ended_at IS NULL
		ORDER BY started_at DESC
		LIMIT 1
	`

	s := &models.StreamSession{}
	err := r.pool.QueryRow(ctx, query, streamerID).Scan(
		&s.ID, &s.StreamerID, &s.Title, &s.Game, &s.StartedAt, &s.EndedAt,
	)
	if err != nil {
		return nil, db.WrapError(err, "get open stream session")
	}
	return s, nil
}

func (r *streamSessionRepository) Close(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE stream_sessions SET ended_at = now() WHERE id = $1 AND ended_at IS NULL`

	_, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return db.WrapError(err, "close stream session")
	}
	return nil
}
