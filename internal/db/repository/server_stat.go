package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/streamkit/stream-announcer-go/internal/db"
	"github.com/streamkit/stream-announcer-go/internal/db/models"
)

// ServerStatRepository stores periodic guild/member count snapshots.
type ServerStatRepository interface {
	Insert(ctx context.Context, s *models.ServerStat) error
}

type serverStatRepository struct {
	pool *pgxpool.Pool
}

// NewServerStatRepository creates a new ServerStatRepository.
func NewServerStatRepository(pool *pgxpool.Pool) ServerStatRepository {
	return &serverStatRepository{pool: pool}
}

func (r *serverStatRepository) Insert(ctx context.Context, s *models.ServerStat) error {
	query := `
		INSERT INTO server_stats (guild_count, member_count, collected_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query, s.GuildCount, s.MemberCount, s.CollectedAt).Scan(&s.ID)
	if err != nil {
		return db.WrapError(err, "insert server stat")
	}
	return nil
}
