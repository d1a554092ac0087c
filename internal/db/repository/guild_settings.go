package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/streamkit/stream-announcer-go/internal/db"
	"github.com/streamkit/stream-announcer-go/internal/db/models"
)

// GuildSettingsRepository reads per-guild configuration.
type GuildSettingsRepository interface {
	// Get retrieves the settings for a guild. db.ErrNotFound means the guild
	// has never been configured, which callers treat as all-defaults.
	Get(ctx context.Context, guildID string) (*models.GuildSettings, error)
}

type guildSettingsRepository struct {
	pool *pgxpool.Pool
}

// NewGuildSettingsRepository creates a new GuildSettingsRepository.
func NewGuildSettingsRepository(pool *pgxpool.Pool) GuildSettingsRepository {
	return &guildSettingsRepository{pool: pool}
}

func (r *guildSettingsRepository) Get(ctx context.Context, guildID string) (*models.GuildSettings, error) {
	gs := &models.GuildSettings{}
	err := r.pool.QueryRow(ctx,
		`SELECT guild_id, live_role_id FROM guild_settings WHERE guild_id = $1`,
		guildID,
	).Scan(&gs.GuildID, &gs.LiveRoleID)
	if err != nil {
		return nil, db.WrapError(err, "get guild settings")
	}
	return gs, nil
}
