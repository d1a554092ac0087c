package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/streamkit/stream-announcer-go/internal/db"
	"github.com/streamkit/stream-announcer-go/internal/db/models"
	"github.com/streamkit/stream-announcer-go/internal/platform"
)

// BlacklistRepository defines operations on blocked identities.
type BlacklistRepository interface {
	// Create inserts a blacklist entry.
	Create(ctx context.Context, e *models.BlacklistEntry) error

	// IsBlacklisted reports whether a platform account is blocked.
	IsBlacklisted(ctx context.Context, p platform.Platform, platformUserID string) (bool, error)

	// ListAll retrieves every blacklist entry.
	ListAll(ctx context.Context) ([]*models.BlacklistEntry, error)
}

type blacklistRepository struct {
	pool *pgxpool.Pool
}

// NewBlacklistRepository creates a new BlacklistRepository.
func NewBlacklistRepository(pool *pgxpool.Pool) BlacklistRepository {
	return &blacklistRepository{pool: pool}
}

func (r *blacklistRepository) Create(ctx context.Context, e *models.BlacklistEntry) error {
	query := `
		INSERT INTO blacklisted_users (platform, platform_user_id, username, discord_user_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		e.Platform, e.PlatformUserID, e.Username, e.DiscordUserID, e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		return db.WrapError(err, "create blacklist entry")
	}
	return nil
}

func (r *blacklistRepository) IsBlacklisted(ctx context.Context, p platform.Platform, platformUserID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM blacklisted_users WHERE platform = $1 AND platform_user_id = $2)`,
		p, platformUserID,
	).Scan(&exists)
	if err != nil {
		return false, db.WrapError(err, "check blacklist")
	}
	return exists, nil
}

func (r *blacklistRepository) ListAll(ctx context.Context) ([]*models.BlacklistEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, platform, platform_user_id, username, discord_user_id, created_at
		 FROM blacklisted_users ORDER BY id`)
	if err != nil {
		return nil, db.WrapError(err, "list blacklist entries")
	}
	defer rows.Close()

	entries := []*models.BlacklistEntry{}
	for rows.Next() {
		e := &models.BlacklistEntry{}
		err := rows.Scan(&e.ID, &e.Platform, &e.PlatformUserID, &e.Username, &e.DiscordUserID, &e.CreatedAt)
		if err != nil {
			return nil, db.WrapError(err, "scan blacklist entry")
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, db.WrapError(err, "iterate blacklist entries")
	}
	return entries, nil
}
