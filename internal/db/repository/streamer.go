package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/streamkit/stream-announcer-go/internal/db"
	"github.com/streamkit/stream-announcer-go/internal/db/models"
	"github.com/streamkit/stream-announcer-go/internal/platform"
)

// StreamerRepository defines operations on platform-scoped creator identities.
type StreamerRepository interface {
	// Upsert inserts a streamer or refreshes an existing row keyed by
	// (platform, platform_user_id). Username, normalized username and avatar
	// take the incoming values; an existing non-null discord_user_id is never
	// overwritten.
	Upsert(ctx context.Context, s *models.Streamer) error

	// GetByID retrieves a streamer by primary key.
	GetByID(ctx context.Context, id int64) (*models.Streamer, error)

	// GetByPlatformUserID retrieves a streamer by its natural key.
	GetByPlatformUserID(ctx context.Context, p platform.Platform, platformUserID string) (*models.Streamer, error)

	// ListAll retrieves every streamer row.
	ListAll(ctx context.Context) ([]*models.Streamer, error)

	// ListSubscribed retrieves the distinct streamers that have at least one
	// subscription. This is the poll set: one platform call per row.
	ListSubscribed(ctx context.Context) ([]*models.Streamer, error)

	// ListByDiscordUserID retrieves all platform rows linked to one Discord user.
	ListByDiscordUserID(ctx context.Context, discordUserID string) ([]*models.Streamer, error)

	// ListByNormalizedUsername retrieves all rows sharing a normalized username.
	ListByNormalizedUsername(ctx context.Context, normalized string) ([]*models.Streamer, error)

	// SetDiscordUserIDByNormalizedUsername rewrites the discord link for every
	// row in a normalized-username group in one statement, touching only rows
	// that disagree. Returns the number of rows written.
	SetDiscordUserIDByNormalizedUsername(ctx context.Context, normalized, discordUserID string) (int64, error)

	// SyncIdentityByNormalizedUsername backfills discord_user_id and
	// profile_image_url across a normalized-username group, preferring the
	// given values but never nulling an existing link. Returns rows written.
	SyncIdentityByNormalizedUsername(ctx context.Context, normalized string, discordUserID, profileImageURL *string) (int64, error)

	// Delete removes a streamer row. Used only by the blacklist purge.
	Delete(ctx context.Context, id int64) error
}

type streamerRepository struct {
	pool *pgxpool.Pool
}

// NewStreamerRepository creates a new StreamerRepository.
func NewStreamerRepository(pool *pgxpool.Pool) StreamerRepository {
	return &streamerRepository{pool: pool}
}

const streamerColumns = `id, platform, platform_user_id, username, normalized_username,
       discord_user_id, profile_image_url, created_at, updated_at`

func (r *streamerRepository) Upsert(ctx context.Context, s *models.Streamer) error {
	query := `
		INSERT INTO streamers (
			platform, platform_user_id, username, normalized_username,
			discord_user_id, profile_image_url, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (platform, platform_user_id) DO UPDATE SET
			username            = EXCLUDED.username,
			normalized_username = EXCLUDED.normalized_username,
			discord_user_id     = COALESCE(streamers.discord_user_id, EXCLUDED.discord_user_id),
			profile_image_url   = COALESCE(EXCLUDED.profile_image_url, streamers.profile_image_url),
			updated_at          = EXCLUDED.updated_at
		RETURNING id, discord_user_id, profile_image_url, created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		s.Platform,
		s.PlatformUserID,
		s.Username,
		s.NormalizedUsername,
		s.DiscordUserID,
		s.ProfileImageURL,
		s.CreatedAt,
		s.UpdatedAt,
	).Scan(
		&s.ID,
		&s.DiscordUserID,
		&s.ProfileImageURL,
		&s.CreatedAt,
		&s.UpdatedAt,
	)

	if err != nil {
		return db.WrapError(err, "upsert streamer")
	}

	return nil
}

func (r *streamerRepository) GetByID(ctx context.Context, id int64) (*models.Streamer, error) {
	query := `SELECT ` + streamerColumns + ` FROM streamers WHERE id = $1`

	s := &models.Streamer{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.Platform, &s.PlatformUserID, &s.Username, &s.NormalizedUsername,
		&s.DiscordUserID, &s.ProfileImageURL, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, db.WrapError(err, "get streamer by id")
	}
	return s, nil
}

func (r *streamerRepository) GetByPlatformUserID(ctx context.Context, p platform.Platform, platformUserID string) (*models.Streamer, error) {
	query := `SELECT ` + streamerColumns + ` FROM streamers WHERE platform = $1 AND platform_user_id = $2`

	s := &models.Streamer{}
	err := r.pool.QueryRow(ctx, query, p, platformUserID).Scan(
		&s.ID, &s.Platform, &s.PlatformUserID, &s.Username, &s.NormalizedUsername,
		&s.DiscordUserID, &s.ProfileImageURL, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, db.WrapError(err, "get streamer by platform user id")
	}
	return s, nil
}

func (r *streamerRepository) ListAll(ctx context.Context) ([]*models.Streamer, error) {
	query := `SELECT ` + streamerColumns + ` FROM streamers ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, db.WrapError(err, "list streamers")
	}
	defer rows.Close()

	return scanStreamers(rows)
}

func (r *streamerRepository) ListSubscribed(ctx context.Context) ([]*models.Streamer, error) {
	query := `
		SELECT DISTINCT s.id, s.platform, s.platform_user_id, s.username, s.normalized_username,
		       s.discord_user_id, s.profile_image_url, s.created_at, s.updated_at
		FROM streamers s
		JOIN subscriptions sub ON sub.streamer_id = s.id
		ORDER BY s.id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, db.WrapError(err, "list subscribed streamers")
	}
	defer rows.Close()

	return scanStreamers(rows)
}

func (r *streamerRepository) ListByDiscordUserID(ctx context.Context, discordUserID string) ([]*models.Streamer, error) {
	query := `SELECT ` + streamerColumns + ` FROM streamers WHERE discord_user_id = $1 ORDER BY id`

	rows, err := r.pool.Query(ctx, query, discordUserID)
	if err != nil {
		return nil, db.WrapError(err, "list streamers by discord user id")
	}
	defer rows.Close()

	return scanStreamers(rows)
}

func (r *streamerRepository) ListByNormalizedUsername(ctx context.Context, normalized string) ([]*models.Streamer, error) {
	query := `SELECT ` + streamerColumns + ` FROM streamers WHERE normalized_username = $1 ORDER BY id`

	rows, err := r.pool.Query(ctx, query, normalized)
	if err != nil {
		return nil, db.WrapError(err, "list streamers by normalized username")
	}
	defer rows.Close()

	return scanStreamers(rows)
}

func (r *streamerRepository) SetDiscordUserIDByNormalizedUsername(ctx context.Context, normalized, discordUserID string) (int64, error) {
	// Touches only disagreeing rows so a clean re-run writes nothing.
	query := `
		UPDATE streamers
		SET discord_user_id = $2, updated_at = now()
		WHERE normalized_username = $1
		  AND discord_user_id IS DISTINCT FROM $2
	`

	tag, err := r.pool.Exec(ctx, query, normalized, discordUserID)
	if err != nil {
		return 0, db.WrapError(err, "set discord user id by normalized username")
	}
	return tag.RowsAffected(), nil
}

func (r *streamerRepository) SyncIdentityByNormalizedUsername(ctx context.Context, normalized string, discordUserID, profileImageURL *string) (int64, error) {
	query := `
		UPDATE streamers
		SET discord_user_id   = COALESCE($2, discord_user_id),
		    profile_image_url = COALESCE($3, profile_image_url),
		    updated_at        = now()
		WHERE normalized_username = $1
		  AND (discord_user_id   IS DISTINCT FROM COALESCE($2, discord_user_id)
		    OR profile_image_url IS DISTINCT FROM COALESCE($3, profile_image_url))
	`

	tag, err := r.pool.Exec(ctx, query, normalized, discordUserID, profileImageURL)
	if err != nil {
		return 0, db.WrapError(err, "sync identity by normalized username")
	}
	return tag.RowsAffected(), nil
}

func (r *streamerRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM streamers WHERE id = $1`, id)
	if err != nil {
		return db.WrapError(err, "delete streamer")
	}
	return nil
}

func scanStreamers(rows pgx.Rows) ([]*models.Streamer, error) {
	streamers := []*models.Streamer{}
	for rows.Next() {
		s := &models.Streamer{}
		err := rows.Scan(
			&s.ID, &s.Platform, &s.PlatformUserID, &s.Username, &s.NormalizedUsername,
			&s.DiscordUserID, &s.ProfileImageURL, &s.CreatedAt, &s.UpdatedAt,
		)
		if err != nil {
			return nil, db.WrapError(err, "scan streamer")
		}
		streamers = append(streamers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, db.WrapError(err, "iterate streamers")
	}
	return streamers, nil
}
