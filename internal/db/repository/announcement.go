package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/streamkit/stream-announcer-go/internal/db"
	"github.com/streamkit/stream-announcer-go/internal/db/models"
)

// AnnouncementRepository defines operations on the live projection. The row is
// the single source of truth for "currently announced live": the poller is the
// only creator, the offline worker the only deleter, and both treat
// "row already gone" as success.
type AnnouncementRepository interface {
	// Create inserts an announcement if none exists for the
	// (guild, streamer, channel) triple. Returns false without error when a
	// concurrent worker won the race.
	Create(ctx context.Context, a *models.Announcement) (bool, error)

	// Get retrieves the announcement for a triple.
	Get(ctx context.Context, guildID string, streamerID int64, channelID string) (*models.Announcement, error)

	// ListAll retrieves every live announcement.
	ListAll(ctx context.Context) ([]*models.Announcement, error)

	// ListByStreamerID retrieves the live announcements for one streamer.
	ListByStreamerID(ctx context.Context, streamerID int64) ([]*models.Announcement, error)

	// Delete removes the announcement for a triple. Returns false when the
	// row was already gone.
	Delete(ctx context.Context, guildID string, streamerID int64, channelID string) (bool, error)

	// CountByStreamerID counts remaining live announcements for a streamer.
	CountByStreamerID(ctx context.Context, streamerID int64) (int, error)
}

type announcementRepository struct {
	pool *pgxpool.Pool
}

// NewAnnouncementRepository creates a new AnnouncementRepository.
func NewAnnouncementRepository(pool *pgxpool.Pool) AnnouncementRepository {
	return &announcementRepository{pool: pool}
}

const announcementColumns = `id, guild_id, channel_id, streamer_id, message_id, started_at`

func (r *announcementRepository) Create(ctx context.Context, a *models.Announcement) (bool, error) {
	query := `
		INSERT INTO announcements (guild_id, channel_id, streamer_id, message_id, started_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (guild_id, streamer_id, channel_id) DO NOTHING
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		a.GuildID,
		a.ChannelID,
		a.StreamerID,
		a.MessageID,
		a.StartedAt,
	).Scan(&a.ID)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Conflict: a row already exists for the triple.
			return false, nil
		}
		return false, db.WrapError(err, "create announcement")
	}

	return true, nil
}

func (r *announcementRepository) Get(ctx context.Context, guildID string, streamerID int64, channelID string) (*models.Announcement, error) {
	query := `SELECT ` + announcementColumns + `
		FROM announcements
		WHERE guild_id = $1 AND streamer_id = $2 AND channel_id = $3`

	a := &models.Announcement{}
	err := r.pool.QueryRow(ctx, query, guildID, streamerID, channelID).Scan(
		&a.ID, &a.GuildID, &a.ChannelID, &a.StreamerID, &a.MessageID, &a.StartedAt,
	)
	if err != nil {
		return nil, db.WrapError(err, "get announcement")
	}
	return a, nil
}

func (r *announcementRepository) ListAll(ctx context.Context) ([]*models.Announcement, error) {
	query := `SELECT ` + announcementColumns + ` FROM announcements ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, db.WrapError(err, "list announcements")
	}
	defer rows.Close()

	return scanAnnouncements(rows)
}

func (r *announcementRepository) ListByStreamerID(ctx context.Context, streamerID int64) ([]*models.Announcement, error) {
	query := `SELECT ` + announcementColumns + ` FROM announcements WHERE streamer_id = $1 ORDER BY id`

	rows, err := r.pool.Query(ctx, query, streamerID)
	if err != nil {
		return nil, db.WrapError(err, "list announcements by streamer id")
	}
	defer rows.Close()

	return scanAnnouncements(rows)
}

func (r *announcementRepository) Delete(ctx context.Context, guildID string, streamerID int64, channelID string) (bool, error) {
	query := `DELETE FROM announcements WHERE guild_id = $1 AND streamer_id = $2 AND channel_id = $3`

	tag, err := r.pool.Exec(ctx, query, guildID, streamerID, channelID)
	if err != nil {
		return false, db.WrapError(err, "delete announcement")
	}
	return tag.RowsAffected() > 0, nil
}

func (r *announcementRepository) CountByStreamerID(ctx context.Context, streamerID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM announcements WHERE streamer_id = $1`, streamerID).Scan(&count)
	if err != nil {
		return 0, db.WrapError(err, "count announcements by streamer id")
	}
	return count, nil
}

func scanAnnouncements(rows pgx.Rows) ([]*models.Announcement, error) {
	anns := []*models.Announcement{}
	for rows.Next() {
		a := &models.Announcement{}
		err := rows.Scan(&a.ID, &a.GuildID, &a.ChannelID, &a.StreamerID, &a.MessageID, &a.StartedAt)
		if err != nil {
			return nil, db.WrapError(err, "scan announcement")
		}
		anns = append(anns, a)
	}
	if err := rows.Err(); err != nil {
		return nil, db.WrapError(err, "iterate announcements")
	}
	return anns, nil
}
