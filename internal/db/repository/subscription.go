package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/streamkit/stream-announcer-go/internal/db"
	"github.com/streamkit/stream-announcer-go/internal/db/models"
)

// SubscriptionRepository defines operations on announcement subscriptions.
type SubscriptionRepository interface {
	// Create inserts a subscription. Duplicate (guild, streamer, channel)
	// triples surface as db.ErrDuplicateKey.
	Create(ctx context.Context, sub *models.Subscription) error

	// Get retrieves a subscription by its natural key.
	Get(ctx context.Context, guildID string, streamerID int64, channelID string) (*models.Subscription, error)

	// ListByStreamerID retrieves every subscription for a streamer across guilds.
	ListByStreamerID(ctx context.Context, streamerID int64) ([]*models.Subscription, error)

	// ListByTeamID retrieves the subscriptions tagged with a team.
	ListByTeamID(ctx context.Context, teamID int64) ([]*models.Subscription, error)

	// DeleteByTeamAndStreamer removes the team-tagged subscriptions for a
	// streamer. The streamer row itself is untouched.
	DeleteByTeamAndStreamer(ctx context.Context, teamID, streamerID int64) error

	// DeleteByStreamerID removes every subscription for a streamer. Used only
	// by the blacklist purge.
	DeleteByStreamerID(ctx context.Context, streamerID int64) error
}

type subscriptionRepository struct {
	pool *pgxpool.Pool
}

// NewSubscriptionRepository creates a new SubscriptionRepository.
func NewSubscriptionRepository(pool *pgxpool.Pool) SubscriptionRepository {
	return &subscriptionRepository{pool: pool}
}

const subscriptionColumns = `id, guild_id, streamer_id, channel_id, team_subscription_id,
       override_nickname, override_avatar_url, custom_message, delete_on_end, created_at`

func (r *subscriptionRepository) Create(ctx context.Context, sub *models.Subscription) error {
	query := `
		INSERT INTO subscriptions (
			guild_id, streamer_id, channel_id, team_subscription_id,
			override_nickname, override_avatar_url, custom_message, delete_on_end, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query,
		sub.GuildID,
		sub.StreamerID,
		sub.ChannelID,
		sub.TeamSubscriptionID,
		sub.OverrideNickname,
		sub.OverrideAvatarURL,
		sub.CustomMessage,
		sub.DeleteOnEnd,
		sub.CreatedAt,
	).Scan(&sub.ID, &sub.CreatedAt)

	if err != nil {
		return db.WrapError(err, "create subscription")
	}

	return nil
}

func (r *subscriptionRepository) Get(ctx context.Context, guildID string, streamerID int64, channelID string) (*models.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE guild_id = $1 AND streamer_id = $2 AND channel_id = $3`

	sub := &models.Subscription{}
	err := r.pool.QueryRow(ctx, query, guildID, streamerID, channelID).Scan(
		&sub.ID, &sub.GuildID, &sub.StreamerID, &sub.ChannelID, &sub.TeamSubscriptionID,
		&sub.OverrideNickname, &sub.OverrideAvatarURL, &sub.CustomMessage, &sub.DeleteOnEnd, &sub.CreatedAt,
	)
	if err != nil {
		return nil, db.WrapError(err, "get subscription")
	}
	return sub, nil
}

func (r *subscriptionRepository) ListByStreamerID(ctx context.Context, streamerID int64) ([]*models.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE streamer_id = $1
		ORDER BY id`

	rows, err := r.pool.Query(ctx, query, streamerID)
	if err != nil {
		return nil, db.WrapError(err, "list subscriptions by streamer id")
	}
	defer rows.Close()

	return scanSubscriptions(rows)
}

func (r *subscriptionRepository) ListByTeamID(ctx context.Context, teamID int64) ([]*models.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE team_subscription_id = $1
		ORDER BY id`

	rows, err := r.pool.Query(ctx, query, teamID)
	if err != nil {
		return nil, db.WrapError(err, "list subscriptions by team id")
	}
	defer rows.Close()

	return scanSubscriptions(rows)
}

func (r *subscriptionRepository) DeleteByTeamAndStreamer(ctx context.Context, teamID, streamerID int64) error {
	query := `DELETE FROM subscriptions WHERE team_subscription_id = $1 AND streamer_id = $2`

	_, err := r.pool.Exec(ctx, query, teamID, streamerID)
	if err != nil {
		return db.WrapError(err, "delete subscriptions by team and streamer")
	}
	return nil
}

func (r *subscriptionRepository) DeleteByStreamerID(ctx context.Context, streamerID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM subscriptions WHERE streamer_id = $1`, streamerID)
	if err != nil {
		return db.WrapError(err, "delete subscriptions by streamer id")
	}
	return nil
}

func scanSubscriptions(rows pgx.Rows) ([]*models.Subscription, error) {
	subs := []*models.Subscription{}
	for rows.Next() {
		sub := &models.Subscription{}
		err := rows.Scan(
			&sub.ID, &sub.GuildID, &sub.StreamerID, &sub.ChannelID, &sub.TeamSubscriptionID,
			&sub.OverrideNickname, &sub.OverrideAvatarURL, &sub.CustomMessage, &sub.DeleteOnEnd, &sub.CreatedAt,
		)
		if err != nil {
			return nil, db.WrapError(err, "scan subscription")
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, db.WrapError(err, "iterate subscriptions")
	}
	return subs, nil
}
