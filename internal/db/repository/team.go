package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/streamkit/stream-announcer-go/internal/db"
	"github.com/streamkit/stream-announcer-go/internal/db/models"
)

// TeamRepository defines read operations on team rosters. Teams are created
// by the (external) command surface; the worker only reads them.
type TeamRepository interface {
	// ListAll retrieves every configured team.
	ListAll(ctx context.Context) ([]*models.Team, error)

	// GetByID retrieves one team.
	GetByID(ctx context.Context, id int64) (*models.Team, error)
}

type teamRepository struct {
	pool *pgxpool.Pool
}

// NewTeamRepository creates a new TeamRepository.
func NewTeamRepository(pool *pgxpool.Pool) TeamRepository {
	return &teamRepository{pool: pool}
}

const teamColumns = `id, guild_id, team_name, platform, announcement_channel_id, live_role_id, created_at`

func (r *teamRepository) ListAll(ctx context.Context) ([]*models.Team, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+teamColumns+` FROM teams ORDER BY id`)
	if err != nil {
		return nil, db.WrapError(err, "list teams")
	}
	defer rows.Close()

	teams := []*models.Team{}
	for rows.Next() {
		t := &models.Team{}
		err := rows.Scan(&t.ID, &t.GuildID, &t.TeamName, &t.Platform, &t.AnnouncementChannelID, &t.LiveRoleID, &t.CreatedAt)
		if err != nil {
			return nil, db.WrapError(err, "scan team")
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, db.WrapError(err, "iterate teams")
	}
	return teams, nil
}

func (r *teamRepository) GetByID(ctx context.Context, id int64) (*models.Team, error) {
	t := &models.Team{}
	err := r.pool.QueryRow(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = $1`, id).Scan(
		&t.ID, &t.GuildID, &t.TeamName, &t.Platform, &t.AnnouncementChannelID, &t.LiveRoleID, &t.CreatedAt,
	)
	if err != nil {
		return nil, db.WrapError(err, "get team by id")
	}
	return t, nil
}
