package models

import (
	"time"

	"github.com/streamkit/stream-announcer-go/internal/platform"
)

// Team is a named roster on one platform whose membership is mirrored into
// team-tagged subscriptions. Team sync is the only writer of that tag.
type Team struct {
	ID                    int64             `db:"id" json:"id"`
	GuildID               string            `db:"guild_id" json:"guild_id"`
	TeamName              string            `db:"team_name" json:"team_name"`
	Platform              platform.Platform `db:"platform" json:"platform"`
	AnnouncementChannelID string            `db:"announcement_channel_id" json:"announcement_channel_id"`
	LiveRoleID            *string           `db:"live_role_id" json:"live_role_id,omitempty"`
	CreatedAt             time.Time         `db:"created_at" json:"created_at"`
}
