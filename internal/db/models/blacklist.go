package models

import (
	"time"

	"github.com/streamkit/stream-announcer-go/internal/platform"
)

// BlacklistEntry blocks future subscriptions and announcements for the
// matching streamer, and its insertion triggers a cascading purge.
type BlacklistEntry struct {
	ID             int64             `db:"id" json:"id"`
	Platform       platform.Platform `db:"platform" json:"platform"`
	PlatformUserID string            `db:"platform_user_id" json:"platform_user_id"`
	Username       string            `db:"username" json:"username"`
	DiscordUserID  *string           `db:"discord_user_id" json:"discord_user_id,omitempty"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
}
