package models

import "time"

// Subscription is a community's request to receive live announcements for a
// streamer in a channel. Unique per (guild, streamer, channel). The polling
// pipeline only reads subscriptions; they are written by admin actions and
// team sync.
type Subscription struct {
	ID                 int64     `db:"id" json:"id"`
	GuildID            string    `db:"guild_id" json:"guild_id"`
	StreamerID         int64     `db:"streamer_id" json:"streamer_id"`
	ChannelID          string    `db:"channel_id" json:"channel_id"`
	TeamSubscriptionID *int64    `db:"team_subscription_id" json:"team_subscription_id,omitempty"`
	OverrideNickname   *string   `db:"override_nickname" json:"override_nickname,omitempty"`
	OverrideAvatarURL  *string   `db:"override_avatar_url" json:"override_avatar_url,omitempty"`
	CustomMessage      *string   `db:"custom_message" json:"custom_message,omitempty"`
	DeleteOnEnd        bool      `db:"delete_on_end" json:"delete_on_end"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}

// NewSubscription creates a subscription for a streamer in a guild channel.
func NewSubscription(guildID string, streamerID int64, channelID string) *Subscription {
	return &Subscription{
		GuildID:    guildID,
		StreamerID: streamerID,
		ChannelID:  channelID,
		CreatedAt:  time.Now(),
	}
}

// TagTeam marks the subscription as owned by a team.
func (s *Subscription) TagTeam(teamID int64) {
	s.TeamSubscriptionID = &teamID
}
