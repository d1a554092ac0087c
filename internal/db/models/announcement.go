package models

import "time"

// Announcement is the live-projection record tied to a currently-posted
// message. Existence of the row IS the "currently announced live" flag:
// only the poller inserts rows, only the offline worker deletes them, and
// deleting an already-deleted row is a no-op.
type Announcement struct {
	ID         int64     `db:"id" json:"id"`
	GuildID    string    `db:"guild_id" json:"guild_id"`
	ChannelID  string    `db:"channel_id" json:"channel_id"`
	StreamerID int64     `db:"streamer_id" json:"streamer_id"`
	MessageID  string    `db:"message_id" json:"message_id"`
	StartedAt  time.Time `db:"started_at" json:"started_at"`
}

// NewAnnouncement records a freshly posted live message.
func NewAnnouncement(guildID, channelID string, streamerID int64, messageID string) *Announcement {
	return &Announcement{
		GuildID:    guildID,
		ChannelID:  channelID,
		StreamerID: streamerID,
		MessageID:  messageID,
		StartedAt:  time.Now(),
	}
}
