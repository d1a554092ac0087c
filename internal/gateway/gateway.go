// Package gateway wraps the Discord session behind narrow interfaces so the
// polling pipeline stays mockable and "not found" responses from the chat
// platform are normalized to already-satisfied results.
package gateway

import "context"

// AnnounceRequest carries everything needed to render a live announcement.
type AnnounceRequest struct {
	ChannelID     string
	AuthorName    string
	AuthorIconURL string
	Content       string
	Title         string
	URL           string
	Game          string
	ViewerCount   int
	ThumbnailURL  string
}

// Messenger posts, updates and removes announcement messages.
type Messenger interface {
	// SendAnnouncement posts a live announcement and returns the message id.
	SendAnnouncement(ctx context.Context, req AnnounceRequest) (string, error)

	// EditAnnouncement updates an existing announcement in place.
	// An already-deleted message is not an error.
	EditAnnouncement(ctx context.Context, channelID, messageID string, req AnnounceRequest) error

	// DeleteMessage removes a message. An already-deleted message is not an
	// error.
	DeleteMessage(ctx context.Context, channelID, messageID string) error
}

// Member is a guild member as needed for identity consolidation.
type Member struct {
	UserID      string
	Username    string
	DisplayName string
}

// GuildManager exposes role assignment and roster reads.
type GuildManager interface {
	// AddRole grants a role to a member. Missing role/member is not an error.
	AddRole(ctx context.Context, guildID, userID, roleID string) error

	// RemoveRole revokes a role from a member. Missing role/member is not an
	// error.
	RemoveRole(ctx context.Context, guildID, userID, roleID string) error

	// GuildIDs lists the guilds the bot is currently in.
	GuildIDs() []string

	// GuildMembers fetches the full member roster of a guild.
	GuildMembers(ctx context.Context, guildID string) ([]Member, error)

	// GuildStats returns current guild and aggregate member counts.
	GuildStats() (guilds, members int)
}
