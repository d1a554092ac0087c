package queue

import (
	"encoding/json"
	"fmt"
)

// System task types, scheduled at fixed intervals and processed serially.
const (
	TypeCheckStreams       = "system:check_streams"
	TypeSyncTeams          = "system:sync_teams"
	TypeSyncUsers          = "system:sync_users"
	TypeCollectServerStats = "system:collect_server_stats"
)

// QueueSystem is the asynq queue carrying the system tasks.
const QueueSystem = "system-tasks"

// OfflineJob is the payload of one live→offline transition for a single
// (guild, streamer, channel) triple. It carries enough context to be
// processed without re-querying state that might race with deletion.
type OfflineJob struct {
	GuildID       string   `json:"guild_id"`
	StreamerID    int64    `json:"streamer_id"`
	ChannelID     string   `json:"channel_id"`
	MessageID     string   `json:"message_id"`
	DeleteOnEnd   bool     `json:"delete_on_end"`
	DiscordUserID string   `json:"discord_user_id,omitempty"`
	RoleIDs       []string `json:"role_ids,omitempty"`
}

// NewOfflineJob validates and builds an offline job payload.
func NewOfflineJob(guildID string, streamerID int64, channelID, messageID string) (*OfflineJob, error) {
	if guildID == "" || channelID == "" {
		return nil, fmt.Errorf("guild and channel ids are required")
	}
	if streamerID == 0 {
		return nil, fmt.Errorf("streamer id is required")
	}
	return &OfflineJob{
		GuildID:    guildID,
		StreamerID: streamerID,
		ChannelID:  channelID,
		MessageID:  messageID,
	}, nil
}

// Marshal serializes the payload to JSON.
func (j *OfflineJob) Marshal() ([]byte, error) {
	return json.Marshal(j)
}

// UnmarshalOfflineJob deserializes JSON to payload.
func UnmarshalOfflineJob(data []byte) (*OfflineJob, error) {
	var job OfflineJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal offline job: %w", err)
	}
	return &job, nil
}
