package models

import "time"

// ServerStat is one snapshot taken by the collect-server-stats task.
type ServerStat struct {
	ID          int64     `db:"id" json:"id"`
	GuildCount  int       `db:"guild_count" json:"guild_count"`
	MemberCount int       `db:"member_count" json:"member_count"`
	CollectedAt time.Time `db:"collected_at" json:"collected_at"`
}

// NewServerStat records current guild and member counts.
func NewServerStat(guilds, members int) *ServerStat {
	return &ServerStat{
		GuildCount:  guilds,
		MemberCount: members,
		CollectedAt: time.Now(),
	}
}
