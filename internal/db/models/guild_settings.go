package models

// GuildSettings holds per-guild configuration. LiveRoleID is nullable:
// NULL means the guild has no guild-wide live role.
type GuildSettings struct {
	GuildID    string  `db:"guild_id" json:"guild_id"`
	LiveRoleID *string `db:"live_role_id" json:"live_role_id,omitempty"`
}
