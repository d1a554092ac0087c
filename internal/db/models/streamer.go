package models

import (
	"strings"
	"time"
	"unicode"

	"github.com/streamkit/stream-announcer-go/internal/platform"
)

// Streamer is one platform-scoped creator identity. Rows on different
// platforms that share a non-null DiscordUserID are the same person.
type Streamer struct {
	ID                 int64             `db:"id" json:"id"`
	Platform           platform.Platform `db:"platform" json:"platform"`
	PlatformUserID     string            `db:"platform_user_id" json:"platform_user_id"`
	Username           string            `db:"username" json:"username"`
	NormalizedUsername string            `db:"normalized_username" json:"normalized_username"`
	DiscordUserID      *string           `db:"discord_user_id" json:"discord_user_id,omitempty"`
	ProfileImageURL    *string           `db:"profile_image_url" json:"profile_image_url,omitempty"`
	CreatedAt          time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time         `db:"updated_at" json:"updated_at"`
}

// NewStreamer creates a Streamer for a platform account, deriving the
// normalized username.
func NewStreamer(p platform.Platform, platformUserID, username string) *Streamer {
	now := time.Now()
	return &Streamer{
		Platform:           p,
		PlatformUserID:     platformUserID,
		Username:           username,
		NormalizedUsername: NormalizeUsername(username),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// SetDiscordUserID links the row to a Discord identity.
func (s *Streamer) SetDiscordUserID(id string) {
	s.DiscordUserID = &id
	s.UpdatedAt = time.Now()
}

// SetProfileImageURL updates the avatar.
func (s *Streamer) SetProfileImageURL(url string) {
	s.ProfileImageURL = &url
	s.UpdatedAt = time.Now()
}

// NormalizeUsername canonicalizes a username for cross-platform matching:
// lowercased, letters and digits only. "Some_User" and "someuser" collide,
// which is the point.
func NormalizeUsername(username string) string {
	var b strings.Builder
	b.Grow(len(username))
	for _, r := range strings.ToLower(username) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
