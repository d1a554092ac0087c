package models

import (
	"time"

	"github.com/google/uuid"
)

// StreamSession is a durable record of one broadcast, kept for analytics.
// Append-only: once EndedAt is set the row is never touched again.
type StreamSession struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	StreamerID int64      `db:"streamer_id" json:"streamer_id"`
	Title      string     `db:"title" json:"title"`
	Game       string     `db:"game" json:"game"`
	StartedAt  time.Time  `db:"started_at" json:"started_at"`
	EndedAt    *time.Time `db:"ended_at" json:"ended_at,omitempty"`
}

// NewStreamSession opens a session for a streamer's broadcast.
func NewStreamSession(streamerID int64, title, game string) *StreamSession {
	return &StreamSession{
		ID:         uuid.New(),
		StreamerID: streamerID,
		Title:      title,
		Game:       game,
		StartedAt:  time.Now(),
	}
}
