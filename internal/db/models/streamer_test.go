package models

import (
	"testing"

	"github.com/streamkit/stream-announcer-go/internal/platform"
)

func TestNormalizeUsername(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase passthrough", "streamer", "streamer"},
		{"case folded", "StReAmEr", "streamer"},
		{"underscores stripped", "some_user", "someuser"},
		{"dashes and dots stripped", "some-user.tv", "someusertv"},
		{"digits kept", "user123", "user123"},
		{"spaces stripped", "display name", "displayname"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeUsername(tt.in); got != tt.want {
				t.Errorf("NormalizeUsername(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeUsername_CrossPlatformCollision(t *testing.T) {
	// The same person as seen on two platforms must normalize identically.
	if NormalizeUsername("Cool_Streamer") != NormalizeUsername("coolstreamer") {
		t.Error("expected Cool_Streamer and coolstreamer to collide")
	}
}

func TestNewStreamer(t *testing.T) {
	s := NewStreamer(platform.Twitch, "123", "Some_User")
	if s.NormalizedUsername != "someuser" {
		t.Errorf("NormalizedUsername = %q, want someuser", s.NormalizedUsername)
	}
	if s.DiscordUserID != nil {
		t.Error("DiscordUserID should start unset")
	}

	s.SetDiscordUserID("999")
	if s.DiscordUserID == nil || *s.DiscordUserID != "999" {
		t.Errorf("DiscordUserID = %v, want 999", s.DiscordUserID)
	}
}
