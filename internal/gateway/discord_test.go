package gateway

import (
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestIgnoreNotFound(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantNil  bool
	}{
		{"nil error", nil, true},
		{
			"unknown message",
			&discordgo.RESTError{Message: &discordgo.APIErrorMessage{Code: discordgo.ErrCodeUnknownMessage}},
			true,
		},
		{
			"unknown role",
			&discordgo.RESTError{Message: &discordgo.APIErrorMessage{Code: discordgo.ErrCodeUnknownRole}},
			true,
		},
		{
			"unknown member",
			&discordgo.RESTError{Message: &discordgo.APIErrorMessage{Code: discordgo.ErrCodeUnknownMember}},
			true,
		},
		{
			"missing permissions is still an error",
			&discordgo.RESTError{Message: &discordgo.APIErrorMessage{Code: discordgo.ErrCodeMissingPermissions}},
			false,
		},
		{"plain error", errors.New("network down"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ignoreNotFound(tt.err)
			if (got == nil) != tt.wantNil {
				t.Errorf("ignoreNotFound(%v) = %v, wantNil=%v", tt.err, got, tt.wantNil)
			}
		})
	}
}

func TestBuildEmbed(t *testing.T) {
	embed := buildEmbed(AnnounceRequest{
		AuthorName:   "someone",
		Title:        "playing",
		URL:          "https://twitch.tv/someone",
		Game:         "Tetris",
		ViewerCount:  5,
		ThumbnailURL: "https://example.com/t.jpg",
	})

	if embed.Author == nil || embed.Author.Name != "someone" {
		t.Errorf("Author = %+v, want someone", embed.Author)
	}
	if len(embed.Fields) != 2 {
		t.Fatalf("len(Fields) = %d, want 2 (game + viewers)", len(embed.Fields))
	}
	if embed.Image == nil || embed.Image.URL != "https://example.com/t.jpg" {
		t.Errorf("Image = %+v", embed.Image)
	}

	// No game: only the viewer field
	embed = buildEmbed(AnnounceRequest{AuthorName: "someone"})
	if len(embed.Fields) != 1 {
		t.Errorf("len(Fields) = %d, want 1", len(embed.Fields))
	}
}
