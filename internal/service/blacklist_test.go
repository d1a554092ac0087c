package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/streamkit/stream-announcer-go/internal/db/models"
	"github.com/streamkit/stream-announcer-go/internal/platform"
)

func TestBlacklistAdd_PurgesAcrossLinkedPlatforms(t *testing.T) {
	blacklist := &mockBlacklistRepo{}
	streamers := &mockStreamerRepo{}
	subs := &mockSubscriptionRepo{}
	anns := &mockAnnouncementRepo{}
	messenger := &mockMessenger{}

	svc := NewBlacklistService(blacklist, streamers, subs, anns, messenger, zap.NewNop())
	ctx := context.Background()

	twitchRow := twitchStreamer(1, "troll")
	twitchRow.SetDiscordUserID("discord-bad")
	kickRow := models.NewStreamer(platform.Kick, "k-1", "troll")
	kickRow.ID = 2
	kickRow.SetDiscordUserID("discord-bad")

	entry := &models.BlacklistEntry{
		Platform:       platform.Twitch,
		PlatformUserID: twitchRow.PlatformUserID,
		Username:       "troll",
		DiscordUserID:  strPtr("discord-bad"),
	}

	ann := models.NewAnnouncement("guild-1", "chan-1", 1, "msg-1")

	blacklist.On("Create", ctx, entry).Return(nil)
	streamers.On("GetByPlatformUserID", ctx, platform.Twitch, twitchRow.PlatformUserID).Return(twitchRow, nil)
	streamers.On("ListByDiscordUserID", ctx, "discord-bad").Return([]*models.Streamer{twitchRow, kickRow}, nil)

	anns.On("ListByStreamerID", ctx, int64(1)).Return([]*models.Announcement{ann}, nil)
	anns.On("ListByStreamerID", ctx, int64(2)).Return([]*models.Announcement{}, nil)
	messenger.On("DeleteMessage", ctx, "chan-1", "msg-1").Return(nil)
	anns.On("Delete", ctx, "guild-1", int64(1), "chan-1").Return(true, nil)

	subs.On("DeleteByStreamerID", ctx, int64(1)).Return(nil)
	subs.On("DeleteByStreamerID", ctx, int64(2)).Return(nil)
	streamers.On("Delete", ctx, int64(1)).Return(nil)
	streamers.On("Delete", ctx, int64(2)).Return(nil)

	require.NoError(t, svc.Add(ctx, entry))

	streamers.AssertExpectations(t)
	subs.AssertExpectations(t)
	anns.AssertExpectations(t)
}

func TestStatsCollector_Collect(t *testing.T) {
	stats := &mockServerStatRepo{}
	guildMgr := &mockGuildManager{}
	collector := NewStatsCollector(stats, guildMgr, zap.NewNop())
	ctx := context.Background()

	guildMgr.On("GuildStats").Return(3, 1200)
	stats.On("Insert", ctx, mock.MatchedBy(func(s *models.ServerStat) bool {
		return s.GuildCount == 3 && s.MemberCount == 1200
	})).Return(nil)

	require.NoError(t, collector.Collect(ctx))
	stats.AssertExpectations(t)
}
