package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/streamkit/stream-announcer-go/internal/db/models"
	"github.com/streamkit/stream-announcer-go/internal/gateway"
	"github.com/streamkit/stream-announcer-go/internal/platform"
	"github.com/streamkit/stream-announcer-go/internal/queue"
)

type mockStreamerRepo struct{ mock.Mock }

func (m *mockStreamerRepo) Upsert(ctx context.Context, s *models.Streamer) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockStreamerRepo) GetByID(ctx context.Context, id int64) (*models.Streamer, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.Streamer), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStreamerRepo) GetByPlatformUserID(ctx context.Context, p platform.Platform, platformUserID string) (*models.Streamer, error) {
	args := m.Called(ctx, p, platformUserID)
	if v := args.Get(0); v != nil {
		return v.(*models.Streamer), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStreamerRepo) ListAll(ctx context.Context) ([]*models.Streamer, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]*models.Streamer), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStreamerRepo) ListSubscribed(ctx context.Context) ([]*models.Streamer, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]*models.Streamer), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStreamerRepo) ListByDiscordUserID(ctx context.Context, discordUserID string) ([]*models.Streamer, error) {
	args := m.Called(ctx, discordUserID)
	if v := args.Get(0); v != nil {
		return v.([]*models.Streamer), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStreamerRepo) ListByNormalizedUsername(ctx context.Context, normalized string) ([]*models.Streamer, error) {
	args := m.Called(ctx, normalized)
	if v := args.Get(0); v != nil {
		return v.([]*models.Streamer), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStreamerRepo) SetDiscordUserIDByNormalizedUsername(ctx context.Context, normalized, discordUserID string) (int64, error) {
	args := m.Called(ctx, normalized, discordUserID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStreamerRepo) SyncIdentityByNormalizedUsername(ctx context.Context, normalized string, discordUserID, profileImageURL *string) (int64, error) {
	args := m.Called(ctx, normalized, discordUserID, profileImageURL)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStreamerRepo) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type mockSubscriptionRepo struct{ mock.Mock }

func (m *mockSubscriptionRepo) Create(ctx context.Context, sub *models.Subscription) error {
	return m.Called(ctx, sub).Error(0)
}

func (m *mockSubscriptionRepo) Get(ctx context.Context, guildID string, streamerID int64, channelID string) (*models.Subscription, error) {
	args := m.Called(ctx, guildID, streamerID, channelID)
	if v := args.Get(0); v != nil {
		return v.(*models.Subscription), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSubscriptionRepo) ListByStreamerID(ctx context.Context, streamerID int64) ([]*models.Subscription, error) {
	args := m.Called(ctx, streamerID)
	if v := args.Get(0); v != nil {
		return v.([]*models.Subscription), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSubscriptionRepo) ListByTeamID(ctx context.Context, teamID int64) ([]*models.Subscription, error) {
	args := m.Called(ctx, teamID)
	if v := args.Get(0); v != nil {
		return v.([]*models.Subscription), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSubscriptionRepo) DeleteByTeamAndStreamer(ctx context.Context, teamID, streamerID int64) error {
	return m.Called(ctx, teamID, streamerID).Error(0)
}

func (m *mockSubscriptionRepo) DeleteByStreamerID(ctx context.Context, streamerID int64) error {
	return m.Called(ctx, streamerID).Error(0)
}

type mockAnnouncementRepo struct{ mock.Mock }

func (m *mockAnnouncementRepo) Create(ctx context.Context, a *models.Announcement) (bool, error) {
	args := m.Called(ctx, a)
	return args.Bool(0), args.Error(1)
}

func (m *mockAnnouncementRepo) Get(ctx context.Context, guildID string, streamerID int64, channelID string) (*models.Announcement, error) {
	args := m.Called(ctx, guildID, streamerID, channelID)
	if v := args.Get(0); v != nil {
		return v.(*models.Announcement), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAnnouncementRepo) ListAll(ctx context.Context) ([]*models.Announcement, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]*models.Announcement), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAnnouncementRepo) ListByStreamerID(ctx context.Context, streamerID int64) ([]*models.Announcement, error) {
	args := m.Called(ctx, streamerID)
	if v := args.Get(0); v != nil {
		return v.([]*models.Announcement), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAnnouncementRepo) Delete(ctx context.Context, guildID string, streamerID int64, channelID string) (bool, error) {
	args := m.Called(ctx, guildID, streamerID, channelID)
	return args.Bool(0), args.Error(1)
}

func (m *mockAnnouncementRepo) CountByStreamerID(ctx context.Context, streamerID int64) (int, error) {
	args := m.Called(ctx, streamerID)
	return args.Int(0), args.Error(1)
}

type mockSessionRepo struct{ mock.Mock }

func (m *mockSessionRepo) Open(ctx context.Context, s *models.StreamSession) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockSessionRepo) GetOpenByStreamerID(ctx context.Context, streamerID int64) (*models.StreamSession, error) {
	args := m.Called(ctx, streamerID)
	if v := args.Get(0); v != nil {
		return v.(*models.StreamSession), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessionRepo) Close(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockTeamRepo struct{ mock.Mock }

func (m *mockTeamRepo) ListAll(ctx context.Context) ([]*models.Team, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]*models.Team), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTeamRepo) GetByID(ctx context.Context, id int64) (*models.Team, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.Team), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockGuildSettingsRepo struct{ mock.Mock }

func (m *mockGuildSettingsRepo) Get(ctx context.Context, guildID string) (*models.GuildSettings, error) {
	args := m.Called(ctx, guildID)
	if v := args.Get(0); v != nil {
		return v.(*models.GuildSettings), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockBlacklistRepo struct{ mock.Mock }

func (m *mockBlacklistRepo) Create(ctx context.Context, e *models.BlacklistEntry) error {
	return m.Called(ctx, e).Error(0)
}

func (m *mockBlacklistRepo) IsBlacklisted(ctx context.Context, p platform.Platform, platformUserID string) (bool, error) {
	args := m.Called(ctx, p, platformUserID)
	return args.Bool(0), args.Error(1)
}

func (m *mockBlacklistRepo) ListAll(ctx context.Context) ([]*models.BlacklistEntry, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]*models.BlacklistEntry), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockServerStatRepo struct{ mock.Mock }

func (m *mockServerStatRepo) Insert(ctx context.Context, s *models.ServerStat) error {
	return m.Called(ctx, s).Error(0)
}

type mockMessenger struct{ mock.Mock }

func (m *mockMessenger) SendAnnouncement(ctx context.Context, req gateway.AnnounceRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *mockMessenger) EditAnnouncement(ctx context.Context, channelID, messageID string, req gateway.AnnounceRequest) error {
	return m.Called(ctx, channelID, messageID, req).Error(0)
}

func (m *mockMessenger) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return m.Called(ctx, channelID, messageID).Error(0)
}

type mockGuildManager struct{ mock.Mock }

func (m *mockGuildManager) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	return m.Called(ctx, guildID, userID, roleID).Error(0)
}

func (m *mockGuildManager) RemoveRole(ctx context.Context, guildID, userID, roleID string) error {
	return m.Called(ctx, guildID, userID, roleID).Error(0)
}

func (m *mockGuildManager) GuildIDs() []string {
	args := m.Called()
	if v := args.Get(0); v != nil {
		return v.([]string)
	}
	return nil
}

func (m *mockGuildManager) GuildMembers(ctx context.Context, guildID string) ([]gateway.Member, error) {
	args := m.Called(ctx, guildID)
	if v := args.Get(0); v != nil {
		return v.([]gateway.Member), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGuildManager) GuildStats() (int, int) {
	args := m.Called()
	return args.Int(0), args.Int(1)
}

type mockPlatformClient struct{ mock.Mock }

func (m *mockPlatformClient) IsLive(ctx context.Context, identifier string) (bool, error) {
	args := m.Called(ctx, identifier)
	return args.Bool(0), args.Error(1)
}

func (m *mockPlatformClient) GetStreamDetails(ctx context.Context, identifier string) (*platform.StreamDetails, error) {
	args := m.Called(ctx, identifier)
	if v := args.Get(0); v != nil {
		return v.(*platform.StreamDetails), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPlatformClient) GetUser(ctx context.Context, identifier string) (*platform.User, error) {
	args := m.Called(ctx, identifier)
	if v := args.Get(0); v != nil {
		return v.(*platform.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPlatformClient) GetTeamMembers(ctx context.Context, teamName string) ([]platform.User, error) {
	args := m.Called(ctx, teamName)
	if v := args.Get(0); v != nil {
		return v.([]platform.User), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, job *queue.OfflineJob) error {
	return m.Called(ctx, job).Error(0)
}

func strPtr(s string) *string { return &s }
