// Package service implements the scheduled jobs that keep announcements and
// roles consistent with live reality: the stream poller, the offline worker,
// team sync, identity consolidation, blacklist purge and stats collection.
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/streamkit/stream-announcer-go/internal/db"
	"github.com/streamkit/stream-announcer-go/internal/db/models"
	"github.com/streamkit/stream-announcer-go/internal/db/repository"
	"github.com/streamkit/stream-announcer-go/internal/gateway"
	"github.com/streamkit/stream-announcer-go/internal/metrics"
	"github.com/streamkit/stream-announcer-go/internal/platform"
	"github.com/streamkit/stream-announcer-go/internal/queue"
)

// OfflineJobPublisher enqueues offline jobs for the offline worker.
type OfflineJobPublisher interface {
	Publish(ctx context.Context, job *queue.OfflineJob) error
}

// streamStatus is a three-state observation. Unknown means the platform call
// failed; it never counts as offline, so transient API errors cannot tear
// down announcements or roles.
type streamStatus int

const (
	statusUnknown streamStatus = iota
	statusOffline
	statusLive
)

type observation struct {
	status  streamStatus
	details *platform.StreamDetails
}

// StreamPoller runs the check-streams cycle: one platform call per distinct
// subscribed streamer, then reconciliation of announcement rows against the
// observed statuses.
type StreamPoller struct {
	streamers repository.StreamerRepository
	subs      repository.SubscriptionRepository
	anns      repository.AnnouncementRepository
	sessions  repository.StreamSessionRepository
	teams     repository.TeamRepository
	guilds    repository.GuildSettingsRepository
	registry  *platform.Registry
	messenger gateway.Messenger
	guildMgr  gateway.GuildManager
	publisher OfflineJobPublisher
	timeout   time.Duration
	log       *zap.Logger
}

// NewStreamPoller wires the poller. requestTimeout bounds each platform call.
func NewStreamPoller(
	streamers repository.StreamerRepository,
	subs repository.SubscriptionRepository,
	anns repository.AnnouncementRepository,
	sessions repository.StreamSessionRepository,
	teams repository.TeamRepository,
	guilds repository.GuildSettingsRepository,
	registry *platform.Registry,
	messenger gateway.Messenger,
	guildMgr gateway.GuildManager,
	publisher OfflineJobPublisher,
	requestTimeout time.Duration,
	log *zap.Logger,
) *StreamPoller {
	if requestTimeout <= 0 {
		requestTimeout = 10 * time.Second
	}
	return &StreamPoller{
		streamers: streamers,
		subs:      subs,
		anns:      anns,
		sessions:  sessions,
		teams:     teams,
		guilds:    guilds,
		registry:  registry,
		messenger: messenger,
		guildMgr:  guildMgr,
		publisher: publisher,
		timeout:   requestTimeout,
		log:       log,
	}
}

// CheckStreams runs one poll cycle. Per-streamer failures degrade to an
// unknown observation and never abort the cycle; only infrastructure
// failures (database unreachable) return an error.
func (p *StreamPoller) CheckStreams(ctx context.Context) error {
	start := time.Now()

	streamers, err := p.streamers.ListSubscribed(ctx)
	if err != nil {
		return fmt.Errorf("list subscribed streamers: %w", err)
	}

	byID := make(map[int64]*models.Streamer, len(streamers))
	observations := make(map[int64]observation, len(streamers))
	for _, s := range streamers {
		byID[s.ID] = s
		observations[s.ID] = p.observe(ctx, s)
	}

	for _, s := range streamers {
		obs := observations[s.ID]
		if obs.status != statusLive {
			continue
		}
		p.reconcileLive(ctx, s, obs.details)
	}

	anns, err := p.anns.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list announcements: %w", err)
	}

	for _, ann := range anns {
		obs, observed := observations[ann.StreamerID]
		if observed && obs.status == statusLive {
			continue
		}
		if observed && obs.status == statusUnknown {
			// No transition on platform errors
			continue
		}
		// Offline, or the subscription vanished mid-flight and the streamer
		// was not polled at all: either way the posting must come down.
		p.enqueueOffline(ctx, ann, byID[ann.StreamerID])
	}

	metrics.Inc(metrics.PollCycles)
	metrics.SetTrackedStreamers(len(streamers))
	metrics.SetActiveAnnouncements(len(anns))
	if metrics.PollDuration != nil {
		metrics.PollDuration.Observe(time.Since(start).Seconds())
	}

	return nil
}

// observe makes the single platform call for a streamer.
func (p *StreamPoller) observe(ctx context.Context, s *models.Streamer) observation {
	client, err := p.registry.Get(s.Platform)
	if err != nil {
		p.log.Warn("No client for platform",
			zap.String("platform", string(s.Platform)),
			zap.String("username", s.Username),
		)
		return observation{status: statusUnknown}
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	details, err := client.GetStreamDetails(callCtx, s.Username)
	if err != nil {
		metrics.RecordPlatformError(string(s.Platform))
		p.log.Warn("Stream status check failed",
			zap.String("platform", string(s.Platform)),
			zap.String("username", s.Username),
			zap.Error(err),
		)
		return observation{status: statusUnknown}
	}
	if details == nil {
		return observation{status: statusOffline}
	}
	return observation{status: statusLive, details: details}
}

// reconcileLive brings every subscription for a live streamer to the LIVE
// state: post once on transition, edit in place afterwards.
func (p *StreamPoller) reconcileLive(ctx context.Context, s *models.Streamer, details *platform.StreamDetails) {
	subs, err := p.subs.ListByStreamerID(ctx, s.ID)
	if err != nil {
		p.log.Error("Failed to list subscriptions",
			zap.String("username", s.Username),
			zap.Error(err),
		)
		return
	}

	for _, sub := range subs {
		if err := p.reconcileSubscription(ctx, s, sub, details); err != nil {
			p.log.Error("Failed to reconcile subscription",
				zap.String("username", s.Username),
				zap.String("guild_id", sub.GuildID),
				zap.String("channel_id", sub.ChannelID),
				zap.Error(err),
			)
		}
	}
}

func (p *StreamPoller) reconcileSubscription(ctx context.Context, s *models.Streamer, sub *models.Subscription, details *platform.StreamDetails) error {
	existing, err := p.anns.Get(ctx, sub.GuildID, s.ID, sub.ChannelID)
	if err != nil && !db.IsNotFound(err) {
		return fmt.Errorf("get announcement: %w", err)
	}

	req := buildAnnounceRequest(s, sub, details)

	if existing != nil {
		// Already announced: in-place update, no state change
		return p.messenger.EditAnnouncement(ctx, existing.ChannelID, existing.MessageID, req)
	}

	messageID, err := p.messenger.SendAnnouncement(ctx, req)
	if err != nil {
		return fmt.Errorf("send announcement: %w", err)
	}

	ann := models.NewAnnouncement(sub.GuildID, sub.ChannelID, s.ID, messageID)
	created, err := p.anns.Create(ctx, ann)
	if err != nil {
		return fmt.Errorf("record announcement: %w", err)
	}
	if !created {
		// A concurrent cycle won the insert race; our posting is the duplicate
		if delErr := p.messenger.DeleteMessage(ctx, sub.ChannelID, messageID); delErr != nil {
			p.log.Warn("Failed to delete duplicate announcement",
				zap.String("channel_id", sub.ChannelID),
				zap.String("message_id", messageID),
				zap.Error(delErr),
			)
		}
		return nil
	}

	metrics.Inc(metrics.StreamsWentLive)
	p.log.Info("Streamer went live",
		zap.String("platform", string(s.Platform)),
		zap.String("username", s.Username),
		zap.String("guild_id", sub.GuildID),
	)

	p.ensureSession(ctx, s, details)
	p.addLiveRoles(ctx, s, sub)

	return nil
}

func (p *StreamPoller) ensureSession(ctx context.Context, s *models.Streamer, details *platform.StreamDetails) {
	_, err := p.sessions.GetOpenByStreamerID(ctx, s.ID)
	if err == nil {
		return
	}
	if !db.IsNotFound(err) {
		p.log.Error("Failed to check open session", zap.String("username", s.Username), zap.Error(err))
		return
	}

	session := models.NewStreamSession(s.ID, details.Title, details.Game)
	if err := p.sessions.Open(ctx, session); err != nil {
		p.log.Error("Failed to open stream session", zap.String("username", s.Username), zap.Error(err))
	}
}

func (p *StreamPoller) addLiveRoles(ctx context.Context, s *models.Streamer, sub *models.Subscription) {
	if s.DiscordUserID == nil {
		return
	}

	for _, roleID := range p.liveRoleIDs(ctx, sub) {
		if err := p.guildMgr.AddRole(ctx, sub.GuildID, *s.DiscordUserID, roleID); err != nil {
			p.log.Warn("Failed to add live role",
				zap.String("guild_id", sub.GuildID),
				zap.String("role_id", roleID),
				zap.String("username", s.Username),
				zap.Error(err),
			)
		}
	}
}

// liveRoleIDs collects the guild-level live role plus the team-level one for
// team-tagged subscriptions.
func (p *StreamPoller) liveRoleIDs(ctx context.Context, sub *models.Subscription) []string {
	var roleIDs []string

	settings, err := p.guilds.Get(ctx, sub.GuildID)
	if err != nil && !db.IsNotFound(err) {
		p.log.Warn("Failed to load guild settings", zap.String("guild_id", sub.GuildID), zap.Error(err))
	}
	if settings != nil && settings.LiveRoleID != nil {
		roleIDs = append(roleIDs, *settings.LiveRoleID)
	}

	if sub.TeamSubscriptionID != nil {
		team, err := p.teams.GetByID(ctx, *sub.TeamSubscriptionID)
		if err != nil {
			if !db.IsNotFound(err) {
				p.log.Warn("Failed to load team", zap.Int64("team_id", *sub.TeamSubscriptionID), zap.Error(err))
			}
		} else if team.LiveRoleID != nil && !contains(roleIDs, *team.LiveRoleID) {
			roleIDs = append(roleIDs, *team.LiveRoleID)
		}
	}

	return roleIDs
}

// enqueueOffline publishes one offline job for an announcement row whose
// streamer was confirmed offline or is no longer subscribed.
func (p *StreamPoller) enqueueOffline(ctx context.Context, ann *models.Announcement, s *models.Streamer) {
	job, err := queue.NewOfflineJob(ann.GuildID, ann.StreamerID, ann.ChannelID, ann.MessageID)
	if err != nil {
		p.log.Error("Failed to build offline job", zap.Int64("streamer_id", ann.StreamerID), zap.Error(err))
		return
	}

	sub, err := p.subs.Get(ctx, ann.GuildID, ann.StreamerID, ann.ChannelID)
	switch {
	case db.IsNotFound(err):
		// Subscription removed while live: no role context, just take the
		// posting down
		job.DeleteOnEnd = true
	case err != nil:
		p.log.Error("Failed to load subscription for offline job",
			zap.Int64("streamer_id", ann.StreamerID),
			zap.String("guild_id", ann.GuildID),
			zap.Error(err),
		)
		return
	default:
		job.DeleteOnEnd = sub.DeleteOnEnd
		job.RoleIDs = p.liveRoleIDs(ctx, sub)
		if s == nil {
			s, err = p.streamers.GetByID(ctx, ann.StreamerID)
			if err != nil && !db.IsNotFound(err) {
				p.log.Error("Failed to load streamer for offline job",
					zap.Int64("streamer_id", ann.StreamerID),
					zap.Error(err),
				)
				return
			}
		}
		if s != nil && s.DiscordUserID != nil {
			job.DiscordUserID = *s.DiscordUserID
		}
	}

	if err := p.publisher.Publish(ctx, job); err != nil {
		p.log.Error("Failed to publish offline job",
			zap.Int64("streamer_id", ann.StreamerID),
			zap.String("guild_id", ann.GuildID),
			zap.Error(err),
		)
		return
	}

	metrics.Inc(metrics.StreamsWentOffline)
	metrics.Inc(metrics.OfflineJobsPublished)
}

// buildAnnounceRequest renders the message, honoring per-subscription
// overrides.
func buildAnnounceRequest(s *models.Streamer, sub *models.Subscription, details *platform.StreamDetails) gateway.AnnounceRequest {
	name := s.Username
	if sub.OverrideNickname != nil && *sub.OverrideNickname != "" {
		name = *sub.OverrideNickname
	}

	icon := ""
	if s.ProfileImageURL != nil {
		icon = *s.ProfileImageURL
	}
	if sub.OverrideAvatarURL != nil && *sub.OverrideAvatarURL != "" {
		icon = *sub.OverrideAvatarURL
	}

	content := fmt.Sprintf("%s is now live on %s!", name, s.Platform)
	if sub.CustomMessage != nil && *sub.CustomMessage != "" {
		content = *sub.CustomMessage
	}

	return gateway.AnnounceRequest{
		ChannelID:     sub.ChannelID,
		AuthorName:    name,
		AuthorIconURL: icon,
		Content:       content,
		Title:         details.Title,
		URL:           streamURL(s),
		Game:          details.Game,
		ViewerCount:   details.ViewerCount,
		ThumbnailURL:  details.ThumbnailURL,
	}
}

func streamURL(s *models.Streamer) string {
	switch s.Platform {
	case platform.Twitch:
		return "https://twitch.tv/" + s.Username
	case platform.Kick:
		return "https://kick.com/" + s.Username
	default:
		return ""
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
