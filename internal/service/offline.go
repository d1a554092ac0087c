package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/streamkit/stream-announcer-go/internal/db"
	"github.com/streamkit/stream-announcer-go/internal/db/repository"
	"github.com/streamkit/stream-announcer-go/internal/gateway"
	"github.com/streamkit/stream-announcer-go/internal/metrics"
	"github.com/streamkit/stream-announcer-go/internal/platform"
	"github.com/streamkit/stream-announcer-go/internal/queue"
)

// OfflineProcessor acts on one live→offline transition. It runs under
// at-least-once delivery with no locking, so every step must be safe to
// replay: message already gone is success, announcement row already gone is
// a no-op, and role removal is gated on no other linked platform being live.
type OfflineProcessor struct {
	streamers repository.StreamerRepository
	anns      repository.AnnouncementRepository
	sessions  repository.StreamSessionRepository
	registry  *platform.Registry
	messenger gateway.Messenger
	guildMgr  gateway.GuildManager
	timeout   time.Duration
	log       *zap.Logger
}

// NewOfflineProcessor wires the offline worker.
func NewOfflineProcessor(
	streamers repository.StreamerRepository,
	anns repository.AnnouncementRepository,
	sessions repository.StreamSessionRepository,
	registry *platform.Registry,
	messenger gateway.Messenger,
	guildMgr gateway.GuildManager,
	requestTimeout time.Duration,
	log *zap.Logger,
) *OfflineProcessor {
	if requestTimeout <= 0 {
		requestTimeout = 10 * time.Second
	}
	return &OfflineProcessor{
		streamers: streamers,
		anns:      anns,
		sessions:  sessions,
		registry:  registry,
		messenger: messenger,
		guildMgr:  guildMgr,
		timeout:   requestTimeout,
		log:       log,
	}
}

// Process handles one offline job. Step failures are logged and do not abort
// the remaining steps; partial completion self-heals because the poller keeps
// re-enqueueing until the announcement row is deleted in the final step.
// Always returns nil so the delivery is acked.
func (w *OfflineProcessor) Process(ctx context.Context, job *queue.OfflineJob) error {
	failed := false

	if job.DeleteOnEnd && job.MessageID != "" {
		if err := w.messenger.DeleteMessage(ctx, job.ChannelID, job.MessageID); err != nil {
			failed = true
			w.log.Warn("Failed to delete announcement message",
				zap.String("channel_id", job.ChannelID),
				zap.String("message_id", job.MessageID),
				zap.Error(err),
			)
		}
	}

	if job.DiscordUserID != "" && len(job.RoleIDs) > 0 {
		if w.anyOtherPlatformLive(ctx, job) {
			w.log.Info("Skipping role removal, still live on another platform",
				zap.String("discord_user_id", job.DiscordUserID),
				zap.Int64("streamer_id", job.StreamerID),
			)
		} else {
			for _, roleID := range job.RoleIDs {
				if err := w.guildMgr.RemoveRole(ctx, job.GuildID, job.DiscordUserID, roleID); err != nil {
					failed = true
					w.log.Warn("Failed to remove live role",
						zap.String("guild_id", job.GuildID),
						zap.String("role_id", roleID),
						zap.Error(err),
					)
				}
			}
		}
	}

	deleted, err := w.anns.Delete(ctx, job.GuildID, job.StreamerID, job.ChannelID)
	if err != nil {
		failed = true
		w.log.Error("Failed to delete announcement row",
			zap.Int64("streamer_id", job.StreamerID),
			zap.String("guild_id", job.GuildID),
			zap.Error(err),
		)
	} else if deleted {
		w.closeSessionIfLast(ctx, job.StreamerID)
	}

	if failed {
		metrics.Inc(metrics.OfflineJobsFailed)
	}
	metrics.Inc(metrics.OfflineJobsProcessed)
	return nil
}

// anyOtherPlatformLive checks every other streamer row linked to the same
// Discord user. A platform error counts as not-live; a false positive here
// would only delay role removal by one poll cycle, while treating errors as
// live would make roles permanently sticky on a broken platform.
func (w *OfflineProcessor) anyOtherPlatformLive(ctx context.Context, job *queue.OfflineJob) bool {
	linked, err := w.streamers.ListByDiscordUserID(ctx, job.DiscordUserID)
	if err != nil {
		w.log.Error("Failed to list linked streamers",
			zap.String("discord_user_id", job.DiscordUserID),
			zap.Error(err),
		)
		return false
	}

	for _, s := range linked {
		if s.ID == job.StreamerID {
			continue
		}
		client, err := w.registry.Get(s.Platform)
		if err != nil {
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, w.timeout)
		live, err := client.IsLive(callCtx, s.Username)
		cancel()
		if err != nil {
			metrics.RecordPlatformError(string(s.Platform))
			w.log.Warn("Live check failed, treating as not live",
				zap.String("platform", string(s.Platform)),
				zap.String("username", s.Username),
				zap.Error(err),
			)
			continue
		}
		if live {
			return true
		}
	}
	return false
}

// closeSessionIfLast closes the open stream session once the streamer's last
// announcement row is gone.
func (w *OfflineProcessor) closeSessionIfLast(ctx context.Context, streamerID int64) {
	count, err := w.anns.CountByStreamerID(ctx, streamerID)
	if err != nil {
		w.log.Error("Failed to count announcements", zap.Int64("streamer_id", streamerID), zap.Error(err))
		return
	}
	if count > 0 {
		return
	}

	session, err := w.sessions.GetOpenByStreamerID(ctx, streamerID)
	if err != nil {
		if !db.IsNotFound(err) {
			w.log.Error("Failed to load open session", zap.Int64("streamer_id", streamerID), zap.Error(err))
		}
		return
	}

	if err := w.sessions.Close(ctx, session.ID); err != nil {
		w.log.Error("Failed to close stream session",
			zap.Int64("streamer_id", streamerID),
			zap.String("session_id", session.ID.String()),
			zap.Error(err),
		)
	}
}
