package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/streamkit/stream-announcer-go/internal/db"
	"github.com/streamkit/stream-announcer-go/internal/db/models"
	"github.com/streamkit/stream-announcer-go/internal/db/repository"
	"github.com/streamkit/stream-announcer-go/internal/gateway"
)

// BlacklistService records blacklist entries and purges everything the
// matching streamer owns: posted messages (best effort), announcement rows,
// subscriptions, and finally the streamer rows themselves.
type BlacklistService struct {
	blacklist repository.BlacklistRepository
	streamers repository.StreamerRepository
	subs      repository.SubscriptionRepository
	anns      repository.AnnouncementRepository
	messenger gateway.Messenger
	log       *zap.Logger
}

// NewBlacklistService wires the blacklist service.
func NewBlacklistService(
	blacklist repository.BlacklistRepository,
	streamers repository.StreamerRepository,
	subs repository.SubscriptionRepository,
	anns repository.AnnouncementRepository,
	messenger gateway.Messenger,
	log *zap.Logger,
) *BlacklistService {
	return &BlacklistService{
		blacklist: blacklist,
		streamers: streamers,
		subs:      subs,
		anns:      anns,
		messenger: messenger,
		log:       log,
	}
}

// Add records the entry and purges matching streamers. Future subscriptions
// for the entry are blocked by the IsBlacklisted check in team sync.
func (b *BlacklistService) Add(ctx context.Context, e *models.BlacklistEntry) error {
	if err := b.blacklist.Create(ctx, e); err != nil && !db.IsDuplicateKey(err) {
		return fmt.Errorf("create blacklist entry: %w", err)
	}
	return b.purge(ctx, e)
}

// purge finds every streamer row matching the entry, by natural key and by
// shared Discord id across platforms, and removes their footprint.
func (b *BlacklistService) purge(ctx context.Context, e *models.BlacklistEntry) error {
	targets := make(map[int64]*models.Streamer)

	s, err := b.streamers.GetByPlatformUserID(ctx, e.Platform, e.PlatformUserID)
	if err != nil && !db.IsNotFound(err) {
		return fmt.Errorf("find blacklisted streamer: %w", err)
	}
	if s != nil {
		targets[s.ID] = s
	}

	if e.DiscordUserID != nil && *e.DiscordUserID != "" {
		linked, err := b.streamers.ListByDiscordUserID(ctx, *e.DiscordUserID)
		if err != nil {
			return fmt.Errorf("find linked streamers: %w", err)
		}
		for _, l := range linked {
			targets[l.ID] = l
		}
	}

	for _, target := range targets {
		b.purgeStreamer(ctx, target)
	}
	return nil
}

func (b *BlacklistService) purgeStreamer(ctx context.Context, s *models.Streamer) {
	anns, err := b.anns.ListByStreamerID(ctx, s.ID)
	if err != nil {
		b.log.Error("Failed to list announcements for purge",
			zap.String("username", s.Username),
			zap.Error(err),
		)
	}
	for _, ann := range anns {
		if err := b.messenger.DeleteMessage(ctx, ann.ChannelID, ann.MessageID); err != nil {
			b.log.Warn("Failed to delete announcement message during purge",
				zap.String("channel_id", ann.ChannelID),
				zap.String("message_id", ann.MessageID),
				zap.Error(err),
			)
		}
		if _, err := b.anns.Delete(ctx, ann.GuildID, ann.StreamerID, ann.ChannelID); err != nil {
			b.log.Error("Failed to delete announcement row during purge",
				zap.Int64("streamer_id", ann.StreamerID),
				zap.Error(err),
			)
		}
	}

	if err := b.subs.DeleteByStreamerID(ctx, s.ID); err != nil {
		b.log.Error("Failed to delete subscriptions during purge",
			zap.String("username", s.Username),
			zap.Error(err),
		)
		return
	}

	if err := b.streamers.Delete(ctx, s.ID); err != nil {
		b.log.Error("Failed to delete streamer during purge",
			zap.String("username", s.Username),
			zap.Error(err),
		)
		return
	}

	b.log.Info("Purged blacklisted streamer",
		zap.String("platform", string(s.Platform)),
		zap.String("username", s.Username),
	)
}
