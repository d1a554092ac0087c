package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/streamkit/stream-announcer-go/internal/db/models"
	"github.com/streamkit/stream-announcer-go/internal/db/repository"
	"github.com/streamkit/stream-announcer-go/internal/gateway"
	"github.com/streamkit/stream-announcer-go/internal/platform"
)

// ConsolidationStats summarizes one consolidation run.
type ConsolidationStats struct {
	Relinked   int64
	Backfilled int64
}

// IdentityConsolidator repairs the streamer→Discord mapping from guild
// rosters and backfills missing secondary-platform rows. Safe to re-run:
// with no new members or streamers a run performs zero writes.
type IdentityConsolidator struct {
	streamers repository.StreamerRepository
	guildMgr  gateway.GuildManager
	registry  *platform.Registry
	timeout   time.Duration
	log       *zap.Logger
}

// NewIdentityConsolidator wires the consolidator.
func NewIdentityConsolidator(
	streamers repository.StreamerRepository,
	guildMgr gateway.GuildManager,
	registry *platform.Registry,
	requestTimeout time.Duration,
	log *zap.Logger,
) *IdentityConsolidator {
	if requestTimeout <= 0 {
		requestTimeout = 10 * time.Second
	}
	return &IdentityConsolidator{
		streamers: streamers,
		guildMgr:  guildMgr,
		registry:  registry,
		timeout:   requestTimeout,
		log:       log,
	}
}

// Consolidate runs both phases and reports what changed.
func (c *IdentityConsolidator) Consolidate(ctx context.Context) (ConsolidationStats, error) {
	var stats ConsolidationStats

	roster := c.buildRoster(ctx)

	relinked, err := c.relinkGroups(ctx, roster)
	if err != nil {
		return stats, err
	}
	stats.Relinked = relinked

	backfilled, err := c.backfillSecondary(ctx)
	if err != nil {
		return stats, err
	}
	stats.Backfilled = backfilled

	c.log.Info("Identity consolidation complete",
		zap.Int64("relinked", stats.Relinked),
		zap.Int64("backfilled", stats.Backfilled),
	)
	return stats, nil
}

// buildRoster maps normalized member names to Discord user ids across every
// guild. First writer wins, so a name claimed in one guild is not reassigned
// by another.
func (c *IdentityConsolidator) buildRoster(ctx context.Context) map[string]string {
	roster := make(map[string]string)

	for _, guildID := range c.guildMgr.GuildIDs() {
		members, err := c.guildMgr.GuildMembers(ctx, guildID)
		if err != nil {
			c.log.Warn("Failed to fetch guild members",
				zap.String("guild_id", guildID),
				zap.Error(err),
			)
			continue
		}
		for _, m := range members {
			for _, name := range []string{m.Username, m.DisplayName} {
				normalized := models.NormalizeUsername(name)
				if normalized == "" {
					continue
				}
				if _, taken := roster[normalized]; !taken {
					roster[normalized] = m.UserID
				}
			}
		}
	}

	return roster
}

// relinkGroups groups streamer rows by normalized username, picks a master
// Discord id per group, and rewrites disagreeing groups in one statement each.
func (c *IdentityConsolidator) relinkGroups(ctx context.Context, roster map[string]string) (int64, error) {
	all, err := c.streamers.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list streamers: %w", err)
	}

	groups := make(map[string][]*models.Streamer)
	for _, s := range all {
		groups[s.NormalizedUsername] = append(groups[s.NormalizedUsername], s)
	}

	var relinked int64
	for normalized, group := range groups {
		master := ""
		for _, s := range group {
			if s.DiscordUserID != nil && *s.DiscordUserID != "" {
				master = *s.DiscordUserID
				break
			}
		}
		if master == "" {
			master = roster[normalized]
		}
		if master == "" {
			continue
		}

		disagrees := false
		for _, s := range group {
			if s.DiscordUserID == nil || *s.DiscordUserID != master {
				disagrees = true
				break
			}
		}
		if !disagrees {
			continue
		}

		n, err := c.streamers.SetDiscordUserIDByNormalizedUsername(ctx, normalized, master)
		if err != nil {
			c.log.Error("Failed to relink identity group",
				zap.String("normalized_username", normalized),
				zap.Error(err),
			)
			continue
		}
		relinked += n
	}

	return relinked, nil
}

// backfillSecondary creates Kick rows for linked identities that only exist
// on the primary platform. One platform lookup per candidate per run; lookup
// failures are logged and skipped until the next run.
func (c *IdentityConsolidator) backfillSecondary(ctx context.Context) (int64, error) {
	kick, err := c.registry.Get(platform.Kick)
	if err != nil {
		// No secondary platform registered, nothing to backfill
		return 0, nil
	}

	all, err := c.streamers.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list streamers: %w", err)
	}

	hasKick := make(map[string]bool)
	for _, s := range all {
		if s.Platform == platform.Kick {
			hasKick[s.NormalizedUsername] = true
		}
	}

	var backfilled int64
	attempted := make(map[string]bool)
	for _, s := range all {
		if s.Platform == platform.Kick || s.DiscordUserID == nil || *s.DiscordUserID == "" {
			continue
		}
		if hasKick[s.NormalizedUsername] || attempted[s.NormalizedUsername] {
			continue
		}
		attempted[s.NormalizedUsername] = true

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		user, err := kick.GetUser(callCtx, s.Username)
		cancel()
		if err != nil {
			c.log.Warn("Secondary platform lookup failed",
				zap.String("username", s.Username),
				zap.Error(err),
			)
			continue
		}
		if user == nil {
			continue
		}

		row := models.NewStreamer(platform.Kick, user.PlatformUserID, user.Username)
		row.SetDiscordUserID(*s.DiscordUserID)
		if user.AvatarURL != "" {
			row.SetProfileImageURL(user.AvatarURL)
		}
		if err := c.streamers.Upsert(ctx, row); err != nil {
			c.log.Error("Failed to create secondary platform row",
				zap.String("username", user.Username),
				zap.Error(err),
			)
			continue
		}
		backfilled++
	}

	return backfilled, nil
}
