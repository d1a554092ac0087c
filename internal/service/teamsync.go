package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/streamkit/stream-announcer-go/internal/db"
	"github.com/streamkit/stream-announcer-go/internal/db/models"
	"github.com/streamkit/stream-announcer-go/internal/db/repository"
	"github.com/streamkit/stream-announcer-go/internal/platform"
)

// TeamSyncService mirrors platform team rosters into team-tagged
// subscriptions by set difference on normalized usernames. It only ever
// touches subscription rows it owns (tagged with the team id); streamer rows
// are upserted, never deleted.
type TeamSyncService struct {
	teams     repository.TeamRepository
	streamers repository.StreamerRepository
	subs      repository.SubscriptionRepository
	blacklist repository.BlacklistRepository
	registry  *platform.Registry
	timeout   time.Duration
	log       *zap.Logger
}

// NewTeamSyncService wires team sync.
func NewTeamSyncService(
	teams repository.TeamRepository,
	streamers repository.StreamerRepository,
	subs repository.SubscriptionRepository,
	blacklist repository.BlacklistRepository,
	registry *platform.Registry,
	requestTimeout time.Duration,
	log *zap.Logger,
) *TeamSyncService {
	if requestTimeout <= 0 {
		requestTimeout = 10 * time.Second
	}
	return &TeamSyncService{
		teams:     teams,
		streamers: streamers,
		subs:      subs,
		blacklist: blacklist,
		registry:  registry,
		timeout:   requestTimeout,
		log:       log,
	}
}

// SyncTeams syncs every configured team. Per-team failures are isolated.
func (t *TeamSyncService) SyncTeams(ctx context.Context) error {
	teams, err := t.teams.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list teams: %w", err)
	}

	for _, team := range teams {
		if err := t.syncTeam(ctx, team); err != nil {
			t.log.Error("Team sync failed",
				zap.String("team_name", team.TeamName),
				zap.String("guild_id", team.GuildID),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (t *TeamSyncService) syncTeam(ctx context.Context, team *models.Team) error {
	client, err := t.registry.Get(team.Platform)
	if err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	roster, err := client.GetTeamMembers(callCtx, team.TeamName)
	cancel()
	if err != nil {
		return fmt.Errorf("fetch team roster: %w", err)
	}

	rosterByName := make(map[string]platform.User, len(roster))
	for _, u := range roster {
		rosterByName[models.NormalizeUsername(u.Username)] = u
	}

	current, err := t.currentMembers(ctx, team)
	if err != nil {
		return err
	}

	// Removals: drop only the team-owned subscription links. A departed
	// member may have one tagged row per linked platform; every one goes.
	for normalized, rows := range current {
		if _, stillOnTeam := rosterByName[normalized]; stillOnTeam {
			continue
		}
		for _, s := range rows {
			if err := t.subs.DeleteByTeamAndStreamer(ctx, team.ID, s.ID); err != nil {
				t.log.Error("Failed to remove team member",
					zap.String("team_name", team.TeamName),
					zap.String("username", s.Username),
					zap.Error(err),
				)
				continue
			}
			t.log.Info("Removed team member",
				zap.String("team_name", team.TeamName),
				zap.String("username", s.Username),
			)
		}
	}

	// Additions
	for normalized, u := range rosterByName {
		if _, exists := current[normalized]; exists {
			continue
		}
		if err := t.addMember(ctx, team, u); err != nil {
			t.log.Error("Failed to add team member",
				zap.String("team_name", team.TeamName),
				zap.String("username", u.Username),
				zap.Error(err),
			)
		}
	}

	// Re-sync identity data across every roster name's platform rows
	for normalized := range rosterByName {
		t.syncIdentity(ctx, team.Platform, normalized)
	}

	return nil
}

// currentMembers groups the team's current team-tagged subscriptions by
// normalized username. A member linked on both platforms contributes one
// streamer row per platform under the same name.
func (t *TeamSyncService) currentMembers(ctx context.Context, team *models.Team) (map[string][]*models.Streamer, error) {
	subs, err := t.subs.ListByTeamID(ctx, team.ID)
	if err != nil {
		return nil, fmt.Errorf("list team subscriptions: %w", err)
	}

	members := make(map[string][]*models.Streamer, len(subs))
	for _, sub := range subs {
		s, err := t.streamers.GetByID(ctx, sub.StreamerID)
		if err != nil {
			if db.IsNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("load team member: %w", err)
		}
		members[s.NormalizedUsername] = append(members[s.NormalizedUsername], s)
	}
	return members, nil
}

func (t *TeamSyncService) addMember(ctx context.Context, team *models.Team, u platform.User) error {
	blacklisted, err := t.blacklist.IsBlacklisted(ctx, team.Platform, u.PlatformUserID)
	if err != nil {
		return fmt.Errorf("blacklist check: %w", err)
	}
	if blacklisted {
		t.log.Info("Skipping blacklisted team member",
			zap.String("team_name", team.TeamName),
			zap.String("username", u.Username),
		)
		return nil
	}

	s := models.NewStreamer(team.Platform, u.PlatformUserID, u.Username)
	if u.AvatarURL != "" {
		s.SetProfileImageURL(u.AvatarURL)
	}
	if err := t.streamers.Upsert(ctx, s); err != nil {
		return fmt.Errorf("upsert streamer: %w", err)
	}

	if err := t.subscribe(ctx, team, s.ID); err != nil {
		return err
	}

	t.log.Info("Added team member",
		zap.String("team_name", team.TeamName),
		zap.String("username", u.Username),
	)

	t.linkSecondary(ctx, team, u)
	return nil
}

func (t *TeamSyncService) subscribe(ctx context.Context, team *models.Team, streamerID int64) error {
	sub := models.NewSubscription(team.GuildID, streamerID, team.AnnouncementChannelID)
	sub.TagTeam(team.ID)
	if err := t.subs.Create(ctx, sub); err != nil {
		if db.IsDuplicateKey(err) {
			return nil
		}
		return fmt.Errorf("create subscription: %w", err)
	}
	return nil
}

// linkSecondary looks the member up on the secondary platform and, if found,
// subscribes that account too. Best effort: failures are logged.
func (t *TeamSyncService) linkSecondary(ctx context.Context, team *models.Team, u platform.User) {
	if team.Platform == platform.Kick {
		return
	}
	kick, err := t.registry.Get(platform.Kick)
	if err != nil {
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	match, err := kick.GetUser(callCtx, u.Username)
	cancel()
	if err != nil {
		t.log.Warn("Secondary platform lookup failed",
			zap.String("username", u.Username),
			zap.Error(err),
		)
		return
	}
	if match == nil {
		return
	}

	s := models.NewStreamer(platform.Kick, match.PlatformUserID, match.Username)
	if match.AvatarURL != "" {
		s.SetProfileImageURL(match.AvatarURL)
	}
	if err := t.streamers.Upsert(ctx, s); err != nil {
		t.log.Error("Failed to upsert secondary platform row",
			zap.String("username", match.Username),
			zap.Error(err),
		)
		return
	}
	if err := t.subscribe(ctx, team, s.ID); err != nil {
		t.log.Error("Failed to subscribe secondary platform row",
			zap.String("username", match.Username),
			zap.Error(err),
		)
	}
}

// syncIdentity propagates discord link and avatar from the primary platform
// row across every row sharing the normalized username.
func (t *TeamSyncService) syncIdentity(ctx context.Context, primary platform.Platform, normalized string) {
	rows, err := t.streamers.ListByNormalizedUsername(ctx, normalized)
	if err != nil {
		t.log.Error("Failed to list identity group",
			zap.String("normalized_username", normalized),
			zap.Error(err),
		)
		return
	}
	if len(rows) < 2 {
		return
	}

	var discordUserID, profileImageURL *string
	for _, s := range rows {
		if s.Platform != primary {
			continue
		}
		discordUserID = s.DiscordUserID
		profileImageURL = s.ProfileImageURL
		break
	}
	if discordUserID == nil && profileImageURL == nil {
		// Fall back to any linked row
		for _, s := range rows {
			if s.DiscordUserID != nil {
				discordUserID = s.DiscordUserID
				break
			}
		}
	}
	if discordUserID == nil && profileImageURL == nil {
		return
	}

	if _, err := t.streamers.SyncIdentityByNormalizedUsername(ctx, normalized, discordUserID, profileImageURL); err != nil {
		t.log.Error("Failed to sync identity group",
			zap.String("normalized_username", normalized),
			zap.Error(err),
		)
	}
}
