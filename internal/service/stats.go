package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/streamkit/stream-announcer-go/internal/db/models"
	"github.com/streamkit/stream-announcer-go/internal/db/repository"
	"github.com/streamkit/stream-announcer-go/internal/gateway"
)

// StatsCollector snapshots guild and member counts for the hourly
// collect-server-stats task.
type StatsCollector struct {
	stats    repository.ServerStatRepository
	guildMgr gateway.GuildManager
	log      *zap.Logger
}

// NewStatsCollector wires the collector.
func NewStatsCollector(stats repository.ServerStatRepository, guildMgr gateway.GuildManager, log *zap.Logger) *StatsCollector {
	return &StatsCollector{
		stats:    stats,
		guildMgr: guildMgr,
		log:      log,
	}
}

// Collect writes one snapshot row.
func (c *StatsCollector) Collect(ctx context.Context) error {
	guilds, members := c.guildMgr.GuildStats()

	stat := models.NewServerStat(guilds, members)
	if err := c.stats.Insert(ctx, stat); err != nil {
		return fmt.Errorf("insert server stat: %w", err)
	}

	c.log.Debug("Collected server stats",
		zap.Int("guilds", guilds),
		zap.Int("members", members),
	)
	return nil
}
