package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamkit/stream-announcer-go/internal/db/models"
	"github.com/streamkit/stream-announcer-go/internal/db/testutil"
	"github.com/streamkit/stream-announcer-go/internal/platform"
)

func setupStreamer(t *testing.T, td *testutil.TestDatabase) *models.Streamer {
	t.Helper()
	s := models.NewStreamer(platform.Twitch, "100", "someone")
	require.NoError(t, NewStreamerRepository(td.Pool).Upsert(context.Background(), s))
	return s
}

func TestAnnouncementRepository_Create(t *testing.T) {
	td := testutil.SetupTestDatabase(t)
	defer td.Cleanup(t)

	repo := NewAnnouncementRepository(td.Pool)
	ctx := context.Background()

	t.Run("creates announcement", func(t *testing.T) {
		td.TruncateTables(t)
		s := setupStreamer(t, td)

		a := models.NewAnnouncement("guild-1", "chan-1", s.ID, "msg-1")
		created, err := repo.Create(ctx, a)
		require.NoError(t, err)
		assert.True(t, created)
		assert.NotZero(t, a.ID)
	})

	t.Run("at most one row per guild/streamer/channel", func(t *testing.T) {
		td.TruncateTables(t)
		s := setupStreamer(t, td)

		first := models.NewAnnouncement("guild-1", "chan-1", s.ID, "msg-1")
		created, err := repo.Create(ctx, first)
		require.NoError(t, err)
		require.True(t, created)

		// A concurrent poll cycle losing the race gets created=false, no error
		second := models.NewAnnouncement("guild-1", "chan-1", s.ID, "msg-2")
		created, err = repo.Create(ctx, second)
		require.NoError(t, err)
		assert.False(t, created)

		all, err := repo.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "msg-1", all[0].MessageID)
	})

	t.Run("same streamer may be announced in different channels", func(t *testing.T) {
		td.TruncateTables(t)
		s := setupStreamer(t, td)

		created, err := repo.Create(ctx, models.NewAnnouncement("guild-1", "chan-1", s.ID, "msg-1"))
		require.NoError(t, err)
		require.True(t, created)

		created, err = repo.Create(ctx, models.NewAnnouncement("guild-2", "chan-9", s.ID, "msg-2"))
		require.NoError(t, err)
		assert.True(t, created)

		count, err := repo.CountByStreamerID(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})
}

func TestAnnouncementRepository_Delete(t *testing.T) {
	td := testutil.SetupTestDatabase(t)
	defer td.Cleanup(t)

	repo := NewAnnouncementRepository(td.Pool)
	ctx := context.Background()

	td.TruncateTables(t)
	s := setupStreamer(t, td)

	_, err := repo.Create(ctx, models.NewAnnouncement("guild-1", "chan-1", s.ID, "msg-1"))
	require.NoError(t, err)

	deleted, err := repo.Delete(ctx, "guild-1", s.ID, "chan-1")
	require.NoError(t, err)
	assert.True(t, deleted)

	// Deleting an already-deleted row is a no-op, not an error
	deleted, err = repo.Delete(ctx, "guild-1", s.ID, "chan-1")
	require.NoError(t, err)
	assert.False(t, deleted)
}
