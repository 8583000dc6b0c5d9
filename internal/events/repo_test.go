package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/miklosbodnar/eventdeck-backend/pkg/db/models"
	"github.com/miklosbodnar/eventdeck-backend/pkg/enums"
)

func setupEventsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	events := `
CREATE TABLE IF NOT EXISTS events (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  start_time DATETIME NOT NULL,
  status TEXT NOT NULL DEFAULT 'DRAFT',
  scheduled_at DATETIME,
  announcement_channel_id TEXT,
  discord_message_id TEXT,
  banner_url TEXT,
  created_by_discord_id TEXT NOT NULL,
  reaction_sync_disabled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	notificationLogs := `
CREATE TABLE IF NOT EXISTS notification_logs (
  id TEXT PRIMARY KEY,
  event_id TEXT NOT NULL,
  type TEXT NOT NULL,
  recipient_count INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  UNIQUE (event_id, type)
);`
	eventReactions := `
CREATE TABLE IF NOT EXISTS event_reactions (
  id TEXT PRIMARY KEY,
  event_id TEXT NOT NULL,
  discord_user_id TEXT NOT NULL,
  emoji TEXT NOT NULL,
  discord_username TEXT NOT NULL DEFAULT '',
  discord_avatar TEXT,
  fetched_at DATETIME,
  created_at DATETIME,
  UNIQUE (event_id, discord_user_id, emoji)
);`
	for _, ddl := range []string{events, notificationLogs, eventReactions} {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

func insertEvent(t *testing.T, db *gorm.DB, event *models.Event) {
	t.Helper()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	require.NoError(t, db.Create(event).Error)
}

func strPtr(value string) *string { return &value }

func timePtr(value time.Time) *time.Time { return &value }

func TestFindDueScheduled(t *testing.T) {
	db := setupEventsTestDB(t)
	repo := NewRepository(db)
	now := time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC)

	due := models.Event{
		Name:               "due",
		StartTime:          now.Add(48 * time.Hour),
		Status:             enums.EventStatusScheduled,
		ScheduledAt:        timePtr(now.Add(-time.Minute)),
		CreatedByDiscordID: "creator",
	}
	notYet := models.Event{
		Name:               "not yet",
		StartTime:          now.Add(72 * time.Hour),
		Status:             enums.EventStatusScheduled,
		ScheduledAt:        timePtr(now.Add(time.Hour)),
		CreatedByDiscordID: "creator",
	}
	alreadyAnnounced := models.Event{
		Name:               "announced",
		StartTime:          now.Add(24 * time.Hour),
		Status:             enums.EventStatusAnnounced,
		ScheduledAt:        timePtr(now.Add(-time.Hour)),
		CreatedByDiscordID: "creator",
	}
	insertEvent(t, db, &due)
	insertEvent(t, db, &notYet)
	insertEvent(t, db, &alreadyAnnounced)

	found, err := repo.FindDueScheduled(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, due.ID, found[0].ID)
}

func TestFindUpcomingPreloadsAssociations(t *testing.T) {
	db := setupEventsTestDB(t)
	repo := NewRepository(db)
	now := time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC)

	event := models.Event{
		Name:               "with associations",
		StartTime:          now.Add(20 * time.Hour),
		Status:             enums.EventStatusAnnounced,
		CreatedByDiscordID: "creator",
	}
	past := models.Event{
		Name:               "already started",
		StartTime:          now.Add(-time.Hour),
		Status:             enums.EventStatusAnnounced,
		CreatedByDiscordID: "creator",
	}
	insertEvent(t, db, &event)
	insertEvent(t, db, &past)

	require.NoError(t, db.Create(&models.NotificationLog{
		ID:      uuid.New(),
		EventID: event.ID,
		Type:    enums.MilestonePre3D,
	}).Error)
	require.NoError(t, db.Create(&models.EventReaction{
		ID:            uuid.New(),
		EventID:       event.ID,
		DiscordUserID: "alice",
		Emoji:         "✅",
		FetchedAt:     now,
	}).Error)

	found, err := repo.FindUpcoming(context.Background(), []enums.EventStatus{enums.EventStatusAnnounced}, now)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.True(t, found[0].HasLog(enums.MilestonePre3D))
	assert.Equal(t, []string{"alice"}, found[0].AttendeeDiscordIDs("✅"))
}

func TestFindLiveAnnounced(t *testing.T) {
	db := setupEventsTestDB(t)
	repo := NewRepository(db)
	now := time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC)
	trailing := 24 * time.Hour

	live := models.Event{
		Name:                  "live",
		StartTime:             now.Add(2 * time.Hour),
		Status:                enums.EventStatusAnnounced,
		AnnouncementChannelID: strPtr("chan"),
		DiscordMessageID:      strPtr("msg"),
		CreatedByDiscordID:    "creator",
	}
	recentlyStarted := models.Event{
		Name:                  "recently started",
		StartTime:             now.Add(-2 * time.Hour),
		Status:                enums.EventStatusAnnounced,
		AnnouncementChannelID: strPtr("chan"),
		DiscordMessageID:      strPtr("msg"),
		CreatedByDiscordID:    "creator",
	}
	tooOld := models.Event{
		Name:                  "too old",
		StartTime:             now.Add(-48 * time.Hour),
		Status:                enums.EventStatusAnnounced,
		AnnouncementChannelID: strPtr("chan"),
		DiscordMessageID:      strPtr("msg"),
		CreatedByDiscordID:    "creator",
	}
	syncDisabled := models.Event{
		Name:                   "sync disabled",
		StartTime:              now.Add(2 * time.Hour),
		Status:                 enums.EventStatusAnnounced,
		AnnouncementChannelID:  strPtr("chan"),
		DiscordMessageID:       strPtr("msg"),
		ReactionSyncDisabledAt: timePtr(now.Add(-time.Hour)),
		CreatedByDiscordID:     "creator",
	}
	noMessage := models.Event{
		Name:               "no message",
		StartTime:          now.Add(2 * time.Hour),
		Status:             enums.EventStatusAnnounced,
		CreatedByDiscordID: "creator",
	}
	for _, e := range []*models.Event{&live, &recentlyStarted, &tooOld, &syncDisabled, &noMessage} {
		insertEvent(t, db, e)
	}

	found, err := repo.FindLiveAnnounced(context.Background(), now, trailing)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, recentlyStarted.ID, found[0].ID)
	assert.Equal(t, live.ID, found[1].ID)
}

func TestMarkAnnouncedOnlyTouchesScheduled(t *testing.T) {
	db := setupEventsTestDB(t)
	repo := NewRepository(db)
	now := time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC)

	scheduled := models.Event{
		Name:               "scheduled",
		StartTime:          now.Add(48 * time.Hour),
		Status:             enums.EventStatusScheduled,
		ScheduledAt:        timePtr(now.Add(-time.Minute)),
		CreatedByDiscordID: "creator",
	}
	cancelled := models.Event{
		Name:               "cancelled",
		StartTime:          now.Add(48 * time.Hour),
		Status:             enums.EventStatusCancelled,
		CreatedByDiscordID: "creator",
	}
	insertEvent(t, db, &scheduled)
	insertEvent(t, db, &cancelled)

	require.NoError(t, repo.MarkAnnounced(context.Background(), scheduled.ID, "chan", "msg", now))
	require.NoError(t, repo.MarkAnnounced(context.Background(), cancelled.ID, "chan", "msg", now))

	var reloaded models.Event
	require.NoError(t, db.First(&reloaded, "id = ?", scheduled.ID).Error)
	assert.Equal(t, enums.EventStatusAnnounced, reloaded.Status)
	require.NotNil(t, reloaded.DiscordMessageID)
	assert.Equal(t, "msg", *reloaded.DiscordMessageID)

	require.NoError(t, db.First(&reloaded, "id = ?", cancelled.ID).Error)
	assert.Equal(t, enums.EventStatusCancelled, reloaded.Status)
	assert.Nil(t, reloaded.DiscordMessageID)
}

func TestDisableReactionSyncIsPermanent(t *testing.T) {
	db := setupEventsTestDB(t)
	repo := NewRepository(db)
	now := time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC)

	event := models.Event{
		Name:                  "gone",
		StartTime:             now.Add(2 * time.Hour),
		Status:                enums.EventStatusAnnounced,
		AnnouncementChannelID: strPtr("chan"),
		DiscordMessageID:      strPtr("msg"),
		CreatedByDiscordID:    "creator",
	}
	insertEvent(t, db, &event)

	require.NoError(t, repo.DisableReactionSync(context.Background(), event.ID, now))

	var reloaded models.Event
	require.NoError(t, db.First(&reloaded, "id = ?", event.ID).Error)
	require.NotNil(t, reloaded.ReactionSyncDisabledAt)
	first := *reloaded.ReactionSyncDisabledAt

	// A later call must not move the timestamp.
	require.NoError(t, repo.DisableReactionSync(context.Background(), event.ID, now.Add(time.Hour)))
	require.NoError(t, db.First(&reloaded, "id = ?", event.ID).Error)
	assert.Equal(t, first, *reloaded.ReactionSyncDisabledAt)

	found, err := repo.FindLiveAnnounced(context.Background(), now, 24*time.Hour)
	require.NoError(t, err)
	assert.Empty(t, found)
}
