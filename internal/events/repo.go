package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/miklosbodnar/eventdeck-backend/pkg/db/models"
	"github.com/miklosbodnar/eventdeck-backend/pkg/enums"
)

// Repository exposes the event queries and transitions the scheduler drives.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindDueScheduled(ctx context.Context, now time.Time) ([]models.Event, error)
	FindUpcoming(ctx context.Context, statuses []enums.EventStatus, now time.Time) ([]models.Event, error)
	FindLiveAnnounced(ctx context.Context, now time.Time, trailing time.Duration) ([]models.Event, error)
	MarkAnnounced(ctx context.Context, eventID uuid.UUID, channelID, messageID string, now time.Time) error
	DisableReactionSync(ctx context.Context, eventID uuid.UUID, now time.Time) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an event repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

// FindDueScheduled returns SCHEDULED events whose publish moment has passed.
func (r *repositoryImpl) FindDueScheduled(ctx context.Context, now time.Time) ([]models.Event, error) {
	var events []models.Event
	err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_at IS NOT NULL AND scheduled_at <= ?", enums.EventStatusScheduled, now).
		Order("scheduled_at ASC").
		Find(&events).Error
	return events, err
}

// FindUpcoming returns future events in the given statuses with their
// notification logs and reaction cache preloaded.
func (r *repositoryImpl) FindUpcoming(ctx context.Context, statuses []enums.EventStatus, now time.Time) ([]models.Event, error) {
	var events []models.Event
	err := r.db.WithContext(ctx).
		Preload("NotificationLogs").
		Preload("Reactions").
		Where("status IN ? AND start_time > ?", statuses, now).
		Order("start_time ASC").
		Find(&events).Error
	return events, err
}

// FindLiveAnnounced returns announced events still eligible for reaction
// sync: a message reference exists, sync was not disabled, and the event
// started no earlier than the trailing window.
func (r *repositoryImpl) FindLiveAnnounced(ctx context.Context, now time.Time, trailing time.Duration) ([]models.Event, error) {
	var events []models.Event
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.EventStatusAnnounced).
		Where("discord_message_id IS NOT NULL AND announcement_channel_id IS NOT NULL").
		Where("reaction_sync_disabled_at IS NULL").
		Where("start_time > ?", now.Add(-trailing)).
		Order("start_time ASC").
		Find(&events).Error
	return events, err
}

// MarkAnnounced transitions the event to ANNOUNCED and stores the posted
// message reference.
func (r *repositoryImpl) MarkAnnounced(ctx context.Context, eventID uuid.UUID, channelID, messageID string, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ? AND status = ?", eventID, enums.EventStatusScheduled).
		Updates(map[string]any{
			"status":                  enums.EventStatusAnnounced,
			"announcement_channel_id": channelID,
			"discord_message_id":      messageID,
			"updated_at":              now,
		}).Error
}

// DisableReactionSync permanently stops reaction sync for an event whose
// announcement message is gone remotely.
func (r *repositoryImpl) DisableReactionSync(ctx context.Context, eventID uuid.UUID, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ? AND reaction_sync_disabled_at IS NULL", eventID).
		UpdateColumn("reaction_sync_disabled_at", now).Error
}
