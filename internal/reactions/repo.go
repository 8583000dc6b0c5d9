package reactions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/miklosbodnar/eventdeck-backend/pkg/db/models"
)

// Repository exposes persistence helpers for the reaction cache.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListUserIDs(ctx context.Context, eventID uuid.UUID, emoji string) ([]string, error)
	ListLocalEmoji(ctx context.Context, eventID uuid.UUID) ([]string, error)
	InsertBatch(ctx context.Context, rows []models.EventReaction) error
	DeleteBatch(ctx context.Context, eventID uuid.UUID, emoji string, userIDs []string) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a reaction-cache repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

// ListUserIDs returns the cached discord user ids for one (event, emoji) key.
func (r *repositoryImpl) ListUserIDs(ctx context.Context, eventID uuid.UUID, emoji string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.EventReaction{}).
		Where("event_id = ? AND emoji = ?", eventID, emoji).
		Pluck("discord_user_id", &ids).Error
	return ids, err
}

// ListLocalEmoji returns the distinct emoji that still have cached rows for
// the event.
func (r *repositoryImpl) ListLocalEmoji(ctx context.Context, eventID uuid.UUID) ([]string, error) {
	var emoji []string
	err := r.db.WithContext(ctx).
		Model(&models.EventReaction{}).
		Where("event_id = ?", eventID).
		Distinct().
		Pluck("emoji", &emoji).Error
	return emoji, err
}

// InsertBatch inserts reaction rows, skipping rows whose (event, user, emoji)
// key already exists.
func (r *repositoryImpl) InsertBatch(ctx context.Context, rows []models.EventReaction) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}

// DeleteBatch removes the given users from one (event, emoji) key.
func (r *repositoryImpl) DeleteBatch(ctx context.Context, eventID uuid.UUID, emoji string, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("event_id = ? AND emoji = ? AND discord_user_id IN ?", eventID, emoji, userIDs).
		Delete(&models.EventReaction{}).Error
}
