package notifications

import (
	"context"

	"gorm.io/gorm"

	"github.com/miklosbodnar/eventdeck-backend/pkg/db/models"
)

// Repository persists notification logs and reads per-user settings.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	SettingsByDiscordIDs(ctx context.Context, discordIDs []string) (map[string]models.NotificationSettings, error)
	InsertLog(ctx context.Context, log *models.NotificationLog) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository builds the gorm-backed notification repository.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

// SettingsByDiscordIDs returns stored settings keyed by discord user id.
// Users without a row are absent from the map.
func (r *repositoryImpl) SettingsByDiscordIDs(ctx context.Context, discordIDs []string) (map[string]models.NotificationSettings, error) {
	if len(discordIDs) == 0 {
		return map[string]models.NotificationSettings{}, nil
	}
	var rows []models.NotificationSettings
	err := r.db.WithContext(ctx).
		Where("discord_user_id IN ?", discordIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.NotificationSettings, len(rows))
	for _, row := range rows {
		out[row.DiscordUserID] = row
	}
	return out, nil
}

func (r *repositoryImpl) InsertLog(ctx context.Context, log *models.NotificationLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}
