package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/miklosbodnar/eventdeck-backend/pkg/enums"
)

// NotificationLog records that a milestone was dispatched for an event. The
// unique (event_id, type) pair is the sole deduplication key: its existence
// is what prevents a milestone from firing twice.
type NotificationLog struct {
	ID             uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	EventID        uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_notification_log_event_type"`
	Type           enums.MilestoneType `gorm:"type:milestone_type;not null;uniqueIndex:idx_notification_log_event_type"`
	RecipientCount int                 `gorm:"not null;default:0"`
	CreatedAt      time.Time           `gorm:"type:timestamptz;default:now()"`
}
