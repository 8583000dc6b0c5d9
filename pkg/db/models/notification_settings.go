package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/miklosbodnar/eventdeck-backend/pkg/enums"
)

// NotificationSettings stores the per-user opt-in flags for each milestone
// type. A missing row means every notification is enabled.
type NotificationSettings struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	DiscordUserID string    `gorm:"type:text;not null;uniqueIndex"`

	PreEvent3Days      bool `gorm:"not null;default:true"`
	PreEvent24Hours    bool `gorm:"not null;default:true"`
	PreEvent1Hour      bool `gorm:"not null;default:true"`
	EventUpdates       bool `gorm:"not null;default:true"`
	AttendanceReminder bool `gorm:"not null;default:true"`

	Language string `gorm:"type:text;not null;default:'en'"`

	CreatedAt time.Time `gorm:"type:timestamptz;default:now()"`
	UpdatedAt time.Time `gorm:"type:timestamptz;default:now()"`
}

// Allows reports whether the user opted in to the given milestone type.
func (s NotificationSettings) Allows(milestone enums.MilestoneType) bool {
	switch milestone {
	case enums.MilestonePre3D:
		return s.PreEvent3Days
	case enums.MilestonePre24H:
		return s.PreEvent24Hours
	case enums.MilestonePre1H:
		return s.PreEvent1Hour
	case enums.MilestoneEventUpdate:
		return s.EventUpdates
	case enums.MilestoneAttendanceCheck:
		return s.AttendanceReminder
	default:
		return false
	}
}
