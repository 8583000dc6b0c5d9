package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/miklosbodnar/eventdeck-backend/pkg/enums"
)

// Event is a community activity managed through the dashboard and announced
// to Discord. The scheduler owns its SCHEDULED -> ANNOUNCED transition.
type Event struct {
	ID          uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string            `gorm:"type:text;not null"`
	Description *string           `gorm:"type:text"`
	StartTime   time.Time         `gorm:"type:timestamptz;not null"`
	Status      enums.EventStatus `gorm:"type:event_status;not null;default:'DRAFT'"`

	// ScheduledAt is set iff Status is SCHEDULED.
	ScheduledAt *time.Time `gorm:"type:timestamptz"`

	// Discord message reference, set once the event is ANNOUNCED.
	AnnouncementChannelID *string `gorm:"type:text"`
	DiscordMessageID      *string `gorm:"type:text"`

	BannerURL          *string `gorm:"type:text"`
	CreatedByDiscordID string  `gorm:"type:text;not null"`

	// ReactionSyncDisabledAt marks the announcement message as gone remotely;
	// reaction sync never retries once set.
	ReactionSyncDisabledAt *time.Time `gorm:"type:timestamptz"`

	NotificationLogs []NotificationLog `gorm:"foreignKey:EventID"`
	Reactions        []EventReaction   `gorm:"foreignKey:EventID"`

	CreatedAt time.Time `gorm:"type:timestamptz;default:now()"`
	UpdatedAt time.Time `gorm:"type:timestamptz;default:now()"`
}

// MessageRef returns the stored channel/message reference, or false when the
// event has not been announced yet.
func (e Event) MessageRef() (channelID, messageID string, ok bool) {
	if e.AnnouncementChannelID == nil || e.DiscordMessageID == nil {
		return "", "", false
	}
	return *e.AnnouncementChannelID, *e.DiscordMessageID, true
}

// HasLog reports whether a notification log row exists for the milestone on
// the preloaded association.
func (e Event) HasLog(milestone enums.MilestoneType) bool {
	for _, log := range e.NotificationLogs {
		if log.Type == milestone {
			return true
		}
	}
	return false
}

// AttendeeDiscordIDs returns the discord user ids from the preloaded reaction
// cache that match the attend emoji.
func (e Event) AttendeeDiscordIDs(attendEmoji string) []string {
	ids := make([]string, 0, len(e.Reactions))
	for _, reaction := range e.Reactions {
		if reaction.Emoji == attendEmoji {
			ids = append(ids, reaction.DiscordUserID)
		}
	}
	return ids
}
