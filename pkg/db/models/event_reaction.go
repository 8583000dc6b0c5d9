package models

import (
	"time"

	"github.com/google/uuid"
)

// EventReaction mirrors one (event, user, emoji) reaction observed on the
// announcement message. Discord is authoritative; these rows are a derived
// cache written exclusively by the reaction reconciler.
type EventReaction struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	EventID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_event_reaction_key"`
	DiscordUserID string    `gorm:"type:text;not null;uniqueIndex:idx_event_reaction_key"`
	Emoji         string    `gorm:"type:text;not null;uniqueIndex:idx_event_reaction_key"`

	// Display snapshot captured at sync time; not kept live-updated.
	DiscordUsername string  `gorm:"type:text;not null"`
	DiscordAvatar   *string `gorm:"type:text"`

	FetchedAt time.Time `gorm:"type:timestamptz;not null"`
}
