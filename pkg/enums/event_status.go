package enums

import "fmt"

// EventStatus maps to the event_status enum in Postgres.
type EventStatus string

const (
	EventStatusDraft     EventStatus = "DRAFT"
	EventStatusScheduled EventStatus = "SCHEDULED"
	EventStatusAnnounced EventStatus = "ANNOUNCED"
	EventStatusCancelled EventStatus = "CANCELLED"
)

var validEventStatuses = []EventStatus{
	EventStatusDraft,
	EventStatusScheduled,
	EventStatusAnnounced,
	EventStatusCancelled,
}

// IsValid checks whether the given status matches the canonical enum.
func (s EventStatus) IsValid() bool {
	for _, candidate := range validEventStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseEventStatus converts raw strings into EventStatus.
func ParseEventStatus(value string) (EventStatus, error) {
	for _, candidate := range validEventStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event status %q", value)
}
