package enums

import (
	"fmt"
	"time"
)

// MilestoneType identifies one notification milestone for an event.
type MilestoneType string

const (
	MilestonePre3D           MilestoneType = "PRE_3D"
	MilestonePre24H          MilestoneType = "PRE_24H"
	MilestonePre1H           MilestoneType = "PRE_1H"
	MilestoneEventUpdate     MilestoneType = "EVENT_UPDATE"
	MilestoneAttendanceCheck MilestoneType = "ATTENDANCE_CHECK"
)

var validMilestoneTypes = []MilestoneType{
	MilestonePre3D,
	MilestonePre24H,
	MilestonePre1H,
	MilestoneEventUpdate,
	MilestoneAttendanceCheck,
}

// TimedMilestones are the pre-event milestones with a fixed hour offset,
// ordered from the widest window to the narrowest.
var TimedMilestones = []MilestoneType{
	MilestonePre3D,
	MilestonePre24H,
	MilestonePre1H,
}

// HoursBefore returns the hour offset before event start at which the
// milestone becomes due, or 0 for milestones without a fixed offset.
func (m MilestoneType) HoursBefore() float64 {
	switch m {
	case MilestonePre3D:
		return 72
	case MilestonePre24H:
		return 24
	case MilestonePre1H:
		return 1
	default:
		return 0
	}
}

// Window returns HoursBefore as a duration.
func (m MilestoneType) Window() time.Duration {
	return time.Duration(m.HoursBefore() * float64(time.Hour))
}

// IsValid checks whether the given type matches the canonical enum.
func (m MilestoneType) IsValid() bool {
	for _, candidate := range validMilestoneTypes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMilestoneType converts raw strings into MilestoneType.
func ParseMilestoneType(value string) (MilestoneType, error) {
	for _, candidate := range validMilestoneTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid milestone type %q", value)
}
