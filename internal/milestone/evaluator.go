package milestone

import (
	"time"

	"github.com/miklosbodnar/eventdeck-backend/pkg/enums"
)

// Due returns the timed milestones that should fire for an event starting
// at startTime, evaluated at now. A milestone is due when the event has not
// started yet, the remaining time is within the milestone's threshold, and
// no notification of that type has been logged.
//
// Eligibility depends only on remaining time, not on how far past the
// threshold the clock is. A worker that was down when a threshold passed
// fires the missed milestone on its next tick, and a milestone skipped that
// way stays eligible until the event starts.
func Due(startTime, now time.Time, logged func(enums.MilestoneType) bool) []enums.MilestoneType {
	remaining := startTime.Sub(now)
	if remaining <= 0 {
		return nil
	}

	var due []enums.MilestoneType
	for _, milestone := range enums.TimedMilestones {
		if remaining > milestone.Window() {
			continue
		}
		if logged != nil && logged(milestone) {
			continue
		}
		due = append(due, milestone)
	}
	return due
}
