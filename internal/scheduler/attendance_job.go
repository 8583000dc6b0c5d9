package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/miklosbodnar/eventdeck-backend/pkg/enums"
	"github.com/miklosbodnar/eventdeck-backend/pkg/logger"
)

const (
	attendanceLookAheadMin = 18 * time.Hour
	attendanceLookAheadMax = 30 * time.Hour
)

// AttendanceJobParams configure the day-before attendance check.
type AttendanceJobParams struct {
	Logger      *logger.Logger
	Repository  upcomingRepo
	Dispatcher  dispatcher
	Location    *time.Location
	LocalHour   int
	Window      time.Duration
	AttendEmoji string
	Now         func() time.Time
}

// NewAttendanceJob asks confirmed attendees to re-confirm the day before an
// event. The job fires once per day, during a short window at the configured
// local hour of the community timezone, and covers events starting roughly a
// day later.
func NewAttendanceJob(params AttendanceJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("event repository required")
	}
	if params.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher required")
	}
	if params.Location == nil {
		return nil, fmt.Errorf("timezone location required")
	}
	if params.LocalHour < 0 || params.LocalHour > 23 {
		return nil, fmt.Errorf("local hour %d out of range", params.LocalHour)
	}
	if params.AttendEmoji == "" {
		return nil, fmt.Errorf("attend emoji required")
	}
	window := params.Window
	if window <= 0 {
		window = 5 * time.Minute
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &attendanceJob{
		logg:        params.Logger,
		repo:        params.Repository,
		dispatcher:  params.Dispatcher,
		location:    params.Location,
		localHour:   params.LocalHour,
		window:      window,
		attendEmoji: params.AttendEmoji,
		now:         now,
	}, nil
}

type attendanceJob struct {
	logg        *logger.Logger
	repo        upcomingRepo
	dispatcher  dispatcher
	location    *time.Location
	localHour   int
	window      time.Duration
	attendEmoji string
	now         func() time.Time
}

func (j *attendanceJob) Name() string { return "attendance-check" }

func (j *attendanceJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	if !j.inWindow(now) {
		return nil
	}

	events, err := j.repo.FindUpcoming(ctx, []enums.EventStatus{enums.EventStatusAnnounced}, now)
	if err != nil {
		return fmt.Errorf("find announced events: %w", err)
	}

	var errs error
	for _, event := range events {
		untilStart := event.StartTime.Sub(now)
		if untilStart < attendanceLookAheadMin || untilStart > attendanceLookAheadMax {
			continue
		}
		if event.HasLog(enums.MilestoneAttendanceCheck) {
			continue
		}
		attendees := event.AttendeeDiscordIDs(j.attendEmoji)
		if len(attendees) == 0 {
			// Nobody to ask. Not logged either, so attendees reacting later
			// in the window still get asked on a subsequent tick.
			continue
		}
		eventCtx := j.logg.WithEventID(ctx, event.ID.String())
		if _, err := j.dispatcher.Dispatch(eventCtx, event, enums.MilestoneAttendanceCheck, attendees); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("event %s: %w", event.ID, err))
		}
	}
	return errs
}

// inWindow reports whether the wall clock in the community timezone is within
// the first minutes of the configured hour. Comparing the converted clock
// reading, not a formatted string, keeps this correct across DST changes.
func (j *attendanceJob) inWindow(now time.Time) bool {
	local := now.In(j.location)
	if local.Hour() != j.localHour {
		return false
	}
	sinceHour := time.Duration(local.Minute())*time.Minute +
		time.Duration(local.Second())*time.Second
	return sinceHour < j.window
}
