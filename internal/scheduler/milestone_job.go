package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/miklosbodnar/eventdeck-backend/internal/milestone"
	"github.com/miklosbodnar/eventdeck-backend/pkg/db/models"
	"github.com/miklosbodnar/eventdeck-backend/pkg/enums"
	"github.com/miklosbodnar/eventdeck-backend/pkg/logger"
)

type upcomingRepo interface {
	FindUpcoming(ctx context.Context, statuses []enums.EventStatus, now time.Time) ([]models.Event, error)
}

type dispatcher interface {
	Dispatch(ctx context.Context, event models.Event, milestone enums.MilestoneType, recipientIDs []string) (int, error)
}

// MilestoneJobParams configure the pre-event milestone job.
type MilestoneJobParams struct {
	Logger      *logger.Logger
	Repository  upcomingRepo
	Dispatcher  dispatcher
	AttendEmoji string
	Now         func() time.Time
}

// NewMilestoneJob checks every upcoming event against the timed milestone
// thresholds and dispatches the reminders that are due and not yet logged.
func NewMilestoneJob(params MilestoneJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("event repository required")
	}
	if params.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher required")
	}
	if params.AttendEmoji == "" {
		return nil, fmt.Errorf("attend emoji required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &milestoneJob{
		logg:        params.Logger,
		repo:        params.Repository,
		dispatcher:  params.Dispatcher,
		attendEmoji: params.AttendEmoji,
		now:         now,
	}, nil
}

type milestoneJob struct {
	logg        *logger.Logger
	repo        upcomingRepo
	dispatcher  dispatcher
	attendEmoji string
	now         func() time.Time
}

func (j *milestoneJob) Name() string { return "milestone-notify" }

func (j *milestoneJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	statuses := []enums.EventStatus{enums.EventStatusScheduled, enums.EventStatusAnnounced}
	events, err := j.repo.FindUpcoming(ctx, statuses, now)
	if err != nil {
		return fmt.Errorf("find upcoming events: %w", err)
	}

	var errs error
	for _, event := range events {
		due := milestone.Due(event.StartTime, now, event.HasLog)
		if len(due) == 0 {
			continue
		}
		eventCtx := j.logg.WithEventID(ctx, event.ID.String())
		recipients := event.AttendeeDiscordIDs(j.attendEmoji)
		for _, m := range due {
			// Dispatch logs even a zero-recipient milestone so it never
			// re-fires on later ticks.
			if _, err := j.dispatcher.Dispatch(eventCtx, event, m, recipients); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("event %s milestone %s: %w", event.ID, m, err))
			}
		}
	}
	return errs
}
