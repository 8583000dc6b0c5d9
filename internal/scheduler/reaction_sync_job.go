package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/miklosbodnar/eventdeck-backend/internal/reactions"
	"github.com/miklosbodnar/eventdeck-backend/pkg/db/models"
	"github.com/miklosbodnar/eventdeck-backend/pkg/logger"
)

const defaultSyncConcurrency = 4

type reactionSyncRepo interface {
	FindLiveAnnounced(ctx context.Context, now time.Time, trailing time.Duration) ([]models.Event, error)
	DisableReactionSync(ctx context.Context, eventID uuid.UUID, now time.Time) error
}

type reconciler interface {
	Reconcile(ctx context.Context, eventID uuid.UUID, channelID, messageID string) error
}

// ReactionSyncJobParams configure the reaction synchronization job.
type ReactionSyncJobParams struct {
	Logger      *logger.Logger
	Repository  reactionSyncRepo
	Reconciler  reconciler
	Trailing    time.Duration
	Concurrency int
	Now         func() time.Time
}

// NewReactionSyncJob refreshes the local reaction cache for every announced
// event that is upcoming or recently started. Events whose announcement
// message was deleted are taken out of the sync set for good.
func NewReactionSyncJob(params ReactionSyncJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("event repository required")
	}
	if params.Reconciler == nil {
		return nil, fmt.Errorf("reconciler required")
	}
	concurrency := params.Concurrency
	if concurrency <= 0 {
		concurrency = defaultSyncConcurrency
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &reactionSyncJob{
		logg:        params.Logger,
		repo:        params.Repository,
		reconciler:  params.Reconciler,
		trailing:    params.Trailing,
		concurrency: concurrency,
		now:         now,
	}, nil
}

type reactionSyncJob struct {
	logg        *logger.Logger
	repo        reactionSyncRepo
	reconciler  reconciler
	trailing    time.Duration
	concurrency int
	now         func() time.Time
}

func (j *reactionSyncJob) Name() string { return "reaction-sync" }

func (j *reactionSyncJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	events, err := j.repo.FindLiveAnnounced(ctx, now, j.trailing)
	if err != nil {
		return fmt.Errorf("find announced events: %w", err)
	}

	var (
		mu   sync.Mutex
		errs error
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(j.concurrency)
	for _, event := range events {
		channelID, messageID, ok := event.MessageRef()
		if !ok {
			continue
		}
		event := event
		group.Go(func() error {
			err := j.syncEvent(groupCtx, event, channelID, messageID, now)
			if err != nil {
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("event %s: %w", event.ID, err))
				mu.Unlock()
			}
			// One event's failure must not cancel the siblings.
			return nil
		})
	}
	_ = group.Wait()
	return errs
}

func (j *reactionSyncJob) syncEvent(ctx context.Context, event models.Event, channelID, messageID string, now time.Time) error {
	err := j.reconciler.Reconcile(ctx, event.ID, channelID, messageID)
	if err == nil {
		return nil
	}
	if reactions.IsMessageGone(err) {
		eventCtx := j.logg.WithEventID(ctx, event.ID.String())
		j.logg.Warn(eventCtx, "announcement message deleted, disabling reaction sync")
		if disableErr := j.repo.DisableReactionSync(ctx, event.ID, now); disableErr != nil {
			return fmt.Errorf("disable reaction sync: %w", disableErr)
		}
		return nil
	}
	return err
}
