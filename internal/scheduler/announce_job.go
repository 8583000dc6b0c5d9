package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/miklosbodnar/eventdeck-backend/pkg/db/models"
	"github.com/miklosbodnar/eventdeck-backend/pkg/discord"
	"github.com/miklosbodnar/eventdeck-backend/pkg/logger"
)

type announceRepo interface {
	FindDueScheduled(ctx context.Context, now time.Time) ([]models.Event, error)
	MarkAnnounced(ctx context.Context, eventID uuid.UUID, channelID, messageID string, now time.Time) error
}

type announceGateway interface {
	PostAnnouncement(ctx context.Context, channelID string, payload discord.AnnouncementPayload) (string, error)
	ReactToOwnMessage(ctx context.Context, channelID, messageID, emoji string) error
	FetchUser(ctx context.Context, discordUserID string) (*discord.UserProfile, error)
}

// AnnounceJobParams configure the announcement job.
type AnnounceJobParams struct {
	Logger     *logger.Logger
	Repository announceRepo
	Gateway    announceGateway
	SeedEmoji  []string
	Now        func() time.Time
}

// NewAnnounceJob promotes due SCHEDULED events to ANNOUNCED: it posts the
// announcement message, stores the message reference, and seeds the reaction
// emoji members click to respond.
func NewAnnounceJob(params AnnounceJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("event repository required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("gateway required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &announceJob{
		logg:      params.Logger,
		repo:      params.Repository,
		gateway:   params.Gateway,
		seedEmoji: params.SeedEmoji,
		now:       now,
	}, nil
}

type announceJob struct {
	logg      *logger.Logger
	repo      announceRepo
	gateway   announceGateway
	seedEmoji []string
	now       func() time.Time
}

func (j *announceJob) Name() string { return "event-announce" }

func (j *announceJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	events, err := j.repo.FindDueScheduled(ctx, now)
	if err != nil {
		return fmt.Errorf("find due events: %w", err)
	}
	if len(events) == 0 {
		return nil
	}
	j.logg.Info(j.logg.WithField(ctx, "count", len(events)), "announcing due events")

	var errs error
	for _, event := range events {
		if err := j.announce(ctx, event, now); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("event %s: %w", event.ID, err))
		}
	}
	return errs
}

func (j *announceJob) announce(ctx context.Context, event models.Event, now time.Time) error {
	eventCtx := j.logg.WithEventID(ctx, event.ID.String())

	if event.AnnouncementChannelID == nil || *event.AnnouncementChannelID == "" {
		// Normally set when the event is scheduled; without it there is no
		// target channel and the event stays SCHEDULED.
		return fmt.Errorf("no announcement channel configured")
	}
	channelID := *event.AnnouncementChannelID

	payload := discord.AnnouncementPayload{
		Name:      event.Name,
		StartTime: event.StartTime,
	}
	if event.Description != nil {
		payload.Description = *event.Description
	}
	if event.BannerURL != nil {
		payload.BannerURL = *event.BannerURL
	}
	j.fillAuthor(eventCtx, &payload, event.CreatedByDiscordID)

	messageID, err := j.gateway.PostAnnouncement(ctx, channelID, payload)
	if err != nil {
		return fmt.Errorf("post announcement: %w", err)
	}

	if err := j.repo.MarkAnnounced(ctx, event.ID, channelID, messageID, now); err != nil {
		return fmt.Errorf("mark announced: %w", err)
	}

	for _, emoji := range j.seedEmoji {
		if err := j.gateway.ReactToOwnMessage(ctx, channelID, messageID, emoji); err != nil {
			// The announcement itself went out; a missing seed reaction only
			// costs members a manual first click.
			failCtx := j.logg.WithFields(eventCtx, map[string]any{
				"emoji": emoji,
				"error": err.Error(),
			})
			j.logg.Warn(failCtx, "seeding reaction failed")
		}
	}

	j.logg.Info(j.logg.WithField(eventCtx, "message_id", messageID), "event announced")
	return nil
}

// fillAuthor resolves the creator's current username and avatar for the
// embed author line. Lookup failures leave the author blank.
func (j *announceJob) fillAuthor(ctx context.Context, payload *discord.AnnouncementPayload, discordUserID string) {
	if discordUserID == "" {
		return
	}
	profile, err := j.gateway.FetchUser(ctx, discordUserID)
	if err != nil {
		j.logg.Warn(j.logg.WithField(ctx, "error", err.Error()), "author lookup failed")
		return
	}
	payload.AuthorName = profile.Username
	payload.AuthorIconURL = discord.AvatarURL(profile.ID, profile.Avatar)
}
