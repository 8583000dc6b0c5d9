package notifications

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/miklosbodnar/eventdeck-backend/pkg/db"
	"github.com/miklosbodnar/eventdeck-backend/pkg/db/models"
	"github.com/miklosbodnar/eventdeck-backend/pkg/enums"
	"github.com/miklosbodnar/eventdeck-backend/pkg/logger"
)

// Gateway is the slice of the Discord client the dispatcher consumes.
type Gateway interface {
	SendDirectMessage(ctx context.Context, discordUserID string, data *discordgo.MessageSend) error
}

// DispatcherParams configure the notification dispatcher.
type DispatcherParams struct {
	Logger  *logger.Logger
	Repo    Repository
	Gateway Gateway
}

// Dispatcher fans one milestone out to its recipients over DM and records
// the result in the notification log. The log row, not delivery, is what
// marks the milestone as handled: a milestone with zero reachable recipients
// is still logged so it never fires again.
type Dispatcher struct {
	logg    *logger.Logger
	repo    Repository
	gateway Gateway
}

// NewDispatcher wires the dispatcher dependencies.
func NewDispatcher(params DispatcherParams) (*Dispatcher, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("notification repository required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("gateway required")
	}
	return &Dispatcher{
		logg:    params.Logger,
		repo:    params.Repo,
		gateway: params.Gateway,
	}, nil
}

// Dispatch filters the recipients through their notification settings, sends
// the localized DM to each remaining target, and inserts the log row. Users
// without a settings row receive everything. Individual send failures are
// logged and tolerated. Returns the number of targets after filtering.
//
// A concurrent dispatch of the same milestone loses the unique-key race on
// the log insert; that outcome is treated as already handled, not an error.
func (d *Dispatcher) Dispatch(ctx context.Context, event models.Event, milestone enums.MilestoneType, recipientIDs []string) (int, error) {
	settings, err := d.repo.SettingsByDiscordIDs(ctx, recipientIDs)
	if err != nil {
		return 0, fmt.Errorf("load notification settings: %w", err)
	}

	targets := make([]string, 0, len(recipientIDs))
	for _, id := range recipientIDs {
		s, ok := settings[id]
		if ok && !s.Allows(milestone) {
			continue
		}
		targets = append(targets, id)
	}

	logCtx := d.logg.WithFields(ctx, map[string]any{
		"event_id":   event.ID,
		"milestone":  string(milestone),
		"targets":    len(targets),
		"recipients": len(recipientIDs),
	})
	d.logg.Info(logCtx, "dispatching milestone notification")

	for _, id := range targets {
		language := enums.LanguageEnglish
		if s, ok := settings[id]; ok {
			language = enums.ParseLanguage(s.Language)
		}
		message := BuildMessage(event, milestone, language)
		if err := d.gateway.SendDirectMessage(ctx, id, message); err != nil {
			// DMs can be disabled user-side; delivery is best effort.
			failCtx := d.logg.WithFields(logCtx, map[string]any{
				"discord_user_id": id,
				"error":           err.Error(),
			})
			d.logg.Warn(failCtx, "direct message failed")
		}
	}

	log := &models.NotificationLog{
		EventID:        event.ID,
		Type:           milestone,
		RecipientCount: len(targets),
	}
	if err := d.repo.InsertLog(ctx, log); err != nil {
		if db.IsUniqueViolation(err, "") {
			d.logg.Info(logCtx, "milestone already logged, skipping")
			return len(targets), nil
		}
		return len(targets), fmt.Errorf("insert notification log: %w", err)
	}
	return len(targets), nil
}
