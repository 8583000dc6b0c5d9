package reactions

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/miklosbodnar/eventdeck-backend/pkg/db/models"
	"github.com/miklosbodnar/eventdeck-backend/pkg/discord"
	pkgerrors "github.com/miklosbodnar/eventdeck-backend/pkg/errors"
	"github.com/miklosbodnar/eventdeck-backend/pkg/logger"
)

const defaultPageLimit = 100

// Gateway is the slice of the Discord client the reconciler consumes.
type Gateway interface {
	FetchMessage(ctx context.Context, channelID, messageID string) (*discord.MessageSnapshot, error)
	FetchReactingUsers(ctx context.Context, channelID, messageID, emoji string, limit int) ([]discord.ReactionUser, error)
}

// ReconcilerParams configure the reaction reconciler.
type ReconcilerParams struct {
	Logger    *logger.Logger
	Repo      Repository
	Gateway   Gateway
	PageLimit int
	Now       func() time.Time
}

// Reconciler brings the local reaction cache for one event into agreement
// with the remote reaction state of its announcement message. Discord is
// authoritative; the cache converges to whatever the fetch observed.
type Reconciler struct {
	logg      *logger.Logger
	repo      Repository
	gateway   Gateway
	pageLimit int
	now       func() time.Time
}

// NewReconciler wires the reconciler dependencies.
func NewReconciler(params ReconcilerParams) (*Reconciler, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("reaction repository required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("gateway required")
	}
	pageLimit := params.PageLimit
	if pageLimit <= 0 {
		pageLimit = defaultPageLimit
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Reconciler{
		logg:      params.Logger,
		repo:      params.Repo,
		gateway:   params.Gateway,
		pageLimit: pageLimit,
		now:       now,
	}, nil
}

// Reconcile diffs every emoji on the message against the local cache and
// applies additions and removals. A NOT_FOUND from the gateway propagates
// unchanged so the caller can stop syncing the event permanently.
//
// The diff iterates the union of remotely reported emoji and emoji that
// still have local rows: an emoji whose last remote reaction was withdrawn
// disappears from the message's reaction list entirely, and only the local
// side still knows it needs cleanup.
func (r *Reconciler) Reconcile(ctx context.Context, eventID uuid.UUID, channelID, messageID string) error {
	snapshot, err := r.gateway.FetchMessage(ctx, channelID, messageID)
	if err != nil {
		return fmt.Errorf("fetch message: %w", err)
	}

	remote := make(map[string]struct{}, len(snapshot.Reactions))
	for _, reaction := range snapshot.Reactions {
		remote[reaction.Emoji] = struct{}{}
	}

	localEmoji, err := r.repo.ListLocalEmoji(ctx, eventID)
	if err != nil {
		return fmt.Errorf("list local emoji: %w", err)
	}

	union := make(map[string]struct{}, len(remote)+len(localEmoji))
	for emoji := range remote {
		union[emoji] = struct{}{}
	}
	for _, emoji := range localEmoji {
		union[emoji] = struct{}{}
	}

	keys := make([]string, 0, len(union))
	for emoji := range union {
		keys = append(keys, emoji)
	}
	sort.Strings(keys)

	var errs error
	for _, emoji := range keys {
		_, present := remote[emoji]
		if err := r.reconcileEmoji(ctx, eventID, channelID, messageID, emoji, present); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("emoji %s: %w", emoji, err))
		}
	}
	return errs
}

func (r *Reconciler) reconcileEmoji(ctx context.Context, eventID uuid.UUID, channelID, messageID, emoji string, presentRemotely bool) error {
	var remoteUsers []discord.ReactionUser
	if presentRemotely {
		users, err := r.gateway.FetchReactingUsers(ctx, channelID, messageID, emoji, r.pageLimit)
		if err != nil {
			return fmt.Errorf("fetch reacting users: %w", err)
		}
		remoteUsers = users
	}

	localIDs, err := r.repo.ListUserIDs(ctx, eventID, emoji)
	if err != nil {
		return fmt.Errorf("list cached users: %w", err)
	}

	localSet := make(map[string]struct{}, len(localIDs))
	for _, id := range localIDs {
		localSet[id] = struct{}{}
	}
	remoteSet := make(map[string]struct{}, len(remoteUsers))
	for _, user := range remoteUsers {
		remoteSet[user.ID] = struct{}{}
	}

	fetchedAt := r.now().UTC()
	toAdd := make([]models.EventReaction, 0)
	for _, user := range remoteUsers {
		if _, ok := localSet[user.ID]; ok {
			continue
		}
		avatar := user.Avatar
		row := models.EventReaction{
			EventID:         eventID,
			DiscordUserID:   user.ID,
			Emoji:           emoji,
			DiscordUsername: user.Username,
			FetchedAt:       fetchedAt,
		}
		if avatar != "" {
			row.DiscordAvatar = &avatar
		}
		toAdd = append(toAdd, row)
	}
	sort.Slice(toAdd, func(i, j int) bool { return toAdd[i].DiscordUserID < toAdd[j].DiscordUserID })

	toRemove := make([]string, 0)
	for _, id := range localIDs {
		if _, ok := remoteSet[id]; !ok {
			toRemove = append(toRemove, id)
		}
	}
	sort.Strings(toRemove)

	if err := r.repo.InsertBatch(ctx, toAdd); err != nil {
		return fmt.Errorf("insert reactions: %w", err)
	}
	if err := r.repo.DeleteBatch(ctx, eventID, emoji, toRemove); err != nil {
		return fmt.Errorf("delete reactions: %w", err)
	}

	if len(toAdd) > 0 || len(toRemove) > 0 {
		logCtx := r.logg.WithFields(ctx, map[string]any{
			"event_id": eventID,
			"emoji":    emoji,
			"added":    len(toAdd),
			"removed":  len(toRemove),
		})
		r.logg.Info(logCtx, "reaction cache updated")
	}
	return nil
}

// IsMessageGone reports whether the reconcile error means the announcement
// message was deleted remotely.
func IsMessageGone(err error) bool {
	return pkgerrors.IsCode(err, pkgerrors.CodeNotFound)
}
