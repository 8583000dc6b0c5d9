package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/miklosbodnar/eventdeck-backend/pkg/config"
	pkgerrors "github.com/miklosbodnar/eventdeck-backend/pkg/errors"
	"github.com/miklosbodnar/eventdeck-backend/pkg/logger"
)

var (
	errBotTokenRequired = errors.New("discord bot token is required")
	errLoggerRequired   = errors.New("discord logger is required")
)

// Client exposes the Discord REST primitives the scheduler needs, with
// centralized auth, per-call timeouts, logging, and error mapping. The
// gateway websocket is never opened; every operation is a plain REST call.
type Client struct {
	session     *discordgo.Session
	callTimeout time.Duration
	logger      *logger.Logger
}

// ReactionCount is one emoji entry from a message's reaction summary.
type ReactionCount struct {
	Emoji string
	Count int
}

// MessageSnapshot is the subset of a fetched message the reconciler consumes.
type MessageSnapshot struct {
	ID        string
	ChannelID string
	Reactions []ReactionCount
}

// ReactionUser is one non-bot user currently reacting with a given emoji.
type ReactionUser struct {
	ID       string
	Username string
	Avatar   string
}

// NewClient initializes the Discord wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.DiscordConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	token := strings.TrimSpace(cfg.BotToken)
	if token == "" {
		return nil, errBotTokenRequired
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}

	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	c := &Client{
		session:     session,
		callTimeout: timeout,
		logger:      logg,
	}

	logg.Info(ctx, "discord client initialized")
	return c, nil
}

// PostAnnouncement posts the announcement message and returns its message id.
func (c *Client) PostAnnouncement(ctx context.Context, channelID string, payload AnnouncementPayload) (string, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	c.log(ctx, "request", "post_announcement", map[string]any{"channel_id": channelID})
	message, err := c.session.ChannelMessageSendComplex(channelID, payload.toMessageSend(), discordgo.WithContext(callCtx))
	if err != nil {
		c.log(ctx, "error", "post_announcement", map[string]any{"error": err.Error()})
		return "", c.mapError(err, "post announcement")
	}

	c.log(ctx, "response", "post_announcement", map[string]any{"message_id": message.ID})
	return message.ID, nil
}

// ReactToOwnMessage adds the bot's own reaction to a message so members have
// a one-click reaction target.
func (c *Client) ReactToOwnMessage(ctx context.Context, channelID, messageID, emoji string) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if err := c.session.MessageReactionAdd(channelID, messageID, emoji, discordgo.WithContext(callCtx)); err != nil {
		return c.mapError(err, fmt.Sprintf("react with %s", emoji))
	}
	return nil
}

// FetchMessage returns the reaction summary for a message. A deleted message
// surfaces as a NOT_FOUND coded error.
func (c *Client) FetchMessage(ctx context.Context, channelID, messageID string) (*MessageSnapshot, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	message, err := c.session.ChannelMessage(channelID, messageID, discordgo.WithContext(callCtx))
	if err != nil {
		return nil, c.mapError(err, "fetch message")
	}

	snapshot := &MessageSnapshot{
		ID:        message.ID,
		ChannelID: message.ChannelID,
		Reactions: make([]ReactionCount, 0, len(message.Reactions)),
	}
	for _, reaction := range message.Reactions {
		if reaction == nil || reaction.Emoji == nil {
			continue
		}
		snapshot.Reactions = append(snapshot.Reactions, ReactionCount{
			Emoji: reaction.Emoji.APIName(),
			Count: reaction.Count,
		})
	}
	return snapshot, nil
}

// FetchReactingUsers lists the non-bot users reacting with the given emoji,
// up to limit users. Reactors beyond the first page are not visible.
func (c *Client) FetchReactingUsers(ctx context.Context, channelID, messageID, emoji string, limit int) ([]ReactionUser, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 100
	}
	users, err := c.session.MessageReactions(channelID, messageID, emoji, limit, "", "", discordgo.WithContext(callCtx))
	if err != nil {
		return nil, c.mapError(err, fmt.Sprintf("fetch reacting users for %s", emoji))
	}

	result := make([]ReactionUser, 0, len(users))
	for _, user := range users {
		if user == nil || user.Bot {
			continue
		}
		result = append(result, ReactionUser{
			ID:       user.ID,
			Username: user.Username,
			Avatar:   user.Avatar,
		})
	}
	return result, nil
}

// UserProfile is the public identity used as announcement embed author.
type UserProfile struct {
	ID       string
	Username string
	Avatar   string
}

// FetchUser returns the public profile for a user id.
func (c *Client) FetchUser(ctx context.Context, discordUserID string) (*UserProfile, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	user, err := c.session.User(discordUserID, discordgo.WithContext(callCtx))
	if err != nil {
		return nil, c.mapError(err, "fetch user")
	}
	return &UserProfile{
		ID:       user.ID,
		Username: user.Username,
		Avatar:   user.Avatar,
	}, nil
}

// SendDirectMessage opens (or reuses) the DM channel for the user and sends
// the payload there.
func (c *Client) SendDirectMessage(ctx context.Context, discordUserID string, data *discordgo.MessageSend) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	channel, err := c.session.UserChannelCreate(discordUserID, discordgo.WithContext(callCtx))
	if err != nil {
		return c.mapError(err, "open dm channel")
	}

	if _, err := c.session.ChannelMessageSendComplex(channel.ID, data, discordgo.WithContext(callCtx)); err != nil {
		return c.mapError(err, "send dm")
	}
	return nil
}

func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, c.callTimeout)
}

func (c *Client) mapError(err error, op string) error {
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil {
		switch rest.Response.StatusCode {
		case http.StatusNotFound:
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, op)
		case http.StatusTooManyRequests:
			return pkgerrors.Wrap(pkgerrors.CodeRateLimit, err, op)
		case http.StatusForbidden:
			return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, op)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op+" timed out")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c.logger == nil {
		return
	}
	logCtx := c.logger.WithFields(ctx, fields)
	c.logger.Info(c.logger.WithFields(logCtx, map[string]any{"phase": phase, "op": op}), "discord call")
}
