package domain

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/chillchat/community-bot/internal/locale"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// BoardRepository interface for board message bookkeeping
type BoardRepository interface {
	Get(ctx context.Context, eventID string) (int, error)
	Set(ctx context.Context, eventID string, messageID int) error
}

// BoardBot is the bot capability needed by the status board
type BoardBot interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
	PinChatMessage(ctx context.Context, params *bot.PinChatMessageParams) (bool, error)
}

// StatusBoard maintains a pinned, human-readable roster summary per event
// in the admin group. It is display only: the roster itself lives in
// SQLite and is never read back from the message.
type StatusBoard struct {
	bot          BoardBot
	rosterRepo   RosterRepository
	boardRepo    BoardRepository
	catalog      *Catalog
	localizer    locale.Localizer
	adminGroupID int64
	logger       Logger
}

// NewStatusBoard creates a new StatusBoard
func NewStatusBoard(
	b BoardBot,
	rosterRepo RosterRepository,
	boardRepo BoardRepository,
	catalog *Catalog,
	localizer locale.Localizer,
	adminGroupID int64,
	logger Logger,
) *StatusBoard {
	return &StatusBoard{
		bot:          b,
		rosterRepo:   rosterRepo,
		boardRepo:    boardRepo,
		catalog:      catalog,
		localizer:    localizer,
		adminGroupID: adminGroupID,
		logger:       logger,
	}
}

// Refresh rebuilds the board message for an event after a roster change.
// Errors are logged and returned but callers treat the board as best
// effort; a failed refresh never blocks a roster mutation.
func (sb *StatusBoard) Refresh(ctx context.Context, eventID string) error {
	event, err := sb.catalog.Get(eventID)
	if err != nil {
		return err
	}

	entries, err := sb.rosterRepo.GetByEvent(ctx, eventID)
	if err != nil {
		sb.logger.Error("failed to load roster for board", "event_id", eventID, "error", err)
		return err
	}

	text := sb.render(event, entries)

	messageID, err := sb.boardRepo.Get(ctx, eventID)
	if err != nil {
		sb.logger.Error("failed to load board message id", "event_id", eventID, "error", err)
		return err
	}

	if messageID != 0 {
		_, err = sb.bot.EditMessageText(ctx, &bot.EditMessageTextParams{
			ChatID:    sb.adminGroupID,
			MessageID: messageID,
			Text:      text,
		})
		if err == nil {
			return nil
		}
		// The old message may have been deleted by an admin; fall through
		// and post a fresh one.
		sb.logger.Warn("failed to edit board message, reposting", "event_id", eventID, "error", err)
	}

	msg, err := sb.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: sb.adminGroupID,
		Text:   text,
	})
	if err != nil {
		sb.logger.Error("failed to post board message", "event_id", eventID, "error", err)
		return err
	}

	if _, err := sb.bot.PinChatMessage(ctx, &bot.PinChatMessageParams{
		ChatID:              sb.adminGroupID,
		MessageID:           msg.ID,
		DisableNotification: true,
	}); err != nil {
		sb.logger.Warn("failed to pin board message", "event_id", eventID, "error", err)
	}

	if err := sb.boardRepo.Set(ctx, eventID, msg.ID); err != nil {
		sb.logger.Error("failed to store board message id", "event_id", eventID, "error", err)
		return err
	}

	return nil
}

func (sb *StatusBoard) render(event *Event, entries []*RosterEntry) string {
	capacity := sb.localizer.MustLocalize(locale.BoardUnlimited)
	if !event.Unlimited() {
		capacity = strconv.Itoa(event.Capacity)
	}

	var b strings.Builder
	b.WriteString(sb.localizer.MustLocalizeWithTemplate(
		locale.BoardHeader,
		event.Title,
		strconv.Itoa(len(entries)),
		capacity,
	))

	for i, entry := range entries {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("%d. %s", i+1, entry.Name))
		if entry.Username != "" {
			b.WriteString(fmt.Sprintf(" (@%s)", entry.Username))
		}
	}

	return b.String()
}
