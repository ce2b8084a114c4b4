package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/chillchat/community-bot/internal/config"
	"github.com/chillchat/community-bot/internal/domain"
	"github.com/chillchat/community-bot/internal/locale"
	"github.com/chillchat/community-bot/internal/storage"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// stateFeedback marks a session waiting for a feedback message to forward
const stateFeedback = "feedback"

// BotAPI is the slice of the Telegram client used by the handler and the
// wizard. *bot.Bot satisfies it; tests substitute a mock.
type BotAPI interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
	ForwardMessage(ctx context.Context, params *bot.ForwardMessageParams) (*models.Message, error)
}

// UserStore is the user bookkeeping needed by the handler
type UserStore interface {
	Upsert(ctx context.Context, user *domain.User) error
	All(ctx context.Context) ([]*domain.User, error)
}

// BotHandler processes Telegram updates
type BotHandler struct {
	bot        BotAPI
	cfg        *config.Config
	catalog    *domain.Catalog
	roster     *domain.RosterService
	approvals  *domain.ApprovalService
	board      *domain.StatusBoard
	users      UserStore
	fsm        *RegistrationFSM
	fsmStorage *storage.FSMStorage
	localizer  locale.Localizer
	logger     domain.Logger
}

// NewBotHandler creates a new BotHandler
func NewBotHandler(
	b BotAPI,
	cfg *config.Config,
	catalog *domain.Catalog,
	roster *domain.RosterService,
	approvals *domain.ApprovalService,
	board *domain.StatusBoard,
	users UserStore,
	fsm *RegistrationFSM,
	fsmStorage *storage.FSMStorage,
	localizer locale.Localizer,
	log domain.Logger,
) *BotHandler {
	return &BotHandler{
		bot:        b,
		cfg:        cfg,
		catalog:    catalog,
		roster:     roster,
		approvals:  approvals,
		board:      board,
		users:      users,
		fsm:        fsm,
		fsmStorage: fsmStorage,
		localizer:  localizer,
		logger:     log,
	}
}

// HandleStart greets the user, installs the restart reply keyboard, and
// shows the home menu
func (h *BotHandler) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	from := update.Message.From
	chatID := update.Message.Chat.ID

	if err := h.users.Upsert(ctx, &domain.User{
		ChatID:    chatID,
		Username:  from.Username,
		FirstName: from.FirstName,
		Locale:    h.cfg.DefaultLocale,
	}); err != nil {
		h.logger.Error("failed to upsert user", "chat_id", chatID, "error", err)
	}

	if _, err := h.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        h.localizer.MustLocalize(locale.Welcome),
		ReplyMarkup: restartKeyboard(h.localizer),
	}); err != nil {
		h.logger.Error("failed to send welcome", "chat_id", chatID, "error", err)
		return
	}

	h.sendHome(ctx, chatID)
}

// HandleMessage routes plain messages: the restart shortcut, a pending
// feedback forward, or a wizard answer
func (h *BotHandler) HandleMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	from := update.Message.From
	chatID := update.Message.Chat.ID

	if update.Message.Contact != nil {
		if _, err := h.fsm.HandleContact(ctx, update); err != nil {
			h.logger.Error("failed to handle contact", "chat_id", chatID, "error", err)
		}
		return
	}

	text := strings.TrimSpace(update.Message.Text)
	if text == h.localizer.MustLocalize(locale.RestartButton) {
		if err := h.fsm.Cancel(ctx, from.ID); err != nil {
			h.logger.Error("failed to cancel session", "user_id", from.ID, "error", err)
		}
		h.sendHome(ctx, chatID)
		return
	}

	state, _, err := h.fsmStorage.Get(ctx, from.ID)
	if err == nil && state == stateFeedback {
		h.forwardFeedback(ctx, update)
		return
	}

	handled, err := h.fsm.HandleMessage(ctx, update)
	if err != nil {
		h.logger.Error("wizard message failed", "user_id", from.ID, "error", err)
		return
	}
	if !handled {
		h.sendHome(ctx, chatID)
	}
}

// HandleCallback routes inline button presses
func (h *BotHandler) HandleCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	callback := update.CallbackQuery
	if callback == nil {
		return
	}
	data := callback.Data

	// Admin decisions answer with their outcome; everything else gets the
	// plain acknowledgement up front.
	if strings.HasPrefix(data, domain.CallbackApprove+":") || strings.HasPrefix(data, domain.CallbackReject+":") {
		h.handleDecision(ctx, callback)
		return
	}

	if _, err := h.bot.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callback.ID,
	}); err != nil {
		h.logger.Debug("failed to answer callback", "error", err)
	}

	if callback.Message.Message == nil {
		return
	}
	chatID := callback.Message.Message.Chat.ID
	messageID := callback.Message.Message.ID

	switch {
	case data == cbBackHome:
		h.editHome(ctx, chatID, messageID)

	case data == cbListEvents:
		h.edit(ctx, chatID, messageID,
			h.localizer.MustLocalize(locale.EventListTitle),
			eventListKeyboard(h.localizer, h.catalog, cbEventPrefix), "")

	case strings.HasPrefix(data, cbEventPrefix):
		h.showEventDetail(ctx, chatID, messageID, strings.TrimPrefix(data, cbEventPrefix))

	case data == cbRegister:
		h.edit(ctx, chatID, messageID,
			h.localizer.MustLocalize(locale.EventPickPrompt),
			eventListKeyboard(h.localizer, h.catalog, cbPickRegPrefix), "")

	case strings.HasPrefix(data, cbRegisterPrefix):
		h.startWizard(ctx, callback, strings.TrimPrefix(data, cbRegisterPrefix), domain.OriginEvent, messageID)

	case strings.HasPrefix(data, cbPickRegPrefix):
		h.startWizard(ctx, callback, strings.TrimPrefix(data, cbPickRegPrefix), domain.OriginMenu, messageID)

	case data == cbFAQ:
		h.edit(ctx, chatID, messageID,
			h.localizer.MustLocalize(locale.InfoFAQ), backHomeKeyboard(h.localizer), "")

	case data == cbSupport:
		h.edit(ctx, chatID, messageID,
			h.localizer.MustLocalizeWithTemplate(locale.InfoSupport, h.cfg.SupportContact),
			backHomeKeyboard(h.localizer), "")

	case strings.HasPrefix(data, cbInfoPrefix):
		key, ok := infoPages[strings.TrimPrefix(data, cbInfoPrefix)]
		if !ok {
			return
		}
		h.edit(ctx, chatID, messageID,
			h.localizer.MustLocalize(key), backHomeKeyboard(h.localizer), "")

	case data == cbFeedback:
		if err := h.fsmStorage.Set(ctx, callback.From.ID, stateFeedback,
			map[string]interface{}{"chat_id": chatID}); err != nil {
			h.logger.Error("failed to open feedback session", "user_id", callback.From.ID, "error", err)
			return
		}
		h.edit(ctx, chatID, messageID,
			h.localizer.MustLocalize(locale.FeedbackPrompt), backHomeKeyboard(h.localizer), "")

	case strings.HasPrefix(data, cbCancelRegPrefix):
		h.handleCancelRegistration(ctx, callback, strings.TrimPrefix(data, cbCancelRegPrefix))

	default:
		handled, err := h.fsm.HandleCallback(ctx, update)
		if err != nil {
			h.logger.Error("wizard callback failed", "user_id", callback.From.ID, "error", err)
		}
		if !handled {
			h.editHome(ctx, chatID, messageID)
		}
	}
}

// HandleBroadcast sends the text after /broadcast to every known user
func (h *BotHandler) HandleBroadcast(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID
	if !h.requireAdmin(ctx, update.Message.From.ID, chatID) {
		return
	}

	text := strings.TrimSpace(strings.TrimPrefix(update.Message.Text, "/broadcast"))
	if text == "" {
		h.send(ctx, chatID, h.localizer.MustLocalize(locale.BroadcastUsage), nil)
		return
	}

	users, err := h.users.All(ctx)
	if err != nil {
		h.logger.Error("failed to load users for broadcast", "error", err)
		h.send(ctx, chatID, h.localizer.MustLocalize(locale.ErrorGeneric), nil)
		return
	}

	sent, failed := 0, 0
	for _, user := range users {
		if _, err := h.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: user.ChatID,
			Text:   text,
		}); err != nil {
			failed++
			continue
		}
		sent++
	}

	h.logger.Info("broadcast finished", "sent", sent, "failed", failed)
	h.send(ctx, chatID, h.localizer.MustLocalizeWithTemplate(
		locale.BroadcastDone, strconv.Itoa(sent), strconv.Itoa(failed)), nil)
}

// HandleRoster prints the approved roster of an event for admins
func (h *BotHandler) HandleRoster(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID
	if !h.requireAdmin(ctx, update.Message.From.ID, chatID) {
		return
	}

	parts := strings.Fields(update.Message.Text)
	if len(parts) < 2 {
		ids := make([]string, 0, h.catalog.Len())
		for _, ev := range h.catalog.All() {
			ids = append(ids, ev.ID)
		}
		h.send(ctx, chatID, h.localizer.MustLocalizeWithTemplate(
			locale.RosterUsage, strings.Join(ids, ", ")), nil)
		return
	}

	eventID := parts[1]
	event, err := h.catalog.Get(eventID)
	if err != nil {
		h.send(ctx, chatID, h.localizer.MustLocalize(locale.EventNotFound), nil)
		return
	}

	entries, err := h.roster.Roster(ctx, eventID)
	if err != nil {
		h.logger.Error("failed to load roster", "event_id", eventID, "error", err)
		h.send(ctx, chatID, h.localizer.MustLocalize(locale.ErrorGeneric), nil)
		return
	}
	if len(entries) == 0 {
		h.send(ctx, chatID, h.localizer.MustLocalize(locale.RosterEmpty), nil)
		return
	}

	var sb strings.Builder
	sb.WriteString(h.localizer.MustLocalizeWithTemplate(
		locale.RosterHeader, event.Title, strconv.Itoa(len(entries))))
	for i, entry := range entries {
		sb.WriteString(fmt.Sprintf("\n%d. %s | %s | %s",
			i+1, entry.Name, entry.Phone, domain.LevelLabel(h.localizer, entry.Level)))
		if entry.Username != "" {
			sb.WriteString(" | @" + entry.Username)
		}
	}
	h.send(ctx, chatID, sb.String(), nil)
}

// handleDecision resolves an approve/reject button press in the admin group
func (h *BotHandler) handleDecision(ctx context.Context, callback *models.CallbackQuery) {
	if !h.cfg.IsAdmin(callback.From.ID) {
		h.answer(ctx, callback.ID, h.localizer.MustLocalize(locale.ErrorUnauthorized), true)
		return
	}

	// approve:<chat id>:<event id>
	parts := strings.SplitN(callback.Data, ":", 3)
	if len(parts) != 3 {
		return
	}
	applicantID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return
	}
	eventID := parts[2]
	approve := parts[0] == domain.CallbackApprove

	adminName := callback.From.Username
	if adminName == "" {
		adminName = callback.From.FirstName
	}

	err = h.approvals.Decide(ctx, callback.From.ID, adminName, applicantID, eventID, approve)
	switch {
	case err == nil:
		h.answer(ctx, callback.ID, h.localizer.MustLocalize(locale.AdminDone), false)
	case errors.Is(err, domain.ErrPendingNotFound):
		h.answer(ctx, callback.ID, h.localizer.MustLocalize(locale.AdminAlreadyHandled), true)
	case errors.Is(err, domain.ErrEventFull), errors.Is(err, domain.ErrGenderCapReached):
		h.answer(ctx, callback.ID, h.localizer.MustLocalize(locale.AdminCapacityFull), true)
	default:
		h.logger.Error("decision failed", "event_id", eventID, "chat_id", applicantID, "error", err)
		h.answer(ctx, callback.ID, h.localizer.MustLocalize(locale.ErrorGeneric), true)
	}
}

// handleCancelRegistration removes the pressing user from an event roster
func (h *BotHandler) handleCancelRegistration(ctx context.Context, callback *models.CallbackQuery, eventID string) {
	chatID := callback.From.ID

	removed, err := h.roster.Cancel(ctx, eventID, chatID)
	if err != nil {
		h.logger.Error("failed to cancel registration", "event_id", eventID, "chat_id", chatID, "error", err)
		h.send(ctx, chatID, h.localizer.MustLocalize(locale.ErrorGeneric), nil)
		return
	}
	if !removed {
		h.send(ctx, chatID, h.localizer.MustLocalize(locale.CancelRegNone), nil)
		return
	}

	if err := h.board.Refresh(ctx, eventID); err != nil {
		h.logger.Warn("failed to refresh status board", "event_id", eventID, "error", err)
	}
	h.send(ctx, chatID, h.localizer.MustLocalize(locale.CancelRegDone), nil)
}

func (h *BotHandler) startWizard(ctx context.Context, callback *models.CallbackQuery, eventID, origin string, messageID int) {
	chatID := callback.Message.Message.Chat.ID
	if err := h.fsm.Start(ctx, callback.From.ID, chatID, eventID, origin, messageID); err != nil {
		h.logger.Error("failed to start wizard", "event_id", eventID, "user_id", callback.From.ID, "error", err)
		h.send(ctx, chatID, h.localizer.MustLocalize(locale.EventNotFound), nil)
	}
}

func (h *BotHandler) showEventDetail(ctx context.Context, chatID int64, messageID int, eventID string) {
	event, err := h.catalog.Get(eventID)
	if err != nil {
		h.edit(ctx, chatID, messageID,
			h.localizer.MustLocalize(locale.EventNotFound), backHomeKeyboard(h.localizer), "")
		return
	}

	remaining, err := h.roster.RemainingCapacity(ctx, eventID)
	if err != nil {
		h.logger.Error("failed to compute remaining capacity", "event_id", eventID, "error", err)
		remaining = domain.Unlimited
	}

	h.edit(ctx, chatID, messageID,
		eventDetailText(h.localizer, event, remaining),
		eventDetailKeyboard(h.localizer, eventID),
		models.ParseModeMarkdown)
}

// forwardFeedback relays the user's message to the admin group verbatim
func (h *BotHandler) forwardFeedback(ctx context.Context, update *models.Update) {
	from := update.Message.From
	chatID := update.Message.Chat.ID

	if err := h.fsmStorage.Delete(ctx, from.ID); err != nil {
		h.logger.Error("failed to close feedback session", "user_id", from.ID, "error", err)
	}

	if _, err := h.bot.ForwardMessage(ctx, &bot.ForwardMessageParams{
		ChatID:     h.cfg.AdminGroupID,
		FromChatID: chatID,
		MessageID:  update.Message.ID,
	}); err != nil {
		h.logger.Error("failed to forward feedback", "chat_id", chatID, "error", err)
		h.send(ctx, chatID, h.localizer.MustLocalize(locale.ErrorGeneric), nil)
		return
	}

	h.send(ctx, chatID, h.localizer.MustLocalize(locale.FeedbackThanks), restartKeyboard(h.localizer))
}

func (h *BotHandler) requireAdmin(ctx context.Context, userID, chatID int64) bool {
	if h.cfg.IsAdmin(userID) {
		return true
	}
	h.send(ctx, chatID, h.localizer.MustLocalize(locale.ErrorUnauthorized), nil)
	return false
}

func (h *BotHandler) sendHome(ctx context.Context, chatID int64) {
	h.send(ctx, chatID, h.localizer.MustLocalize(locale.ChoosePrompt), mainMenuKeyboard(h.localizer))
}

func (h *BotHandler) editHome(ctx context.Context, chatID int64, messageID int) {
	h.edit(ctx, chatID, messageID,
		h.localizer.MustLocalize(locale.ChoosePrompt), mainMenuKeyboard(h.localizer), "")
}

func (h *BotHandler) send(ctx context.Context, chatID int64, text string, kb models.ReplyMarkup) {
	if _, err := h.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: kb,
	}); err != nil {
		h.logger.Error("failed to send message", "chat_id", chatID, "error", err)
	}
}

func (h *BotHandler) edit(ctx context.Context, chatID int64, messageID int, text string, kb models.ReplyMarkup, parseMode models.ParseMode) {
	if _, err := h.bot.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        text,
		ParseMode:   parseMode,
		ReplyMarkup: kb,
	}); err != nil {
		h.logger.Error("failed to edit message", "chat_id", chatID, "message_id", messageID, "error", err)
	}
}

func (h *BotHandler) answer(ctx context.Context, callbackID, text string, alert bool) {
	if _, err := h.bot.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       alert,
	}); err != nil {
		h.logger.Debug("failed to answer callback", "error", err)
	}
}
