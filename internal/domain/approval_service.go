package domain

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/chillchat/community-bot/internal/locale"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Callback data prefixes for the admin decision buttons
const (
	CallbackApprove = "approve"
	CallbackReject  = "reject"
)

// PendingRepository interface for pending registration operations
type PendingRepository interface {
	Create(ctx context.Context, pending *PendingRegistration) error
	SetAdminMessageID(ctx context.Context, eventID string, chatID int64, messageID int) error
	Take(ctx context.Context, eventID string, chatID int64) (*PendingRegistration, error)
	Exists(ctx context.Context, eventID string, chatID int64) (bool, error)
	List(ctx context.Context) ([]*PendingRegistration, error)
}

// BotInterface defines the bot operations needed by ApprovalService
type BotInterface interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
}

// ApprovalService turns completed wizard submissions into admin-adjudicated
// roster entries. Each pending registration owns one cancellable timer that
// fires the auto-approval unless an admin decides first; timer cancellation
// and pending removal are driven by the same Take call, so a decision and
// the timer can never both admit the same applicant.
type ApprovalService struct {
	bot          BotInterface
	catalog      *Catalog
	roster       *RosterService
	rosterRepo   RosterRepository
	pendingRepo  PendingRepository
	tickets      *TicketService
	board        *StatusBoard
	localizer    locale.Localizer
	adminGroupID int64
	delay        time.Duration
	meetupLinks  map[string]string
	logger       Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(
	b BotInterface,
	catalog *Catalog,
	roster *RosterService,
	rosterRepo RosterRepository,
	pendingRepo PendingRepository,
	tickets *TicketService,
	board *StatusBoard,
	localizer locale.Localizer,
	adminGroupID int64,
	delay time.Duration,
	meetupLinks map[string]string,
	logger Logger,
) *ApprovalService {
	return &ApprovalService{
		bot:          b,
		catalog:      catalog,
		roster:       roster,
		rosterRepo:   rosterRepo,
		pendingRepo:  pendingRepo,
		tickets:      tickets,
		board:        board,
		localizer:    localizer,
		adminGroupID: adminGroupID,
		delay:        delay,
		meetupLinks:  meetupLinks,
		logger:       logger,
		timers:       make(map[string]*time.Timer),
	}
}

func pendingKey(eventID string, chatID int64) string {
	return fmt.Sprintf("%s:%d", eventID, chatID)
}

// Submit records a completed wizard submission. On success a pending
// registration exists, the admin group holds a decision message, and the
// auto-approval timer is armed. Capacity saturation is rejected up front
// and no admin message is sent.
func (as *ApprovalService) Submit(ctx context.Context, sub *Submission) error {
	if err := sub.Validate(); err != nil {
		return err
	}

	event, err := as.catalog.Get(sub.EventID)
	if err != nil {
		return err
	}

	entry, err := as.roster.Entry(ctx, sub.EventID, sub.ChatID)
	if err != nil {
		return err
	}
	if entry != nil {
		return ErrAlreadyRegistered
	}

	exists, err := as.pendingRepo.Exists(ctx, sub.EventID, sub.ChatID)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyPending
	}

	if err := as.roster.CheckAvailability(ctx, sub.EventID, sub.Gender); err != nil {
		return err
	}

	pending := &PendingRegistration{Submission: *sub}
	if err := as.pendingRepo.Create(ctx, pending); err != nil {
		return err
	}

	// The admin message and the pending row are independent operations.
	// A delivery failure leaves the pending row in place; the timer will
	// still resolve it.
	kb := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{
					Text:         as.localizer.MustLocalize(locale.AdminApproveButton),
					CallbackData: fmt.Sprintf("%s:%d:%s", CallbackApprove, sub.ChatID, sub.EventID),
				},
				{
					Text:         as.localizer.MustLocalize(locale.AdminRejectButton),
					CallbackData: fmt.Sprintf("%s:%d:%s", CallbackReject, sub.ChatID, sub.EventID),
				},
			},
		},
	}

	msg, err := as.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      as.adminGroupID,
		Text:        as.adminText(pending, event),
		ReplyMarkup: kb,
	})
	if err != nil {
		as.logger.Error("failed to send admin decision message", "event_id", sub.EventID, "chat_id", sub.ChatID, "error", err)
	} else {
		pending.AdminMessageID = msg.ID
		if err := as.pendingRepo.SetAdminMessageID(ctx, sub.EventID, sub.ChatID, msg.ID); err != nil {
			as.logger.Error("failed to store admin message id", "event_id", sub.EventID, "error", err)
		}
	}

	as.schedule(sub.EventID, sub.ChatID, as.delay)
	as.logger.Info("registration submitted", "event_id", sub.EventID, "chat_id", sub.ChatID)
	return nil
}

// Decide resolves a pending registration by an explicit admin action.
// Deciding an already-resolved registration returns ErrPendingNotFound.
func (as *ApprovalService) Decide(ctx context.Context, adminID int64, adminName string, applicantID int64, eventID string, approve bool) error {
	pending, err := as.pendingRepo.Take(ctx, eventID, applicantID)
	if err != nil {
		return err
	}
	as.cancelTimer(eventID, applicantID)

	event, err := as.catalog.Get(eventID)
	if err != nil {
		return err
	}

	if adminName == "" {
		adminName = strconv.FormatInt(adminID, 10)
	}

	if !approve {
		as.notify(ctx, applicantID, as.localizer.MustLocalize(locale.RejectedUser))
		as.stamp(ctx, pending, event, as.localizer.MustLocalizeWithTemplate(locale.AdminRejectedStamp, adminName))
		as.logger.Info("registration rejected", "event_id", eventID, "chat_id", applicantID, "admin_id", adminID)
		return nil
	}

	if err := as.admit(ctx, pending, event, adminID); err != nil {
		if err == ErrEventFull || err == ErrGenderCapReached {
			as.notify(ctx, applicantID, as.localizer.MustLocalizeWithTemplate(locale.AutoCancelledUser, event.Title))
			as.stamp(ctx, pending, event, as.localizer.MustLocalize(locale.AdminCancelledStamp))
		}
		return err
	}

	as.stamp(ctx, pending, event, as.localizer.MustLocalizeWithTemplate(locale.AdminApprovedStamp, adminName))
	as.logger.Info("registration approved", "event_id", eventID, "chat_id", applicantID, "admin_id", adminID)
	return nil
}

// autoApprove is invoked by the delayed task when no admin decided in
// time. A missing pending registration means an admin won the race; the
// task is a silent no-op then.
func (as *ApprovalService) autoApprove(eventID string, applicantID int64) {
	ctx := context.Background()

	pending, err := as.pendingRepo.Take(ctx, eventID, applicantID)
	if err != nil {
		if err != ErrPendingNotFound {
			as.logger.Error("auto-approval failed to take pending", "event_id", eventID, "chat_id", applicantID, "error", err)
		}
		as.cancelTimer(eventID, applicantID)
		return
	}
	as.cancelTimer(eventID, applicantID)

	event, err := as.catalog.Get(eventID)
	if err != nil {
		as.logger.Error("auto-approval for unknown event", "event_id", eventID, "error", err)
		return
	}

	if err := as.admit(ctx, pending, event, 0); err != nil {
		if err == ErrEventFull || err == ErrGenderCapReached {
			as.notify(ctx, applicantID, as.localizer.MustLocalizeWithTemplate(locale.AutoCancelledUser, event.Title))
			as.stamp(ctx, pending, event, as.localizer.MustLocalize(locale.AdminCancelledStamp))
			as.logger.Info("auto-approval cancelled, capacity reached", "event_id", eventID, "chat_id", applicantID)
		} else {
			as.logger.Error("auto-approval failed", "event_id", eventID, "chat_id", applicantID, "error", err)
		}
		return
	}

	as.stamp(ctx, pending, event, as.localizer.MustLocalize(locale.AdminAutoStamp))
	as.logger.Info("registration auto-approved", "event_id", eventID, "chat_id", applicantID)
}

// admit appends the roster entry and notifies the applicant with the
// full event details, the optional coordination link, and the ticket.
// The capacity re-check runs inside the append transaction; delivery
// failures never roll the roster write back.
func (as *ApprovalService) admit(ctx context.Context, pending *PendingRegistration, event *Event, approvedBy int64) error {
	entry := &RosterEntry{
		EventID:    pending.EventID,
		ChatID:     pending.ChatID,
		Username:   pending.Username,
		Name:       pending.Name,
		Phone:      pending.Phone,
		Gender:     pending.Gender,
		Age:        pending.Age,
		Level:      pending.Level,
		Note:       pending.Note,
		TicketCode: as.tickets.Mint(),
		ApprovedBy: approvedBy,
	}

	if err := as.rosterRepo.AppendIfAllowed(ctx, event, entry); err != nil {
		return err
	}

	text := as.localizer.MustLocalizeWithTemplate(
		locale.ApprovedUser,
		event.Title,
		orDash(as.localizer, event.When),
		orDash(as.localizer, event.Place),
		orDash(as.localizer, event.MapsURL),
		orDash(as.localizer, event.Price),
		orDash(as.localizer, event.Description),
	)
	if entry.SystemApproved() {
		text += as.localizer.MustLocalize(locale.ApprovedAutoNote)
	}
	if link, ok := as.meetupLinks[event.ID]; ok && link != "" {
		text += as.localizer.MustLocalizeWithTemplate(locale.ApprovedLinkLine, link)
	}

	kb := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{
					Text:         as.localizer.MustLocalize(locale.CancelRegButton),
					CallbackData: fmt.Sprintf("cancel_reg:%s", event.ID),
				},
			},
		},
	}

	if _, err := as.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      pending.ChatID,
		Text:        text,
		ReplyMarkup: kb,
	}); err != nil {
		as.logger.Error("failed to notify approved applicant", "chat_id", pending.ChatID, "error", err)
	}

	_ = as.tickets.Deliver(ctx, pending.ChatID, event, entry.TicketCode)

	if err := as.board.Refresh(ctx, event.ID); err != nil {
		as.logger.Warn("failed to refresh status board", "event_id", event.ID, "error", err)
	}

	return nil
}

// RescheduleAll re-arms auto-approval timers for pendings that survived a
// restart. Overdue pendings fire immediately.
func (as *ApprovalService) RescheduleAll(ctx context.Context) error {
	pendings, err := as.pendingRepo.List(ctx)
	if err != nil {
		return err
	}

	for _, pending := range pendings {
		remaining := as.delay - time.Since(pending.SubmittedAt)
		if remaining < 0 {
			remaining = 0
		}
		as.schedule(pending.EventID, pending.ChatID, remaining)
	}

	if len(pendings) > 0 {
		as.logger.Info("rescheduled pending registrations", "count", len(pendings))
	}
	return nil
}

// Shutdown stops all armed timers
func (as *ApprovalService) Shutdown() {
	as.mu.Lock()
	defer as.mu.Unlock()
	for key, timer := range as.timers {
		timer.Stop()
		delete(as.timers, key)
	}
}

func (as *ApprovalService) schedule(eventID string, chatID int64, delay time.Duration) {
	as.mu.Lock()
	defer as.mu.Unlock()

	key := pendingKey(eventID, chatID)
	if old, ok := as.timers[key]; ok {
		old.Stop()
	}
	as.timers[key] = time.AfterFunc(delay, func() {
		as.autoApprove(eventID, chatID)
	})
}

func (as *ApprovalService) cancelTimer(eventID string, chatID int64) {
	as.mu.Lock()
	defer as.mu.Unlock()

	key := pendingKey(eventID, chatID)
	if timer, ok := as.timers[key]; ok {
		timer.Stop()
		delete(as.timers, key)
	}
}

// notify sends a plain message to a chat, logging delivery failures
func (as *ApprovalService) notify(ctx context.Context, chatID int64, text string) {
	if _, err := as.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}); err != nil {
		as.logger.Error("failed to notify chat", "chat_id", chatID, "error", err)
	}
}

// adminText renders the full-detail admin message for a submission
func (as *ApprovalService) adminText(pending *PendingRegistration, event *Event) string {
	username := as.localizer.MustLocalize(locale.NotProvided)
	if pending.Username != "" {
		username = "@" + pending.Username
	}

	text := as.localizer.MustLocalizeWithTemplate(
		locale.AdminNewRegistration,
		pending.Name,
		pending.Phone,
		GenderLabel(as.localizer, pending.Gender),
		AgeLabel(as.localizer, pending.Age),
		LevelLabel(as.localizer, pending.Level),
		NoteLabel(as.localizer, pending.Note),
		username,
	)

	text += as.localizer.MustLocalizeWithTemplate(
		locale.AdminEventDetails,
		event.Title,
		orDash(as.localizer, event.When),
		orDash(as.localizer, event.Place),
		orDash(as.localizer, event.MapsURL),
		orDash(as.localizer, event.Price),
		orDash(as.localizer, event.Description),
	)

	return text
}

// stamp rewrites the admin decision message with the outcome and drops
// its buttons. Missing message IDs (delivery failed at submit time) are
// skipped silently.
func (as *ApprovalService) stamp(ctx context.Context, pending *PendingRegistration, event *Event, stampLine string) {
	if pending.AdminMessageID == 0 {
		return
	}

	if _, err := as.bot.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    as.adminGroupID,
		MessageID: pending.AdminMessageID,
		Text:      as.adminText(pending, event) + stampLine,
	}); err != nil {
		as.logger.Error("failed to stamp admin message", "message_id", pending.AdminMessageID, "error", err)
	}
}
