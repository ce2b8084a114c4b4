package bot

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/chillchat/community-bot/internal/config"
	"github.com/chillchat/community-bot/internal/domain"
	"github.com/chillchat/community-bot/internal/locale"
	"github.com/chillchat/community-bot/internal/storage"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Step is a wizard step identifier. Steps are persisted as the FSM state
// string, so the values must stay stable across releases.
type Step string

const (
	StepRules  Step = "rules"
	StepName   Step = "name"
	StepGender Step = "gender"
	StepAge    Step = "age"
	StepLevel  Step = "level"
	StepPhone  Step = "phone"
	StepNote   Step = "note"
)

// stepOrder is the canonical wizard order before optional-field filtering
var stepOrder = []Step{StepRules, StepName, StepGender, StepAge, StepLevel, StepPhone, StepNote}

var agePattern = regexp.MustCompile(`^[0-9]{1,3}$`)

// RegistrationFSM drives the registration wizard. State and collected
// answers are persisted per user in SQLite, so a restart of the process
// resumes every in-flight wizard where it left off.
type RegistrationFSM struct {
	storage   *storage.FSMStorage
	bot       BotAPI
	catalog   *domain.Catalog
	roster    *domain.RosterService
	approvals *domain.ApprovalService
	cfg       *config.Config
	localizer locale.Localizer
	logger    domain.Logger
}

// NewRegistrationFSM creates a new RegistrationFSM
func NewRegistrationFSM(
	fsmStorage *storage.FSMStorage,
	b BotAPI,
	catalog *domain.Catalog,
	roster *domain.RosterService,
	approvals *domain.ApprovalService,
	cfg *config.Config,
	localizer locale.Localizer,
	log domain.Logger,
) *RegistrationFSM {
	return &RegistrationFSM{
		storage:   fsmStorage,
		bot:       b,
		catalog:   catalog,
		roster:    roster,
		approvals: approvals,
		cfg:       cfg,
		localizer: localizer,
		logger:    log,
	}
}

// enabledSteps returns the wizard order with disabled optional fields
// filtered out
func (f *RegistrationFSM) enabledSteps() []Step {
	steps := make([]Step, 0, len(stepOrder))
	for _, step := range stepOrder {
		switch step {
		case StepGender:
			if !f.cfg.FieldEnabled(config.FieldGender) {
				continue
			}
		case StepAge:
			if !f.cfg.FieldEnabled(config.FieldAge) {
				continue
			}
		case StepNote:
			if !f.cfg.FieldEnabled(config.FieldNote) {
				continue
			}
		}
		steps = append(steps, step)
	}
	return steps
}

// next returns the step after current, or "" when current is the last one
func (f *RegistrationFSM) next(current Step) Step {
	steps := f.enabledSteps()
	for i, step := range steps {
		if step == current && i+1 < len(steps) {
			return steps[i+1]
		}
	}
	return ""
}

// Start opens the wizard at the rules step for the given event. When
// messageID is non-zero the prompt replaces that message in place.
func (f *RegistrationFSM) Start(ctx context.Context, userID, chatID int64, eventID, origin string, messageID int) error {
	if _, err := f.catalog.Get(eventID); err != nil {
		return err
	}

	rc := &domain.RegistrationContext{
		ChatID:          chatID,
		Origin:          origin,
		SelectedEventID: eventID,
	}
	rc.Push(string(StepRules))

	if err := f.render(ctx, rc, StepRules, messageID); err != nil {
		return err
	}
	return f.save(ctx, userID, rc)
}

// Cancel drops the wizard session, if any
func (f *RegistrationFSM) Cancel(ctx context.Context, userID int64) error {
	err := f.storage.Delete(ctx, userID)
	if err != nil && err != storage.ErrSessionNotFound {
		return err
	}
	return nil
}

// HandleMessage consumes a text answer for the current step. It returns
// false when no wizard session exists for the user.
func (f *RegistrationFSM) HandleMessage(ctx context.Context, update *models.Update) (bool, error) {
	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID
	text := strings.TrimSpace(update.Message.Text)

	rc, step, ok, err := f.session(ctx, userID)
	if err != nil || !ok {
		return ok, err
	}

	switch step {
	case StepName:
		if err := domain.ValidateName(text); err != nil {
			return true, f.prompt(ctx, chatID, locale.NameInvalid, backStepKeyboard(f.localizer))
		}
		rc.Name = text
		return true, f.advance(ctx, userID, rc, step, update.Message.From.Username)

	case StepAge:
		age, valid := f.parseAge(text)
		if !valid {
			return true, f.prompt(ctx, chatID, locale.AgeInvalid, ageKeyboard(f.localizer))
		}
		rc.Age = age
		return true, f.advance(ctx, userID, rc, step, update.Message.From.Username)

	case StepPhone:
		if text == "" {
			return true, f.prompt(ctx, chatID, locale.AskPhone, nil)
		}
		rc.Phone = text
		return true, f.advance(ctx, userID, rc, step, update.Message.From.Username)

	case StepNote:
		if text == "-" {
			text = ""
		}
		rc.Note = text
		return true, f.advance(ctx, userID, rc, step, update.Message.From.Username)
	}

	// Button-only steps ignore free text
	return true, nil
}

// HandleContact consumes a shared contact at the phone step
func (f *RegistrationFSM) HandleContact(ctx context.Context, update *models.Update) (bool, error) {
	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	rc, step, ok, err := f.session(ctx, userID)
	if err != nil || !ok {
		return ok, err
	}
	if step != StepPhone || update.Message.Contact == nil {
		return true, nil
	}

	rc.Phone = update.Message.Contact.PhoneNumber
	if _, err := f.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        f.localizer.MustLocalize(locale.PhoneReceived),
		ReplyMarkup: restartKeyboard(f.localizer),
	}); err != nil {
		f.logger.Error("failed to acknowledge contact", "chat_id", chatID, "error", err)
	}
	return true, f.advance(ctx, userID, rc, step, update.Message.From.Username)
}

// HandleCallback consumes a wizard button press. It returns false when no
// wizard session exists for the user.
func (f *RegistrationFSM) HandleCallback(ctx context.Context, update *models.Update) (bool, error) {
	callback := update.CallbackQuery
	userID := callback.From.ID
	data := callback.Data

	messageID := 0
	if callback.Message.Message != nil {
		messageID = callback.Message.Message.ID
	}

	rc, step, ok, err := f.session(ctx, userID)
	if err != nil || !ok {
		return ok, err
	}

	switch {
	case data == cbBackStep:
		return true, f.back(ctx, userID, rc, messageID)

	case data == cbAcceptRules && step == StepRules:
		return true, f.advanceEdit(ctx, userID, rc, step, callback.From.Username, messageID)

	case strings.HasPrefix(data, cbGenderPrefix) && step == StepGender:
		gender := domain.Gender(strings.TrimPrefix(data, cbGenderPrefix))
		if gender != domain.GenderFemale && gender != domain.GenderMale {
			return true, nil
		}
		rc.Gender = gender
		return true, f.advanceEdit(ctx, userID, rc, step, callback.From.Username, messageID)

	case data == cbAgeSkip && step == StepAge:
		rc.Age = domain.AgeNotProvided
		return true, f.advanceEdit(ctx, userID, rc, step, callback.From.Username, messageID)

	case strings.HasPrefix(data, cbLevelPrefix) && step == StepLevel:
		level := domain.Level(strings.TrimPrefix(data, cbLevelPrefix))
		if level != domain.LevelBeginner && level != domain.LevelIntermediate && level != domain.LevelAdvanced {
			return true, nil
		}
		rc.Level = level
		return true, f.advanceEdit(ctx, userID, rc, step, callback.From.Username, messageID)
	}

	return true, nil
}

// session loads and decodes the wizard session for a user. ok is false
// when the user has no session or it does not hold a wizard step.
func (f *RegistrationFSM) session(ctx context.Context, userID int64) (*domain.RegistrationContext, Step, bool, error) {
	state, data, err := f.storage.Get(ctx, userID)
	if err != nil {
		if err == storage.ErrSessionNotFound {
			return nil, "", false, nil
		}
		return nil, "", false, err
	}

	if !isWizardStep(state) {
		return nil, "", false, nil
	}

	rc := &domain.RegistrationContext{}
	if err := rc.FromMap(data); err != nil {
		_ = f.storage.Delete(ctx, userID)
		return nil, "", false, nil
	}
	return rc, Step(state), true, nil
}

func isWizardStep(state string) bool {
	for _, step := range stepOrder {
		if state == string(step) {
			return true
		}
	}
	return false
}

func (f *RegistrationFSM) save(ctx context.Context, userID int64, rc *domain.RegistrationContext) error {
	return f.storage.Set(ctx, userID, rc.Current(), rc.ToMap())
}

// advance moves past the completed step: renders the next prompt as a
// fresh message, or submits when the step was the last one
func (f *RegistrationFSM) advance(ctx context.Context, userID int64, rc *domain.RegistrationContext, completed Step, username string) error {
	return f.advanceEdit(ctx, userID, rc, completed, username, 0)
}

// advanceEdit is advance with in-place editing of the tapped message
func (f *RegistrationFSM) advanceEdit(ctx context.Context, userID int64, rc *domain.RegistrationContext, completed Step, username string, messageID int) error {
	nextStep := f.next(completed)
	if nextStep == "" {
		return f.submit(ctx, userID, rc, username)
	}

	rc.Push(string(nextStep))
	if err := f.render(ctx, rc, nextStep, messageID); err != nil {
		return err
	}
	return f.save(ctx, userID, rc)
}

// back pops one step off the history. An empty stack leaves the wizard:
// to the event detail view when registration started there, to the home
// menu otherwise.
func (f *RegistrationFSM) back(ctx context.Context, userID int64, rc *domain.RegistrationContext, messageID int) error {
	prev := rc.Pop()
	if prev == "" {
		if err := f.Cancel(ctx, userID); err != nil {
			return err
		}
		if rc.Origin == domain.OriginEvent {
			event, err := f.catalog.Get(rc.SelectedEventID)
			if err == nil {
				remaining, rerr := f.roster.RemainingCapacity(ctx, event.ID)
				if rerr != nil {
					remaining = domain.Unlimited
				}
				_, err = f.bot.EditMessageText(ctx, &bot.EditMessageTextParams{
					ChatID:      rc.ChatID,
					MessageID:   messageID,
					Text:        eventDetailText(f.localizer, event, remaining),
					ParseMode:   models.ParseModeMarkdown,
					ReplyMarkup: eventDetailKeyboard(f.localizer, event.ID),
				})
			}
			return err
		}
		_, err := f.bot.EditMessageText(ctx, &bot.EditMessageTextParams{
			ChatID:      rc.ChatID,
			MessageID:   messageID,
			Text:        f.localizer.MustLocalize(locale.ChoosePrompt),
			ReplyMarkup: mainMenuKeyboard(f.localizer),
		})
		return err
	}

	if err := f.render(ctx, rc, Step(prev), messageID); err != nil {
		return err
	}
	return f.save(ctx, userID, rc)
}

// render shows the prompt for a step, editing messageID in place when it
// is non-zero. The phone step always sends fresh messages because a reply
// keyboard cannot be attached to an edit.
func (f *RegistrationFSM) render(ctx context.Context, rc *domain.RegistrationContext, step Step, messageID int) error {
	if step == StepPhone {
		if _, err := f.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:      rc.ChatID,
			Text:        f.localizer.MustLocalize(locale.AskPhone),
			ReplyMarkup: contactKeyboard(f.localizer),
		}); err != nil {
			return err
		}
		msg, err := f.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:      rc.ChatID,
			Text:        f.localizer.MustLocalize(locale.PhoneBackHint),
			ReplyMarkup: backStepKeyboard(f.localizer),
		})
		if err == nil && msg != nil {
			rc.LastBotMessageID = msg.ID
		}
		return err
	}

	var key string
	var kb models.ReplyMarkup
	switch step {
	case StepRules:
		key, kb = locale.RulesText, rulesKeyboard(f.localizer)
	case StepName:
		key, kb = locale.AskName, backStepKeyboard(f.localizer)
	case StepGender:
		key, kb = locale.AskGender, genderKeyboard(f.localizer)
	case StepAge:
		key, kb = locale.AskAge, ageKeyboard(f.localizer)
	case StepLevel:
		key, kb = locale.AskLevel, levelKeyboard(f.localizer)
	case StepNote:
		key, kb = locale.AskNote, backStepKeyboard(f.localizer)
	default:
		return nil
	}

	text := f.localizer.MustLocalize(key)

	if messageID != 0 {
		_, err := f.bot.EditMessageText(ctx, &bot.EditMessageTextParams{
			ChatID:      rc.ChatID,
			MessageID:   messageID,
			Text:        text,
			ReplyMarkup: kb,
		})
		if err == nil {
			rc.LastBotMessageID = messageID
		}
		return err
	}

	msg, err := f.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      rc.ChatID,
		Text:        text,
		ReplyMarkup: kb,
	})
	if err == nil && msg != nil {
		rc.LastBotMessageID = msg.ID
	}
	return err
}

// submit hands the collected answers to the approval pipeline and clears
// the session. Saturation and duplicate outcomes are mapped to applicant
// messages; the wizard never survives a submit attempt.
func (f *RegistrationFSM) submit(ctx context.Context, userID int64, rc *domain.RegistrationContext, username string) error {
	if err := f.Cancel(ctx, userID); err != nil {
		return err
	}

	sub := rc.Submission(username)
	err := f.approvals.Submit(ctx, sub)
	if err != nil {
		var key string
		switch {
		case errors.Is(err, domain.ErrEventFull):
			key = locale.CapacityFullUser
		case errors.Is(err, domain.ErrGenderCapReached):
			key = locale.GenderCapFullUser
		case errors.Is(err, domain.ErrAlreadyPending):
			key = locale.AlreadyPendingUser
		case errors.Is(err, domain.ErrAlreadyRegistered):
			key = locale.AlreadyOnRosterUser
		default:
			f.logger.Error("submission failed", "chat_id", rc.ChatID, "event_id", rc.SelectedEventID, "error", err)
			key = locale.ErrorGeneric
		}
		return f.prompt(ctx, rc.ChatID, key, restartKeyboard(f.localizer))
	}

	event, err := f.catalog.Get(rc.SelectedEventID)
	if err != nil {
		return err
	}

	text := f.localizer.MustLocalizeWithTemplate(
		locale.SubmissionAck,
		sub.Name,
		sub.Phone,
		domain.LevelLabel(f.localizer, sub.Level),
		domain.NoteLabel(f.localizer, sub.Note),
	)
	text += f.localizer.MustLocalizeWithTemplate(locale.SubmissionEventLine, event.Title, event.When)

	_, err = f.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      rc.ChatID,
		Text:        text,
		ReplyMarkup: restartKeyboard(f.localizer),
	})
	return err
}

func (f *RegistrationFSM) prompt(ctx context.Context, chatID int64, key string, kb models.ReplyMarkup) error {
	_, err := f.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        f.localizer.MustLocalize(key),
		ReplyMarkup: kb,
	})
	return err
}

// parseAge accepts the localized skip word, the literal "skip", or a
// number between 1 and 120
func (f *RegistrationFSM) parseAge(text string) (int, bool) {
	if strings.EqualFold(text, "skip") || strings.EqualFold(text, f.localizer.MustLocalize(locale.AgeSkipWord)) {
		return domain.AgeNotProvided, true
	}
	if !agePattern.MatchString(text) {
		return 0, false
	}
	age, err := strconv.Atoi(text)
	if err != nil || domain.ValidateAge(age) != nil {
		return 0, false
	}
	return age, true
}
