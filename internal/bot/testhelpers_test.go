package bot

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chillchat/community-bot/internal/config"
	"github.com/chillchat/community-bot/internal/domain"
	"github.com/chillchat/community-bot/internal/locale"
	"github.com/chillchat/community-bot/internal/logger"
	"github.com/chillchat/community-bot/internal/storage"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	_ "modernc.org/sqlite"
)

const testAdminGroupID = int64(-100999)

// MockBot records outgoing Telegram calls for assertions
type MockBot struct {
	mu sync.Mutex

	SentMessages    []*bot.SendMessageParams
	EditedMessages  []*bot.EditMessageTextParams
	Answered        []*bot.AnswerCallbackQueryParams
	Forwarded       []*bot.ForwardMessageParams
	SentPhotos      []*bot.SendPhotoParams
	PinnedMessages  []*bot.PinChatMessageParams
	nextMessageID   int
}

func (m *MockBot) SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentMessages = append(m.SentMessages, params)
	m.nextMessageID++
	return &models.Message{ID: m.nextMessageID}, nil
}

func (m *MockBot) EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EditedMessages = append(m.EditedMessages, params)
	return &models.Message{ID: params.MessageID}, nil
}

func (m *MockBot) AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Answered = append(m.Answered, params)
	return true, nil
}

func (m *MockBot) ForwardMessage(ctx context.Context, params *bot.ForwardMessageParams) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Forwarded = append(m.Forwarded, params)
	m.nextMessageID++
	return &models.Message{ID: m.nextMessageID}, nil
}

func (m *MockBot) SendPhoto(ctx context.Context, params *bot.SendPhotoParams) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentPhotos = append(m.SentPhotos, params)
	m.nextMessageID++
	return &models.Message{ID: m.nextMessageID}, nil
}

func (m *MockBot) PinChatMessage(ctx context.Context, params *bot.PinChatMessageParams) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PinnedMessages = append(m.PinnedMessages, params)
	return true, nil
}

// messagesTo returns the texts of all messages sent to a chat
func (m *MockBot) messagesTo(chatID int64) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var texts []string
	for _, msg := range m.SentMessages {
		if id, ok := msg.ChatID.(int64); ok && id == chatID {
			texts = append(texts, msg.Text)
		}
	}
	return texts
}

// lastMessageTo returns the text of the most recent message to a chat
func (m *MockBot) lastMessageTo(chatID int64) string {
	texts := m.messagesTo(chatID)
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

// sentTo reports whether any message to chatID contains substr
func (m *MockBot) sentTo(chatID int64, substr string) bool {
	for _, text := range m.messagesTo(chatID) {
		if strings.Contains(text, substr) {
			return true
		}
	}
	return false
}

type testEnv struct {
	mock        *MockBot
	cfg         *config.Config
	catalog     *domain.Catalog
	roster      *domain.RosterService
	rosterRepo  *storage.RosterRepository
	pendingRepo *storage.PendingRepository
	userRepo    *storage.UserRepository
	approvals   *domain.ApprovalService
	fsm         *RegistrationFSM
	fsmStorage  *storage.FSMStorage
	handler     *BotHandler
	localizer   locale.Localizer
}

type envOptions struct {
	events         []domain.Event
	delay          time.Duration
	optionalFields []string
	meetupLinks    map[string]string
}

func defaultEnvOptions() envOptions {
	return envOptions{
		events: []domain.Event{
			{ID: "m1", Title: "Coffee & Conversation", When: "Friday 18:30", Place: "The Café", Capacity: 10},
		},
		delay:          time.Hour,
		optionalFields: []string{config.FieldGender, config.FieldAge, config.FieldNote},
	}
}

func newTestEnv(t *testing.T, opts envOptions) (*testEnv, func()) {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	queue := storage.NewDBQueue(db)
	if err := storage.InitSchema(queue); err != nil {
		t.Fatalf("Failed to initialize schema: %v", err)
	}
	if err := storage.RunMigrations(queue); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	log := logger.NewWithWriter(logger.ERROR, io.Discard)

	localizer, err := locale.NewLocalizer(locale.NewLocale(locale.En))
	if err != nil {
		t.Fatalf("Failed to create localizer: %v", err)
	}

	catalog, err := domain.NewCatalog(opts.events)
	if err != nil {
		t.Fatalf("Failed to build catalog: %v", err)
	}

	cfg := &config.Config{
		TelegramToken:    "test",
		AdminUserIDs:     []int64{777},
		AdminGroupID:     testAdminGroupID,
		DefaultLocale:    locale.En,
		AutoApproveDelay: opts.delay,
		OptionalFields:   opts.optionalFields,
		Events:           opts.events,
		MeetupLinks:      opts.meetupLinks,
		SupportContact:   "@support",
	}

	mock := &MockBot{}

	rosterRepo := storage.NewRosterRepository(queue)
	pendingRepo := storage.NewPendingRepository(queue)
	userRepo := storage.NewUserRepository(queue)
	boardRepo := storage.NewBoardRepository(queue)
	fsmStorage := storage.NewFSMStorage(queue, log)

	rosterService := domain.NewRosterService(catalog, rosterRepo, log)
	ticketService := domain.NewTicketService(mock, localizer, log)
	statusBoard := domain.NewStatusBoard(mock, rosterRepo, boardRepo, catalog, localizer, cfg.AdminGroupID, log)
	approvals := domain.NewApprovalService(
		mock, catalog, rosterService, rosterRepo, pendingRepo,
		ticketService, statusBoard, localizer,
		cfg.AdminGroupID, cfg.AutoApproveDelay, cfg.MeetupLinks, log,
	)

	fsm := NewRegistrationFSM(fsmStorage, mock, catalog, rosterService, approvals, cfg, localizer, log)
	handler := NewBotHandler(mock, cfg, catalog, rosterService, approvals, statusBoard, userRepo, fsm, fsmStorage, localizer, log)

	env := &testEnv{
		mock:        mock,
		cfg:         cfg,
		catalog:     catalog,
		roster:      rosterService,
		rosterRepo:  rosterRepo,
		pendingRepo: pendingRepo,
		userRepo:    userRepo,
		approvals:   approvals,
		fsm:         fsm,
		fsmStorage:  fsmStorage,
		handler:     handler,
		localizer:   localizer,
	}

	cleanup := func() {
		approvals.Shutdown()
		queue.Close()
		_ = db.Close()
	}
	return env, cleanup
}

func messageUpdate(userID, chatID int64, text string) *models.Update {
	return &models.Update{
		Message: &models.Message{
			ID:   1,
			From: &models.User{ID: userID, Username: "tester", FirstName: "Tester"},
			Chat: models.Chat{ID: chatID},
			Text: text,
		},
	}
}

func contactUpdate(userID, chatID int64, phone string) *models.Update {
	u := messageUpdate(userID, chatID, "")
	u.Message.Contact = &models.Contact{PhoneNumber: phone, UserID: userID}
	return u
}

func callbackUpdate(userID, chatID int64, messageID int, data string) *models.Update {
	return &models.Update{
		CallbackQuery: &models.CallbackQuery{
			ID:   "cb1",
			From: models.User{ID: userID, Username: "tester", FirstName: "Tester"},
			Message: models.MaybeInaccessibleMessage{
				Message: &models.Message{
					ID:   messageID,
					Chat: models.Chat{ID: chatID},
				},
			},
			Data: data,
		},
	}
}

// runWizard drives a user through the whole wizard with the given answers
func runWizard(t *testing.T, env *testEnv, userID, chatID int64, eventID string) {
	t.Helper()
	ctx := context.Background()

	if err := env.fsm.Start(ctx, userID, chatID, eventID, domain.OriginEvent, 0); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	mustHandleCallback(t, env, callbackUpdate(userID, chatID, 10, cbAcceptRules))
	mustHandleMessage(t, env, messageUpdate(userID, chatID, "Sara Tehrani"))
	mustHandleCallback(t, env, callbackUpdate(userID, chatID, 10, cbGenderPrefix+string(domain.GenderFemale)))
	mustHandleCallback(t, env, callbackUpdate(userID, chatID, 10, cbAgeSkip))
	mustHandleCallback(t, env, callbackUpdate(userID, chatID, 10, cbLevelPrefix+string(domain.LevelIntermediate)))
	mustHandleMessage(t, env, messageUpdate(userID, chatID, "+989121234567"))
	mustHandleMessage(t, env, messageUpdate(userID, chatID, "-"))
}

func mustHandleMessage(t *testing.T, env *testEnv, update *models.Update) {
	t.Helper()
	handled, err := env.fsm.HandleMessage(context.Background(), update)
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	if !handled {
		t.Fatalf("HandleMessage did not find a session for user %d", update.Message.From.ID)
	}
}

func mustHandleCallback(t *testing.T, env *testEnv, update *models.Update) {
	t.Helper()
	handled, err := env.fsm.HandleCallback(context.Background(), update)
	if err != nil {
		t.Fatalf("HandleCallback failed: %v", err)
	}
	if !handled {
		t.Fatalf("HandleCallback did not find a session for user %d", update.CallbackQuery.From.ID)
	}
}

// wizardState returns the persisted step for a user, or "" when no session
func wizardState(t *testing.T, env *testEnv, userID int64) string {
	t.Helper()
	state, _, err := env.fsmStorage.Get(context.Background(), userID)
	if err == storage.ErrSessionNotFound {
		return ""
	}
	if err != nil {
		t.Fatalf("fsmStorage.Get failed: %v", err)
	}
	return state
}
