package domain

import (
	"bytes"
	"context"
	"fmt"

	"github.com/chillchat/community-bot/internal/locale"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
)

// PhotoSender is the bot capability needed to deliver tickets
type PhotoSender interface {
	SendPhoto(ctx context.Context, params *bot.SendPhotoParams) (*models.Message, error)
}

// TicketService mints ticket codes and delivers them as QR images
type TicketService struct {
	bot       PhotoSender
	localizer locale.Localizer
	logger    Logger
}

// NewTicketService creates a new TicketService
func NewTicketService(b PhotoSender, localizer locale.Localizer, logger Logger) *TicketService {
	return &TicketService{
		bot:       b,
		localizer: localizer,
		logger:    logger,
	}
}

// Mint returns a fresh ticket code
func (ts *TicketService) Mint() string {
	return uuid.NewString()
}

// Deliver renders the ticket code as a QR image and sends it to the
// applicant. Failures are logged; the registration stays approved.
func (ts *TicketService) Deliver(ctx context.Context, chatID int64, event *Event, code string) error {
	png, err := qrcode.Encode(code, qrcode.Medium, 256)
	if err != nil {
		ts.logger.Error("failed to render ticket QR", "event_id", event.ID, "error", err)
		return err
	}

	_, err = ts.bot.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID: chatID,
		Photo: &models.InputFileUpload{
			Filename: fmt.Sprintf("ticket-%s.png", event.ID),
			Data:     bytes.NewReader(png),
		},
		Caption: ts.localizer.MustLocalizeWithTemplate(locale.TicketCaption, event.Title, code),
	})
	if err != nil {
		ts.logger.Error("failed to send ticket", "chat_id", chatID, "event_id", event.ID, "error", err)
		return err
	}

	ts.logger.Info("ticket delivered", "chat_id", chatID, "event_id", event.ID)
	return nil
}
