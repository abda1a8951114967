// Package bot adapts the marketplace services to the Telegram Bot API.
package bot

import (
	"context"
	"fmt"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	domain "tattoo-market/internal/models"
	"tattoo-market/internal/util"
)

// sender is the part of the Bot API client the gateway uses
type sender interface {
	SendMessage(ctx context.Context, params *tgbot.SendMessageParams) (*models.Message, error)
	SendPhoto(ctx context.Context, params *tgbot.SendPhotoParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *tgbot.EditMessageTextParams) (*models.Message, error)
	EditMessageMedia(ctx context.Context, params *tgbot.EditMessageMediaParams) (*models.Message, error)
	EditMessageReplyMarkup(ctx context.Context, params *tgbot.EditMessageReplyMarkupParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *tgbot.AnswerCallbackQueryParams) (bool, error)
}

// Gateway sends messages to chats. It implements service.Notifier.
type Gateway struct {
	api    sender
	logger *zap.Logger
}

// NewGateway creates a new chat gateway
func NewGateway(api sender) *Gateway {
	return &Gateway{api: api, logger: util.GetLogger()}
}

// SendText sends a plain text message. Notifications carry user-written text,
// so no markup is parsed.
func (g *Gateway) SendText(ctx context.Context, chatID int64, text string) error {
	return g.send(ctx, chatID, text, "", nil)
}

// SendPhoto sends a photo by file id with a plain caption
func (g *Gateway) SendPhoto(ctx context.Context, chatID int64, fileID, caption string) error {
	return g.sendPhoto(ctx, chatID, fileID, caption, "", nil)
}

// SendModerationPrompt shows a paid work to an admin with approve/reject buttons
func (g *Gateway) SendModerationPrompt(ctx context.Context, chatID int64, card *domain.WorkCard) error {
	caption := "🆕 <b>New work awaiting moderation</b>\n\n" + renderWork(card, workViewAdmin)
	return g.sendPhoto(ctx, chatID, card.ImageFileID, caption, models.ParseModeHTML, moderationKeyboard(card.ID))
}

func (g *Gateway) send(ctx context.Context, chatID int64, text string, mode models.ParseMode, markup models.ReplyMarkup) error {
	_, err := g.api.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   mode,
		ReplyMarkup: markup,
	})
	if err != nil {
		return fmt.Errorf("send message to %d: %w", chatID, err)
	}
	return nil
}

func (g *Gateway) sendPhoto(ctx context.Context, chatID int64, fileID, caption string, mode models.ParseMode, markup models.ReplyMarkup) error {
	_, err := g.api.SendPhoto(ctx, &tgbot.SendPhotoParams{
		ChatID:      chatID,
		Photo:       &models.InputFileString{Data: fileID},
		Caption:     caption,
		ParseMode:   mode,
		ReplyMarkup: markup,
	})
	if err != nil {
		return fmt.Errorf("send photo to %d: %w", chatID, err)
	}
	return nil
}

func (g *Gateway) editText(ctx context.Context, chatID int64, messageID int, text string, markup models.ReplyMarkup) error {
	_, err := g.api.EditMessageText(ctx, &tgbot.EditMessageTextParams{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        text,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: markup,
	})
	return err
}

func (g *Gateway) editPhoto(ctx context.Context, chatID int64, messageID int, fileID, caption string, markup models.ReplyMarkup) error {
	_, err := g.api.EditMessageMedia(ctx, &tgbot.EditMessageMediaParams{
		ChatID:    chatID,
		MessageID: messageID,
		Media: &models.InputMediaPhoto{
			Media:     fileID,
			Caption:   caption,
			ParseMode: models.ParseModeHTML,
		},
		ReplyMarkup: markup,
	})
	return err
}

func (g *Gateway) editMarkup(ctx context.Context, chatID int64, messageID int, markup models.ReplyMarkup) error {
	_, err := g.api.EditMessageReplyMarkup(ctx, &tgbot.EditMessageReplyMarkupParams{
		ChatID:      chatID,
		MessageID:   messageID,
		ReplyMarkup: markup,
	})
	return err
}

func (g *Gateway) answer(ctx context.Context, callbackID, text string, alert bool) {
	_, err := g.api.AnswerCallbackQuery(ctx, &tgbot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       alert,
	})
	if err != nil {
		g.logger.Warn("failed to answer callback", zap.Error(err))
	}
}
