package botapp

import (
	"context"
	"fmt"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ivankudzin/tgrelay/internal/domain/model"
	tginfra "github.com/ivankudzin/tgrelay/internal/infra/telegram"
	"github.com/ivankudzin/tgrelay/internal/services/submissions"
)

// messenger is the part of the Telegram client the relay talks through.
type messenger interface {
	SendText(ctx context.Context, chatID int64, text string) error
	Reply(ctx context.Context, chatID int64, replyTo int, text string, markup *tgbotapi.InlineKeyboardMarkup) (int, error)
	SendTo(ctx context.Context, to tginfra.ChatRef, text string) (int, error)
	SendMedia(ctx context.Context, to tginfra.ChatRef, kind, fileID, caption string) (int, error)
	CopyMessage(ctx context.Context, to tginfra.ChatRef, fromChatID int64, messageID int) (int, error)
	EditText(ctx context.Context, chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// telegramDelivery carries submissions between the author chat, the review group and the channel.
type telegramDelivery struct {
	tg          messenger
	reviewGroup tginfra.ChatRef
	channel     tginfra.ChatRef
	logger      *zap.Logger
}

var _ submissions.Delivery = (*telegramDelivery)(nil)

func newTelegramDelivery(tg messenger, reviewGroupID int64, channel tginfra.ChatRef, logger *zap.Logger) *telegramDelivery {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &telegramDelivery{
		tg:          tg,
		reviewGroup: tginfra.ChatRef{ID: reviewGroupID},
		channel:     channel,
		logger:      logger,
	}
}

func (d *telegramDelivery) RelayToModerationQueue(ctx context.Context, origin model.Origin) (int, error) {
	return d.tg.CopyMessage(ctx, d.reviewGroup, origin.ChatID, origin.MessageID)
}

func (d *telegramDelivery) NotifyModerators(ctx context.Context, reviewKey int, notice submissions.ModeratorNotice) error {
	_, err := d.tg.Reply(ctx, d.reviewGroup.ID, reviewKey, notice.Text(), nil)
	return err
}

func (d *telegramDelivery) PresentChoice(ctx context.Context, origin model.Origin) error {
	markup := choiceKeyboard(origin)
	_, err := d.tg.Reply(ctx, origin.ChatID, origin.MessageID, choicePromptText, &markup)
	return err
}

// Publish posts to the channel and returns the id of the content message.
// A trailer that has to follow as its own message is best-effort once the content is out.
func (d *telegramDelivery) Publish(ctx context.Context, origin model.Origin, post submissions.Post) (int, error) {
	payload := post.Payload

	switch {
	case payload.Kind == model.ContentKindText:
		if utf8.RuneCountInString(post.Text) <= tginfra.MessageLimit {
			return d.tg.SendTo(ctx, d.channel, post.Text)
		}
		messageID, err := d.tg.SendTo(ctx, d.channel, payload.Text)
		if err != nil {
			return 0, err
		}
		d.sendFollowUp(ctx, messageID, post.Trailer)
		return messageID, nil

	case payload.Kind.SupportsCaption():
		if utf8.RuneCountInString(post.Text) <= tginfra.CaptionLimit {
			return d.tg.SendMedia(ctx, d.channel, string(payload.Kind), payload.FileID, post.Text)
		}
		messageID, err := d.tg.SendMedia(ctx, d.channel, string(payload.Kind), payload.FileID, "")
		if err != nil {
			return 0, err
		}
		d.sendFollowUp(ctx, messageID, post.Text)
		return messageID, nil

	case payload.Kind == model.ContentKindSticker, payload.Kind == model.ContentKindVideoNote:
		messageID, err := d.tg.SendMedia(ctx, d.channel, string(payload.Kind), payload.FileID, "")
		if err != nil {
			return 0, err
		}
		d.sendFollowUp(ctx, messageID, post.Trailer)
		return messageID, nil

	case payload.Kind == model.ContentKindRaw:
		messageID, err := d.tg.CopyMessage(ctx, d.channel, origin.ChatID, origin.MessageID)
		if err != nil {
			return 0, err
		}
		d.sendFollowUp(ctx, messageID, post.Trailer)
		return messageID, nil

	default:
		return 0, fmt.Errorf("unsupported content kind %q", payload.Kind)
	}
}

func (d *telegramDelivery) NotifyAuthor(ctx context.Context, authorID int64, text string) error {
	return d.tg.SendText(ctx, authorID, text)
}

func (d *telegramDelivery) sendFollowUp(ctx context.Context, contentMessageID int, text string) {
	if text == "" {
		return
	}
	if _, err := d.tg.SendTo(ctx, d.channel, text); err != nil {
		d.logger.Warn("send channel trailer",
			zap.String("channel", d.channel.String()),
			zap.Int("content_message_id", contentMessageID),
			zap.Error(err),
		)
	}
}

func choiceKeyboard(origin model.Origin) tgbotapi.InlineKeyboardMarkup {
	return tginfra.BuildInlineKeyboard([][]tginfra.InlineButton{
		{
			{Text: choiceSignedLabel, Data: choiceCallbackData(callbackActionConfirm, origin, model.AnonModeSigned)},
			{Text: choiceAnonLabel, Data: choiceCallbackData(callbackActionConfirm, origin, model.AnonModeAnonymous)},
		},
		{
			{Text: choiceCancelLabel, Data: choiceCallbackData(callbackActionCancel, origin, "")},
		},
	})
}
