package botapp

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ivankudzin/tgrelay/internal/domain/model"
	tginfra "github.com/ivankudzin/tgrelay/internal/infra/telegram"
	"github.com/ivankudzin/tgrelay/internal/services/reactions"
	"github.com/ivankudzin/tgrelay/internal/services/submissions"
)

func (a *App) routeUpdate(ctx context.Context, update tginfra.Update) {
	switch {
	case update.MessageReaction != nil:
		a.handleReaction(update.MessageReaction)
	case update.MessageReactionCount != nil:
		a.handleReactionCount(update.MessageReactionCount)
	case update.CallbackQuery != nil:
		a.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		a.routeMessage(ctx, update.Message)
	}
}

func (a *App) routeMessage(ctx context.Context, message *tgbotapi.Message) {
	if message == nil || message.Chat == nil {
		return
	}

	if message.IsCommand() {
		switch message.Command() {
		case "start":
			if isPrivate(message) {
				a.reply(ctx, message, startText)
			}
			return
		case "help":
			if isPrivate(message) {
				a.reply(ctx, message, helpText)
			}
			return
		case "yes", "no":
			if message.Chat.ID == a.reviewGroupID {
				a.handleDecision(ctx, message, message.Command() == "yes")
				return
			}
		case "reactions":
			a.handleMessageReactions(ctx, message)
			return
		case "topreactions":
			a.handleTopReactions(ctx, message, message.Chat.ID, chatTopHeader, chatTopEmptyText)
			return
		case "topreactions_channel":
			a.handleTopReactions(ctx, message, a.channelChatID(), channelTopHeader, channelTopEmptyText)
			return
		}
	}

	if isPrivate(message) {
		a.handleSubmission(ctx, message)
	}
}

func (a *App) handleSubmission(ctx context.Context, message *tgbotapi.Message) {
	_, err := a.submissions.Receive(ctx, submissions.ReceiveInput{
		Origin: model.Origin{ChatID: message.Chat.ID, MessageID: message.MessageID},
		Author: authorFromUser(message.From),
		Fields: payloadFields(message),
	})

	var rateErr *submissions.RateLimitError
	switch {
	case err == nil:
	case errors.As(err, &rateErr):
		a.logger.Debug("submission rate limited",
			zap.Int64("chat_id", message.Chat.ID),
			zap.Duration("retry_after", rateErr.RetryAfter),
		)
		a.reply(ctx, message, rateLimitedText)
	case errors.Is(err, model.ErrInvalidPayload):
		a.reply(ctx, message, unsupportedText)
	case errors.Is(err, submissions.ErrDelivery):
		a.reply(ctx, message, submitFailedText)
	default:
		a.logger.Error("receive submission", zap.Int64("chat_id", message.Chat.ID), zap.Error(err))
		a.reply(ctx, message, internalErrorText)
	}
}

func (a *App) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query == nil {
		return
	}
	defer func() {
		if err := a.tg.AnswerCallback(ctx, query.ID, ""); err != nil {
			a.logger.Warn("answer callback", zap.Error(err))
		}
	}()

	parsed, ok := parseChoiceCallback(query.Data)
	if !ok || query.Message == nil || query.Message.Chat == nil {
		return
	}
	if query.Message.Chat.ID != parsed.Origin.ChatID {
		a.logger.Warn("choice callback from foreign chat",
			zap.Int64("chat_id", query.Message.Chat.ID),
			zap.Int64("origin_chat_id", parsed.Origin.ChatID),
		)
		return
	}

	var (
		text   string
		markup *tgbotapi.InlineKeyboardMarkup
	)
	switch parsed.Action {
	case callbackActionCancel:
		_, err := a.submissions.Cancel(ctx, parsed.Origin)
		switch {
		case err == nil:
			text = cancelledText
		case errors.Is(err, submissions.ErrAlreadyQueued):
			text = alreadyQueuedText
		default:
			text = expiredText
		}
	case callbackActionConfirm:
		_, err := a.submissions.Confirm(ctx, parsed.Origin, parsed.Mode)
		switch {
		case err == nil:
			text = submittedText
		case errors.Is(err, submissions.ErrNotFound), errors.Is(err, submissions.ErrInvalidMode):
			text = expiredText
		case errors.Is(err, submissions.ErrAlreadyQueued):
			text = alreadyQueuedText
		default:
			// The entry is still awaiting a choice, so the buttons stay for a retry.
			text = submitFailedText
			keyboard := choiceKeyboard(parsed.Origin)
			markup = &keyboard
		}
	}

	if err := a.tg.EditText(ctx, query.Message.Chat.ID, query.Message.MessageID, text, markup); err != nil {
		a.logger.Warn("edit choice message", zap.Int64("chat_id", query.Message.Chat.ID), zap.Error(err))
	}
}

func (a *App) handleDecision(ctx context.Context, message *tgbotapi.Message, approved bool) {
	if message.ReplyToMessage == nil {
		a.reply(ctx, message, replyRequiredText)
		return
	}

	var moderatorID int64
	if message.From != nil {
		moderatorID = message.From.ID
	}

	_, err := a.submissions.Decide(ctx, submissions.DecideInput{
		ReviewKey:   message.ReplyToMessage.MessageID,
		Approved:    approved,
		Comment:     message.CommandArguments(),
		ModeratorID: moderatorID,
	})
	switch {
	case err == nil && approved:
		a.reply(ctx, message, approvedText)
	case err == nil:
		a.reply(ctx, message, rejectedText)
	case errors.Is(err, submissions.ErrNotFound):
		a.reply(ctx, message, reviewNotFoundText)
	case errors.Is(err, submissions.ErrDelivery):
		a.reply(ctx, message, publishFailedText)
	default:
		a.logger.Error("decide submission", zap.Int("review_key", message.ReplyToMessage.MessageID), zap.Error(err))
		a.reply(ctx, message, internalErrorText)
	}
}

func (a *App) handleMessageReactions(ctx context.Context, message *tgbotapi.Message) {
	if message.ReplyToMessage == nil {
		a.reply(ctx, message, reactionsReplyRequiredText)
		return
	}

	counts := a.reactions.CountsFor(message.Chat.ID, message.ReplyToMessage.MessageID)
	if len(counts) == 0 {
		a.reply(ctx, message, reactionsEmptyText)
		return
	}
	a.reply(ctx, message, renderMessageReactions(counts))
}

func (a *App) handleTopReactions(ctx context.Context, message *tgbotapi.Message, chatID int64, header, emptyText string) {
	if chatID == 0 || !a.reactions.HasChat(chatID) {
		a.reply(ctx, message, emptyText)
		return
	}

	n := reactions.ParseTopN(firstArgument(message.CommandArguments()))
	a.reply(ctx, message, renderTopReactions(header, a.reactions.TopN(chatID, n)))
}

func (a *App) handleReaction(update *tginfra.MessageReactionUpdated) {
	added, removed := tginfra.ReactionDelta(update.OldReaction, update.NewReaction)
	if len(added) == 0 && len(removed) == 0 {
		return
	}
	a.reactions.Apply(update.Chat.ID, update.MessageID, added, removed)
}

func (a *App) handleReactionCount(update *tginfra.MessageReactionCountUpdated) {
	a.reactions.Set(update.Chat.ID, update.MessageID, tginfra.ReactionCounts(update.Reactions))
}

func (a *App) reply(ctx context.Context, message *tgbotapi.Message, text string) {
	if _, err := a.tg.Reply(ctx, message.Chat.ID, message.MessageID, text, nil); err != nil {
		a.logger.Warn("reply to message",
			zap.Int64("chat_id", message.Chat.ID),
			zap.Int("message_id", message.MessageID),
			zap.Error(err),
		)
	}
}
