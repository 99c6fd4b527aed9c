package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	MediaPhoto     = "photo"
	MediaVideo     = "video"
	MediaDocument  = "document"
	MediaAudio     = "audio"
	MediaVoice     = "voice"
	MediaAnimation = "animation"
	MediaSticker   = "sticker"
	MediaVideoNote = "video_note"

	// CaptionLimit is the maximum caption length in characters accepted by the Bot API.
	CaptionLimit = 1024
	// MessageLimit is the maximum text message length in characters.
	MessageLimit = 4096

	defaultPollTimeout = 30
	defaultMaxInFlight = 16
	pollRetryDelay     = 3 * time.Second
)

type Bot struct {
	api         *tgbotapi.BotAPI
	logger      *zap.Logger
	pollTimeout int
	maxInFlight int
}

type UpdateHandler func(context.Context, Update)

func NewBot(token string, pollTimeout int, logger *zap.Logger) (*Bot, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("telegram bot token is empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if pollTimeout <= 0 {
		pollTimeout = defaultPollTimeout
	}

	api, err := tgbotapi.NewBotAPI(strings.TrimSpace(token))
	if err != nil {
		return nil, fmt.Errorf("create telegram bot api: %w", err)
	}

	return &Bot{
		api:         api,
		logger:      logger,
		pollTimeout: pollTimeout,
		maxInFlight: defaultMaxInFlight,
	}, nil
}

func (b *Bot) Username() string {
	if b == nil || b.api == nil {
		return ""
	}
	return b.api.Self.UserName
}

// Poll long-polls getUpdates and runs handle for every update on its own goroutine,
// at most maxInFlight at a time. It returns once ctx is done and all handlers finished.
func (b *Bot) Poll(ctx context.Context, handle UpdateHandler) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}
	if handle == nil {
		return fmt.Errorf("telegram update handler is nil")
	}

	var group errgroup.Group
	group.SetLimit(b.maxInFlight)
	defer func() {
		_ = group.Wait()
	}()

	offset := 0
	for {
		if ctx.Err() != nil {
			return nil
		}

		updates, err := b.getUpdates(offset)
		if err != nil {
			b.logger.Warn("get telegram updates", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(pollRetryDelay):
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}

			update := update
			group.Go(func() error {
				defer func() {
					if r := recover(); r != nil {
						b.logger.Error("telegram update handler panic",
							zap.Int("update_id", update.UpdateID),
							zap.Any("panic", r),
						)
					}
				}()
				handle(ctx, update)
				return nil
			})
		}
	}
}

func (b *Bot) getUpdates(offset int) ([]Update, error) {
	params := tgbotapi.Params{}
	params.AddNonZero("offset", offset)
	params.AddNonZero("timeout", b.pollTimeout)
	if err := params.AddInterface("allowed_updates", AllowedUpdates); err != nil {
		return nil, fmt.Errorf("encode allowed updates: %w", err)
	}

	resp, err := b.api.MakeRequest("getUpdates", params)
	if err != nil {
		return nil, fmt.Errorf("request updates: %w", err)
	}

	var updates []Update
	if err := json.Unmarshal(resp.Result, &updates); err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}
	return updates, nil
}

func (b *Bot) SendText(ctx context.Context, chatID int64, text string) error {
	_, err := b.Reply(ctx, chatID, 0, text, nil)
	return err
}

// Reply sends text to chatID, replying to replyTo when it is non-zero.
func (b *Bot) Reply(ctx context.Context, chatID int64, replyTo int, text string, markup *tgbotapi.InlineKeyboardMarkup) (int, error) {
	if b == nil || b.api == nil {
		return 0, fmt.Errorf("telegram bot is not initialized")
	}
	if chatID == 0 {
		return 0, fmt.Errorf("chat id is required")
	}

	msg := tgbotapi.NewMessage(chatID, text)
	if replyTo > 0 {
		msg.ReplyToMessageID = replyTo
		msg.AllowSendingWithoutReply = true
	}
	if markup != nil {
		msg.ReplyMarkup = *markup
	}

	sent, err := b.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("send telegram message: %w", err)
	}

	_ = ctx
	return sent.MessageID, nil
}

func (b *Bot) SendTo(ctx context.Context, to ChatRef, text string) (int, error) {
	if b == nil || b.api == nil {
		return 0, fmt.Errorf("telegram bot is not initialized")
	}

	msg := tgbotapi.NewMessage(to.ID, text)
	to.apply(&msg.BaseChat)

	sent, err := b.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("send telegram message to %s: %w", to, err)
	}

	_ = ctx
	return sent.MessageID, nil
}

// SendMedia re-sends a previously uploaded file by its file id.
func (b *Bot) SendMedia(ctx context.Context, to ChatRef, kind, fileID, caption string) (int, error) {
	if b == nil || b.api == nil {
		return 0, fmt.Errorf("telegram bot is not initialized")
	}
	if strings.TrimSpace(fileID) == "" {
		return 0, fmt.Errorf("file id is required")
	}

	file := tgbotapi.FileID(fileID)
	var cfg tgbotapi.Chattable
	switch kind {
	case MediaPhoto:
		c := tgbotapi.NewPhoto(to.ID, file)
		c.Caption = caption
		to.apply(&c.BaseChat)
		cfg = c
	case MediaVideo:
		c := tgbotapi.NewVideo(to.ID, file)
		c.Caption = caption
		to.apply(&c.BaseChat)
		cfg = c
	case MediaDocument:
		c := tgbotapi.NewDocument(to.ID, file)
		c.Caption = caption
		to.apply(&c.BaseChat)
		cfg = c
	case MediaAudio:
		c := tgbotapi.NewAudio(to.ID, file)
		c.Caption = caption
		to.apply(&c.BaseChat)
		cfg = c
	case MediaVoice:
		c := tgbotapi.NewVoice(to.ID, file)
		c.Caption = caption
		to.apply(&c.BaseChat)
		cfg = c
	case MediaAnimation:
		c := tgbotapi.NewAnimation(to.ID, file)
		c.Caption = caption
		to.apply(&c.BaseChat)
		cfg = c
	case MediaSticker:
		c := tgbotapi.NewSticker(to.ID, file)
		to.apply(&c.BaseChat)
		cfg = c
	case MediaVideoNote:
		c := tgbotapi.NewVideoNote(to.ID, 0, file)
		to.apply(&c.BaseChat)
		cfg = c
	default:
		return 0, fmt.Errorf("unsupported media kind %q", kind)
	}

	sent, err := b.api.Send(cfg)
	if err != nil {
		return 0, fmt.Errorf("send telegram %s to %s: %w", kind, to, err)
	}

	_ = ctx
	return sent.MessageID, nil
}

func (b *Bot) CopyMessage(ctx context.Context, to ChatRef, fromChatID int64, messageID int) (int, error) {
	if b == nil || b.api == nil {
		return 0, fmt.Errorf("telegram bot is not initialized")
	}

	cfg := tgbotapi.NewCopyMessage(to.ID, fromChatID, messageID)
	to.apply(&cfg.BaseChat)

	copied, err := b.api.CopyMessage(cfg)
	if err != nil {
		return 0, fmt.Errorf("copy telegram message to %s: %w", to, err)
	}

	_ = ctx
	return copied.MessageID, nil
}

// EditText replaces a message text. A nil markup drops any inline keyboard.
func (b *Bot) EditText(ctx context.Context, chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}

	cfg := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if markup != nil {
		cfg.ReplyMarkup = markup
	}
	if _, err := b.api.Request(cfg); err != nil {
		return fmt.Errorf("edit telegram message: %w", err)
	}

	_ = ctx
	return nil
}

func (b *Bot) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}
	if strings.TrimSpace(callbackID) == "" {
		return nil
	}

	cfg := tgbotapi.NewCallback(callbackID, text)
	if _, err := b.api.Request(cfg); err != nil {
		return fmt.Errorf("answer callback query: %w", err)
	}

	_ = ctx
	return nil
}

// ResolveChatID returns the numeric id for ref, looking usernames up via getChat.
func (b *Bot) ResolveChatID(ctx context.Context, ref ChatRef) (int64, error) {
	if !ref.IsUsername() {
		return ref.ID, nil
	}
	if b == nil || b.api == nil {
		return 0, fmt.Errorf("telegram bot is not initialized")
	}

	chat, err := b.api.GetChat(tgbotapi.ChatInfoConfig{
		ChatConfig: tgbotapi.ChatConfig{SuperGroupUsername: ref.Username},
	})
	if err != nil {
		return 0, fmt.Errorf("resolve chat %s: %w", ref.Username, err)
	}

	_ = ctx
	return chat.ID, nil
}

func (r ChatRef) apply(base *tgbotapi.BaseChat) {
	if r.IsUsername() {
		base.ChatID = 0
		base.ChannelUsername = r.Username
		return
	}
	base.ChatID = r.ID
}
