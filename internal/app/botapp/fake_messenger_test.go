package botapp

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	tginfra "github.com/ivankudzin/tgrelay/internal/infra/telegram"
	memrepo "github.com/ivankudzin/tgrelay/internal/repo/memory"
	"github.com/ivankudzin/tgrelay/internal/services/rate"
	"github.com/ivankudzin/tgrelay/internal/services/reactions"
	"github.com/ivankudzin/tgrelay/internal/services/submissions"
)

const (
	testReviewGroupID = int64(-100500)
	testChannelID     = int64(-100900)
	testAuthorID      = int64(42)
)

type sentMessage struct {
	ChatID  int64
	To      string
	ReplyTo int
	Text    string
	Kind    string
	FileID  string
	Markup  *tgbotapi.InlineKeyboardMarkup
}

type copiedMessage struct {
	To         string
	FromChatID int64
	MessageID  int
}

type editedMessage struct {
	ChatID    int64
	MessageID int
	Text      string
	Markup    *tgbotapi.InlineKeyboardMarkup
}

type fakeMessenger struct {
	mu       sync.Mutex
	nextID   int
	sent     []sentMessage
	copies   []copiedMessage
	edits    []editedMessage
	answered []string

	copyErr   error
	mediaErr  error
	sendErr   error
	promptErr error
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{nextID: 700}
}

func (f *fakeMessenger) id() int {
	f.nextID++
	return f.nextID
}

func (f *fakeMessenger) SendText(ctx context.Context, chatID int64, text string) error {
	_, err := f.Reply(ctx, chatID, 0, text, nil)
	return err
}

func (f *fakeMessenger) Reply(_ context.Context, chatID int64, replyTo int, text string, markup *tgbotapi.InlineKeyboardMarkup) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if markup != nil && f.promptErr != nil {
		return 0, f.promptErr
	}
	f.sent = append(f.sent, sentMessage{ChatID: chatID, ReplyTo: replyTo, Text: text, Markup: markup})
	return f.id(), nil
}

func (f *fakeMessenger) SendTo(_ context.Context, to tginfra.ChatRef, text string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return 0, f.sendErr
	}
	f.sent = append(f.sent, sentMessage{ChatID: to.ID, To: to.String(), Text: text})
	return f.id(), nil
}

func (f *fakeMessenger) SendMedia(_ context.Context, to tginfra.ChatRef, kind, fileID, caption string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mediaErr != nil {
		return 0, f.mediaErr
	}
	f.sent = append(f.sent, sentMessage{ChatID: to.ID, To: to.String(), Kind: kind, FileID: fileID, Text: caption})
	return f.id(), nil
}

func (f *fakeMessenger) CopyMessage(_ context.Context, to tginfra.ChatRef, fromChatID int64, messageID int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.copyErr != nil {
		return 0, f.copyErr
	}
	f.copies = append(f.copies, copiedMessage{To: to.String(), FromChatID: fromChatID, MessageID: messageID})
	return f.id(), nil
}

func (f *fakeMessenger) EditText(_ context.Context, chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, editedMessage{ChatID: chatID, MessageID: messageID, Text: text, Markup: markup})
	return nil
}

func (f *fakeMessenger) AnswerCallback(_ context.Context, callbackID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answered = append(f.answered, callbackID)
	return nil
}

func (f *fakeMessenger) sentTo(chatID int64) []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []sentMessage
	for _, msg := range f.sent {
		if msg.ChatID == chatID {
			result = append(result, msg)
		}
	}
	return result
}

var errTelegramDown = errors.New("telegram is down")

// newTestApp wires the relay around a fake messenger without a live bot.
func newTestApp(t *testing.T) (*App, *fakeMessenger) {
	t.Helper()

	fake := newFakeMessenger()
	channel := tginfra.ChatRef{ID: testChannelID}
	delivery := newTelegramDelivery(fake, testReviewGroupID, channel, zap.NewNop())
	limiter := rate.NewLimiter(memrepo.NewCooldownRepo(), 10*time.Minute)

	a := &App{
		logger:        zap.NewNop(),
		tg:            fake,
		submissions:   submissions.NewService(memrepo.NewSubmissionStore(), limiter, delivery, nil, zap.NewNop()),
		reactions:     reactions.NewService(nil),
		reviewGroupID: testReviewGroupID,
		channel:       channel,
	}
	a.channelID.Store(testChannelID)
	return a, fake
}
