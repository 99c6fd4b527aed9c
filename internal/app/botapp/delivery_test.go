package botapp

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/ivankudzin/tgrelay/internal/domain/model"
	tginfra "github.com/ivankudzin/tgrelay/internal/infra/telegram"
	"github.com/ivankudzin/tgrelay/internal/services/submissions"
)

func TestPublishDispatchesByKind(t *testing.T) {
	origin := model.Origin{ChatID: testAuthorID, MessageID: 10}

	tests := []struct {
		name       string
		payload    model.Payload
		wantSent   []sentMessage
		wantCopies int
	}{
		{
			name:     "text",
			payload:  model.Payload{Kind: model.ContentKindText, Text: "hi"},
			wantSent: []sentMessage{{Text: "hi\n\n— 投稿人：匿名"}},
		},
		{
			name:     "photo with caption",
			payload:  model.Payload{Kind: model.ContentKindPhoto, FileID: "p1", Text: "look"},
			wantSent: []sentMessage{{Kind: tginfra.MediaPhoto, FileID: "p1", Text: "look\n\n— 投稿人：匿名"}},
		},
		{
			name:     "voice without caption",
			payload:  model.Payload{Kind: model.ContentKindVoice, FileID: "v1"},
			wantSent: []sentMessage{{Kind: tginfra.MediaVoice, FileID: "v1", Text: "— 投稿人：匿名"}},
		},
		{
			name:    "sticker gets trailer as separate message",
			payload: model.Payload{Kind: model.ContentKindSticker, FileID: "s1"},
			wantSent: []sentMessage{
				{Kind: tginfra.MediaSticker, FileID: "s1"},
				{Text: "— 投稿人：匿名"},
			},
		},
		{
			name:    "video note gets trailer as separate message",
			payload: model.Payload{Kind: model.ContentKindVideoNote, FileID: "n1"},
			wantSent: []sentMessage{
				{Kind: tginfra.MediaVideoNote, FileID: "n1"},
				{Text: "— 投稿人：匿名"},
			},
		},
		{
			name:       "raw is copied then followed by trailer",
			payload:    model.Payload{Kind: model.ContentKindRaw},
			wantSent:   []sentMessage{{Text: "— 投稿人：匿名"}},
			wantCopies: 1,
		},
	}

	anonymous := true
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fake := newFakeMessenger()
			delivery := newTelegramDelivery(fake, testReviewGroupID, tginfra.ChatRef{ID: testChannelID}, zap.NewNop())

			post := submissions.ComposePost(model.Submission{Payload: tc.payload, Anonymous: &anonymous}, "")
			if _, err := delivery.Publish(context.Background(), origin, post); err != nil {
				t.Fatalf("publish: %v", err)
			}

			if len(fake.copies) != tc.wantCopies {
				t.Fatalf("copies: got %d want %d", len(fake.copies), tc.wantCopies)
			}
			if tc.wantCopies > 0 && (fake.copies[0].FromChatID != origin.ChatID || fake.copies[0].MessageID != origin.MessageID) {
				t.Fatalf("unexpected copy: %+v", fake.copies[0])
			}
			sent := fake.sentTo(testChannelID)
			if len(sent) != len(tc.wantSent) {
				t.Fatalf("sent: got %+v want %+v", sent, tc.wantSent)
			}
			for i, want := range tc.wantSent {
				if sent[i].Kind != want.Kind || sent[i].FileID != want.FileID || sent[i].Text != want.Text {
					t.Fatalf("message %d: got %+v want %+v", i, sent[i], want)
				}
			}
		})
	}
}

func TestPublishLongCaptionFallsBackToFollowUpText(t *testing.T) {
	fake := newFakeMessenger()
	delivery := newTelegramDelivery(fake, testReviewGroupID, tginfra.ChatRef{ID: testChannelID}, zap.NewNop())

	caption := strings.Repeat("长", tginfra.CaptionLimit)
	post := submissions.ComposePost(model.Submission{
		Payload: model.Payload{Kind: model.ContentKindVideo, FileID: "v1", Text: caption},
		Author:  model.Author{Handle: "bob"},
	}, "")

	if _, err := delivery.Publish(context.Background(), model.Origin{ChatID: 1, MessageID: 1}, post); err != nil {
		t.Fatalf("publish: %v", err)
	}

	sent := fake.sentTo(testChannelID)
	if len(sent) != 2 || sent[0].Kind != tginfra.MediaVideo || sent[0].Text != "" {
		t.Fatalf("expected uncaptioned video first, got %+v", sent)
	}
	if sent[1].Text != post.Text {
		t.Fatalf("expected full text as follow-up")
	}
}

func TestPublishReportsContentFailure(t *testing.T) {
	fake := newFakeMessenger()
	fake.mediaErr = errTelegramDown
	delivery := newTelegramDelivery(fake, testReviewGroupID, tginfra.ChatRef{ID: testChannelID}, zap.NewNop())

	post := submissions.ComposePost(model.Submission{Payload: model.Payload{Kind: model.ContentKindSticker, FileID: "s1"}}, "")
	if _, err := delivery.Publish(context.Background(), model.Origin{ChatID: 1, MessageID: 1}, post); err == nil {
		t.Fatalf("expected publish error")
	}
	if len(fake.sent) != 0 {
		t.Fatalf("trailer must not be sent when content failed")
	}
}

func TestPublishToChannelUsername(t *testing.T) {
	fake := newFakeMessenger()
	delivery := newTelegramDelivery(fake, testReviewGroupID, tginfra.ChatRef{Username: "@relay"}, zap.NewNop())

	post := submissions.ComposePost(model.Submission{Payload: model.Payload{Kind: model.ContentKindText, Text: "x"}}, "")
	if _, err := delivery.Publish(context.Background(), model.Origin{ChatID: 1, MessageID: 1}, post); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(fake.sent) != 1 || fake.sent[0].To != "@relay" {
		t.Fatalf("unexpected target: %+v", fake.sent)
	}
}

func TestPresentChoiceRepliesWithKeyboard(t *testing.T) {
	fake := newFakeMessenger()
	delivery := newTelegramDelivery(fake, testReviewGroupID, tginfra.ChatRef{ID: testChannelID}, zap.NewNop())

	if err := delivery.PresentChoice(context.Background(), model.Origin{ChatID: 5, MessageID: 6}); err != nil {
		t.Fatalf("present choice: %v", err)
	}
	if len(fake.sent) != 1 || fake.sent[0].ReplyTo != 6 || fake.sent[0].Markup == nil {
		t.Fatalf("unexpected prompt: %+v", fake.sent)
	}

	rows := fake.sent[0].Markup.InlineKeyboard
	if len(rows) != 2 || len(rows[0]) != 2 || len(rows[1]) != 1 {
		t.Fatalf("unexpected layout: %+v", rows)
	}
	if rows[0][0].Text != choiceSignedLabel || rows[0][1].Text != choiceAnonLabel || rows[1][0].Text != choiceCancelLabel {
		t.Fatalf("unexpected labels")
	}
	if *rows[0][1].CallbackData != "sub:confirm:5:6:anon" || *rows[1][0].CallbackData != "sub:cancel:5:6" {
		t.Fatalf("unexpected callback data: %q %q", *rows[0][1].CallbackData, *rows[1][0].CallbackData)
	}
}

func TestPublishLongTextSendsTrailerSeparately(t *testing.T) {
	fake := newFakeMessenger()
	delivery := newTelegramDelivery(fake, testReviewGroupID, tginfra.ChatRef{ID: testChannelID}, zap.NewNop())

	body := strings.Repeat("字", tginfra.MessageLimit-5)
	post := submissions.ComposePost(model.Submission{
		Payload: model.Payload{Kind: model.ContentKindText, Text: body},
		Author:  model.Author{Handle: "bob"},
	}, "looks good")

	if _, err := delivery.Publish(context.Background(), model.Origin{ChatID: 1, MessageID: 1}, post); err != nil {
		t.Fatalf("publish: %v", err)
	}

	sent := fake.sentTo(testChannelID)
	if len(sent) != 2 || sent[0].Text != body {
		t.Fatalf("expected body first, got %d messages", len(sent))
	}
	if sent[1].Text != post.Trailer || !strings.Contains(sent[1].Text, "looks good") {
		t.Fatalf("expected trailer as follow-up, got %q", sent[1].Text)
	}
}
