package botapp

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ivankudzin/tgrelay/internal/domain/model"
)

const (
	callbackPrefixSubmission = "sub"
	callbackActionConfirm    = "confirm"
	callbackActionCancel     = "cancel"
)

func payloadFields(message *tgbotapi.Message) model.PayloadFields {
	if message == nil {
		return model.PayloadFields{}
	}

	fields := model.PayloadFields{
		Text:    message.Text,
		Caption: message.Caption,
	}
	if len(message.Photo) > 0 {
		fields.PhotoFileID = message.Photo[len(message.Photo)-1].FileID
	}
	if message.Video != nil {
		fields.VideoFileID = message.Video.FileID
	}
	if message.Audio != nil {
		fields.AudioFileID = message.Audio.FileID
	}
	if message.Voice != nil {
		fields.VoiceFileID = message.Voice.FileID
	}
	if message.Sticker != nil {
		fields.StickerID = message.Sticker.FileID
	}
	if message.VideoNote != nil {
		fields.VideoNoteID = message.VideoNote.FileID
	}
	// Telegram mirrors every animation into the document field.
	if message.Animation != nil {
		fields.AnimationID = message.Animation.FileID
	} else if message.Document != nil {
		fields.DocumentID = message.Document.FileID
	}
	return fields
}

func authorFromUser(user *tgbotapi.User) model.Author {
	if user == nil {
		return model.Author{}
	}

	name := strings.TrimSpace(strings.TrimSpace(user.FirstName) + " " + strings.TrimSpace(user.LastName))
	return model.Author{
		ID:          user.ID,
		DisplayName: name,
		Handle:      strings.TrimSpace(user.UserName),
	}
}

func isPrivate(message *tgbotapi.Message) bool {
	return message != nil && message.Chat != nil && message.Chat.IsPrivate()
}

func choiceCallbackData(action string, origin model.Origin, mode model.AnonMode) string {
	data := fmt.Sprintf("%s:%s:%d:%d", callbackPrefixSubmission, action, origin.ChatID, origin.MessageID)
	if mode != "" {
		data += ":" + string(mode)
	}
	return data
}

type choiceCallback struct {
	Action string
	Origin model.Origin
	Mode   model.AnonMode
}

func parseChoiceCallback(data string) (choiceCallback, bool) {
	parts := strings.Split(strings.TrimSpace(data), ":")
	if len(parts) < 4 || parts[0] != callbackPrefixSubmission {
		return choiceCallback{}, false
	}

	chatID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return choiceCallback{}, false
	}
	messageID, err := strconv.Atoi(parts[3])
	if err != nil {
		return choiceCallback{}, false
	}

	parsed := choiceCallback{
		Action: parts[1],
		Origin: model.Origin{ChatID: chatID, MessageID: messageID},
	}
	switch parsed.Action {
	case callbackActionCancel:
		return parsed, len(parts) == 4
	case callbackActionConfirm:
		if len(parts) != 5 {
			return choiceCallback{}, false
		}
		mode, ok := model.ParseAnonMode(parts[4])
		if !ok {
			return choiceCallback{}, false
		}
		parsed.Mode = mode
		return parsed, true
	default:
		return choiceCallback{}, false
	}
}

func firstArgument(args string) string {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
