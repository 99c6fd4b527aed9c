package model

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidPayload = errors.New("invalid submission payload")

type ContentKind string

const (
	ContentKindText      ContentKind = "text"
	ContentKindPhoto     ContentKind = "photo"
	ContentKindVideo     ContentKind = "video"
	ContentKindDocument  ContentKind = "document"
	ContentKindAudio     ContentKind = "audio"
	ContentKindVoice     ContentKind = "voice"
	ContentKindAnimation ContentKind = "animation"
	ContentKindSticker   ContentKind = "sticker"
	ContentKindVideoNote ContentKind = "video_note"
	// ContentKindRaw has no recognised content; publishing copies the original message.
	ContentKindRaw ContentKind = "raw"
)

// ContentPriority is the publish dispatch order.
var ContentPriority = []ContentKind{
	ContentKindText,
	ContentKindPhoto,
	ContentKindVideo,
	ContentKindDocument,
	ContentKindAudio,
	ContentKindVoice,
	ContentKindAnimation,
	ContentKindSticker,
	ContentKindVideoNote,
}

// SupportsCaption reports whether the kind can carry the attribution trailer inline.
func (k ContentKind) SupportsCaption() bool {
	switch k {
	case ContentKindPhoto, ContentKindVideo, ContentKindDocument, ContentKindAudio, ContentKindVoice, ContentKindAnimation:
		return true
	default:
		return false
	}
}

// Payload is a single-kind submission body. Text holds the message text for text
// payloads and the caption for media payloads.
type Payload struct {
	Kind   ContentKind
	FileID string
	Text   string
}

// PayloadFields mirrors what a transport message can carry; at most one content field may be set.
type PayloadFields struct {
	Text        string
	Caption     string
	PhotoFileID string
	VideoFileID string
	DocumentID  string
	AudioFileID string
	VoiceFileID string
	AnimationID string
	StickerID   string
	VideoNoteID string
}

func (f PayloadFields) populated() map[ContentKind]string {
	values := map[ContentKind]string{
		ContentKindText:      f.Text,
		ContentKindPhoto:     f.PhotoFileID,
		ContentKindVideo:     f.VideoFileID,
		ContentKindDocument:  f.DocumentID,
		ContentKindAudio:     f.AudioFileID,
		ContentKindVoice:     f.VoiceFileID,
		ContentKindAnimation: f.AnimationID,
		ContentKindSticker:   f.StickerID,
		ContentKindVideoNote: f.VideoNoteID,
	}
	for kind, value := range values {
		if strings.TrimSpace(value) == "" {
			delete(values, kind)
		}
	}
	return values
}

func NewPayload(fields PayloadFields) (Payload, error) {
	populated := fields.populated()
	if len(populated) > 1 {
		kinds := make([]string, 0, len(populated))
		for _, kind := range ContentPriority {
			if _, ok := populated[kind]; ok {
				kinds = append(kinds, string(kind))
			}
		}
		return Payload{}, fmt.Errorf("%w: multiple content kinds %s", ErrInvalidPayload, strings.Join(kinds, ","))
	}

	for _, kind := range ContentPriority {
		value, ok := populated[kind]
		if !ok {
			continue
		}
		if kind == ContentKindText {
			return Payload{Kind: kind, Text: value}, nil
		}
		return Payload{Kind: kind, FileID: value, Text: fields.Caption}, nil
	}

	return Payload{Kind: ContentKindRaw, Text: fields.Caption}, nil
}

func (p Payload) Validate() error {
	switch p.Kind {
	case ContentKindText:
		if strings.TrimSpace(p.Text) == "" {
			return fmt.Errorf("%w: empty text", ErrInvalidPayload)
		}
		if p.FileID != "" {
			return fmt.Errorf("%w: text payload with file reference", ErrInvalidPayload)
		}
	case ContentKindRaw:
		if p.FileID != "" {
			return fmt.Errorf("%w: raw payload with file reference", ErrInvalidPayload)
		}
	case "":
		return fmt.Errorf("%w: missing kind", ErrInvalidPayload)
	default:
		if strings.TrimSpace(p.FileID) == "" {
			return fmt.Errorf("%w: %s without file reference", ErrInvalidPayload, p.Kind)
		}
	}
	return nil
}
