package model

import (
	"strings"
	"time"
)

type SubmissionState string

const (
	SubmissionStateReceived       SubmissionState = "RECEIVED"
	SubmissionStateAwaitingChoice SubmissionState = "AWAITING_CHOICE"
	SubmissionStateQueued         SubmissionState = "QUEUED"
	SubmissionStateApproved       SubmissionState = "APPROVED"
	SubmissionStateRejected       SubmissionState = "REJECTED"
)

type AnonMode string

const (
	AnonModeSigned    AnonMode = "sign"
	AnonModeAnonymous AnonMode = "anon"
)

func ParseAnonMode(raw string) (AnonMode, bool) {
	switch AnonMode(strings.ToLower(strings.TrimSpace(raw))) {
	case AnonModeSigned:
		return AnonModeSigned, true
	case AnonModeAnonymous:
		return AnonModeAnonymous, true
	default:
		return "", false
	}
}

// Origin identifies the private message a submission was created from.
type Origin struct {
	ChatID    int64
	MessageID int
}

func (o Origin) IsZero() bool {
	return o.ChatID == 0 && o.MessageID == 0
}

type Author struct {
	ID          int64
	DisplayName string
	Handle      string
}

const (
	AnonymousIdentity    = "匿名"
	UnknownAuthorName    = "某用户"
	identityHandlePrefix = "@"
)

// PublicName is the signed attribution: @handle when present, else the display name.
func (a Author) PublicName() string {
	handle := strings.TrimPrefix(strings.TrimSpace(a.Handle), identityHandlePrefix)
	if handle != "" {
		return identityHandlePrefix + handle
	}
	name := strings.TrimSpace(a.DisplayName)
	if name == "" {
		return UnknownAuthorName
	}
	return name
}

type Submission struct {
	ID         string
	Origin     Origin
	Author     Author
	Anonymous  *bool
	Payload    Payload
	ReviewKey  *int
	State      SubmissionState
	ReceivedAt time.Time
	QueuedAt   *time.Time

	// Relaying is set while a confirm is copying the submission into the review group.
	Relaying bool
}

func (s Submission) IsAnonymous() bool {
	return s.Anonymous != nil && *s.Anonymous
}

// Identity is the attribution shown to moderators and in the channel.
func (s Submission) Identity() string {
	if s.IsAnonymous() {
		return AnonymousIdentity
	}
	return s.Author.PublicName()
}

type SubmissionStats struct {
	AwaitingChoice int `json:"awaiting_choice"`
	Queued         int `json:"queued"`
}
