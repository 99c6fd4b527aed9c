package telegram

import (
	"fmt"
	"strconv"
	"strings"
)

// ChatRef addresses a chat either by numeric id or by public @username.
type ChatRef struct {
	ID       int64
	Username string
}

func ParseChatRef(raw string) (ChatRef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ChatRef{}, fmt.Errorf("chat reference is empty")
	}
	if strings.HasPrefix(raw, "@") {
		if len(raw) == 1 {
			return ChatRef{}, fmt.Errorf("chat username is empty")
		}
		return ChatRef{Username: raw}, nil
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return ChatRef{}, fmt.Errorf("parse chat id %q: %w", raw, err)
	}
	if id == 0 {
		return ChatRef{}, fmt.Errorf("chat id must not be zero")
	}
	return ChatRef{ID: id}, nil
}

func (r ChatRef) IsUsername() bool {
	return r.ID == 0 && r.Username != ""
}

func (r ChatRef) String() string {
	if r.IsUsername() {
		return r.Username
	}
	return strconv.FormatInt(r.ID, 10)
}
