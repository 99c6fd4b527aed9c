package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	ReactionTypeEmoji       = "emoji"
	ReactionTypeCustomEmoji = "custom_emoji"
	ReactionTypePaid        = "paid"
)

// AllowedUpdates is requested explicitly: reaction updates are only delivered when asked for.
var AllowedUpdates = []string{
	"message",
	"callback_query",
	"message_reaction",
	"message_reaction_count",
}

type ReactionType struct {
	Type          string `json:"type"`
	Emoji         string `json:"emoji,omitempty"`
	CustomEmojiID string `json:"custom_emoji_id,omitempty"`
}

// MessageReactionUpdated is a change of reactions by a known user.
type MessageReactionUpdated struct {
	Chat        tgbotapi.Chat  `json:"chat"`
	MessageID   int            `json:"message_id"`
	User        *tgbotapi.User `json:"user,omitempty"`
	ActorChat   *tgbotapi.Chat `json:"actor_chat,omitempty"`
	Date        int            `json:"date"`
	OldReaction []ReactionType `json:"old_reaction"`
	NewReaction []ReactionType `json:"new_reaction"`
}

type ReactionCount struct {
	Type       ReactionType `json:"type"`
	TotalCount int          `json:"total_count"`
}

// MessageReactionCountUpdated carries anonymous reaction totals, as sent for channel posts.
type MessageReactionCountUpdated struct {
	Chat      tgbotapi.Chat   `json:"chat"`
	MessageID int             `json:"message_id"`
	Date      int             `json:"date"`
	Reactions []ReactionCount `json:"reactions"`
}

// Update extends the library update with the reaction fields it does not decode.
type Update struct {
	tgbotapi.Update
	MessageReaction      *MessageReactionUpdated      `json:"message_reaction,omitempty"`
	MessageReactionCount *MessageReactionCountUpdated `json:"message_reaction_count,omitempty"`
}

// ReactionDelta turns an old/new reaction pair into added and removed emoji multisets.
// Only plain emoji reactions are counted.
func ReactionDelta(oldReaction, newReaction []ReactionType) ([]string, []string) {
	balance := make(map[string]int)
	order := make([]string, 0, len(oldReaction)+len(newReaction))

	track := func(items []ReactionType, sign int) {
		for _, item := range items {
			if item.Type != ReactionTypeEmoji || item.Emoji == "" {
				continue
			}
			if _, ok := balance[item.Emoji]; !ok {
				order = append(order, item.Emoji)
			}
			balance[item.Emoji] += sign
		}
	}
	track(newReaction, 1)
	track(oldReaction, -1)

	var added, removed []string
	for _, emoji := range order {
		n := balance[emoji]
		for ; n > 0; n-- {
			added = append(added, emoji)
		}
		for ; n < 0; n++ {
			removed = append(removed, emoji)
		}
	}
	return added, removed
}

// ReactionCounts maps an anonymous reaction snapshot to emoji totals.
func ReactionCounts(reactions []ReactionCount) map[string]int {
	counts := make(map[string]int, len(reactions))
	for _, reaction := range reactions {
		if reaction.Type.Type != ReactionTypeEmoji || reaction.Type.Emoji == "" || reaction.TotalCount <= 0 {
			continue
		}
		counts[reaction.Type.Emoji] += reaction.TotalCount
	}
	return counts
}
