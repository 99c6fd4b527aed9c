package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ivankudzin/tgrelay/internal/domain/model"
	"github.com/ivankudzin/tgrelay/internal/services/reactions"
	"github.com/ivankudzin/tgrelay/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/tgrelay/internal/transport/http/errors"
)

type ReactionReader interface {
	CountsFor(chatID int64, messageID int) map[string]int
	TopN(chatID int64, n int) []model.MessageTotal
}

type SubmissionStatsReader interface {
	Stats() model.SubmissionStats
}

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Handle(w http.ResponseWriter, _ *http.Request) {
	httperrors.Write(w, http.StatusOK, dto.HealthResponse{Status: "ok"})
}

type StatsHandler struct {
	reactions     ReactionReader
	submissions   SubmissionStatsReader
	channelChatID func() int64
}

// NewStatsHandler serves read-only counters. channelChatID reports the resolved target channel id, 0 when unknown.
func NewStatsHandler(reactions ReactionReader, submissions SubmissionStatsReader, channelChatID func() int64) *StatsHandler {
	return &StatsHandler{
		reactions:     reactions,
		submissions:   submissions,
		channelChatID: channelChatID,
	}
}

func (h *StatsHandler) MessageReactions(w http.ResponseWriter, r *http.Request) {
	if h.reactions == nil {
		writeUnavailable(w)
		return
	}

	chatID, ok := parseChatID(w, chi.URLParam(r, "chatID"))
	if !ok {
		return
	}
	messageID, err := strconv.Atoi(strings.TrimSpace(chi.URLParam(r, "messageID")))
	if err != nil || messageID <= 0 {
		httperrors.WriteError(w, http.StatusBadRequest, httperrors.CodeValidation, "message id must be a positive integer")
		return
	}

	counts := h.reactions.CountsFor(chatID, messageID)
	httperrors.Write(w, http.StatusOK, dto.MessageReactionsResponse{
		ChatID:    chatID,
		MessageID: messageID,
		Total:     model.SumCounts(counts),
		Counts:    toEmojiCounts(counts),
	})
}

func (h *StatsHandler) TopReactions(w http.ResponseWriter, r *http.Request) {
	chatID, ok := parseChatID(w, chi.URLParam(r, "chatID"))
	if !ok {
		return
	}
	h.writeTop(w, r, chatID)
}

func (h *StatsHandler) ChannelTopReactions(w http.ResponseWriter, r *http.Request) {
	var chatID int64
	if h.channelChatID != nil {
		chatID = h.channelChatID()
	}
	if chatID == 0 {
		httperrors.WriteError(w, http.StatusNotFound, "CHANNEL_UNRESOLVED", "target channel id is not resolved")
		return
	}
	h.writeTop(w, r, chatID)
}

func (h *StatsHandler) SubmissionStats(w http.ResponseWriter, _ *http.Request) {
	if h.submissions == nil {
		writeUnavailable(w)
		return
	}

	stats := h.submissions.Stats()
	httperrors.Write(w, http.StatusOK, dto.SubmissionStatsResponse{
		AwaitingChoice: stats.AwaitingChoice,
		Queued:         stats.Queued,
	})
}

func (h *StatsHandler) writeTop(w http.ResponseWriter, r *http.Request, chatID int64) {
	if h.reactions == nil {
		writeUnavailable(w)
		return
	}

	limit := reactions.ParseTopN(r.URL.Query().Get("n"))
	top := h.reactions.TopN(chatID, limit)

	items := make([]dto.TopReactionItem, 0, len(top))
	for _, item := range top {
		items = append(items, dto.TopReactionItem{
			MessageID: item.MessageID,
			Total:     item.Total,
			Counts:    toEmojiCounts(item.Counts),
		})
	}

	httperrors.Write(w, http.StatusOK, dto.TopReactionsResponse{
		ChatID: chatID,
		Limit:  limit,
		Items:  items,
	})
}

func parseChatID(w http.ResponseWriter, raw string) (int64, bool) {
	chatID, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || chatID == 0 {
		httperrors.WriteError(w, http.StatusBadRequest, httperrors.CodeValidation, "chat id must be a non-zero integer")
		return 0, false
	}
	return chatID, true
}

func writeUnavailable(w http.ResponseWriter) {
	httperrors.WriteError(w, http.StatusServiceUnavailable, httperrors.CodeUnavailable, "stats are unavailable")
}

func toEmojiCounts(counts map[string]int) []dto.EmojiCountResponse {
	sorted := model.SortEmojiCounts(counts)
	result := make([]dto.EmojiCountResponse, 0, len(sorted))
	for _, item := range sorted {
		result = append(result, dto.EmojiCountResponse{Emoji: item.Emoji, Count: item.Count})
	}
	return result
}
