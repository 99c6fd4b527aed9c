package reactions

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ivankudzin/tgrelay/internal/domain/model"
)

const (
	DefaultTopN = 10
	MaxTopN     = 50
)

// Service keeps live reaction counters per chat, message and emoji.
// Only non-zero counters are stored; empty messages and chats are pruned eagerly.
type Service struct {
	mu       sync.RWMutex
	counters map[int64]map[int]map[string]int
	logger   *zap.Logger
}

func NewService(logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		counters: make(map[int64]map[int]map[string]int),
		logger:   logger,
	}
}

// Apply adds one for every emoji in added and removes one (floored at zero) for every emoji in removed.
func (s *Service) Apply(chatID int64, messageID int, added, removed []string) map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages, ok := s.counters[chatID]
	if !ok {
		messages = make(map[int]map[string]int)
		s.counters[chatID] = messages
	}
	counts, ok := messages[messageID]
	if !ok {
		counts = make(map[string]int)
		messages[messageID] = counts
	}

	for _, emoji := range added {
		emoji = strings.TrimSpace(emoji)
		if emoji == "" {
			continue
		}
		counts[emoji]++
	}
	for _, emoji := range removed {
		emoji = strings.TrimSpace(emoji)
		if emoji == "" {
			continue
		}
		if counts[emoji] > 1 {
			counts[emoji]--
			continue
		}
		delete(counts, emoji)
	}

	s.pruneLocked(chatID, messageID)
	snapshot := copyCounts(s.counters[chatID][messageID])

	s.logger.Debug("reaction update",
		zap.Int64("chat_id", chatID),
		zap.Int("message_id", messageID),
		zap.Any("stats", snapshot),
	)
	return snapshot
}

// Set replaces a message's counters with an absolute snapshot, as reported for anonymous channel reactions.
func (s *Service) Set(chatID int64, messageID int, counts map[string]int) map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages, ok := s.counters[chatID]
	if !ok {
		messages = make(map[int]map[string]int)
		s.counters[chatID] = messages
	}

	next := make(map[string]int, len(counts))
	for emoji, count := range counts {
		emoji = strings.TrimSpace(emoji)
		if emoji == "" || count <= 0 {
			continue
		}
		next[emoji] = count
	}
	messages[messageID] = next

	s.pruneLocked(chatID, messageID)
	return copyCounts(s.counters[chatID][messageID])
}

func (s *Service) pruneLocked(chatID int64, messageID int) {
	messages := s.counters[chatID]
	if len(messages[messageID]) == 0 {
		delete(messages, messageID)
	}
	if len(messages) == 0 {
		delete(s.counters, chatID)
	}
}

func (s *Service) CountsFor(chatID int64, messageID int) map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return copyCounts(s.counters[chatID][messageID])
}

// TopN ranks the chat's messages by total reactions desc, then message id asc.
func (s *Service) TopN(chatID int64, n int) []model.MessageTotal {
	n = ClampTopN(n)

	s.mu.RLock()
	items := make([]model.MessageTotal, 0, len(s.counters[chatID]))
	for messageID, counts := range s.counters[chatID] {
		items = append(items, model.MessageTotal{
			MessageID: messageID,
			Total:     model.SumCounts(counts),
			Counts:    copyCounts(counts),
		})
	}
	s.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool {
		if items[i].Total != items[j].Total {
			return items[i].Total > items[j].Total
		}
		return items[i].MessageID < items[j].MessageID
	})

	if len(items) > n {
		items = items[:n]
	}
	return items
}

// HasChat reports whether any counters are tracked for chatID.
func (s *Service) HasChat(chatID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.counters[chatID]) > 0
}

func ClampTopN(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxTopN {
		return MaxTopN
	}
	return n
}

// ParseTopN reads a user supplied limit. Anything that is not an integer falls back to DefaultTopN.
func ParseTopN(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return DefaultTopN
	}
	return ClampTopN(n)
}

func copyCounts(counts map[string]int) map[string]int {
	result := make(map[string]int, len(counts))
	for emoji, count := range counts {
		result[emoji] = count
	}
	return result
}
