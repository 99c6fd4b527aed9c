package model

import "sort"

type EmojiCount struct {
	Emoji string `json:"emoji"`
	Count int    `json:"count"`
}

type MessageTotal struct {
	MessageID int            `json:"message_id"`
	Total     int            `json:"total"`
	Counts    map[string]int `json:"counts"`
}

// SortEmojiCounts orders counts by count desc, then emoji asc.
func SortEmojiCounts(counts map[string]int) []EmojiCount {
	result := make([]EmojiCount, 0, len(counts))
	for emoji, count := range counts {
		result = append(result, EmojiCount{Emoji: emoji, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Emoji < result[j].Emoji
	})
	return result
}

func SumCounts(counts map[string]int) int {
	total := 0
	for _, count := range counts {
		total += count
	}
	return total
}
