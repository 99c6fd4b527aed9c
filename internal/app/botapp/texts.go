package botapp

import (
	"fmt"
	"strings"

	"github.com/ivankudzin/tgrelay/internal/domain/model"
)

const helpText = "👋 投稿机器人使用说明\n\n" +
	"【用户私聊 bot】\n" +
	"1) 直接把文本/图片/视频/文件/语音 发给我\n" +
	"2) 选择：实名投稿 或 匿名投稿\n" +
	"3) 我会将内容提交到审稿群等待审核\n\n" +
	"【审稿群内】\n" +
	"请对 bot 转发的“投稿消息”点『回复』，然后发送：\n" +
	"• /yes 可选评论 —— 通过并发布到频道\n" +
	"• /no  可选评论 —— 不通过（会私聊通知投稿者）\n"

const (
	startText = "嗨！把你的内容直接发给我即可开始投稿。\n\n" + helpText

	choicePromptText   = "收到！请选择投稿方式："
	choiceSignedLabel  = "确定投稿（实名）✔️"
	choiceAnonLabel    = "确定投稿（匿名）✔️"
	choiceCancelLabel  = "取消投稿 ❌"
	cancelledText      = "已取消投稿。"
	expiredText        = "这条投稿已失效或不存在。"
	alreadyQueuedText  = "这条投稿已提交审核，无法再次操作。"
	submitFailedText   = "❌ 提交失败，请稍后重试或联系管理员。"
	submittedText      = "✅ 已提交到审稿群，等待审核结果。"
	rateLimitedText    = "⏳ 请稍候再试，每位用户 10 分钟内只能投稿一次。"
	unsupportedText    = "暂不支持这种消息，请发送一条文本、图片、视频、文件或语音。"
	internalErrorText  = "❌ 出错了，请稍后重试。"
	replyRequiredText  = "请对“投稿消息”点『回复』再发送命令。"
	reviewNotFoundText = "没有找到这条投稿（可能已处理或缓存丢失）。"
	publishFailedText  = "❌ 发布到频道失败，请检查频道权限或 bot 权限。"
	approvedText       = "✅ 已通过并发布到频道。"
	rejectedText       = "已标记不通过。"

	reactionsReplyRequiredText = "请先回复一条消息再使用 /reactions"
	reactionsEmptyText         = "这条消息没有统计到 reactions。"
	chatTopEmptyText           = "当前会话没有统计到 reactions。"
	channelTopEmptyText        = "目标频道没有统计到 reactions。"
	chatTopHeader              = "🏆 本会话 Top Reactions：\n"
	channelTopHeader           = "🏆 目标频道 Top Reactions：\n"
	emptyListText              = "（无）"
)

func renderMessageReactions(counts map[string]int) string {
	sorted := model.SortEmojiCounts(counts)
	lines := make([]string, 0, len(sorted))
	for _, item := range sorted {
		lines = append(lines, fmt.Sprintf("%s: %d", item.Emoji, item.Count))
	}

	body := emptyListText
	if len(lines) > 0 {
		body = strings.Join(lines, "\n")
	}
	return "📊 Reaction 统计：\n" + body + fmt.Sprintf("\n合计: %d", model.SumCounts(counts))
}

func renderTopReactions(header string, items []model.MessageTotal) string {
	if len(items) == 0 {
		return header + emptyListText
	}

	lines := make([]string, 0, len(items))
	for _, item := range items {
		sorted := model.SortEmojiCounts(item.Counts)
		parts := make([]string, 0, len(sorted))
		for _, count := range sorted {
			parts = append(parts, fmt.Sprintf("%s:%d", count.Emoji, count.Count))
		}
		lines = append(lines, fmt.Sprintf("message_id=%d 合计=%d [%s]", item.MessageID, item.Total, strings.Join(parts, ", ")))
	}
	return header + strings.Join(lines, "\n")
}
