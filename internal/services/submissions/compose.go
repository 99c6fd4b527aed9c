package submissions

import (
	"strings"

	"github.com/ivankudzin/tgrelay/internal/domain/model"
)

const (
	attributionPrefix = "— 投稿人："
	commentPrefix     = "小编意见："

	approvedAuthorText = "你的投稿已通过并发布到频道！"
	approvedNotePrefix = "\n审稿备注："
	rejectedAuthorText = "很抱歉，你的投稿未通过。"
	rejectedNotePrefix = "\n原因："
)

// Post is what gets published to the channel for an approved submission.
type Post struct {
	Payload model.Payload
	// Text is the message text, or the caption for media that accepts one.
	Text string
	// Trailer is sent as its own message when the payload cannot carry it.
	Trailer string
}

// SeparateTrailer reports whether Trailer must follow the published media as a separate message.
func (p Post) SeparateTrailer() bool {
	return p.Payload.Kind != model.ContentKindText && !p.Payload.Kind.SupportsCaption()
}

// ModeratorNotice accompanies the relayed copy in the review group.
type ModeratorNotice struct {
	SubmissionID string
	Identity     string
	Anonymous    bool
}

func (n ModeratorNotice) Text() string {
	anon := "否（实名）"
	if n.Anonymous {
		anon = "是"
	}

	var b strings.Builder
	b.WriteString("📝 投稿ID: " + n.SubmissionID + "\n")
	b.WriteString("投稿人：" + n.Identity + "\n")
	b.WriteString("匿名：" + anon + "\n\n")
	b.WriteString("请对【上面那条投稿消息】点“回复”，然后发送：\n")
	b.WriteString("/yes 可选评论 —— 通过并发布到频道\n")
	b.WriteString("/no  可选评论 —— 不通过并通知投稿者")
	return b.String()
}

func BuildTrailer(identity, comment string) string {
	trailer := attributionPrefix + identity
	if comment = strings.TrimSpace(comment); comment != "" {
		trailer += "\n" + commentPrefix + comment
	}
	return trailer
}

func ComposePost(submission model.Submission, comment string) Post {
	trailer := BuildTrailer(submission.Identity(), comment)
	post := Post{
		Payload: submission.Payload,
		Trailer: trailer,
	}
	if post.SeparateTrailer() {
		return post
	}

	body := submission.Payload.Text
	if strings.TrimSpace(body) == "" {
		post.Text = trailer
		return post
	}
	post.Text = body + "\n\n" + trailer
	return post
}

func AuthorOutcomeText(approved bool, comment string) string {
	comment = strings.TrimSpace(comment)
	if approved {
		if comment == "" {
			return approvedAuthorText
		}
		return approvedAuthorText + approvedNotePrefix + comment
	}
	if comment == "" {
		return rejectedAuthorText
	}
	return rejectedAuthorText + rejectedNotePrefix + comment
}
