package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ivankudzin/tgrelay/internal/domain/model"
)

type Repo interface {
	Save(context.Context, model.Audit) error
	ListRecent(context.Context, int) ([]model.Audit, error)
}

// Service journals lifecycle decisions. A nil repo turns every call into a no-op.
type Service struct {
	repo Repo
	now  func() time.Time
}

func NewService(repo Repo) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

func (s *Service) LogQueued(ctx context.Context, submission model.Submission) error {
	return s.logWithPayload(ctx, model.AuditActionSubmissionQueued, submission.Author.ID, submission.ID, map[string]interface{}{
		"author_id":  submission.Author.ID,
		"anonymous":  submission.IsAnonymous(),
		"kind":       string(submission.Payload.Kind),
		"review_key": reviewKeyOrZero(submission),
	})
}

func (s *Service) LogDecision(ctx context.Context, submission model.Submission, moderatorID int64, approved bool, comment string) error {
	action := model.AuditActionSubmissionRejected
	if approved {
		action = model.AuditActionSubmissionApproved
	}
	return s.logWithPayload(ctx, action, moderatorID, submission.ID, map[string]interface{}{
		"author_id":  submission.Author.ID,
		"review_key": reviewKeyOrZero(submission),
		"comment":    comment,
	})
}

func (s *Service) LogPublishFailed(ctx context.Context, submission model.Submission, moderatorID int64, cause error) error {
	reason := ""
	if cause != nil {
		reason = cause.Error()
	}
	return s.logWithPayload(ctx, model.AuditActionPublishFailed, moderatorID, submission.ID, map[string]interface{}{
		"author_id": submission.Author.ID,
		"error":     reason,
	})
}

func (s *Service) ListRecent(ctx context.Context, limit int) ([]model.Audit, error) {
	if s == nil || s.repo == nil {
		return []model.Audit{}, nil
	}
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListRecent(ctx, limit)
}

func (s *Service) logWithPayload(ctx context.Context, action model.AuditAction, actorTGID int64, submissionID string, data map[string]interface{}) error {
	if s == nil || s.repo == nil {
		return nil
	}

	payload, err := json.Marshal(data)
	if err != nil {
		payload = json.RawMessage(`{}`)
	}

	entry := model.Audit{
		SubmissionID: submissionID,
		ActorTGID:    actorTGID,
		Action:       action,
		Payload:      payload,
		CreatedAt:    s.now().UTC(),
	}
	return s.repo.Save(ctx, entry)
}

func reviewKeyOrZero(submission model.Submission) int {
	if submission.ReviewKey == nil {
		return 0
	}
	return *submission.ReviewKey
}
