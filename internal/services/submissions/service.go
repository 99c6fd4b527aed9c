package submissions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ivankudzin/tgrelay/internal/domain/model"
	memrepo "github.com/ivankudzin/tgrelay/internal/repo/memory"
	"github.com/ivankudzin/tgrelay/internal/services/rate"
)

var (
	ErrRateLimited   = errors.New("submission rate limited")
	ErrNotFound      = errors.New("submission not found")
	ErrDelivery      = errors.New("delivery failed")
	ErrAlreadyQueued = errors.New("submission already queued")
	ErrInvalidMode   = errors.New("invalid anonymity mode")
)

// RateLimitError carries the remaining cooldown and unwraps to ErrRateLimited.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: retry after %s", ErrRateLimited.Error(), e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}

// Delivery is the transport the lifecycle drives. Implementations must not call back into the Service.
type Delivery interface {
	RelayToModerationQueue(ctx context.Context, origin model.Origin) (int, error)
	NotifyModerators(ctx context.Context, reviewKey int, notice ModeratorNotice) error
	PresentChoice(ctx context.Context, origin model.Origin) error
	Publish(ctx context.Context, origin model.Origin, post Post) (int, error)
	NotifyAuthor(ctx context.Context, authorID int64, text string) error
}

type AuditLogger interface {
	LogQueued(ctx context.Context, submission model.Submission) error
	LogDecision(ctx context.Context, submission model.Submission, moderatorID int64, approved bool, comment string) error
	LogPublishFailed(ctx context.Context, submission model.Submission, moderatorID int64, cause error) error
}

type Service struct {
	store    *memrepo.SubmissionStore
	limiter  *rate.Limiter
	delivery Delivery
	audit    AuditLogger
	logger   *zap.Logger

	now   func() time.Time
	newID func() string
}

type ReceiveInput struct {
	Origin model.Origin
	Author model.Author
	Fields model.PayloadFields
}

type DecideInput struct {
	ReviewKey   int
	Approved    bool
	Comment     string
	ModeratorID int64
}

type Decision struct {
	Submission         model.Submission
	Approved           bool
	Comment            string
	PublishedMessageID int
}

func NewService(store *memrepo.SubmissionStore, limiter *rate.Limiter, delivery Delivery, audit AuditLogger, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		limiter:  limiter,
		delivery: delivery,
		audit:    audit,
		logger:   logger,
		now:      time.Now,
		newID:    newSubmissionID,
	}
}

// Receive validates a new submission, enforces the per-author cooldown and offers the sign/anonymous choice.
func (s *Service) Receive(ctx context.Context, in ReceiveInput) (model.Submission, error) {
	if err := s.ready(); err != nil {
		return model.Submission{}, err
	}
	if in.Origin.IsZero() {
		return model.Submission{}, fmt.Errorf("invalid origin")
	}

	payload, err := model.NewPayload(in.Fields)
	if err != nil {
		return model.Submission{}, err
	}
	if err := payload.Validate(); err != nil {
		return model.Submission{}, err
	}

	now := s.now().UTC()
	retryAfter, allowed, err := s.limiter.AllowSubmission(ctx, in.Author.ID, now)
	if err != nil {
		return model.Submission{}, fmt.Errorf("check submission cooldown: %w", err)
	}
	if !allowed {
		return model.Submission{}, &RateLimitError{RetryAfter: time.Duration(retryAfter) * time.Second}
	}

	submission := model.Submission{
		ID:         s.newID(),
		Origin:     in.Origin,
		Author:     in.Author,
		Payload:    payload,
		State:      model.SubmissionStateAwaitingChoice,
		ReceivedAt: now,
	}
	s.store.Put(submission)

	if err := s.delivery.PresentChoice(ctx, in.Origin); err != nil {
		// Without the prompt nobody can act on the entry.
		s.store.PopByOrigin(in.Origin)
		if releaseErr := s.limiter.ReleaseSubmission(ctx, in.Author.ID, now); releaseErr != nil {
			s.logger.Warn("release submission cooldown", zap.Int64("author_id", in.Author.ID), zap.Error(releaseErr))
		}
		s.logger.Error("present submission choice",
			zap.String("submission_id", submission.ID),
			zap.Int64("chat_id", in.Origin.ChatID),
			zap.Error(err),
		)
		return model.Submission{}, fmt.Errorf("%w: present choice: %w", ErrDelivery, err)
	}

	s.logger.Info("submission received",
		zap.String("submission_id", submission.ID),
		zap.Int64("author_id", in.Author.ID),
		zap.String("kind", string(payload.Kind)),
	)
	return submission, nil
}

func (s *Service) Cancel(ctx context.Context, origin model.Origin) (model.Submission, error) {
	if err := s.ready(); err != nil {
		return model.Submission{}, err
	}

	submission, err := s.store.CancelAwaiting(origin)
	if err != nil {
		return model.Submission{}, mapStoreErr(err)
	}

	s.logger.Info("submission cancelled",
		zap.String("submission_id", submission.ID),
		zap.Int64("author_id", submission.Author.ID),
	)
	return submission, nil
}

// Confirm relays the submission into the review group and queues it under the relayed message id.
// On relay failure the submission stays awaiting so the author can retry.
func (s *Service) Confirm(ctx context.Context, origin model.Origin, mode model.AnonMode) (model.Submission, error) {
	if err := s.ready(); err != nil {
		return model.Submission{}, err
	}
	if _, ok := model.ParseAnonMode(string(mode)); !ok {
		return model.Submission{}, ErrInvalidMode
	}

	claimed, err := s.store.Claim(origin)
	if err != nil {
		return model.Submission{}, mapStoreErr(err)
	}

	reviewKey, err := s.delivery.RelayToModerationQueue(ctx, origin)
	if err != nil {
		s.store.Release(origin)
		s.logger.Error("relay submission to review group",
			zap.String("submission_id", claimed.ID),
			zap.Error(err),
		)
		return model.Submission{}, fmt.Errorf("%w: relay to review group: %w", ErrDelivery, err)
	}

	queued, err := s.store.Enqueue(origin, reviewKey, mode == model.AnonModeAnonymous, s.now())
	if err != nil {
		return model.Submission{}, mapStoreErr(err)
	}

	if s.audit != nil {
		if err := s.audit.LogQueued(ctx, queued); err != nil {
			s.logger.Warn("audit submission queued", zap.String("submission_id", queued.ID), zap.Error(err))
		}
	}

	notice := ModeratorNotice{
		SubmissionID: queued.ID,
		Identity:     queued.Identity(),
		Anonymous:    queued.IsAnonymous(),
	}
	if err := s.delivery.NotifyModerators(ctx, reviewKey, notice); err != nil {
		s.logger.Warn("notify moderators",
			zap.String("submission_id", queued.ID),
			zap.Int("review_key", reviewKey),
			zap.Error(err),
		)
	}

	s.logger.Info("submission queued",
		zap.String("submission_id", queued.ID),
		zap.Int("review_key", reviewKey),
		zap.Bool("anonymous", queued.IsAnonymous()),
	)
	return queued, nil
}

// Decide resolves a queued submission exactly once. The entry is removed before publishing,
// so a failed publish is reported and never retried.
func (s *Service) Decide(ctx context.Context, in DecideInput) (Decision, error) {
	if err := s.ready(); err != nil {
		return Decision{}, err
	}

	submission, ok := s.store.PopReview(in.ReviewKey)
	if !ok {
		return Decision{}, ErrNotFound
	}

	decision := Decision{
		Submission: submission,
		Approved:   in.Approved,
		Comment:    strings.TrimSpace(in.Comment),
	}

	if in.Approved {
		post := ComposePost(submission, decision.Comment)
		messageID, err := s.delivery.Publish(ctx, submission.Origin, post)
		if err != nil {
			s.logger.Error("publish submission",
				zap.String("submission_id", submission.ID),
				zap.Int("review_key", in.ReviewKey),
				zap.Error(err),
			)
			if s.audit != nil {
				if auditErr := s.audit.LogPublishFailed(ctx, submission, in.ModeratorID, err); auditErr != nil {
					s.logger.Warn("audit publish failure", zap.String("submission_id", submission.ID), zap.Error(auditErr))
				}
			}
			return decision, fmt.Errorf("%w: publish: %w", ErrDelivery, err)
		}
		decision.PublishedMessageID = messageID
		decision.Submission.State = model.SubmissionStateApproved
	} else {
		decision.Submission.State = model.SubmissionStateRejected
	}

	if s.audit != nil {
		if err := s.audit.LogDecision(ctx, decision.Submission, in.ModeratorID, in.Approved, decision.Comment); err != nil {
			s.logger.Warn("audit decision", zap.String("submission_id", submission.ID), zap.Error(err))
		}
	}

	s.notifyBestEffort(ctx, submission, AuthorOutcomeText(in.Approved, decision.Comment))

	s.logger.Info("submission decided",
		zap.String("submission_id", submission.ID),
		zap.Bool("approved", in.Approved),
		zap.Int64("moderator_id", in.ModeratorID),
	)
	return decision, nil
}

func (s *Service) Stats() model.SubmissionStats {
	if s.store == nil {
		return model.SubmissionStats{}
	}
	return s.store.Stats()
}

// notifyBestEffort tells the author about a committed outcome. Failures are logged and dropped.
func (s *Service) notifyBestEffort(ctx context.Context, submission model.Submission, text string) {
	if submission.Author.ID <= 0 {
		return
	}
	if err := s.delivery.NotifyAuthor(ctx, submission.Author.ID, text); err != nil {
		s.logger.Warn("notify author",
			zap.String("submission_id", submission.ID),
			zap.Int64("author_id", submission.Author.ID),
			zap.Error(err),
		)
	}
}

func (s *Service) ready() error {
	if s.store == nil || s.limiter == nil || s.delivery == nil {
		return fmt.Errorf("submission service dependencies are not configured")
	}
	return nil
}

func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, memrepo.ErrSubmissionNotFound):
		return ErrNotFound
	case errors.Is(err, memrepo.ErrSubmissionQueued), errors.Is(err, memrepo.ErrSubmissionRelaying):
		return ErrAlreadyQueued
	default:
		return err
	}
}

func newSubmissionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
