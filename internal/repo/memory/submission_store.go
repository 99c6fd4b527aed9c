package memory

import (
	"errors"
	"sync"
	"time"

	"github.com/ivankudzin/tgrelay/internal/domain/model"
)

var (
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrSubmissionQueued   = errors.New("submission already queued")
	ErrSubmissionRelaying = errors.New("submission is being relayed")
)

// SubmissionStore keeps pending submissions indexed by origin and by review message.
// Both indexes hold the same submission value and are mutated under one lock.
type SubmissionStore struct {
	mu       sync.Mutex
	byOrigin map[model.Origin]model.Submission
	byReview map[int]model.Origin
}

func NewSubmissionStore() *SubmissionStore {
	return &SubmissionStore{
		byOrigin: make(map[model.Origin]model.Submission),
		byReview: make(map[int]model.Origin),
	}
}

func (s *SubmissionStore) Put(submission model.Submission) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.byOrigin[submission.Origin]; ok && prev.ReviewKey != nil {
		delete(s.byReview, *prev.ReviewKey)
	}
	s.byOrigin[submission.Origin] = submission
	if submission.ReviewKey != nil {
		s.byReview[*submission.ReviewKey] = submission.Origin
	}
}

func (s *SubmissionStore) GetByOrigin(origin model.Origin) (model.Submission, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	submission, ok := s.byOrigin[origin]
	return submission, ok
}

func (s *SubmissionStore) PopByOrigin(origin model.Origin) (model.Submission, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	submission, ok := s.byOrigin[origin]
	if !ok {
		return model.Submission{}, false
	}
	delete(s.byOrigin, origin)
	if submission.ReviewKey != nil {
		delete(s.byReview, *submission.ReviewKey)
	}
	return submission, true
}

// PutReview indexes submission under reviewKey, tracking its origin as well.
func (s *SubmissionStore) PutReview(reviewKey int, submission model.Submission) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.byOrigin[submission.Origin]; ok && prev.ReviewKey != nil && *prev.ReviewKey != reviewKey {
		delete(s.byReview, *prev.ReviewKey)
	}
	key := reviewKey
	submission.ReviewKey = &key
	s.byOrigin[submission.Origin] = submission
	s.byReview[reviewKey] = submission.Origin
}

// PopReview removes the submission queued under reviewKey from both indexes.
func (s *SubmissionStore) PopReview(reviewKey int) (model.Submission, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	origin, ok := s.byReview[reviewKey]
	if !ok {
		return model.Submission{}, false
	}
	delete(s.byReview, reviewKey)

	submission, ok := s.byOrigin[origin]
	if !ok || submission.ReviewKey == nil || *submission.ReviewKey != reviewKey {
		return model.Submission{}, false
	}
	delete(s.byOrigin, origin)
	return submission, true
}

// Claim marks an awaiting submission as being relayed and returns a snapshot of it.
func (s *SubmissionStore) Claim(origin model.Origin) (model.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	submission, ok := s.byOrigin[origin]
	if !ok {
		return model.Submission{}, ErrSubmissionNotFound
	}
	if submission.State == model.SubmissionStateQueued {
		return model.Submission{}, ErrSubmissionQueued
	}
	if submission.Relaying {
		return model.Submission{}, ErrSubmissionRelaying
	}

	submission.Relaying = true
	s.byOrigin[origin] = submission
	return submission, nil
}

// Release drops a claim taken by Claim without changing state.
func (s *SubmissionStore) Release(origin model.Origin) {
	s.mu.Lock()
	defer s.mu.Unlock()

	submission, ok := s.byOrigin[origin]
	if !ok {
		return
	}
	submission.Relaying = false
	s.byOrigin[origin] = submission
}

// Enqueue moves a claimed submission into the review queue under reviewKey.
func (s *SubmissionStore) Enqueue(origin model.Origin, reviewKey int, anonymous bool, now time.Time) (model.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	submission, ok := s.byOrigin[origin]
	if !ok {
		return model.Submission{}, ErrSubmissionNotFound
	}
	if submission.State == model.SubmissionStateQueued {
		return model.Submission{}, ErrSubmissionQueued
	}

	key := reviewKey
	anon := anonymous
	queuedAt := now.UTC()
	submission.ReviewKey = &key
	submission.Anonymous = &anon
	submission.State = model.SubmissionStateQueued
	submission.QueuedAt = &queuedAt
	submission.Relaying = false

	s.byOrigin[origin] = submission
	s.byReview[reviewKey] = origin
	return submission, nil
}

// CancelAwaiting removes a submission that has not been queued yet.
func (s *SubmissionStore) CancelAwaiting(origin model.Origin) (model.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	submission, ok := s.byOrigin[origin]
	if !ok {
		return model.Submission{}, ErrSubmissionNotFound
	}
	if submission.State == model.SubmissionStateQueued {
		return model.Submission{}, ErrSubmissionQueued
	}
	if submission.Relaying {
		return model.Submission{}, ErrSubmissionRelaying
	}
	delete(s.byOrigin, origin)
	return submission, nil
}

// ExpireAwaiting drops unconfirmed submissions received before cutoff.
func (s *SubmissionStore) ExpireAwaiting(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for origin, submission := range s.byOrigin {
		if submission.State == model.SubmissionStateQueued || submission.Relaying {
			continue
		}
		if submission.ReceivedAt.Before(cutoff) {
			delete(s.byOrigin, origin)
			removed++
		}
	}
	return removed
}

func (s *SubmissionStore) Stats() model.SubmissionStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := model.SubmissionStats{}
	for _, submission := range s.byOrigin {
		if submission.State == model.SubmissionStateQueued {
			stats.Queued++
			continue
		}
		stats.AwaitingChoice++
	}
	return stats
}
