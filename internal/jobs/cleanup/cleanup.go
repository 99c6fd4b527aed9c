package cleanup

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type pendingExpirer interface {
	ExpireAwaiting(cutoff time.Time) int
}

type cooldownPruner interface {
	Prune(cutoff time.Time) int
}

// Job drops unconfirmed submissions older than the pending TTL and forgets
// cooldown records that can no longer block anyone.
type Job struct {
	pending    pendingExpirer
	pendingTTL time.Duration
	cooldowns  cooldownPruner
	cooldown   time.Duration
	now        func() time.Time
	logger     *zap.Logger
}

func New(pending pendingExpirer, pendingTTL time.Duration, logger *zap.Logger) *Job {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		pending:    pending,
		pendingTTL: pendingTTL,
		now:        time.Now,
		logger:     logger,
	}
}

// AttachCooldownPrune enables pruning of an in-process cooldown store.
func (j *Job) AttachCooldownPrune(pruner cooldownPruner, cooldown time.Duration) {
	j.cooldowns = pruner
	j.cooldown = cooldown
}

func (j *Job) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := j.now().UTC()

	if j.pending != nil && j.pendingTTL > 0 {
		expired := j.pending.ExpireAwaiting(now.Add(-j.pendingTTL))
		if expired > 0 {
			j.logger.Info("cleanup stale pending submissions completed", zap.Int("expired", expired))
		}
	}

	if j.cooldowns != nil && j.cooldown > 0 {
		pruned := j.cooldowns.Prune(now.Add(-j.cooldown))
		if pruned > 0 {
			j.logger.Debug("cleanup cooldown records completed", zap.Int("pruned", pruned))
		}
	}

	return nil
}
