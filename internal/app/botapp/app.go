package botapp

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ivankudzin/tgrelay/internal/app/apiapp"
	"github.com/ivankudzin/tgrelay/internal/config"
	tginfra "github.com/ivankudzin/tgrelay/internal/infra/telegram"
	"github.com/ivankudzin/tgrelay/internal/jobs/cleanup"
	memrepo "github.com/ivankudzin/tgrelay/internal/repo/memory"
	pgrepo "github.com/ivankudzin/tgrelay/internal/repo/postgres"
	redrepo "github.com/ivankudzin/tgrelay/internal/repo/redis"
	auditsvc "github.com/ivankudzin/tgrelay/internal/services/audit"
	"github.com/ivankudzin/tgrelay/internal/services/rate"
	"github.com/ivankudzin/tgrelay/internal/services/reactions"
	"github.com/ivankudzin/tgrelay/internal/services/submissions"
	"github.com/ivankudzin/tgrelay/internal/transport/http/handlers"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	cfg         config.Config
	logger      *zap.Logger
	bot         *tginfra.Bot
	tg          messenger
	postgres    *pgxpool.Pool
	redis       *goredis.Client
	api         *apiapp.App
	submissions *submissions.Service
	reactions   *reactions.Service
	cleanupJob  *cleanup.Job

	reviewGroupID int64
	channel       tginfra.ChatRef
	channelID     atomic.Int64
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	channel, err := tginfra.ParseChatRef(cfg.Bot.TargetChannel)
	if err != nil {
		return nil, fmt.Errorf("parse target channel: %w", err)
	}

	bot, err := tginfra.NewBot(cfg.Bot.Token, cfg.Bot.PollTimeoutSeconds, logger)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}

	a := &App{
		cfg:           cfg,
		logger:        logger,
		bot:           bot,
		tg:            bot,
		reviewGroupID: cfg.Bot.ReviewGroupID,
		channel:       channel,
	}

	store := memrepo.NewSubmissionStore()

	var (
		cooldownStore rate.CooldownStore
		memCooldowns  *memrepo.CooldownRepo
	)
	if cfg.Redis.Addr != "" {
		client := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := redrepo.Ping(ctx, client); err != nil {
			logger.Warn("redis unavailable, cooldowns stay in process", zap.Error(err))
			_ = client.Close()
		} else {
			a.redis = client
			cooldownStore = redrepo.NewCooldownRepo(client)
		}
	}
	if cooldownStore == nil {
		memCooldowns = memrepo.NewCooldownRepo()
		cooldownStore = memCooldowns
	}
	limiter := rate.NewLimiter(cooldownStore, cfg.Submission.Cooldown)

	var (
		auditLogger submissions.AuditLogger
		auditReader handlers.AuditReader
	)
	if cfg.Postgres.DSN != "" {
		if pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
			logger.Warn("postgres init failed, decision journal disabled", zap.Error(err))
		} else if err := pgrepo.EnsureSchema(ctx, pool); err != nil {
			logger.Warn("postgres schema init failed, decision journal disabled", zap.Error(err))
			pool.Close()
		} else {
			a.postgres = pool
			journal := auditsvc.NewService(pgrepo.NewAuditRepo(pool))
			auditLogger = journal
			auditReader = journal
		}
	}

	delivery := newTelegramDelivery(bot, cfg.Bot.ReviewGroupID, channel, logger)
	a.submissions = submissions.NewService(store, limiter, delivery, auditLogger, logger)
	a.reactions = reactions.NewService(logger)

	a.cleanupJob = cleanup.New(store, cfg.Submission.PendingTTL, logger)
	if memCooldowns != nil {
		a.cleanupJob.AttachCooldownPrune(memCooldowns, limiter.Cooldown())
	}

	a.resolveChannel(ctx)

	if cfg.HTTP.Addr != "" {
		api, err := apiapp.New(cfg, logger, apiapp.Dependencies{
			Reactions:     a.reactions,
			Submissions:   a.submissions,
			ChannelChatID: a.channelChatID,
			Audit:         auditReader,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init stats api: %w", err)
		}
		a.api = api
	}

	return a, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("relay bot started",
		zap.String("username", a.bot.Username()),
		zap.Int64("review_group_id", a.reviewGroupID),
		zap.String("target_channel", a.channel.String()),
	)

	errCh := make(chan error, 3)
	go func() {
		errCh <- a.runCleanupLoop(ctx)
	}()
	go func() {
		errCh <- a.bot.Poll(ctx, a.routeUpdate)
	}()
	if a.api != nil {
		go func() {
			errCh <- a.api.Run()
		}()
	}

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("relay bot stopped")
			return nil
		case err := <-errCh:
			if err == nil || errors.Is(err, context.Canceled) {
				continue
			}
			return err
		}
	}
}

func (a *App) runCleanupLoop(ctx context.Context) error {
	if a.cleanupJob == nil {
		return nil
	}

	interval := a.cfg.Bot.CleanupInterval
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := a.cleanupJob.Run(ctx); err != nil {
				return err
			}
			if a.channelChatID() == 0 {
				a.resolveChannel(ctx)
			}
		}
	}
}

// resolveChannel looks up the numeric id of a @username target so channel reaction stats can be matched.
func (a *App) resolveChannel(ctx context.Context) {
	if !a.channel.IsUsername() {
		a.channelID.Store(a.channel.ID)
		return
	}
	if a.bot == nil {
		return
	}

	id, err := a.bot.ResolveChatID(ctx, a.channel)
	if err != nil {
		a.logger.Warn("resolve target channel id", zap.String("channel", a.channel.String()), zap.Error(err))
		return
	}
	a.channelID.Store(id)
	a.logger.Info("target channel resolved", zap.String("channel", a.channel.String()), zap.Int64("chat_id", id))
}

func (a *App) channelChatID() int64 {
	return a.channelID.Load()
}

func (a *App) Close() {
	if a.api != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := a.api.Shutdown(ctx); err != nil {
			a.logger.Warn("shutdown stats api", zap.Error(err))
		}
		cancel()
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("close redis client", zap.Error(err))
		}
	}
}
