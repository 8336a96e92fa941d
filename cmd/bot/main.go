package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudchess/lambot/internal/bot"
	"github.com/cloudchess/lambot/internal/domains/entities"
	"github.com/cloudchess/lambot/internal/engine"
	"github.com/cloudchess/lambot/internal/lichess"
	"github.com/cloudchess/lambot/internal/ratelimit"
	"github.com/cloudchess/lambot/pkg/logging"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Single-process runner: the consumer loop with in-process game
// sessions, a local UCI engine and a Redis-backed rate limiter. No AWS
// involved; useful for development and for running the bot on a plain
// server.
func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	logging.SetLogger(logger)
	defer logging.Sync()

	cfg := bot.LoadConfig()

	opt, err := redis.ParseURL(cfg.RedisUrl)
	if err != nil {
		logging.Fatal("invalid redis url", zap.Error(err))
	}
	limiter := ratelimit.NewRedisLimiter(
		redis.NewClient(opt),
		cfg.MaxDailyChallenges,
		cfg.MaxDailyUserChallenges,
	)

	mover, err := engine.NewUCIMover(cfg.EnginePath)
	if err != nil {
		logging.Fatal("failed to start engine", zap.Error(err))
	}

	client := lichess.NewClient(cfg.Token)

	var dispatcher bot.Dispatcher
	resume := func(ctx context.Context, token entities.ContinuationToken) error {
		session := bot.NewSession(client, nil, mover, dispatcher, nil, cfg.SessionConfig())
		return session.Run(ctx, token)
	}
	dispatcher = bot.NewLocalDispatcher(resume)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumer := bot.NewConsumer(client, limiter, dispatcher, cfg.ConsumerConfig())
	logging.Info("bot started", zap.String("bot_id", cfg.BotId))
	if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
		logging.Fatal("consumer failed", zap.Error(err))
	}
	logging.Info("bot stopped")
}
