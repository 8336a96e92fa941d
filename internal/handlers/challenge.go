package handlers

import (
	"context"

	"github.com/cloudchess/lambot/internal/bot"
	"github.com/cloudchess/lambot/internal/challenge"
	"github.com/cloudchess/lambot/internal/domains/dtos"
	"github.com/cloudchess/lambot/internal/lichess"
)

// ChallengeHandler runs one scheduled outgoing-challenge batch.
func ChallengeHandler(ctx context.Context, event dtos.ChallengeBatchEvent) error {
	cfg, err := bot.ConfigFromEnv()
	if err != nil {
		return err
	}
	generator := challenge.NewGenerator(lichess.NewClient(cfg.Token), cfg.BotId)
	return generator.Handle(ctx, event)
}
