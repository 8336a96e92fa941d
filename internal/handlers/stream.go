package handlers

import (
	"context"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	lambdasvc "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/cloudchess/lambot/internal/bot"
	"github.com/cloudchess/lambot/internal/lichess"
	"github.com/cloudchess/lambot/internal/ratelimit"
)

// StreamHandler runs one bounded life of the account event consumer.
// The schedule that triggers this function again after it returns is
// what keeps the bot permanently online.
func StreamHandler(ctx context.Context) error {
	cfg, err := bot.ConfigFromEnv()
	if err != nil {
		return err
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return err
	}

	client := lichess.NewClient(cfg.Token)
	limiter := ratelimit.NewDynamoLimiter(
		dynamodb.NewFromConfig(awsCfg),
		cfg.RateLimitTableName,
		cfg.MaxDailyChallenges,
		cfg.MaxDailyUserChallenges,
	)
	dispatcher := bot.NewLambdaDispatcher(
		lambdasvc.NewFromConfig(awsCfg),
		cfg.GameFunctionName,
	)

	consumer := bot.NewConsumer(client, limiter, dispatcher, cfg.ConsumerConfig())
	return consumer.Run(ctx)
}
