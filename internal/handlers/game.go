package handlers

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	lambdasvc "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/cloudchess/lambot/internal/aws/storage"
	"github.com/cloudchess/lambot/internal/bot"
	"github.com/cloudchess/lambot/internal/domains/dtos"
	"github.com/cloudchess/lambot/internal/engine"
	"github.com/cloudchess/lambot/internal/lichess"
	"github.com/cloudchess/lambot/internal/openings"
	"github.com/cloudchess/lambot/pkg/logging"
	"go.uber.org/zap"
)

// GameHandler runs one bounded supervision step of a game, dispatched
// either by the stream consumer (depth 0) or by a previous step of
// itself. Session-level failures are logged, not returned: this
// function is invoked asynchronously and a platform retry would only
// replay a game that was already resigned or aborted.
func GameHandler(ctx context.Context, event dtos.SessionResumeEvent) error {
	cfg, err := bot.ConfigFromEnv()
	if err != nil {
		return err
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return err
	}
	dynamoClient := dynamodb.NewFromConfig(awsCfg)
	lambdaClient := lambdasvc.NewFromConfig(awsCfg)

	var book bot.OpeningBook
	if cfg.OpeningTable.Name != "" {
		book = openings.NewDynamoBook(dynamoClient, cfg.OpeningTable)
	}
	var recorder bot.Recorder
	if cfg.MatchRecordsTableName != "" {
		recorder = storage.NewClient(dynamoClient, storage.Config{
			MatchRecordsTableName: aws.String(cfg.MatchRecordsTableName),
		})
	}

	session := bot.NewSession(
		lichess.NewClient(cfg.Token),
		book,
		engine.NewLambdaMover(lambdaClient, cfg.MoveFunctionName),
		bot.NewLambdaDispatcher(lambdaClient, cfg.GameFunctionName),
		recorder,
		cfg.SessionConfig(),
	)
	if err := session.Run(ctx, event.Token); err != nil {
		logging.Error("game session ended with error",
			zap.String("game_id", event.Token.GameId),
			zap.Int("depth", event.Token.Depth),
			zap.Error(err),
		)
	}
	return nil
}
