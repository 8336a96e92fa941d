package bot

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/cloudchess/lambot/internal/domains/dtos"
	"github.com/cloudchess/lambot/internal/domains/entities"
	"github.com/cloudchess/lambot/pkg/logging"
	"go.uber.org/zap"
)

// Dispatcher schedules a fresh bounded-duration execution of game
// supervision for the token. Implementations must guarantee at most one
// concurrently running supervisor per game id.
type Dispatcher interface {
	Dispatch(ctx context.Context, token entities.ContinuationToken) error
}

// LambdaDispatcher hands the token to a new invocation of the game
// function, fire-and-forget.
type LambdaDispatcher struct {
	client       *lambda.Client
	functionName string
}

func NewLambdaDispatcher(client *lambda.Client, functionName string) *LambdaDispatcher {
	return &LambdaDispatcher{
		client:       client,
		functionName: functionName,
	}
}

func (d *LambdaDispatcher) Dispatch(ctx context.Context, token entities.ContinuationToken) error {
	payload, err := json.Marshal(dtos.SessionResumeEvent{Token: token})
	if err != nil {
		return fmt.Errorf("failed to marshal resume event: %w", err)
	}
	_, err = d.client.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(d.functionName),
		Payload:        payload,
		InvocationType: types.InvocationTypeEvent,
	})
	if err != nil {
		return fmt.Errorf("failed to invoke game function: %w", err)
	}
	logging.Info("game session dispatched",
		zap.String("game_id", token.GameId),
		zap.Int("depth", token.Depth),
		zap.String("correlation_id", token.CorrelationId),
	)
	return nil
}

// LocalDispatcher resumes sessions in-process, for the single-binary
// runner and for tests.
type LocalDispatcher struct {
	resume func(context.Context, entities.ContinuationToken) error
}

func NewLocalDispatcher(resume func(context.Context, entities.ContinuationToken) error) *LocalDispatcher {
	return &LocalDispatcher{resume: resume}
}

func (d *LocalDispatcher) Dispatch(ctx context.Context, token entities.ContinuationToken) error {
	go func() {
		if err := d.resume(ctx, token); err != nil {
			logging.Error("game session failed",
				zap.String("game_id", token.GameId),
				zap.Int("depth", token.Depth),
				zap.Error(err),
			)
		}
	}()
	return nil
}
