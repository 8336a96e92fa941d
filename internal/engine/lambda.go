package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/cloudchess/lambot/internal/domains/dtos"
)

// LambdaMover delegates move computation to a dedicated Lambda function,
// invoked synchronously so the session gets the move back in-band.
type LambdaMover struct {
	client       *lambda.Client
	functionName string
}

func NewLambdaMover(client *lambda.Client, functionName string) *LambdaMover {
	return &LambdaMover{
		client:       client,
		functionName: functionName,
	}
}

func (m *LambdaMover) ComputeMove(ctx context.Context, req dtos.ComputeMoveRequest) (dtos.ComputeMoveResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return dtos.ComputeMoveResponse{}, fmt.Errorf("failed to marshal move request: %w", err)
	}
	output, err := m.client.Invoke(ctx, &lambda.InvokeInput{
		FunctionName: aws.String(m.functionName),
		Payload:      payload,
	})
	if err != nil {
		return dtos.ComputeMoveResponse{}, fmt.Errorf("failed to invoke move function: %w", err)
	}
	if output.FunctionError != nil {
		return dtos.ComputeMoveResponse{}, fmt.Errorf(
			"move function failed: %s: %s", *output.FunctionError, output.Payload)
	}
	var resp dtos.ComputeMoveResponse
	if err := json.Unmarshal(output.Payload, &resp); err != nil {
		return dtos.ComputeMoveResponse{}, fmt.Errorf("failed to unmarshal move response: %w", err)
	}
	if resp.BestMove == "" {
		return dtos.ComputeMoveResponse{}, fmt.Errorf("move function returned no move")
	}
	return resp, nil
}
