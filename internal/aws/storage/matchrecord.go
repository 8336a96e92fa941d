package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cloudchess/lambot/internal/domains/entities"
)

var ErrMatchRecordNotFound = fmt.Errorf("match record not found")

// RecordMatch archives one finished game.
func (client *Client) RecordMatch(ctx context.Context, record entities.MatchRecord) error {
	av, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("failed to marshal match record: %w", err)
	}
	_, err = client.dynamodb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: client.cfg.MatchRecordsTableName,
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to put match record: %w", err)
	}
	return nil
}

func (client *Client) GetMatchRecord(ctx context.Context, gameId string) (entities.MatchRecord, error) {
	output, err := client.dynamodb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: client.cfg.MatchRecordsTableName,
		Key: map[string]types.AttributeValue{
			"GameId": &types.AttributeValueMemberS{
				Value: gameId,
			},
		},
	})
	if err != nil {
		return entities.MatchRecord{}, err
	}
	if output.Item == nil {
		return entities.MatchRecord{}, ErrMatchRecordNotFound
	}
	var record entities.MatchRecord
	if err := attributevalue.UnmarshalMap(output.Item, &record); err != nil {
		return entities.MatchRecord{}, err
	}
	return record, nil
}
