package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoLimiter implements Limiter on a DynamoDB counter table keyed by
// (DateKey, ScopeKey). Both scope counters are updated in a single
// transaction with conditional checks, so concurrent reservations for
// the last remaining slot cannot both succeed.
type DynamoLimiter struct {
	dynamodb    *dynamodb.Client
	tableName   string
	globalLimit int
	userLimit   int
}

func NewDynamoLimiter(client *dynamodb.Client, tableName string, globalLimit, userLimit int) *DynamoLimiter {
	return &DynamoLimiter{
		dynamodb:    client,
		tableName:   tableName,
		globalLimit: globalLimit,
		userLimit:   userLimit,
	}
}

func (l *DynamoLimiter) TryReserve(ctx context.Context, day, userId string, bypassUser bool) error {
	items := []types.TransactWriteItem{
		l.reserveItem(day, GlobalScope, l.globalLimit),
	}
	if !bypassUser {
		items = append(items, l.reserveItem(day, userId, l.userLimit))
	}
	_, err := l.dynamodb.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err != nil {
		var canceled *types.TransactionCanceledException
		if errors.As(err, &canceled) {
			return ErrLimitExceeded
		}
		return fmt.Errorf("failed to reserve challenge slot: %w", err)
	}
	return nil
}

func (l *DynamoLimiter) reserveItem(day, scope string, limit int) types.TransactWriteItem {
	return types.TransactWriteItem{
		Update: &types.Update{
			TableName: aws.String(l.tableName),
			Key: map[string]types.AttributeValue{
				"DateKey":  &types.AttributeValueMemberS{Value: day},
				"ScopeKey": &types.AttributeValueMemberS{Value: scope},
			},
			UpdateExpression:    aws.String("ADD Cnt :one"),
			ConditionExpression: aws.String("attribute_not_exists(Cnt) OR Cnt < :max"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":one": &types.AttributeValueMemberN{Value: "1"},
				":max": &types.AttributeValueMemberN{Value: strconv.Itoa(limit)},
			},
		},
	}
}
