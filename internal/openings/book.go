// Package openings looks up early-game moves in a precomputed DynamoDB
// table. Entries are keyed by a truncated position representation and
// hold a string set of "uci:freq" candidate records.
package openings

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cloudchess/lambot/pkg/logging"
	"go.uber.org/zap"
)

type TableConfig struct {
	Name        string `json:"name"`
	PositionKey string `json:"positionKey"`
	MoveKey     string `json:"moveKey"`
	MaxDepth    int    `json:"maxDepth"`
}

type DynamoBook struct {
	dynamodb *dynamodb.Client
	cfg      TableConfig
}

func NewDynamoBook(client *dynamodb.Client, cfg TableConfig) *DynamoBook {
	return &DynamoBook{
		dynamodb: client,
		cfg:      cfg,
	}
}

// Lookup returns the book move for the position, if the table has an
// entry and the game is still within the configured ply depth.
func (b *DynamoBook) Lookup(ctx context.Context, fen string, ply int) (string, bool, error) {
	if ply > b.cfg.MaxDepth {
		return "", false, nil
	}
	index := PositionIndex(fen)
	output, err := b.dynamodb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(b.cfg.Name),
		Key: map[string]types.AttributeValue{
			b.cfg.PositionKey: &types.AttributeValueMemberS{Value: index},
		},
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to query opening table: %w", err)
	}
	if output.Item == nil {
		return "", false, nil
	}
	attr, ok := output.Item[b.cfg.MoveKey].(*types.AttributeValueMemberSS)
	if !ok {
		return "", false, fmt.Errorf("opening entry for %q has no %s string set", index, b.cfg.MoveKey)
	}
	move, err := ChooseMove(attr.Value)
	if err != nil {
		return "", false, err
	}
	logging.Info("opening book hit",
		zap.String("position", index),
		zap.String("move", move),
	)
	return move, true, nil
}

// PositionIndex is the table key for a position: the piece placement,
// side to move and castling rights fields of the FEN. Clock fields are
// dropped so transpositions within the opening share entries.
func PositionIndex(fen string) string {
	fields := strings.Fields(fen)
	if len(fields) > 3 {
		fields = fields[:3]
	}
	return strings.Join(fields, " ")
}

// ChooseMove picks a candidate deterministically: highest observed
// frequency first, move text as the tie-break, so replayed sessions
// reproduce the same choice.
func ChooseMove(records []string) (string, error) {
	type candidate struct {
		move string
		freq int
	}
	var candidates []candidate
	for _, record := range records {
		move, freq, err := parseRecord(record)
		if err != nil {
			logging.Warn("skipping malformed opening record",
				zap.String("record", record),
				zap.Error(err),
			)
			continue
		}
		candidates = append(candidates, candidate{move: move, freq: freq})
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no usable candidates in %v", records)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].freq != candidates[j].freq {
			return candidates[i].freq > candidates[j].freq
		}
		return candidates[i].move < candidates[j].move
	})
	return candidates[0].move, nil
}

func parseRecord(record string) (string, int, error) {
	move, freqStr, found := strings.Cut(record, ":")
	if !found || move == "" {
		return "", 0, fmt.Errorf("cannot parse move from %q", record)
	}
	freq, err := strconv.Atoi(freqStr)
	if err != nil {
		return "", 0, fmt.Errorf("cannot parse frequency from %q", record)
	}
	return move, freq, nil
}
