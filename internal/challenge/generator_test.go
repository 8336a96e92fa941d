package challenge

import (
	"context"
	"sync"
	"testing"

	"github.com/cloudchess/lambot/internal/domains/dtos"
	"github.com/cloudchess/lambot/internal/lichess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChallengeClient struct {
	mu      sync.Mutex
	created []string
	rating  int
	bots    []lichess.BotInfo
}

func (f *fakeChallengeClient) CreateChallenge(_ context.Context, userId string, _ bool, _ dtos.TimeLimit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, userId)
	return nil
}

func (f *fakeChallengeClient) OnlineBots(context.Context, int) ([]lichess.BotInfo, error) {
	return f.bots, nil
}

func (f *fakeChallengeClient) UserRating(context.Context, string, string) (int, error) {
	return f.rating, nil
}

func blitzBot(id string, rating int) lichess.BotInfo {
	return lichess.BotInfo{
		Id:    id,
		Perfs: map[string]lichess.Perf{"blitz": {Rating: rating}},
	}
}

func TestHandleSpecificChallenges(t *testing.T) {
	client := &fakeChallengeClient{}
	gen := NewGenerator(client, "bot")

	err := gen.Handle(context.Background(), dtos.ChallengeBatchEvent{
		Specific: []dtos.KnownUserChallenge{
			{UserId: "friend", Rated: true, TimeLimit: dtos.TimeLimit{LimitSecs: 300, IncrementSecs: 3}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"friend"}, client.created)
}

func TestHandleEmptyBatch(t *testing.T) {
	gen := NewGenerator(&fakeChallengeClient{}, "bot")
	assert.Error(t, gen.Handle(context.Background(), dtos.ChallengeBatchEvent{}))
}

func TestHandleRandomChallengesOnlineBots(t *testing.T) {
	client := &fakeChallengeClient{
		rating: 2000,
		bots: []lichess.BotInfo{
			blitzBot("low1", 1800),
			blitzBot("low2", 1900),
			blitzBot("low3", 1950),
			blitzBot("high1", 2100),
			blitzBot("bot", 2000), // ourselves, never challenged
		},
	}
	gen := NewGenerator(client, "bot")

	err := gen.Handle(context.Background(), dtos.ChallengeBatchEvent{
		Random: &dtos.RandomChallenge{
			TimeLimitOptions: []dtos.TimeLimit{{LimitSecs: 300, IncrementSecs: 3}},
			ChallengeCount:   4,
			Rated:            true,
		},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"low1", "low2", "low3", "high1"}, client.created)
	assert.NotContains(t, client.created, "bot")
}

func TestPickOpponentsBanding(t *testing.T) {
	bots := []lichess.BotInfo{
		blitzBot("a", 1500),
		blitzBot("b", 1700),
		blitzBot("c", 1900),
		blitzBot("d", 1990),
		blitzBot("e", 2050),
		blitzBot("f", 2200),
		blitzBot("g", 2400),
	}

	opponents := pickOpponents(bots, "self", "blitz", 2000, 4)
	require.Len(t, opponents, 4)

	// three quarters from at-or-below our rating, closest first
	assert.Equal(t, "d", opponents[0].Id)
	assert.Equal(t, "c", opponents[1].Id)
	assert.Equal(t, "b", opponents[2].Id)
	// the last slot goes to the weakest bot above us
	assert.Equal(t, "e", opponents[3].Id)
}

func TestPickOpponentsSkipsSelfAndUnrated(t *testing.T) {
	bots := []lichess.BotInfo{
		blitzBot("self", 2000),
		blitzBot("a", 1900),
		{Id: "bullet-only", Perfs: map[string]lichess.Perf{"bullet": {Rating: 2500}}},
	}

	opponents := pickOpponents(bots, "self", "blitz", 2000, 4)
	require.Len(t, opponents, 1)
	assert.Equal(t, "a", opponents[0].Id)
}

func TestPickOpponentsShortOnLowerBand(t *testing.T) {
	bots := []lichess.BotInfo{
		blitzBot("low", 1900),
		blitzBot("high1", 2100),
		blitzBot("high2", 2200),
		blitzBot("high3", 2300),
	}

	// only one bot sits at or below us; stronger bots fill the remaining
	// slots up to the requested count
	opponents := pickOpponents(bots, "self", "blitz", 2000, 8)
	require.Len(t, opponents, 4)
	ids := make([]string, 0, len(opponents))
	for _, o := range opponents {
		ids = append(ids, o.Id)
	}
	assert.Contains(t, ids, "low")
	assert.Contains(t, ids, "high1")
	assert.Contains(t, ids, "high3")
}

func TestPerfType(t *testing.T) {
	assert.Equal(t, "bullet", dtos.TimeLimit{LimitSecs: 60, IncrementSecs: 1}.PerfType())
	assert.Equal(t, "blitz", dtos.TimeLimit{LimitSecs: 300, IncrementSecs: 3}.PerfType())
	assert.Equal(t, "rapid", dtos.TimeLimit{LimitSecs: 600, IncrementSecs: 10}.PerfType())
	assert.Equal(t, "classical", dtos.TimeLimit{LimitSecs: 1800, IncrementSecs: 20}.PerfType())
}
