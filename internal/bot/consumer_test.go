package bot

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/cloudchess/lambot/internal/lichess"
	"github.com/cloudchess/lambot/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStreamClient serves one scripted event batch per connection;
// every connection ends with a clean disconnect.
type fakeStreamClient struct {
	mu          sync.Mutex
	connections [][]lichess.Event
	connects    int
	accepted    []string
	declined    map[string]string
}

func newFakeStreamClient(connections ...[]lichess.Event) *fakeStreamClient {
	return &fakeStreamClient{
		connections: connections,
		declined:    make(map[string]string),
	}
}

func (f *fakeStreamClient) StreamEvents(context.Context) (<-chan lichess.Event, <-chan error) {
	f.mu.Lock()
	var script []lichess.Event
	if f.connects < len(f.connections) {
		script = f.connections[f.connects]
	}
	f.connects++
	f.mu.Unlock()

	events := make(chan lichess.Event, len(script))
	for _, ev := range script {
		events <- ev
	}
	close(events)
	errc := make(chan error, 1)
	errc <- io.EOF
	return events, errc
}

func (f *fakeStreamClient) AcceptChallenge(_ context.Context, challengeId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accepted = append(f.accepted, challengeId)
	return nil
}

func (f *fakeStreamClient) DeclineChallenge(_ context.Context, challengeId, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.declined[challengeId] = reason
	return nil
}

func (f *fakeStreamClient) UserStatus(context.Context, ...string) ([]lichess.UserStatus, error) {
	return []lichess.UserStatus{{Id: "bot", Online: true}}, nil
}

type fakeLimiter struct {
	mu       sync.Mutex
	err      error
	reserved []string
	bypassed []bool
}

func (l *fakeLimiter) TryReserve(_ context.Context, _, userId string, bypassUser bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.reserved = append(l.reserved, userId)
	l.bypassed = append(l.bypassed, bypassUser)
	return nil
}

func testConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		BotId:         "bot",
		RetryWait:     5 * time.Millisecond,
		StatusPollGap: 0,
		MaxStreamLife: 150 * time.Millisecond,
		Policy:        testPolicy(),
	}
}

func challengeEvent(challengeId, opponentId string) lichess.Event {
	return lichess.Event{
		Type: "challenge",
		Challenge: &lichess.Challenge{
			Id:         challengeId,
			Challenger: lichess.User{Id: opponentId},
			Variant:    lichess.Variant{Key: "standard"},
			Rated:      true,
			TimeControl: lichess.TimeControl{
				Type:      "clock",
				Limit:     300,
				Increment: 3,
			},
		},
	}
}

func gameStartEvent(gameId string) lichess.Event {
	return lichess.Event{Type: "gameStart", Game: &lichess.GameInfo{GameId: gameId}}
}

func TestConsumerAcceptsAndDispatches(t *testing.T) {
	client := newFakeStreamClient([]lichess.Event{
		challengeEvent("ch1", "opponent"),
		gameStartEvent("g1"),
	})
	limiter := &fakeLimiter{}
	dispatcher := &fakeDispatcher{}

	consumer := NewConsumer(client, limiter, dispatcher, testConsumerConfig())
	require.NoError(t, consumer.Run(context.Background()))

	assert.Equal(t, []string{"ch1"}, client.accepted)
	assert.Empty(t, client.declined)
	assert.Equal(t, []string{"opponent"}, limiter.reserved)
	require.Len(t, dispatcher.tokens, 1)
	assert.Equal(t, "g1", dispatcher.tokens[0].GameId)
	assert.Equal(t, 0, dispatcher.tokens[0].Depth)
	assert.NotEmpty(t, dispatcher.tokens[0].CorrelationId)
}

func TestConsumerDeduplicatesGameStart(t *testing.T) {
	client := newFakeStreamClient([]lichess.Event{
		gameStartEvent("g1"),
		gameStartEvent("g1"),
	})
	dispatcher := &fakeDispatcher{}

	consumer := NewConsumer(client, &fakeLimiter{}, dispatcher, testConsumerConfig())
	require.NoError(t, consumer.Run(context.Background()))

	assert.Len(t, dispatcher.tokens, 1, "the feed is at-least-once, supervision is once")
}

func TestConsumerDeclinesFilteredChallenge(t *testing.T) {
	ev := challengeEvent("ch1", "opponent")
	ev.Challenge.Variant.Key = "antichess"
	client := newFakeStreamClient([]lichess.Event{ev})
	limiter := &fakeLimiter{}

	consumer := NewConsumer(client, limiter, &fakeDispatcher{}, testConsumerConfig())
	require.NoError(t, consumer.Run(context.Background()))

	assert.Empty(t, client.accepted)
	assert.Equal(t, "variant", client.declined["ch1"])
	assert.Empty(t, limiter.reserved, "filtered challenges never consume a slot")
}

func TestConsumerDeclinesWhenRateLimited(t *testing.T) {
	client := newFakeStreamClient([]lichess.Event{challengeEvent("ch1", "opponent")})
	limiter := &fakeLimiter{err: ratelimit.ErrLimitExceeded}

	consumer := NewConsumer(client, limiter, &fakeDispatcher{}, testConsumerConfig())
	require.NoError(t, consumer.Run(context.Background()))

	assert.Empty(t, client.accepted)
	assert.Equal(t, "later", client.declined["ch1"])
}

func TestConsumerFailsClosedOnLimiterError(t *testing.T) {
	client := newFakeStreamClient([]lichess.Event{challengeEvent("ch1", "opponent")})
	limiter := &fakeLimiter{err: errors.New("table unavailable")}

	consumer := NewConsumer(client, limiter, &fakeDispatcher{}, testConsumerConfig())
	require.NoError(t, consumer.Run(context.Background()))

	assert.Empty(t, client.accepted, "an unverifiable reservation is treated as denied")
	assert.Equal(t, "later", client.declined["ch1"])
}

func TestConsumerSkipsOwnOutgoingChallenge(t *testing.T) {
	client := newFakeStreamClient([]lichess.Event{challengeEvent("ch1", "Bot")})
	limiter := &fakeLimiter{}

	consumer := NewConsumer(client, limiter, &fakeDispatcher{}, testConsumerConfig())
	require.NoError(t, consumer.Run(context.Background()))

	assert.Empty(t, client.accepted)
	assert.Empty(t, client.declined)
	assert.Empty(t, limiter.reserved)
}

func TestConsumerBypassUserSkipsUserCeiling(t *testing.T) {
	client := newFakeStreamClient([]lichess.Event{challengeEvent("ch1", "trusted-bot")})
	limiter := &fakeLimiter{}
	cfg := testConsumerConfig()
	cfg.BypassUsers = []string{"trusted-*"}

	consumer := NewConsumer(client, limiter, &fakeDispatcher{}, cfg)
	require.NoError(t, consumer.Run(context.Background()))

	require.Equal(t, []string{"trusted-bot"}, limiter.reserved)
	assert.Equal(t, []bool{true}, limiter.bypassed)
	assert.Equal(t, []string{"ch1"}, client.accepted)
}

func TestConsumerReconnectsUntilLifetime(t *testing.T) {
	client := newFakeStreamClient()

	started := time.Now()
	consumer := NewConsumer(client, &fakeLimiter{}, &fakeDispatcher{}, testConsumerConfig())
	require.NoError(t, consumer.Run(context.Background()))

	assert.GreaterOrEqual(t, time.Since(started), 150*time.Millisecond)
	client.mu.Lock()
	defer client.mu.Unlock()
	assert.Greater(t, client.connects, 1, "disconnects inside the lifetime are retried")
}

func TestConsumerStopsOnCancel(t *testing.T) {
	client := newFakeStreamClient()
	cfg := testConsumerConfig()
	cfg.MaxStreamLife = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	consumer := NewConsumer(client, &fakeLimiter{}, &fakeDispatcher{}, cfg)
	assert.ErrorIs(t, consumer.Run(ctx), context.Canceled)
}
