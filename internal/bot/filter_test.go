package bot

import (
	"testing"

	"github.com/cloudchess/lambot/internal/domains/entities"
	"github.com/stretchr/testify/assert"
)

func testPolicy() ChallengePolicy {
	return ChallengePolicy{
		Variant:          "standard",
		AcceptRated:      true,
		AcceptCasual:     true,
		MinInitialSecs:   60,
		MaxInitialSecs:   600,
		MinIncrementSecs: 0,
		MaxIncrementSecs: 5,
	}
}

func testChallenge() entities.ChallengeRecord {
	return entities.ChallengeRecord{
		ChallengeId:     "ch1",
		OpponentId:      "opponent",
		Variant:         "standard",
		TimeControlType: "clock",
		Rated:           true,
		InitialSecs:     300,
		IncrementSecs:   3,
	}
}

func TestDecideAccepts(t *testing.T) {
	decision := Decide(testChallenge(), testPolicy())
	assert.True(t, decision.Accept)
	assert.Equal(t, DeclineNone, decision.Reason)
}

func TestDecideRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*entities.ChallengeRecord, *ChallengePolicy)
		reason DeclineReason
	}{
		{
			name:   "non standard variant",
			mutate: func(r *entities.ChallengeRecord, _ *ChallengePolicy) { r.Variant = "antichess" },
			reason: DeclineVariant,
		},
		{
			name:   "no clock",
			mutate: func(r *entities.ChallengeRecord, _ *ChallengePolicy) { r.TimeControlType = "correspondence" },
			reason: DeclineNoClock,
		},
		{
			name:   "unlimited",
			mutate: func(r *entities.ChallengeRecord, _ *ChallengePolicy) { r.TimeControlType = "unlimited" },
			reason: DeclineNoClock,
		},
		{
			name: "rated not accepted",
			mutate: func(r *entities.ChallengeRecord, p *ChallengePolicy) {
				r.Rated = true
				p.AcceptRated = false
			},
			reason: DeclineRated,
		},
		{
			name: "casual not accepted",
			mutate: func(r *entities.ChallengeRecord, p *ChallengePolicy) {
				r.Rated = false
				p.AcceptCasual = false
			},
			reason: DeclineCasual,
		},
		{
			name:   "initial below minimum",
			mutate: func(r *entities.ChallengeRecord, _ *ChallengePolicy) { r.InitialSecs = 30 },
			reason: DeclineTimeControl,
		},
		{
			name:   "initial above maximum",
			mutate: func(r *entities.ChallengeRecord, _ *ChallengePolicy) { r.InitialSecs = 1800 },
			reason: DeclineTimeControl,
		},
		{
			name:   "increment above maximum",
			mutate: func(r *entities.ChallengeRecord, _ *ChallengePolicy) { r.IncrementSecs = 30 },
			reason: DeclineTimeControl,
		},
		{
			name: "blocked opponent",
			mutate: func(r *entities.ChallengeRecord, p *ChallengePolicy) {
				p.BlockedOpponents = []string{"opp*"}
			},
			reason: DeclineOpponentBlocked,
		},
		{
			name: "not on allow list",
			mutate: func(r *entities.ChallengeRecord, p *ChallengePolicy) {
				p.AllowedOpponents = []string{"friend1", "friend2"}
			},
			reason: DeclineOpponentNotAllowed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := testChallenge()
			policy := testPolicy()
			tt.mutate(&record, &policy)
			decision := Decide(record, policy)
			assert.False(t, decision.Accept)
			assert.Equal(t, tt.reason, decision.Reason)
		})
	}
}

func TestDecideAllowListMatch(t *testing.T) {
	policy := testPolicy()
	policy.AllowedOpponents = []string{"Opponent"}
	decision := Decide(testChallenge(), policy)
	assert.True(t, decision.Accept, "allow list match is case-insensitive")
}

func TestDecideBoundsIndependentOfAnythingElse(t *testing.T) {
	// out-of-bounds time control is declined even for allow-listed
	// opponents of the preferred kind
	record := testChallenge()
	record.InitialSecs = 10
	policy := testPolicy()
	policy.AllowedOpponents = []string{record.OpponentId}
	decision := Decide(record, policy)
	assert.False(t, decision.Accept)
	assert.Equal(t, DeclineTimeControl, decision.Reason)
}

func TestServerReason(t *testing.T) {
	assert.Equal(t, "variant", DeclineVariant.ServerReason())
	assert.Equal(t, "timeControl", DeclineTimeControl.ServerReason())
	assert.Equal(t, "timeControl", DeclineNoClock.ServerReason())
	assert.Equal(t, "casual", DeclineRated.ServerReason())
	assert.Equal(t, "rated", DeclineCasual.ServerReason())
	assert.Equal(t, "generic", DeclineOpponentBlocked.ServerReason())
}
