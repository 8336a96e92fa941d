package bot

import (
	"path"
	"strings"

	"github.com/cloudchess/lambot/internal/domains/entities"
)

type DeclineReason uint8

const (
	DeclineNone DeclineReason = iota
	DeclineVariant
	DeclineNoClock
	DeclineRated
	DeclineCasual
	DeclineTimeControl
	DeclineOpponentBlocked
	DeclineOpponentNotAllowed
)

func (r DeclineReason) String() string {
	switch r {
	case DeclineNone:
		return "NONE"
	case DeclineVariant:
		return "VARIANT"
	case DeclineNoClock:
		return "NO_CLOCK"
	case DeclineRated:
		return "RATED"
	case DeclineCasual:
		return "CASUAL"
	case DeclineTimeControl:
		return "TIME_CONTROL"
	case DeclineOpponentBlocked:
		return "OPPONENT_BLOCKED"
	case DeclineOpponentNotAllowed:
		return "OPPONENT_NOT_ALLOWED"
	default:
		return "UNKNOWN"
	}
}

// ServerReason maps the decision onto the remote server's decline keys.
func (r DeclineReason) ServerReason() string {
	switch r {
	case DeclineVariant:
		return "variant"
	case DeclineNoClock, DeclineTimeControl:
		return "timeControl"
	case DeclineRated:
		return "casual"
	case DeclineCasual:
		return "rated"
	default:
		return "generic"
	}
}

type Decision struct {
	Accept bool
	Reason DeclineReason
}

// ChallengePolicy is the static admission configuration. Opponent
// patterns are shell-style globs matched case-insensitively; an empty
// allow list admits everyone not blocked.
type ChallengePolicy struct {
	Variant          string
	AcceptRated      bool
	AcceptCasual     bool
	MinInitialSecs   int
	MaxInitialSecs   int
	MinIncrementSecs int
	MaxIncrementSecs int
	AllowedOpponents []string
	BlockedOpponents []string
}

// Decide is the pure admission function. The rate limiter is consulted
// separately, after a positive decision, so parameter rejections hold
// regardless of counter state.
func Decide(record entities.ChallengeRecord, policy ChallengePolicy) Decision {
	if !strings.EqualFold(record.Variant, policy.Variant) {
		return Decision{Reason: DeclineVariant}
	}
	if record.TimeControlType != "clock" {
		return Decision{Reason: DeclineNoClock}
	}
	if record.Rated && !policy.AcceptRated {
		return Decision{Reason: DeclineRated}
	}
	if !record.Rated && !policy.AcceptCasual {
		return Decision{Reason: DeclineCasual}
	}
	if record.InitialSecs < policy.MinInitialSecs || record.InitialSecs > policy.MaxInitialSecs {
		return Decision{Reason: DeclineTimeControl}
	}
	if record.IncrementSecs < policy.MinIncrementSecs || record.IncrementSecs > policy.MaxIncrementSecs {
		return Decision{Reason: DeclineTimeControl}
	}
	if matchAny(policy.BlockedOpponents, record.OpponentId) {
		return Decision{Reason: DeclineOpponentBlocked}
	}
	if len(policy.AllowedOpponents) > 0 && !matchAny(policy.AllowedOpponents, record.OpponentId) {
		return Decision{Reason: DeclineOpponentNotAllowed}
	}
	return Decision{Accept: true}
}

func matchAny(patterns []string, id string) bool {
	id = strings.ToLower(id)
	for _, pattern := range patterns {
		matched, err := path.Match(strings.ToLower(pattern), id)
		if err != nil {
			// malformed pattern, fall back to an exact comparison
			matched = strings.ToLower(pattern) == id
		}
		if matched {
			return true
		}
	}
	return false
}
