package dtos

// ChallengeBatchEvent drives the scheduled outgoing-challenge job.
// Exactly one of Specific or Random is expected to be set.
type ChallengeBatchEvent struct {
	Specific []KnownUserChallenge `json:"specific,omitempty"`
	Random   *RandomChallenge     `json:"random,omitempty"`
}

type KnownUserChallenge struct {
	UserId    string    `json:"userId"`
	Rated     bool      `json:"rated"`
	TimeLimit TimeLimit `json:"timeLimit"`
	Repeat    int       `json:"repeat"`
}

type RandomChallenge struct {
	TimeLimitOptions []TimeLimit `json:"timeLimitOptions"`
	ChallengeCount   int         `json:"challengeCount"`
	Rated            bool        `json:"rated"`
}

type TimeLimit struct {
	LimitSecs     int `json:"limitSecs"`
	IncrementSecs int `json:"incrementSecs"`
}

// PerfType maps a time limit onto the remote server's rating category
// using the estimated game duration limit + 40*increment.
func (t TimeLimit) PerfType() string {
	estimated := t.LimitSecs + 40*t.IncrementSecs
	switch {
	case estimated < 30:
		return "ultraBullet"
	case estimated < 180:
		return "bullet"
	case estimated < 480:
		return "blitz"
	case estimated < 1500:
		return "rapid"
	default:
		return "classical"
	}
}
