package entities

// ChallengeRecord is the transient description of an incoming challenge.
// It lives for exactly one admission decision and is never persisted.
type ChallengeRecord struct {
	ChallengeId     string
	OpponentId      string
	Variant         string
	TimeControlType string
	Rated           bool
	InitialSecs     int
	IncrementSecs   int
}
