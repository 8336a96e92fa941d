package entities

// RateLimitCounter is one (date, scope) challenge-acceptance counter.
// ScopeKey is either "global" or an opponent user id. Rollover happens
// implicitly when the date key changes.
type RateLimitCounter struct {
	DateKey  string `dynamodbav:"DateKey"`
	ScopeKey string `dynamodbav:"ScopeKey"`
	Cnt      int    `dynamodbav:"Cnt"`
}
