package entities

import "time"

// MatchRecord is the archived result of a finished game. Result is the
// final server status, suffixed with the winning color when there is
// one, e.g. "mate:white".
type MatchRecord struct {
	GameId     string
	OpponentId string
	OurColor   string
	Result     string
	Pgn        string
	FinishedAt time.Time
}
