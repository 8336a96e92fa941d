package lichess

import "github.com/cloudchess/lambot/internal/domains/entities"

// Event is one line of the account-level NDJSON event feed.
type Event struct {
	Type      string     `json:"type"`
	Challenge *Challenge `json:"challenge,omitempty"`
	Game      *GameInfo  `json:"game,omitempty"`
}

type Challenge struct {
	Id          string      `json:"id"`
	Challenger  User        `json:"challenger"`
	DestUser    User        `json:"destUser"`
	Variant     Variant     `json:"variant"`
	Rated       bool        `json:"rated"`
	Speed       string      `json:"speed"`
	TimeControl TimeControl `json:"timeControl"`
}

type User struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

type Variant struct {
	Key string `json:"key"`
}

type TimeControl struct {
	Type      string `json:"type"`
	Limit     int    `json:"limit"`
	Increment int    `json:"increment"`
}

type GameInfo struct {
	GameId string `json:"gameId"`
	FullId string `json:"fullId"`
	Color  string `json:"color"`
}

// Record flattens the wire challenge into the admission-decision shape.
func (c Challenge) Record() entities.ChallengeRecord {
	return entities.ChallengeRecord{
		ChallengeId:     c.Id,
		OpponentId:      c.Challenger.Id,
		Variant:         c.Variant.Key,
		TimeControlType: c.TimeControl.Type,
		Rated:           c.Rated,
		InitialSecs:     c.TimeControl.Limit,
		IncrementSecs:   c.TimeControl.Increment,
	}
}

// GameEvent is one line of a per-game NDJSON stream. The first line is
// "gameFull" carrying the player info and an embedded initial state;
// subsequent "gameState" lines carry the progress fields directly.
type GameEvent struct {
	Type  string        `json:"type"`
	Id    string        `json:"id"`
	White User          `json:"white"`
	Black User          `json:"black"`
	State *GameProgress `json:"state,omitempty"`
	GameProgress
}

type GameProgress struct {
	Moves  string `json:"moves"`
	Wtime  int64  `json:"wtime"`
	Btime  int64  `json:"btime"`
	Winc   int64  `json:"winc"`
	Binc   int64  `json:"binc"`
	Status string `json:"status"`
	Winner string `json:"winner"`
}

// Terminal reports whether the status marks the end of the game.
func (p GameProgress) Terminal() bool {
	switch p.Status {
	case "", "created", "started":
		return false
	default:
		return true
	}
}

type UserStatus struct {
	Id     string `json:"id"`
	Online bool   `json:"online"`
}

type BotInfo struct {
	Id       string          `json:"id"`
	Username string          `json:"username"`
	Perfs    map[string]Perf `json:"perfs"`
}

type Perf struct {
	Rating      int  `json:"rating"`
	Provisional bool `json:"prov"`
}

func (b BotInfo) RatingFor(perf string) (int, bool) {
	p, ok := b.Perfs[perf]
	return p.Rating, ok
}
