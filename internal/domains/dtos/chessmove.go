package dtos

// ComputeMoveRequest is the payload sent to a move-computation unit.
// MovesPlayed is the space-separated UCI move list from the initial
// position, which is enough to reconstruct the game.
type ComputeMoveRequest struct {
	MovesPlayed string      `json:"movesPlayed"`
	ClockMillis ClockMillis `json:"clockMillis"`
}

type ClockMillis struct {
	Remaining int64 `json:"remaining"`
	Increment int64 `json:"increment"`
}

type ComputeMoveResponse struct {
	BestMove      string         `json:"bestMove"`
	SearchDetails *SearchDetails `json:"searchDetails,omitempty"`
}

type SearchDetails struct {
	DepthSearched        int   `json:"depthSearched"`
	SearchDurationMillis int64 `json:"searchDurationMillis"`
	Eval                 int   `json:"eval"`
}
