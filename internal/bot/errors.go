package bot

import "errors"

var (
	// ErrRecursionBudget means a session hit its continuation depth
	// ceiling and forfeited the game instead of handing off again.
	ErrRecursionBudget = errors.New("continuation recursion budget exceeded")

	// ErrOpponentStall means no game activity was observed for longer
	// than the configured abort window.
	ErrOpponentStall = errors.New("opponent stalled")

	// ErrIllegalMove means a computed move failed the local legality
	// check. It is never submitted.
	ErrIllegalMove = errors.New("computed move is illegal")

	// ErrMoveRejected means the remote server refused a move we proved
	// legal locally. That breaks a construction invariant and is fatal
	// to the session.
	ErrMoveRejected = errors.New("server rejected submitted move")
)
