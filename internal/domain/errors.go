package domain

import "errors"

// Domain errors
var (
	ErrLobbyNotFound       = errors.New("lobby not found")
	ErrLobbyFull           = errors.New("lobby is full")
	ErrGameInProgress      = errors.New("game already started")
	ErrNotHost             = errors.New("only the host can start the game")
	ErrInsufficientPlayers = errors.New("need at least 2 players")
	ErrInvalidVote         = errors.New("invalid vote target")
	ErrWrongPhase          = errors.New("invalid action for current phase")
	ErrAlreadySubmitted    = errors.New("already submitted a clue this round")
	ErrPlayerNotFound      = errors.New("player not found")
	ErrInvalidTransition   = errors.New("invalid phase transition")
)
