package domain

import "marrakech/internal/gameerr"

var (
	ErrWrongPhase          = gameerr.New(gameerr.CodeInvalidAction, "action not accepted in this phase")
	ErrIllegalDirection    = gameerr.New(gameerr.CodeInvalidAction, "illegal direction")
	ErrIllegalDice         = gameerr.New(gameerr.CodeInvalidAction, "dice value out of range")
	ErrPlacementNotAllowed = gameerr.New(gameerr.CodeInvalidAction, "placement is not a legal candidate")
	ErrUnknownAction       = gameerr.New(gameerr.CodeInvalidAction, "unknown action kind")
	ErrGameOver            = gameerr.New(gameerr.CodeInvalidAction, "game is over")
	ErrPlayerCount         = gameerr.New(gameerr.CodeInvalidAction, "a game needs 2 to 4 players")
	ErrUnknownPlayer       = gameerr.New(gameerr.CodeNotFound, "player not found")
)
