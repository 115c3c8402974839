package bot

import (
	"marrakech/internal/domain"
)

// Brain is the interface that all bot strategies must implement. Decide is
// only called when seat is the current player.
type Brain interface {
	Decide(state *domain.GameState, seat int) (domain.Action, error)
}
