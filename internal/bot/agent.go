package bot

import (
	"errors"
	"fmt"

	"marrakech/internal/domain"
)

// ErrNotMyTurn is returned when an agent is asked to act out of turn.
var ErrNotMyTurn = errors.New("bot: not this seat's turn")

// Agent represents an autonomous bot player bound to a seat.
type Agent struct {
	ID       string
	Name     string
	Seat     int
	Strategy Brain
}

// NewAgent creates an agent for seat with the brain for level.
func NewAgent(identity Identity, seat int, level Level, seed uint64) (*Agent, error) {
	brain, err := NewBrain(level, seed)
	if err != nil {
		return nil, err
	}
	return &Agent{ID: identity.ID, Name: identity.Name, Seat: seat, Strategy: brain}, nil
}

// Play asks the agent for its next action. Roll actions carry no dice; the
// authority draws them.
func (a *Agent) Play(state *domain.GameState) (domain.Action, error) {
	if state == nil || state.Over || state.Current != a.Seat {
		return domain.Action{}, ErrNotMyTurn
	}
	action, err := a.Strategy.Decide(state, a.Seat)
	if err != nil {
		return domain.Action{}, fmt.Errorf("bot %s: %w", a.Name, err)
	}
	return action, nil
}
