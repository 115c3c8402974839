package domain

import "fmt"

// BorderPause is raised when the next step would leave the board. Remaining
// steps include the step that has not been taken yet.
type BorderPause struct {
	Position       Position    `json:"position"`
	Facing         Direction   `json:"facing"`
	RemainingSteps int         `json:"remaining_steps"`
	Choices        []Direction `json:"choices"`
	Path           []Position  `json:"path,omitempty"`
	Dice           DiceRoll    `json:"dice"`
}

// Allows reports whether d is one of the offered choices.
func (p BorderPause) Allows(d Direction) bool {
	for _, c := range p.Choices {
		if c == d {
			return true
		}
	}
	return false
}

// MoveResult is the outcome of moving the token. Pause is nil when the move
// resolved on a landing cell.
type MoveResult struct {
	Token Token
	Path  []Position
	Pause *BorderPause
}

func (r MoveResult) Resolved() bool { return r.Pause == nil }

// BorderChoices returns the perpendicular directions that stay on the board
// when leaving pos along facing. A corner yields a single option.
func BorderChoices(pos Position, facing Direction) []Direction {
	candidates := []Direction{West, East}
	if facing == East || facing == West {
		candidates = []Direction{North, South}
	}
	out := make([]Direction, 0, 2)
	for _, d := range candidates {
		if pos.Step(d).InBounds() {
			out = append(out, d)
		}
	}
	return out
}

// Move advances the token steps cells along its facing, pausing at the edge.
func Move(token Token, steps int, dice DiceRoll) MoveResult {
	return walk(token, steps, dice, []Position{token.Position})
}

// ResumeAfterBorder applies a border choice: one step sideways, facing
// reversed, then the remaining steps.
func ResumeAfterBorder(pause BorderPause, choice Direction) (MoveResult, error) {
	if !pause.Allows(choice) {
		return MoveResult{}, fmt.Errorf("%w: border direction %s not offered", ErrIllegalDirection, choice)
	}
	next := pause.Position.Step(choice)
	path := append(append([]Position(nil), pause.Path...), next)
	token := Token{Position: next, Facing: pause.Facing.Opposite()}
	return walk(token, pause.RemainingSteps-1, pause.Dice, path), nil
}

func walk(token Token, steps int, dice DiceRoll, path []Position) MoveResult {
	for steps > 0 {
		next := token.Position.Step(token.Facing)
		if !next.InBounds() {
			return MoveResult{
				Token: token,
				Path:  path,
				Pause: &BorderPause{
					Position:       token.Position,
					Facing:         token.Facing,
					RemainingSteps: steps,
					Choices:        BorderChoices(token.Position, token.Facing),
					Path:           path,
					Dice:           dice,
				},
			}
		}
		token.Position = next
		path = append(path, next)
		steps--
	}
	return MoveResult{Token: token, Path: path}
}
