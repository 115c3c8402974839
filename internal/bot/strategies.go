package bot

import (
	"errors"
	"fmt"

	"golang.org/x/exp/rand"

	"marrakech/internal/domain"
)

var errNoCandidates = errors.New("no placement candidates")

// RandomBot picks uniformly among legal choices.
type RandomBot struct {
	rng *rand.Rand
}

func (b *RandomBot) Decide(state *domain.GameState, seat int) (domain.Action, error) {
	switch state.Phase {
	case domain.PhaseOrient:
		options := domain.Orientations(state.Token.Facing)
		return domain.Orient(options[b.rng.Intn(len(options))]), nil
	case domain.PhaseBorderChoice:
		if state.Pause == nil || len(state.Pause.Choices) == 0 {
			return domain.Action{}, errors.New("border choice without a pause")
		}
		return domain.ChooseBorder(state.Pause.Choices[b.rng.Intn(len(state.Pause.Choices))]), nil
	case domain.PhasePlace:
		if len(state.Candidates) == 0 {
			return domain.Action{}, errNoCandidates
		}
		c := state.Candidates[b.rng.Intn(len(state.Candidates))]
		return domain.Place(c.CellA, c.CellB), nil
	}
	return passive(state)
}

// GreedyBot avoids expected tribute when turning and scores placements
// through a rule pipeline.
type GreedyBot struct {
	Tuning Tuning
	Rules  []SelectionRule
}

func (b *GreedyBot) Decide(state *domain.GameState, seat int) (domain.Action, error) {
	switch state.Phase {
	case domain.PhaseOrient:
		return domain.Orient(b.safestFacing(state, seat)), nil
	case domain.PhaseBorderChoice:
		if state.Pause == nil || len(state.Pause.Choices) == 0 {
			return domain.Action{}, errors.New("border choice without a pause")
		}
		best, bestCost := state.Pause.Choices[0], -1.0
		for _, d := range state.Pause.Choices {
			res, err := domain.ResumeAfterBorder(*state.Pause, d)
			if err != nil {
				continue
			}
			cost := landingCost(&state.Board, res, seat)
			if bestCost < 0 || cost < bestCost {
				best, bestCost = d, cost
			}
		}
		return domain.ChooseBorder(best), nil
	case domain.PhasePlace:
		if len(state.Candidates) == 0 {
			return domain.Action{}, errNoCandidates
		}
		ctx := &SelectionContext{
			State:      state,
			Seat:       seat,
			Candidates: state.Candidates,
			Scores:     make([]float64, len(state.Candidates)),
			Tuning:     b.Tuning,
		}
		for _, rule := range b.Rules {
			rule.Apply(ctx)
		}
		c := ctx.best()
		return domain.Place(c.CellA, c.CellB), nil
	}
	return passive(state)
}

// safestFacing minimises the expected tribute over the weighted die.
func (b *GreedyBot) safestFacing(state *domain.GameState, seat int) domain.Direction {
	options := domain.Orientations(state.Token.Facing)
	best, bestCost := options[0], -1.0
	for _, facing := range options {
		token := domain.Token{Position: state.Token.Position, Facing: facing}
		var total float64
		for _, face := range domain.DiceFaces {
			res := domain.Move(token, face, domain.FixedRoll(face))
			total += cheapestLanding(&state.Board, res, seat)
		}
		cost := total / float64(len(domain.DiceFaces)) * b.Tuning.TributeRisk
		if bestCost < 0 || cost < bestCost {
			best, bestCost = facing, cost
		}
	}
	return best
}

// cheapestLanding assumes the seat picks the better side at a border.
func cheapestLanding(b *domain.Board, res domain.MoveResult, seat int) float64 {
	if res.Resolved() {
		return landingCost(b, res, seat)
	}
	cheapest := -1.0
	for _, d := range res.Pause.Choices {
		next, err := domain.ResumeAfterBorder(*res.Pause, d)
		if err != nil {
			continue
		}
		cost := cheapestLanding(b, next, seat)
		if cheapest < 0 || cost < cheapest {
			cheapest = cost
		}
	}
	if cheapest < 0 {
		return 0
	}
	return cheapest
}

func landingCost(b *domain.Board, res domain.MoveResult, seat int) float64 {
	if !res.Resolved() {
		return 0
	}
	if t := domain.Tribute(b, res.Token.Position, seat); t != nil {
		return float64(t.Amount)
	}
	return 0
}

// passive covers the phases that offer exactly one move.
func passive(state *domain.GameState) (domain.Action, error) {
	switch state.Phase {
	case domain.PhaseRoll:
		return domain.Roll(domain.DiceRoll{}), nil
	case domain.PhaseTribute:
		return domain.AcknowledgeTribute(), nil
	}
	return domain.Action{}, fmt.Errorf("no move in phase %s", state.Phase)
}
