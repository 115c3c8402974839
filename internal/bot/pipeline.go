package bot

import (
	"marrakech/internal/domain"
)

// SelectionContext holds the placement candidates and their running scores.
type SelectionContext struct {
	State      *domain.GameState
	Seat       int
	Candidates []domain.Placement
	Scores     []float64
	Tuning     Tuning
}

// SelectionRule adds its opinion of each candidate to ctx.Scores.
type SelectionRule interface {
	Name() string
	Apply(ctx *SelectionContext)
}

// DefaultRules is the greedy bot's pipeline.
func DefaultRules() []SelectionRule {
	return []SelectionRule{&CoverRivalRule{}, &ExtendRegionRule{}, &KeepOwnRule{}, &ClaimFloorRule{}}
}

// CoverRivalRule prefers carpets laid over rival cells.
type CoverRivalRule struct{}

func (r *CoverRivalRule) Name() string { return "CoverRival" }

func (r *CoverRivalRule) Apply(ctx *SelectionContext) {
	for i, c := range ctx.Candidates {
		for _, p := range [2]domain.Position{c.CellA, c.CellB} {
			cell := ctx.State.Board.At(p)
			if !cell.Empty() && !cell.Neutral() && cell.Owner != ctx.Seat {
				ctx.Scores[i] += ctx.Tuning.CoverRival
			}
		}
	}
}

// ExtendRegionRule prefers carpets that touch the seat's existing cells.
type ExtendRegionRule struct{}

func (r *ExtendRegionRule) Name() string { return "ExtendRegion" }

func (r *ExtendRegionRule) Apply(ctx *SelectionContext) {
	for i, c := range ctx.Candidates {
		touching := 0
		for _, p := range [2]domain.Position{c.CellA, c.CellB} {
			for _, n := range p.Neighbors() {
				if n == c.CellA || n == c.CellB {
					continue
				}
				if ctx.State.Board.At(n).OwnedBy(ctx.Seat) {
					touching++
				}
			}
		}
		ctx.Scores[i] += float64(touching) * ctx.Tuning.ExtendRegion
	}
}

// KeepOwnRule discourages covering the seat's own visible cells.
type KeepOwnRule struct{}

func (r *KeepOwnRule) Name() string { return "KeepOwn" }

func (r *KeepOwnRule) Apply(ctx *SelectionContext) {
	for i, c := range ctx.Candidates {
		for _, p := range [2]domain.Position{c.CellA, c.CellB} {
			if ctx.State.Board.At(p).OwnedBy(ctx.Seat) {
				ctx.Scores[i] += ctx.Tuning.CoverOwn
			}
		}
	}
}

// ClaimFloorRule gives a small bonus for empty cells.
type ClaimFloorRule struct{}

func (r *ClaimFloorRule) Name() string { return "ClaimFloor" }

func (r *ClaimFloorRule) Apply(ctx *SelectionContext) {
	for i, c := range ctx.Candidates {
		for _, p := range [2]domain.Position{c.CellA, c.CellB} {
			if ctx.State.Board.At(p).Empty() {
				ctx.Scores[i] += ctx.Tuning.EmptyCell
			}
		}
	}
}

// best returns the highest scoring candidate; ties keep enumeration order.
func (ctx *SelectionContext) best() domain.Placement {
	idx := 0
	for i, s := range ctx.Scores {
		if s > ctx.Scores[idx] {
			idx = i
		}
	}
	return ctx.Candidates[idx]
}
