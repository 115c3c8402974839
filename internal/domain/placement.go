package domain

import "fmt"

// Placement is a two-cell carpet position. Cells are stored in row-major order.
type Placement struct {
	CellA Position `json:"cell_a"`
	CellB Position `json:"cell_b"`
	Owner int      `json:"owner"`
}

// NewPlacement normalizes cell order so equal placements compare equal.
func NewPlacement(a, b Position, owner int) Placement {
	if b.Less(a) {
		a, b = b, a
	}
	return Placement{CellA: a, CellB: b, Owner: owner}
}

// Key identifies the pair regardless of cell order.
func (p Placement) Key() string {
	a, b := p.CellA, p.CellB
	if b.Less(a) {
		a, b = b, a
	}
	return fmt.Sprintf("%d,%d-%d,%d", a.Row, a.Col, b.Row, b.Col)
}

// Placements enumerates the legal carpet positions for owner given the token
// position. Both cells are in bounds, adjacent to each other and off the
// token, and at least one touches the token. A pair that exactly covers one
// existing rival carpet is rejected; partial overlap is allowed.
func Placements(b *Board, token Position, owner int) []Placement {
	var out []Placement
	seen := make(map[string]struct{})
	for _, first := range token.Neighbors() {
		for _, second := range first.Neighbors() {
			if second == token {
				continue
			}
			if coversRivalCarpet(b, first, second, owner) {
				continue
			}
			p := NewPlacement(first, second, owner)
			if _, dup := seen[p.Key()]; dup {
				continue
			}
			seen[p.Key()] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

func coversRivalCarpet(b *Board, x, y Position, owner int) bool {
	cx, cy := b.At(x), b.At(y)
	if cx.Empty() || cy.Empty() {
		return false
	}
	return cx.CarpetID == cy.CarpetID && cx.Owner != owner
}

// FindPlacement looks up the candidate covering cells a and b in either order.
func FindPlacement(candidates []Placement, a, b Position) (Placement, bool) {
	key := NewPlacement(a, b, 0).Key()
	for _, c := range candidates {
		if c.Key() == key {
			return c, true
		}
	}
	return Placement{}, false
}
