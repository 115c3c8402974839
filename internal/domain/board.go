package domain

import "fmt"

// BoardSize is the side length of the square board.
const BoardSize = 7

// CellCount is the number of cells on the board.
const CellCount = BoardSize * BoardSize

// NeutralOwner is the owner id of cells left behind by an eliminated player.
const NeutralOwner = -1

// Position addresses a board cell.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (p Position) InBounds() bool {
	return p.Row >= 0 && p.Row < BoardSize && p.Col >= 0 && p.Col < BoardSize
}

// Step returns the neighbouring position in direction d. The result may be off-board.
func (p Position) Step(d Direction) Position {
	v := d.Vector()
	return Position{Row: p.Row + v.Row, Col: p.Col + v.Col}
}

// Adjacent reports orthogonal adjacency.
func (p Position) Adjacent(q Position) bool {
	dr, dc := p.Row-q.Row, p.Col-q.Col
	if dr < 0 {
		dr = -dr
	}
	if dc < 0 {
		dc = -dc
	}
	return dr+dc == 1
}

// Less orders positions row-major.
func (p Position) Less(q Position) bool {
	if p.Row != q.Row {
		return p.Row < q.Row
	}
	return p.Col < q.Col
}

// Index is the row-major offset of p, as used by flat board encodings.
func (p Position) Index() int { return p.Row*BoardSize + p.Col }

// PositionAt is the inverse of Index.
func PositionAt(index int) Position {
	return Position{Row: index / BoardSize, Col: index % BoardSize}
}

func (p Position) String() string { return fmt.Sprintf("(%d,%d)", p.Row, p.Col) }

// Neighbors returns the in-bounds orthogonal neighbours of p in clockwise order
// starting north.
func (p Position) Neighbors() []Position {
	out := make([]Position, 0, 4)
	for _, d := range Directions {
		if n := p.Step(d); n.InBounds() {
			out = append(out, n)
		}
	}
	return out
}

// Cell is one board square. A cell with no carpet id is empty.
type Cell struct {
	Owner    int    `json:"owner"`
	CarpetID string `json:"carpet_id,omitempty"`
}

func (c Cell) Empty() bool { return c.CarpetID == "" }

func (c Cell) Neutral() bool { return !c.Empty() && c.Owner == NeutralOwner }

// OwnedBy reports whether the cell holds a carpet of the given player.
func (c Cell) OwnedBy(player int) bool { return !c.Empty() && c.Owner == player }

// Board is a fixed grid of cells. It is a value type: assignment copies it.
type Board [BoardSize][BoardSize]Cell

func (b *Board) At(p Position) Cell { return b[p.Row][p.Col] }

func (b *Board) Set(p Position, c Cell) { b[p.Row][p.Col] = c }

// Neutralize hands every cell of owner to NeutralOwner and returns how many changed.
func (b *Board) Neutralize(owner int) int {
	n := 0
	for r := range b {
		for c := range b[r] {
			if b[r][c].OwnedBy(owner) {
				b[r][c].Owner = NeutralOwner
				n++
			}
		}
	}
	return n
}

// CountOwned returns the number of visible cells of owner.
func (b *Board) CountOwned(owner int) int {
	n := 0
	for r := range b {
		for c := range b[r] {
			if b[r][c].OwnedBy(owner) {
				n++
			}
		}
	}
	return n
}

// CarpetID mints the id of a player's n-th carpet (1-based).
func CarpetID(owner, serial int) string {
	return fmt.Sprintf("p%d_c%02d", owner, serial)
}

// NeutralCarpetID names a neutralized carpet whose original owner is unknown.
func NeutralCarpetID(serial int) string {
	return fmt.Sprintf("neutralized_%d", serial)
}

// Token is the single mobile piece.
type Token struct {
	Position Position  `json:"position"`
	Facing   Direction `json:"facing"`
}

// StartToken is the token at session start: centre cell, facing north.
func StartToken() Token {
	return Token{Position: Position{Row: BoardSize / 2, Col: BoardSize / 2}, Facing: North}
}
