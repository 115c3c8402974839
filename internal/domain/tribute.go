package domain

// TributeOutcome is what the mover owes after landing on a rival region.
type TributeOutcome struct {
	Payer  int        `json:"payer"`
	Payee  int        `json:"payee"`
	Amount int        `json:"amount"`
	Region []Position `json:"region"`
}

// Tribute computes the payment for landing on landing. It returns nil when the
// cell is empty, neutral, or the mover's own.
func Tribute(b *Board, landing Position, mover int) *TributeOutcome {
	cell := b.At(landing)
	if cell.Empty() || cell.Neutral() || cell.Owner == mover {
		return nil
	}
	region := ConnectedRegion(b, landing, cell.Owner)
	return &TributeOutcome{
		Payer:  mover,
		Payee:  cell.Owner,
		Amount: len(region),
		Region: region,
	}
}

// ConnectedRegion is the 4-connected set of cells owned by owner that contains
// start, in breadth-first order. Carpet ids are ignored; only ownership counts.
func ConnectedRegion(b *Board, start Position, owner int) []Position {
	if !start.InBounds() || !b.At(start).OwnedBy(owner) {
		return nil
	}
	var visited [BoardSize][BoardSize]bool
	visited[start.Row][start.Col] = true
	queue := []Position{start}
	var region []Position
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		region = append(region, cur)
		for _, n := range cur.Neighbors() {
			if visited[n.Row][n.Col] || !b.At(n).OwnedBy(owner) {
				continue
			}
			visited[n.Row][n.Col] = true
			queue = append(queue, n)
		}
	}
	return region
}
