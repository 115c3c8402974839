package domain

import "testing"

func boardWith(cells map[Position]Cell) Board {
	var b Board
	for p, c := range cells {
		b.Set(p, c)
	}
	return b
}

func TestTributeRegion(t *testing.T) {
	b := boardWith(map[Position]Cell{
		{0, 3}: {Owner: 1, CarpetID: "p1_c01"},
		{0, 4}: {Owner: 1, CarpetID: "p1_c01"},
		{1, 4}: {Owner: 1, CarpetID: "p1_c02"},
		{3, 3}: {Owner: 1, CarpetID: "p1_c03"}, // not connected
		{0, 2}: {Owner: 2, CarpetID: "p2_c01"},
		{1, 3}: {Owner: NeutralOwner, CarpetID: "p0_c01"},
	})

	out := Tribute(&b, Position{0, 3}, 0)
	if out == nil {
		t.Fatalf("expected tribute")
	}
	if out.Payee != 1 || out.Payer != 0 || out.Amount != 3 {
		t.Fatalf("tribute = %+v", out)
	}
	if len(out.Region) != out.Amount {
		t.Fatalf("region size %d != amount %d", len(out.Region), out.Amount)
	}
	for _, p := range out.Region {
		if !b.At(p).OwnedBy(1) {
			t.Fatalf("region contains %v not owned by payee", p)
		}
	}
}

func TestTributeNone(t *testing.T) {
	b := boardWith(map[Position]Cell{
		{2, 2}: {Owner: 0, CarpetID: "p0_c01"},
		{2, 3}: {Owner: NeutralOwner, CarpetID: "p1_c01"},
	})
	for _, landing := range []Position{{2, 2}, {2, 3}, {5, 5}} {
		if out := Tribute(&b, landing, 0); out != nil {
			t.Fatalf("landing %v: unexpected tribute %+v", landing, out)
		}
	}
}

func TestPlacementsOnEmptyBoard(t *testing.T) {
	var b Board
	tests := []struct {
		token Position
		want  int
	}{
		{Position{3, 3}, 12},
		{Position{0, 0}, 4},
		{Position{0, 3}, 7},
	}
	for _, tt := range tests {
		got := Placements(&b, tt.token, 0)
		if len(got) != tt.want {
			t.Fatalf("token %v: %d candidates, want %d", tt.token, len(got), tt.want)
		}
		assertPlacementShape(t, got, tt.token)
	}
}

func TestPlacementsRejectFullRivalCover(t *testing.T) {
	b := boardWith(map[Position]Cell{
		{2, 3}: {Owner: 1, CarpetID: "p1_c01"},
		{2, 4}: {Owner: 1, CarpetID: "p1_c01"},
	})
	token := Position{3, 3}

	got := Placements(&b, token, 0)
	if len(got) != 11 {
		t.Fatalf("rival: %d candidates, want 11", len(got))
	}
	if _, ok := FindPlacement(got, Position{2, 4}, Position{2, 3}); ok {
		t.Fatalf("full cover of rival carpet was offered")
	}
	if _, ok := FindPlacement(got, Position{1, 3}, Position{2, 3}); !ok {
		t.Fatalf("partial overlap should be allowed")
	}

	own := Placements(&b, token, 1)
	if len(own) != 12 {
		t.Fatalf("owner: %d candidates, want 12", len(own))
	}
}

func TestPlacementsNeverCoverRivalCarpet(t *testing.T) {
	var b Board
	serial := 1
	for r := 0; r < BoardSize; r++ {
		for c := 0; c+1 < BoardSize; c += 2 {
			id := CarpetID(r%3, serial)
			b.Set(Position{r, c}, Cell{Owner: r % 3, CarpetID: id})
			b.Set(Position{r, c + 1}, Cell{Owner: r % 3, CarpetID: id})
			serial++
		}
	}
	for idx := 0; idx < CellCount; idx++ {
		token := PositionAt(idx)
		for owner := 0; owner < 3; owner++ {
			got := Placements(&b, token, owner)
			assertPlacementShape(t, got, token)
			for _, p := range got {
				a, c := b.At(p.CellA), b.At(p.CellB)
				if !a.Empty() && a.CarpetID == c.CarpetID && a.Owner != owner {
					t.Fatalf("token %v owner %d: candidate %+v covers rival carpet %s", token, owner, p, a.CarpetID)
				}
			}
		}
	}
}

func assertPlacementShape(t *testing.T, got []Placement, token Position) {
	t.Helper()
	seen := map[string]bool{}
	for _, p := range got {
		if !p.CellA.InBounds() || !p.CellB.InBounds() {
			t.Fatalf("out of bounds candidate %+v", p)
		}
		if !p.CellA.Adjacent(p.CellB) {
			t.Fatalf("cells not adjacent: %+v", p)
		}
		if p.CellA == token || p.CellB == token {
			t.Fatalf("candidate covers token: %+v", p)
		}
		if !p.CellA.Adjacent(token) && !p.CellB.Adjacent(token) {
			t.Fatalf("candidate not next to token: %+v", p)
		}
		if seen[p.Key()] {
			t.Fatalf("duplicate candidate %s", p.Key())
		}
		seen[p.Key()] = true
	}
}

func TestFinalScoresOrdering(t *testing.T) {
	b := boardWith(map[Position]Cell{
		{0, 0}: {Owner: 0, CarpetID: "p0_c01"},
		{0, 1}: {Owner: 0, CarpetID: "p0_c01"},
		{0, 2}: {Owner: 0, CarpetID: "p0_c02"},
		{0, 3}: {Owner: 0, CarpetID: "p0_c02"},
		{0, 4}: {Owner: 0, CarpetID: "p0_c03"},
		{1, 0}: {Owner: 1, CarpetID: "p1_c01"},
		{1, 1}: {Owner: 1, CarpetID: "p1_c01"},
		{1, 2}: {Owner: 1, CarpetID: "p1_c02"},
		{2, 0}: {Owner: NeutralOwner, CarpetID: "p2_c01"},
	})
	players := []Player{
		{ID: 0, Name: "a", Balance: 10},
		{ID: 1, Name: "b", Balance: 12},
		{ID: 2, Name: "c", Balance: 0, Eliminated: true},
	}
	scores := FinalScores(&b, players)
	if len(scores) != 2 {
		t.Fatalf("scores = %+v, eliminated player must be excluded", scores)
	}
	if scores[0].PlayerID != 1 || scores[0].Total != 15 || scores[1].Total != 15 {
		t.Fatalf("scores = %+v, want tie broken by balance", scores)
	}
	if w, ok := Winner(scores); !ok || w != 1 {
		t.Fatalf("winner = %d,%v want 1", w, ok)
	}
	if _, ok := Winner(nil); ok {
		t.Fatalf("winner of empty scores")
	}
}

func TestDiceRollsWeightedFaces(t *testing.T) {
	dice := NewDice(42)
	counts := map[int]int{}
	for i := 0; i < 6000; i++ {
		roll := dice.Roll()
		if !roll.Valid() {
			t.Fatalf("invalid roll %d", roll.Value)
		}
		if len(roll.Faces) != revealFrames+1 || roll.Faces[len(roll.Faces)-1] != roll.Value {
			t.Fatalf("faces %v do not end with %d", roll.Faces, roll.Value)
		}
		counts[roll.Value]++
	}
	if counts[2] <= counts[1] || counts[3] <= counts[4] {
		t.Fatalf("distribution not weighted: %v", counts)
	}
}
