package ledger

import (
	"fmt"

	"marrakech/internal/domain"
	"marrakech/internal/gameerr"
)

func inconsistent(format string, args ...any) error {
	return gameerr.New(gameerr.CodeTransientDecodeInconsistency, fmt.Sprintf(format, args...))
}

// Decode rebuilds the canonical state from a snapshot. Candidates, border
// choices, tribute regions and final scores are recomputed from the board;
// only the raw columns are taken from the source. A snapshot that does not
// hang together yields a transient decode error.
func Decode(s *Snapshot) (*domain.GameState, error) {
	if s == nil {
		return nil, inconsistent("no snapshot")
	}
	n := s.NumPlayers
	if n < domain.MinPlayers || n > domain.MaxPlayers {
		return nil, inconsistent("player count %d out of range", n)
	}
	if s.JoinedCount < 0 || s.JoinedCount > n {
		return nil, inconsistent("joined count %d exceeds %d players", s.JoinedCount, n)
	}
	if len(s.BoardOwners) < domain.CellCount || len(s.BoardSerials) < domain.CellCount {
		return nil, inconsistent("board arrays too short: %d owners, %d serials", len(s.BoardOwners), len(s.BoardSerials))
	}
	pa := s.Players
	if len(pa.Wallets) < n || len(pa.Balances) < n || len(pa.Carpets) < n || len(pa.Eliminated) < n || len(pa.Joined) < n {
		return nil, inconsistent("player arrays shorter than %d", n)
	}
	phase, ok := PhaseOf(s.Phase)
	if !ok {
		return nil, inconsistent("unknown phase code %d", s.Phase)
	}
	facing, ok := DirectionOf(s.TokenDir)
	if !ok {
		return nil, inconsistent("unknown direction code %d", s.TokenDir)
	}
	token := domain.Token{Position: domain.Position{Row: s.TokenRow, Col: s.TokenCol}, Facing: facing}
	if !token.Position.InBounds() {
		return nil, inconsistent("token off board at %s", token.Position)
	}

	board, err := decodeBoard(s.BoardOwners, s.BoardSerials, n)
	if err != nil {
		return nil, err
	}
	players, err := decodePlayers(pa, n)
	if err != nil {
		return nil, err
	}

	state := &domain.GameState{
		Board:   board,
		Token:   token,
		Players: players,
		Phase:   phase,
		Turn:    1,
	}
	if phase == domain.PhaseWaitingForPlayers {
		return state, nil
	}

	if s.CurrentPlayer < 0 || s.CurrentPlayer >= n {
		return nil, inconsistent("current player %d out of range", s.CurrentPlayer)
	}
	state.Current = s.CurrentPlayer
	state.Turn = s.Turn
	if s.LastDice > 0 {
		roll := domain.FixedRoll(s.LastDice)
		if !roll.Valid() {
			return nil, inconsistent("dice value %d out of range", s.LastDice)
		}
		state.LastDice = &roll
	}

	switch phase {
	case domain.PhaseTribute:
		t := s.Tribute
		if t.Amount > 0 && t.From != t.To {
			if t.From < 0 || t.From >= n || t.To < 0 || t.To >= n {
				return nil, inconsistent("tribute between unknown seats %d and %d", t.From, t.To)
			}
			state.Tribute = &domain.TributeOutcome{
				Payer:  t.From,
				Payee:  t.To,
				Amount: t.Amount,
				Region: domain.ConnectedRegion(&state.Board, token.Position, t.To),
			}
		}
	case domain.PhaseBorderChoice:
		pause, err := decodeBorder(s.Border, state.LastDice)
		if err != nil {
			return nil, err
		}
		state.Pause = pause
	case domain.PhasePlace:
		state.Candidates = domain.Placements(&state.Board, token.Position, state.Current)
	case domain.PhaseGameOver:
		state.Over = true
		state.Scores = domain.FinalScores(&state.Board, state.Players)
		if w, ok := domain.Winner(state.Scores); ok {
			state.Winner = &w
		}
	}
	return state, nil
}

func decodeBoard(owners, serials []int, players int) (domain.Board, error) {
	var b domain.Board
	for i := 0; i < domain.CellCount; i++ {
		pos := domain.PositionAt(i)
		owner, serial := owners[i], serials[i]
		switch {
		case owner == OwnerEmpty:
		case owner == OwnerNeutral:
			b.Set(pos, domain.Cell{Owner: domain.NeutralOwner, CarpetID: domain.NeutralCarpetID(serial)})
		case owner >= 0 && owner < players:
			b.Set(pos, domain.Cell{Owner: owner, CarpetID: domain.CarpetID(owner, serial)})
		default:
			return b, inconsistent("cell %s has unknown owner code %d", pos, owner)
		}
	}
	return b, nil
}

func decodePlayers(pa PlayerArrays, n int) ([]domain.Player, error) {
	players := make([]domain.Player, n)
	for i := range players {
		if pa.Balances[i] < 0 || pa.Carpets[i] < 0 {
			return nil, inconsistent("seat %d has negative balance or carpets", i)
		}
		name := fmt.Sprintf("Player %d", i+1)
		if pa.Joined[i] {
			name = shortIdentity(pa.Wallets[i])
		}
		players[i] = domain.Player{
			ID:               i,
			Name:             name,
			Balance:          pa.Balances[i],
			CarpetsRemaining: pa.Carpets[i],
			Eliminated:       pa.Eliminated[i],
		}
	}
	return players, nil
}

func decodeBorder(v BorderView, dice *domain.DiceRoll) (*domain.BorderPause, error) {
	exit, ok := DirectionOf(v.ExitDirection)
	if !ok {
		return nil, inconsistent("unknown exit direction code %d", v.ExitDirection)
	}
	pos := domain.Position{Row: v.Row, Col: v.Col}
	if !pos.InBounds() {
		return nil, inconsistent("border pause off board at %s", pos)
	}
	pause := &domain.BorderPause{
		Position:       pos,
		Facing:         exit,
		RemainingSteps: v.RemainingSteps,
		Choices:        domain.BorderChoices(pos, exit),
	}
	if dice != nil {
		pause.Dice = *dice
	}
	return pause, nil
}

// shortIdentity abbreviates a long account identity for display.
func shortIdentity(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:6] + "..." + id[len(id)-4:]
}
