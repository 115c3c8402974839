package domain

import "fmt"

// ActionKind names a turn action.
type ActionKind string

const (
	ActionOrient             ActionKind = "orient"
	ActionRoll               ActionKind = "roll"
	ActionChooseBorder       ActionKind = "choose_border"
	ActionAcknowledgeTribute ActionKind = "acknowledge_tribute"
	ActionPlace              ActionKind = "place"
)

var actionPhases = map[ActionKind]Phase{
	ActionOrient:             PhaseOrient,
	ActionRoll:               PhaseRoll,
	ActionChooseBorder:       PhaseBorderChoice,
	ActionAcknowledgeTribute: PhaseTribute,
	ActionPlace:              PhasePlace,
}

// Accepts reports whether phase takes actions of kind.
func Accepts(phase Phase, kind ActionKind) bool {
	want, ok := actionPhases[kind]
	return ok && want == phase
}

// Action is one input to the turn machine. Only the fields relevant to Kind
// are read.
type Action struct {
	Kind      ActionKind
	Direction Direction
	Dice      DiceRoll
	Placement Placement
}

func Orient(d Direction) Action { return Action{Kind: ActionOrient, Direction: d} }

func Roll(dice DiceRoll) Action { return Action{Kind: ActionRoll, Dice: dice} }

func ChooseBorder(d Direction) Action { return Action{Kind: ActionChooseBorder, Direction: d} }

func AcknowledgeTribute() Action { return Action{Kind: ActionAcknowledgeTribute} }

func Place(a, b Position) Action {
	return Action{Kind: ActionPlace, Placement: Placement{CellA: a, CellB: b}}
}

// Apply runs one transition. On error the input state is returned untouched;
// on success a new state is returned and the input is left as it was.
func Apply(s *GameState, a Action) (*GameState, error) {
	if s.Over || s.Phase == PhaseGameOver {
		return s, ErrGameOver
	}
	want, ok := actionPhases[a.Kind]
	if !ok {
		return s, fmt.Errorf("%w: %q", ErrUnknownAction, a.Kind)
	}
	if s.Phase != want {
		return s, fmt.Errorf("%w: %s during %s", ErrWrongPhase, a.Kind, s.Phase)
	}

	var (
		next *GameState
		err  error
	)
	switch a.Kind {
	case ActionOrient:
		next, err = orient(s, a.Direction)
	case ActionRoll:
		next, err = roll(s, a.Dice)
	case ActionChooseBorder:
		next, err = chooseBorder(s, a.Direction)
	case ActionAcknowledgeTribute:
		next = acknowledgeTribute(s)
	case ActionPlace:
		next, err = place(s, a.Placement)
	}
	if err != nil {
		return s, err
	}
	return next, nil
}

func orient(s *GameState, d Direction) (*GameState, error) {
	legal := false
	for _, o := range Orientations(s.Token.Facing) {
		if o == d {
			legal = true
		}
	}
	if !d.Valid() || !legal {
		return nil, fmt.Errorf("%w: cannot face %s from %s", ErrIllegalDirection, d, s.Token.Facing)
	}
	next := s.Clone()
	next.Token.Facing = d
	next.Phase = PhaseRoll
	next.record(HistoryOrient, next.Current, "%s turned the token %s", next.CurrentPlayer().Name, d)
	return next, nil
}

func roll(s *GameState, dice DiceRoll) (*GameState, error) {
	if !dice.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrIllegalDice, dice.Value)
	}
	next := s.Clone()
	d := DiceRoll{Value: dice.Value, Faces: append([]int(nil), dice.Faces...)}
	next.LastDice = &d
	next.record(HistoryRoll, next.Current, "%s rolled %d", next.CurrentPlayer().Name, dice.Value)
	next.settleMove(Move(next.Token, dice.Value, d))
	return next, nil
}

func chooseBorder(s *GameState, d Direction) (*GameState, error) {
	if s.Pause == nil {
		return nil, fmt.Errorf("%w: no border pause pending", ErrWrongPhase)
	}
	res, err := ResumeAfterBorder(*s.Pause, d)
	if err != nil {
		return nil, err
	}
	next := s.Clone()
	next.settleMove(res)
	return next, nil
}

// settleMove stores a movement result: either another pause or a landing with
// its tribute.
func (s *GameState) settleMove(res MoveResult) {
	s.Token = res.Token
	s.Path = res.Path
	if !res.Resolved() {
		s.Pause = res.Pause
		s.Phase = PhaseBorderChoice
		return
	}
	s.Pause = nil
	s.Tribute = Tribute(&s.Board, s.Token.Position, s.Current)
	s.Phase = PhaseTribute
	s.record(HistoryMove, s.Current, "token moved to %s", s.Token.Position)
}

func acknowledgeTribute(s *GameState) *GameState {
	next := s.Clone()
	payer := &next.Players[next.Current]
	if t := next.Tribute; t != nil && t.Amount > 0 {
		paid := min(t.Amount, payer.Balance)
		payer.Balance -= paid
		next.Players[t.Payee].Balance += paid
		next.record(HistoryTribute, payer.ID, "%s paid %d dirhams to %s", payer.Name, paid, next.Players[t.Payee].Name)
		if payer.Balance == 0 {
			next.eliminate(payer.ID, HistoryEliminate, "%s ran out of dirhams", payer.Name)
		}
	} else {
		next.record(HistoryTribute, payer.ID, "no tribute owed")
	}
	next.Tribute = nil

	if next.endIfLastStanding() {
		return next
	}
	if next.CurrentPlayer().Eliminated {
		next.advance()
		return next
	}
	next.Candidates = Placements(&next.Board, next.Token.Position, next.Current)
	if len(next.Candidates) == 0 {
		next.advance()
		return next
	}
	next.Phase = PhasePlace
	return next
}

func place(s *GameState, req Placement) (*GameState, error) {
	cand, ok := FindPlacement(s.Candidates, req.CellA, req.CellB)
	if !ok {
		return nil, fmt.Errorf("%w: %s-%s", ErrPlacementNotAllowed, req.CellA, req.CellB)
	}
	next := s.Clone()
	player := &next.Players[next.Current]
	total, _ := CarpetsPerPlayer(len(next.Players))
	id := CarpetID(player.ID, total-player.CarpetsRemaining+1)
	next.Board.Set(cand.CellA, Cell{Owner: player.ID, CarpetID: id})
	next.Board.Set(cand.CellB, Cell{Owner: player.ID, CarpetID: id})
	player.CarpetsRemaining--
	next.Candidates = nil
	next.record(HistoryPlace, player.ID, "%s placed %s on %s-%s", player.Name, id, cand.CellA, cand.CellB)

	for _, p := range next.Players {
		if !p.Eliminated && p.CarpetsRemaining > 0 {
			next.advance()
			return next, nil
		}
	}
	next.finishByScore()
	return next, nil
}

// Forfeit eliminates a player outside the turn flow, as when its seat drops.
// Its carpets turn neutral; if it was the active player the turn passes on.
func Forfeit(s *GameState, id int) (*GameState, error) {
	if s.Over {
		return s, ErrGameOver
	}
	p, ok := s.Player(id)
	if !ok {
		return s, fmt.Errorf("%w: %d", ErrUnknownPlayer, id)
	}
	if p.Eliminated {
		return s, nil
	}
	next := s.Clone()
	next.eliminate(id, HistoryDisconnect, "%s disconnected and was eliminated", p.Name)
	if next.endIfLastStanding() {
		return next, nil
	}
	if next.Current == id {
		next.advance()
	}
	return next, nil
}

func (s *GameState) eliminate(id int, kind HistoryKind, format string, args ...any) {
	s.Players[id].Eliminated = true
	s.Players[id].Balance = 0
	s.Board.Neutralize(id)
	s.record(kind, id, format, args...)
}

// advance hands the turn to the next eligible player after the current one,
// wrapping around. With nobody eligible the game ends on score.
func (s *GameState) advance() {
	n := len(s.Players)
	for i := 1; i <= n; i++ {
		idx := (s.Current + i) % n
		if !s.Players[idx].Eligible() {
			continue
		}
		s.Current = idx
		s.Phase = PhaseOrient
		s.Turn++
		s.LastDice = nil
		s.Path = nil
		s.Tribute = nil
		s.Pause = nil
		s.Candidates = nil
		return
	}
	s.finishByScore()
}

func (s *GameState) endIfLastStanding() bool {
	if s.ActivePlayers() > 1 {
		return false
	}
	var winner *int
	for _, p := range s.Players {
		if !p.Eliminated {
			id := p.ID
			winner = &id
		}
	}
	s.finish(winner)
	return true
}

func (s *GameState) finishByScore() {
	var winner *int
	if id, ok := Winner(FinalScores(&s.Board, s.Players)); ok {
		winner = &id
	}
	s.finish(winner)
}

func (s *GameState) finish(winner *int) {
	s.Phase = PhaseGameOver
	s.Over = true
	s.Winner = winner
	s.Scores = FinalScores(&s.Board, s.Players)
	s.Tribute = nil
	s.Pause = nil
	s.Candidates = nil
	if winner != nil {
		s.record(HistoryGameOver, *winner, "game over, %s wins", s.Players[*winner].Name)
	} else {
		s.record(HistoryGameOver, -1, "game over, no winner")
	}
}
