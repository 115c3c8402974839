package domain

import "fmt"

// Phase is the step of the turn machine the session is waiting on.
type Phase string

const (
	PhaseWaitingForPlayers Phase = "waiting_for_players"
	PhaseOrient            Phase = "orient"
	PhaseRoll              Phase = "roll"
	PhaseCommitDice        Phase = "commit_dice"
	PhaseRevealDice        Phase = "reveal_dice"
	PhaseBorderChoice      Phase = "border_choice"
	PhaseTribute           Phase = "tribute"
	PhasePlace             Phase = "place"
	PhaseGameOver          Phase = "game_over"
)

func (p Phase) Valid() bool {
	switch p {
	case PhaseWaitingForPlayers, PhaseOrient, PhaseRoll, PhaseCommitDice, PhaseRevealDice,
		PhaseBorderChoice, PhaseTribute, PhasePlace, PhaseGameOver:
		return true
	}
	return false
}

const (
	MinPlayers = 2
	MaxPlayers = 4

	// StartingBalance is each player's dirhams at session start.
	StartingBalance = 30
)

var carpetAllotment = map[int]int{2: 24, 3: 15, 4: 12}

// CarpetsPerPlayer is the fixed allotment for a session of n players.
func CarpetsPerPlayer(n int) (int, bool) {
	c, ok := carpetAllotment[n]
	return c, ok
}

// Player is one participant. ID equals the player's index in GameState.Players.
type Player struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	Balance          int    `json:"balance"`
	CarpetsRemaining int    `json:"carpets_remaining"`
	Eliminated       bool   `json:"eliminated"`
}

// Eligible reports whether the player can still take a turn.
func (p Player) Eligible() bool {
	return !p.Eliminated && p.CarpetsRemaining > 0
}

// HistoryKind tags an entry of the action history.
type HistoryKind string

const (
	HistoryOrient     HistoryKind = "orient"
	HistoryRoll       HistoryKind = "roll"
	HistoryMove       HistoryKind = "move"
	HistoryTribute    HistoryKind = "tribute"
	HistoryEliminate  HistoryKind = "eliminate"
	HistoryPlace      HistoryKind = "place"
	HistoryDisconnect HistoryKind = "disconnect"
	HistoryGameOver   HistoryKind = "game_over"
)

type HistoryEntry struct {
	Kind        HistoryKind `json:"kind"`
	Player      int         `json:"player"`
	Turn        int         `json:"turn"`
	Description string      `json:"description"`
}

// GameState is the session aggregate. Values handed out by Apply are never
// mutated afterwards; every transition works on a Clone.
type GameState struct {
	Board      Board           `json:"board"`
	Token      Token           `json:"token"`
	Players    []Player        `json:"players"`
	Current    int             `json:"current"`
	Phase      Phase           `json:"phase"`
	Turn       int             `json:"turn"`
	LastDice   *DiceRoll       `json:"last_dice,omitempty"`
	Path       []Position      `json:"path,omitempty"`
	Tribute    *TributeOutcome `json:"tribute,omitempty"`
	Candidates []Placement     `json:"candidates,omitempty"`
	Pause      *BorderPause    `json:"pause,omitempty"`
	Over       bool            `json:"over"`
	Winner     *int            `json:"winner,omitempty"`
	Scores     []FinalScore    `json:"scores,omitempty"`
	History    []HistoryEntry  `json:"history,omitempty"`
}

// NewGame builds the opening state for the named players in seat order.
func NewGame(names []string) (*GameState, error) {
	carpets, ok := CarpetsPerPlayer(len(names))
	if !ok {
		return nil, fmt.Errorf("%w: got %d", ErrPlayerCount, len(names))
	}
	players := make([]Player, len(names))
	for i, name := range names {
		if name == "" {
			name = fmt.Sprintf("Player %d", i+1)
		}
		players[i] = Player{
			ID:               i,
			Name:             name,
			Balance:          StartingBalance,
			CarpetsRemaining: carpets,
		}
	}
	return &GameState{
		Token:   StartToken(),
		Players: players,
		Phase:   PhaseOrient,
		Turn:    1,
	}, nil
}

// Clone returns a deep copy.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	out := *s
	out.Players = append([]Player(nil), s.Players...)
	out.Path = append([]Position(nil), s.Path...)
	out.Candidates = append([]Placement(nil), s.Candidates...)
	out.Scores = append([]FinalScore(nil), s.Scores...)
	out.History = append([]HistoryEntry(nil), s.History...)
	if s.LastDice != nil {
		d := *s.LastDice
		d.Faces = append([]int(nil), d.Faces...)
		out.LastDice = &d
	}
	if s.Tribute != nil {
		t := *s.Tribute
		t.Region = append([]Position(nil), t.Region...)
		out.Tribute = &t
	}
	if s.Pause != nil {
		p := *s.Pause
		p.Choices = append([]Direction(nil), p.Choices...)
		p.Path = append([]Position(nil), p.Path...)
		p.Dice.Faces = append([]int(nil), p.Dice.Faces...)
		out.Pause = &p
	}
	if s.Winner != nil {
		w := *s.Winner
		out.Winner = &w
	}
	return &out
}

// CurrentPlayer returns the active player record.
func (s *GameState) CurrentPlayer() Player {
	return s.Players[s.Current]
}

// Player looks up a player by id.
func (s *GameState) Player(id int) (Player, bool) {
	if id < 0 || id >= len(s.Players) {
		return Player{}, false
	}
	return s.Players[id], true
}

// ActivePlayers counts players that are not eliminated.
func (s *GameState) ActivePlayers() int {
	n := 0
	for _, p := range s.Players {
		if !p.Eliminated {
			n++
		}
	}
	return n
}

func (s *GameState) record(kind HistoryKind, player int, format string, args ...any) {
	s.History = append(s.History, HistoryEntry{
		Kind:        kind,
		Player:      player,
		Turn:        s.Turn,
		Description: fmt.Sprintf(format, args...),
	})
}
