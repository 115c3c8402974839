package ledger

import (
	"context"
	"errors"
	"sync"

	"marrakech/internal/domain"
)

type fakeGateway struct {
	mu      sync.Mutex
	snap    *Snapshot
	readErr error
	sendErr error
	receipt TxStatus
	gate    chan struct{} // when set, Send waits for it
	calls   []Call
	reads   int
}

func (g *fakeGateway) Snapshot(context.Context) (*Snapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reads++
	if g.readErr != nil {
		return nil, g.readErr
	}
	if g.snap == nil {
		return nil, errors.New("no game")
	}
	cp := *g.snap
	return &cp, nil
}

func (g *fakeGateway) Send(ctx context.Context, call Call) (string, error) {
	g.mu.Lock()
	gate := g.gate
	g.mu.Unlock()
	if gate != nil {
		<-gate
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sendErr != nil {
		return "", g.sendErr
	}
	g.calls = append(g.calls, call)
	return "0xfeed", nil
}

func (g *fakeGateway) Receipt(context.Context, string) (TxStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.receipt == "" {
		return TxSuccess, nil
	}
	return g.receipt, nil
}

func (g *fakeGateway) set(fn func(s *Snapshot)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(g.snap)
}

func (g *fakeGateway) sent() []Call {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Call(nil), g.calls...)
}

type fakeNotifier struct {
	ch chan struct{}
}

func (n *fakeNotifier) Subscribe(context.Context) (<-chan struct{}, error) {
	return n.ch, nil
}

// blankSnapshot is an in-progress game with an empty board and every seat joined.
func blankSnapshot(players int) *Snapshot {
	s := &Snapshot{
		Status:       1,
		Phase:        CodeOrient,
		Turn:         1,
		NumPlayers:   players,
		JoinedCount:  players,
		TokenRow:     3,
		TokenCol:     3,
		BoardOwners:  make([]int, domain.CellCount),
		BoardSerials: make([]int, domain.CellCount),
	}
	for i := range s.BoardOwners {
		s.BoardOwners[i] = OwnerEmpty
	}
	for i := 0; i < players; i++ {
		s.Players.Wallets = append(s.Players.Wallets, "0x1234567890abcdef1234567890abcdef12345678")
		s.Players.Balances = append(s.Players.Balances, domain.StartingBalance)
		s.Players.Carpets = append(s.Players.Carpets, 15)
		s.Players.Eliminated = append(s.Players.Eliminated, false)
		s.Players.Joined = append(s.Players.Joined, true)
	}
	return s
}

func setCell(s *Snapshot, row, col, owner, serial int) {
	i := domain.Position{Row: row, Col: col}.Index()
	s.BoardOwners[i] = owner
	s.BoardSerials[i] = serial
}
