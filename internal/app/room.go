package app

import (
	"fmt"

	"marrakech/internal/domain"
	"marrakech/internal/gameerr"
)

// RoomStatus is the lifecycle stage of a room.
type RoomStatus string

const (
	RoomLobby      RoomStatus = "lobby"
	RoomInProgress RoomStatus = "in_progress"
	RoomFinished   RoomStatus = "finished"
)

var (
	ErrRoomStarted     = gameerr.New(gameerr.CodeCapacityExceeded, "room already started")
	ErrRoomFull        = gameerr.New(gameerr.CodeCapacityExceeded, "room is full")
	ErrAlreadySeated   = gameerr.New(gameerr.CodeInvalidAction, "connection already seated")
	ErrNotCreator      = gameerr.New(gameerr.CodeInvalidAction, "only the room creator can start")
	ErrTooFewPlayers   = gameerr.New(gameerr.CodeInvalidAction, "not enough players to start")
	ErrNotInProgress   = gameerr.New(gameerr.CodeInvalidAction, "session is not in progress")
	ErrNotYourTurn     = gameerr.New(gameerr.CodeInvalidAction, "not your turn")
	ErrUnknownSeat     = gameerr.New(gameerr.CodeNotFound, "connection has no seat")
	ErrInvalidCapacity = gameerr.New(gameerr.CodeInvalidAction, "capacity must be between 2 and 4")
)

// Seat is a player slot bound to a connection.
type Seat struct {
	ID        int
	Name      string
	Conn      string
	Connected bool
}

// Room is one real-time session. It is not safe for concurrent use; the
// owning match loop serializes every call.
type Room struct {
	code     string
	capacity int
	seats    []Seat
	creator  int
	status   RoomStatus
	state    *domain.GameState
	conns    map[string]int
	dice     *domain.Dice
}

// NewRoom creates an empty lobby. The first connection to join becomes the creator.
func NewRoom(code string, capacity int, dice *domain.Dice) (*Room, error) {
	if capacity < domain.MinPlayers || capacity > domain.MaxPlayers {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	if dice == nil {
		dice = domain.NewDice(0)
	}
	return &Room{
		code:     code,
		capacity: capacity,
		status:   RoomLobby,
		conns:    make(map[string]int),
		dice:     dice,
	}, nil
}

func (r *Room) Code() string { return r.code }

func (r *Room) Capacity() int { return r.capacity }

func (r *Room) Status() RoomStatus { return r.status }

// State returns the current game state, or nil before start.
func (r *Room) State() *domain.GameState { return r.state }

// Creator returns the creator's seat id, or -1 for an empty room.
func (r *Room) Creator() int {
	if len(r.seats) == 0 {
		return -1
	}
	return r.creator
}

func (r *Room) OpenSeats() int {
	if r.status != RoomLobby {
		return 0
	}
	return r.capacity - len(r.seats)
}

// SeatOf resolves a connection to its seat id.
func (r *Room) SeatOf(conn string) (int, bool) {
	id, ok := r.conns[conn]
	return id, ok
}

// Seats returns a copy of the seat list.
func (r *Room) Seats() []Seat {
	return append([]Seat(nil), r.seats...)
}

// Empty reports whether nobody is connected any more.
func (r *Room) Empty() bool {
	return len(r.conns) == 0
}

// Join seats a connection. The first seat is the creator's.
func (r *Room) Join(conn, name string) ([]Event, error) {
	if r.status != RoomLobby {
		return nil, ErrRoomStarted
	}
	if _, ok := r.conns[conn]; ok {
		return nil, ErrAlreadySeated
	}
	if len(r.seats) >= r.capacity {
		return nil, ErrRoomFull
	}

	id := len(r.seats)
	if name == "" {
		name = fmt.Sprintf("Player %d", id+1)
	}
	r.seats = append(r.seats, Seat{ID: id, Name: name, Conn: conn, Connected: true})
	r.conns[conn] = id

	if id == 0 {
		r.creator = 0
		return []Event{{
			Kind:       EventRoomCreated,
			Payload:    RoomCreatedPayload{Code: r.code, Seat: id},
			Recipients: []string{conn},
		}}, nil
	}

	events := []Event{{
		Kind:       EventJoinResult,
		Payload:    JoinResultPayload{Code: r.code, Seat: id, Seats: r.seatViews()},
		Recipients: []string{conn},
	}}
	if others := r.connsExcept(conn); len(others) > 0 {
		events = append(events, Event{
			Kind:       EventSeatJoined,
			Payload:    SeatJoinedPayload{Seat: r.seatView(r.seats[id])},
			Recipients: others,
		})
	}
	return events, nil
}

// Start begins the session. Only the creator may call it.
func (r *Room) Start(conn string) ([]Event, error) {
	seat, ok := r.conns[conn]
	if !ok {
		return nil, ErrUnknownSeat
	}
	if r.status != RoomLobby {
		return nil, ErrRoomStarted
	}
	if seat != r.creator {
		return nil, ErrNotCreator
	}
	if len(r.seats) < MinPlayersToStartGame {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrTooFewPlayers, len(r.seats), MinPlayersToStartGame)
	}

	names := make([]string, len(r.seats))
	for i, s := range r.seats {
		names[i] = s.Name
	}
	state, err := domain.NewGame(names)
	if err != nil {
		return nil, err
	}
	r.state = state
	r.status = RoomInProgress

	return []Event{
		{Kind: EventSessionStarted, Payload: SessionStartedPayload{State: state}},
		r.yourTurn(),
	}, nil
}

// Apply runs an action for the seat bound to conn. Roll actions draw the dice
// here; any client-supplied value is ignored.
func (r *Room) Apply(conn string, action domain.Action) ([]Event, error) {
	if r.status != RoomInProgress || r.state == nil {
		return nil, ErrNotInProgress
	}
	seat, ok := r.conns[conn]
	if !ok {
		return nil, ErrUnknownSeat
	}
	prev := r.state
	if seat != prev.Current {
		return nil, fmt.Errorf("%w: seat %d, active seat %d", ErrNotYourTurn, seat, prev.Current)
	}
	if !domain.Accepts(prev.Phase, action.Kind) {
		return nil, fmt.Errorf("%w: %s during %s", domain.ErrWrongPhase, action.Kind, prev.Phase)
	}
	if action.Kind == domain.ActionRoll {
		action.Dice = r.dice.Roll()
	}

	next, err := domain.Apply(prev, action)
	if err != nil {
		return nil, err
	}
	r.state = next

	var events []Event
	if action.Kind == domain.ActionRoll {
		events = append(events, Event{
			Kind:    EventDiceValue,
			Payload: DiceValuePayload{Seat: seat, Roll: action.Dice},
		})
	}
	return append(events, r.afterTransition(prev)...), nil
}

// Disconnect handles a dropped connection. In the lobby the seat is removed
// and the remaining seats renumbered; during play the seat forfeits.
func (r *Room) Disconnect(conn string) ([]Event, error) {
	seat, ok := r.conns[conn]
	if !ok {
		return nil, ErrUnknownSeat
	}
	delete(r.conns, conn)
	name := r.seats[seat].Name

	if r.status == RoomLobby {
		r.removeSeat(seat)
		if len(r.seats) == 0 {
			return nil, nil
		}
		return []Event{{
			Kind:    EventSeatLeft,
			Payload: SeatLeftPayload{Seat: seat, Name: name, Seats: r.seatViews()},
		}}, nil
	}

	r.seats[seat].Connected = false
	events := []Event{{
		Kind:    EventSeatLeft,
		Payload: SeatLeftPayload{Seat: seat, Name: name, Seats: r.seatViews()},
	}}
	if r.status != RoomInProgress {
		return events, nil
	}

	prev := r.state
	next, err := domain.Forfeit(prev, seat)
	if err != nil {
		return events, err
	}
	r.state = next
	return append(events, r.afterTransition(prev)...), nil
}

// afterTransition emits the broadcast that follows a state change plus the
// game-over or turn notices it implies.
func (r *Room) afterTransition(prev *domain.GameState) []Event {
	next := r.state
	events := []Event{{Kind: EventStateUpdated, Payload: StateUpdatedPayload{State: next}}}
	if next.Over {
		r.status = RoomFinished
		return append(events, Event{
			Kind:    EventGameOver,
			Payload: GameOverPayload{Winner: next.Winner, Scores: next.Scores},
		})
	}
	if next.Turn != prev.Turn || next.Current != prev.Current {
		if ev := r.yourTurn(); ev.Recipients != nil {
			events = append(events, ev)
		}
	}
	return events
}

func (r *Room) yourTurn() Event {
	active := r.seats[r.state.Current]
	ev := Event{
		Kind:    EventYourTurn,
		Payload: YourTurnPayload{Seat: active.ID, Turn: r.state.Turn},
	}
	if active.Connected {
		ev.Recipients = []string{active.Conn}
	}
	return ev
}

func (r *Room) removeSeat(seat int) {
	r.seats = append(r.seats[:seat], r.seats[seat+1:]...)
	for i := range r.seats {
		r.seats[i].ID = i
		r.conns[r.seats[i].Conn] = i
	}
	switch {
	case seat == r.creator:
		r.creator = 0
	case seat < r.creator:
		r.creator--
	}
}

func (r *Room) connsExcept(conn string) []string {
	var out []string
	for _, s := range r.seats {
		if s.Connected && s.Conn != conn {
			out = append(out, s.Conn)
		}
	}
	return out
}

func (r *Room) seatView(s Seat) SeatView {
	return SeatView{Seat: s.ID, Name: s.Name, Connected: s.Connected, Creator: s.ID == r.creator}
}

func (r *Room) seatViews() []SeatView {
	out := make([]SeatView, len(r.seats))
	for i, s := range r.seats {
		out[i] = r.seatView(s)
	}
	return out
}
