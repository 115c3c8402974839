package app

import "marrakech/internal/domain"

// EventKind identifies emitted room events for Nakama dispatch.
type EventKind string

const (
	EventRoomCreated    EventKind = "room_created"
	EventJoinResult     EventKind = "join_result"
	EventSeatJoined     EventKind = "seat_joined"
	EventSeatLeft       EventKind = "seat_left"
	EventSessionStarted EventKind = "session_started"
	EventYourTurn       EventKind = "your_turn"
	EventStateUpdated   EventKind = "state_updated"
	EventDiceValue      EventKind = "dice_value"
	EventGameOver       EventKind = "game_over"
)

// Event is a room event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // connection ids; empty means broadcast
}

// SeatView is the public description of a seat.
type SeatView struct {
	Seat      int    `json:"seat"`
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
	Creator   bool   `json:"creator"`
}

type RoomCreatedPayload struct {
	Code string `json:"code"`
	Seat int    `json:"seat"`
}

type JoinResultPayload struct {
	Code  string     `json:"code"`
	Seat  int        `json:"seat"`
	Seats []SeatView `json:"seats"`
}

type SeatJoinedPayload struct {
	Seat SeatView `json:"seat"`
}

// SeatLeftPayload carries the seat list after removal; lobby seats are
// renumbered when one leaves.
type SeatLeftPayload struct {
	Seat  int        `json:"seat"`
	Name  string     `json:"name"`
	Seats []SeatView `json:"seats"`
}

type SessionStartedPayload struct {
	State *domain.GameState `json:"state"`
}

type YourTurnPayload struct {
	Seat int `json:"seat"`
	Turn int `json:"turn"`
}

type StateUpdatedPayload struct {
	State *domain.GameState `json:"state"`
}

type DiceValuePayload struct {
	Seat int             `json:"seat"`
	Roll domain.DiceRoll `json:"roll"`
}

type GameOverPayload struct {
	Winner *int                `json:"winner,omitempty"`
	Scores []domain.FinalScore `json:"scores"`
}
