package wire

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStart              int64 = 1
	OpOrient             int64 = 2
	OpRoll               int64 = 3
	OpChooseBorder       int64 = 4
	OpAcknowledgeTribute int64 = 5
	OpPlace              int64 = 6

	// Server -> Client events
	OpRoomCreated    int64 = 100
	OpJoinResult     int64 = 101 // send privately
	OpSeatJoined     int64 = 102
	OpSeatLeft       int64 = 103
	OpSessionStarted int64 = 104
	OpYourTurn       int64 = 105 // send privately
	OpStateUpdated   int64 = 106
	OpDiceValue      int64 = 107
	OpGameOver       int64 = 108
	OpError          int64 = 109 // send privately
)

var eventOpCodes = map[string]int64{
	"room_created":    OpRoomCreated,
	"join_result":     OpJoinResult,
	"seat_joined":     OpSeatJoined,
	"seat_left":       OpSeatLeft,
	"session_started": OpSessionStarted,
	"your_turn":       OpYourTurn,
	"state_updated":   OpStateUpdated,
	"dice_value":      OpDiceValue,
	"game_over":       OpGameOver,
}

// EventOpCode maps a room event kind to the op code it travels under.
func EventOpCode(kind string) (int64, bool) {
	op, ok := eventOpCodes[kind]
	return op, ok
}
