package app

import "marrakech/internal/domain"

// MinPlayersToStartGame is the number of seats a room needs before the creator may start it.
const MinPlayersToStartGame = domain.MinPlayers

const (
	// RoomCodeLength is the fixed length of a room code.
	RoomCodeLength = 6

	// roomCodeAlphabet is the character set of room codes.
	roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)
