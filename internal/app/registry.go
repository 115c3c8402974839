package app

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"sync"

	"marrakech/internal/gameerr"
)

var (
	ErrRoomNotFound  = gameerr.New(gameerr.CodeNotFound, "room not found")
	ErrCodeExhausted = errors.New("could not allocate a free room code")
)

const maxCodeAttempts = 32

// RoomRegistry maps live room codes to the handle of the match hosting them.
// A code is reserved before its match exists and bound once it does.
type RoomRegistry struct {
	mu      sync.Mutex
	rooms   map[string]string
	entropy io.Reader
}

// NewRoomRegistry returns an empty registry drawing codes from crypto/rand.
func NewRoomRegistry() *RoomRegistry {
	return NewRoomRegistryWithEntropy(rand.Reader)
}

// NewRoomRegistryWithEntropy lets tests supply a deterministic byte source.
func NewRoomRegistryWithEntropy(entropy io.Reader) *RoomRegistry {
	return &RoomRegistry{rooms: make(map[string]string), entropy: entropy}
}

// Reserve allocates a fresh code, unique among live rooms.
func (r *RoomRegistry) Reserve() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := r.newCode()
		if err != nil {
			return "", err
		}
		if _, taken := r.rooms[code]; taken {
			continue
		}
		r.rooms[code] = ""
		return code, nil
	}
	return "", ErrCodeExhausted
}

// Bind attaches the hosting match to a reserved code.
func (r *RoomRegistry) Bind(code, matchID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[code]; !ok {
		return fmt.Errorf("%w: %s", ErrRoomNotFound, code)
	}
	r.rooms[code] = matchID
	return nil
}

// Resolve returns the match hosting code.
func (r *RoomRegistry) Resolve(code string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matchID, ok := r.rooms[code]
	if !ok || matchID == "" {
		return "", fmt.Errorf("%w: %s", ErrRoomNotFound, code)
	}
	return matchID, nil
}

// Release forgets a code once its room is discarded.
func (r *RoomRegistry) Release(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, code)
}

// Len reports the number of live or reserved codes.
func (r *RoomRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}

func (r *RoomRegistry) newCode() (string, error) {
	buf := make([]byte, RoomCodeLength)
	if _, err := io.ReadFull(r.entropy, buf); err != nil {
		return "", fmt.Errorf("read entropy: %w", err)
	}
	for i, b := range buf {
		buf[i] = roomCodeAlphabet[int(b)%len(roomCodeAlphabet)]
	}
	return string(buf), nil
}

// ValidRoomCode checks length and alphabet.
func ValidRoomCode(code string) bool {
	if len(code) != RoomCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
