package ledger

import (
	"encoding/json"

	"golang.org/x/crypto/sha3"
)

// Snapshot is the raw published state of one game, as served by the gateway.
type Snapshot struct {
	Status        int          `json:"status"`
	Phase         uint8        `json:"phase"`
	CurrentPlayer int          `json:"current_player"`
	Turn          int          `json:"turn"`
	NumPlayers    int          `json:"num_players"`
	JoinedCount   int          `json:"joined_count"`
	LastDice      int          `json:"last_dice"`
	TokenRow      int          `json:"token_row"`
	TokenCol      int          `json:"token_col"`
	TokenDir      uint8        `json:"token_dir"`
	BoardOwners   []int        `json:"board_owners"`
	BoardSerials  []int        `json:"board_serials"`
	Players       PlayerArrays `json:"players"`
	Tribute       TributeView  `json:"tribute"`
	Border        BorderView   `json:"border"`
}

// PlayerArrays holds the per-seat columns, indexed by seat.
type PlayerArrays struct {
	Wallets    []string `json:"wallets"`
	Balances   []int    `json:"balances"`
	Carpets    []int    `json:"carpets"`
	Eliminated []bool   `json:"eliminated"`
	Joined     []bool   `json:"joined"`
}

// TributeView is the pending payment. Only meaningful in the tribute phase.
type TributeView struct {
	From   int `json:"from"`
	To     int `json:"to"`
	Amount int `json:"amount"`
}

// BorderView is the pending border pause. Only meaningful in the border
// choice phase.
type BorderView struct {
	Row            int   `json:"row"`
	Col            int   `json:"col"`
	ExitDirection  uint8 `json:"exit_direction"`
	RemainingSteps int   `json:"remaining_steps"`
}

// Fingerprint identifies a snapshot's content. Two reads with the same
// fingerprint carry the same logical state.
func (s *Snapshot) Fingerprint() [32]byte {
	raw, err := json.Marshal(s)
	if err != nil {
		return [32]byte{}
	}
	return sha3.Sum256(raw)
}
