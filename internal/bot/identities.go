package bot

import (
	"strings"

	"github.com/google/uuid"
)

// IDPrefix marks connection ids that belong to bots.
const IDPrefix = "bot:"

// Identity is a bot's seat binding and display name.
type Identity struct {
	ID   string
	Name string
}

var botNames = []string{"Amal", "Brahim", "Chama", "Driss"}

// NewIdentity returns a fresh identity for the index-th bot of a session.
func NewIdentity(index int) Identity {
	name := botNames[index%len(botNames)]
	return Identity{ID: IDPrefix + uuid.NewString(), Name: "Bot " + name}
}

// IsBot reports whether the given connection id represents a bot seat.
func IsBot(id string) bool {
	return strings.HasPrefix(id, IDPrefix)
}
