// Package ledger mirrors a game run by an external ledger program. It decodes
// the published state into the engine's shapes and submits writes, but never
// applies the rules itself.
package ledger

import "context"

// TxStatus is the confirmation state of a submitted write.
type TxStatus string

const (
	TxPending  TxStatus = "pending"
	TxSuccess  TxStatus = "success"
	TxReverted TxStatus = "reverted"
)

// Call is one write to the game program.
type Call struct {
	Name string         `json:"-"`
	Args map[string]any `json:"args"`
}

// Call names, matching the gateway's routes.
const (
	CallJoin               = "join"
	CallOrient             = "orient"
	CallCommitDice         = "commit-dice"
	CallRevealDice         = "reveal-dice"
	CallChooseBorder       = "choose-border"
	CallAcknowledgeTribute = "acknowledge-tribute"
	CallPlaceCarpet        = "place-carpet"
)

// Gateway reads and writes one game.
type Gateway interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
	Send(ctx context.Context, call Call) (txHash string, err error)
	Receipt(ctx context.Context, txHash string) (TxStatus, error)
}

// Notifier pushes a signal whenever the game program emits an event. The
// channel closes when the feed ends.
type Notifier interface {
	Subscribe(ctx context.Context) (<-chan struct{}, error)
}
