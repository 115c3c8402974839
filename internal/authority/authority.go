// Package authority puts the three ways of running a session behind one
// interface: a local engine, a client of a real-time room, and the ledger
// mirror.
package authority

import (
	"context"

	"marrakech/internal/domain"
)

// Authority owns the canonical state of one session.
type Authority interface {
	// Submit asks the authority to perform an action for the local seat.
	// Rejections are returned synchronously where the authority can tell.
	Submit(ctx context.Context, action domain.Action) error
	// State is the latest canonical state, or nil before the session starts.
	State() *domain.GameState
	// Subscribe registers a listener; cancel releases it.
	Subscribe() (events <-chan Notification, cancel func())
}

// NotificationKind tags a Notification.
type NotificationKind string

const (
	NotifySessionStarted NotificationKind = "session_started"
	NotifyState          NotificationKind = "state"
	NotifyDice           NotificationKind = "dice"
	NotifyYourTurn       NotificationKind = "your_turn"
	NotifyGameOver       NotificationKind = "game_over"
	NotifyError          NotificationKind = "error"
	NotifyWrite          NotificationKind = "write"
)

// Notification is published to subscribers. Only the fields that belong to
// Kind are set.
type Notification struct {
	Kind  NotificationKind
	State *domain.GameState
	Dice  *domain.DiceRoll
	Seat  int
	Write *WriteStatus
	Err   error
}

// WriteStage is the lifecycle of one external write.
type WriteStage string

const (
	WriteIdle       WriteStage = "idle"
	WritePending    WriteStage = "pending"
	WriteConfirming WriteStage = "confirming"
	WriteSuccess    WriteStage = "success"
	WriteError      WriteStage = "error"
)

// WriteStatus reports progress of an external write.
type WriteStatus struct {
	ID     string
	Call   string
	Stage  WriteStage
	TxHash string
	Err    error
}
