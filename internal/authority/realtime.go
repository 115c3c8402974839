package authority

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"marrakech/internal/app"
	"marrakech/internal/domain"
	"marrakech/internal/gameerr"
	"marrakech/internal/wire"
)

// Transport carries client messages to the room host. Incoming messages are
// handed to Realtime.Handle by whoever owns the connection.
type Transport interface {
	Send(ctx context.Context, opCode int64, data []byte) error
}

// Realtime mirrors a server-authoritative room from one seat. States that
// arrive during a dice reveal are held until AnimationDone.
type Realtime struct {
	transport Transport
	log       zerolog.Logger

	mu     sync.Mutex
	seat   int
	code   string
	state  *domain.GameState
	buffer AnimationBuffer
	bus    *EventBus[Notification]
}

// NewRealtime wraps a transport. The seat is unknown until the room answers.
func NewRealtime(t Transport, log zerolog.Logger) *Realtime {
	return &Realtime{transport: t, log: log, seat: -1, bus: NewEventBus[Notification](DefaultBuffer)}
}

// Seat is the local seat, or -1 before joining.
func (r *Realtime) Seat() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seat
}

// Code is the room code once known.
func (r *Realtime) Code() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.code
}

func (r *Realtime) State() *domain.GameState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Realtime) Subscribe() (<-chan Notification, func()) {
	return r.bus.Subscribe()
}

// Start asks the room to begin; only the creator may.
func (r *Realtime) Start(ctx context.Context) error {
	return r.transport.Send(ctx, wire.OpStart, nil)
}

// Submit sends the action. The room decides; a rejection comes back as an
// error notification.
func (r *Realtime) Submit(ctx context.Context, action domain.Action) error {
	op, data, err := wire.EncodeAction(action)
	if err != nil {
		return err
	}
	return r.transport.Send(ctx, op, data)
}

// Handle decodes one server message.
func (r *Realtime) Handle(opCode int64, data []byte) error {
	switch opCode {
	case wire.OpRoomCreated:
		var p app.RoomCreatedPayload
		if err := wire.Unmarshal(data, &p); err != nil {
			return err
		}
		r.setSeat(p.Code, p.Seat)
	case wire.OpJoinResult:
		var p app.JoinResultPayload
		if err := wire.Unmarshal(data, &p); err != nil {
			return err
		}
		r.setSeat(p.Code, p.Seat)
	case wire.OpSeatJoined:
		r.log.Debug().Msg("seat joined")
	case wire.OpSeatLeft:
		var p app.SeatLeftPayload
		if err := wire.Unmarshal(data, &p); err != nil {
			return err
		}
		r.mu.Lock()
		// Lobby seats are renumbered on leave.
		if r.state == nil && r.seat > p.Seat {
			r.seat--
		}
		r.mu.Unlock()
	case wire.OpSessionStarted:
		var p app.SessionStartedPayload
		if err := wire.Unmarshal(data, &p); err != nil {
			return err
		}
		r.mu.Lock()
		r.state = p.State
		r.mu.Unlock()
		r.bus.Publish(Notification{Kind: NotifySessionStarted, State: p.State})
	case wire.OpYourTurn:
		var p app.YourTurnPayload
		if err := wire.Unmarshal(data, &p); err != nil {
			return err
		}
		r.bus.Publish(Notification{Kind: NotifyYourTurn, Seat: p.Seat})
	case wire.OpDiceValue:
		var p app.DiceValuePayload
		if err := wire.Unmarshal(data, &p); err != nil {
			return err
		}
		r.buffer.Begin()
		r.bus.Publish(Notification{Kind: NotifyDice, Dice: &p.Roll, Seat: p.Seat})
	case wire.OpStateUpdated:
		var p app.StateUpdatedPayload
		if err := wire.Unmarshal(data, &p); err != nil {
			return err
		}
		if s := r.buffer.Offer(p.State); s != nil {
			r.apply(s)
		}
	case wire.OpGameOver:
		var p app.GameOverPayload
		if err := wire.Unmarshal(data, &p); err != nil {
			return err
		}
		// No animation outlives the game; the final state goes out first.
		if s := r.buffer.Flush(); s != nil {
			r.apply(s)
		}
		r.bus.Publish(Notification{Kind: NotifyGameOver, State: r.State()})
	case wire.OpError:
		var p wire.ErrorMessage
		if err := wire.Unmarshal(data, &p); err != nil {
			return err
		}
		r.bus.Publish(Notification{Kind: NotifyError, Err: gameerr.New(gameerr.Code(p.Code), p.Message)})
	default:
		return fmt.Errorf("unknown op code %d", opCode)
	}
	return nil
}

// AnimationDone ends a dice reveal and applies the newest held state.
func (r *Realtime) AnimationDone() {
	if s := r.buffer.Flush(); s != nil {
		r.apply(s)
	}
}

func (r *Realtime) apply(s *domain.GameState) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
	r.bus.Publish(Notification{Kind: NotifyState, State: s})
}

func (r *Realtime) setSeat(code string, seat int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.code = code
	r.seat = seat
}
