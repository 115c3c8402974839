package authority

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"marrakech/internal/app"
	"marrakech/internal/bot"
	"marrakech/internal/domain"
)

// Local runs a hot-seat session in process. Bot seats act as soon as the
// turn reaches them, inside the Submit that handed it over.
type Local struct {
	mu    sync.Mutex
	state *domain.GameState
	dice  *domain.Dice
	bots  map[int]*bot.Agent
	bus   *EventBus[Notification]
	log   zerolog.Logger
}

// LocalOption configures a Local authority.
type LocalOption func(*Local)

// WithBot puts an agent in its seat.
func WithBot(agent *bot.Agent) LocalOption {
	return func(l *Local) { l.bots[agent.Seat] = agent }
}

// WithLogger sets the logger; the default discards.
func WithLogger(log zerolog.Logger) LocalOption {
	return func(l *Local) { l.log = log }
}

// NewLocal creates a session for names in seat order. Call Start to begin.
func NewLocal(names []string, dice *domain.Dice, opts ...LocalOption) (*Local, error) {
	state, err := domain.NewGame(names)
	if err != nil {
		return nil, err
	}
	if dice == nil {
		dice = domain.NewDice(0)
	}
	l := &Local{
		state: state,
		dice:  dice,
		bots:  make(map[int]*bot.Agent),
		bus:   NewEventBus[Notification](DefaultBuffer),
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	for seat := range l.bots {
		if _, ok := state.Player(seat); !ok {
			return nil, fmt.Errorf("%w: bot seat %d", domain.ErrUnknownPlayer, seat)
		}
	}
	return l, nil
}

// Start announces the session and lets bots act if one holds the first turn.
func (l *Local) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.bus.Publish(Notification{Kind: NotifySessionStarted, State: l.state})
	l.bus.Publish(Notification{Kind: NotifyYourTurn, Seat: l.state.Current})
	return l.runBots(ctx)
}

func (l *Local) State() *domain.GameState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Local) Subscribe() (<-chan Notification, func()) {
	return l.bus.Subscribe()
}

// IsBot reports whether seat is played by an agent.
func (l *Local) IsBot(seat int) bool {
	_, ok := l.bots[seat]
	return ok
}

// Resume lets bots finish turns left pending when an earlier call's context
// ended. It returns once a human seat holds the turn or the game is over.
func (l *Local) Resume(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.runBots(ctx)
}

// Submit applies an action for the current human seat. Arriving on a bot's
// turn, it resumes the bots and rejects the action.
func (l *Local) Submit(ctx context.Context, action domain.Action) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, isBot := l.bots[l.state.Current]; isBot && !l.state.Over {
		seat := l.state.Current
		if err := l.runBots(ctx); err != nil {
			return err
		}
		return fmt.Errorf("%w: seat %d is a bot", app.ErrNotYourTurn, seat)
	}
	if err := l.step(action); err != nil {
		return err
	}
	return l.runBots(ctx)
}

// Forfeit removes a seat from play as if it had disconnected.
func (l *Local) Forfeit(ctx context.Context, seat int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	prev := l.state
	next, err := domain.Forfeit(prev, seat)
	if err != nil {
		return err
	}
	l.commit(prev, next)
	return l.runBots(ctx)
}

func (l *Local) step(action domain.Action) error {
	if action.Kind == domain.ActionRoll {
		action.Dice = l.dice.Roll()
	}
	prev := l.state
	next, err := domain.Apply(prev, action)
	if err != nil {
		l.log.Debug().Err(err).Str("action", string(action.Kind)).Int("seat", prev.Current).Msg("action rejected")
		return err
	}
	if action.Kind == domain.ActionRoll {
		roll := action.Dice
		l.bus.Publish(Notification{Kind: NotifyDice, Dice: &roll, Seat: prev.Current})
	}
	l.commit(prev, next)
	return nil
}

func (l *Local) commit(prev, next *domain.GameState) {
	l.state = next
	l.bus.Publish(Notification{Kind: NotifyState, State: next})
	if next.Over {
		l.log.Info().Interface("winner", next.Winner).Msg("game over")
		l.bus.Publish(Notification{Kind: NotifyGameOver, State: next})
		return
	}
	if next.Turn != prev.Turn || next.Current != prev.Current {
		l.bus.Publish(Notification{Kind: NotifyYourTurn, Seat: next.Current})
	}
}

func (l *Local) runBots(ctx context.Context) error {
	for !l.state.Over {
		agent, ok := l.bots[l.state.Current]
		if !ok {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		action, err := agent.Play(l.state)
		if err != nil {
			return err
		}
		if err := l.step(action); err != nil {
			return fmt.Errorf("bot %s: %w", agent.Name, err)
		}
	}
	return nil
}
