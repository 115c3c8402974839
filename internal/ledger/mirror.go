package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"marrakech/internal/authority"
	"marrakech/internal/config"
	"marrakech/internal/domain"
	"marrakech/internal/gameerr"
)

// Mirror follows one ledger game. Polling and pushed notifications both run
// the same read, decode and replace path; a snapshot equal to the current
// one publishes nothing.
type Mirror struct {
	gw       Gateway
	notifier Notifier
	cfg      config.Mirror
	log      zerolog.Logger
	writer   *Writer
	bus      *authority.EventBus[authority.Notification]

	// rollMu spans picking a dice call and handing it to the writer.
	rollMu sync.Mutex

	mu          sync.Mutex
	state       *domain.GameState
	fingerprint [32]byte
	commitment  *Commitment
}

// MirrorOption configures a Mirror.
type MirrorOption func(*Mirror)

// WithNotifier adds a push feed on top of polling.
func WithNotifier(n Notifier) MirrorOption {
	return func(m *Mirror) { m.notifier = n }
}

// WithLogger sets the logger; the default discards.
func WithLogger(log zerolog.Logger) MirrorOption {
	return func(m *Mirror) { m.log = log }
}

// NewMirror builds a mirror over gw. Timing comes from cfg.
func NewMirror(gw Gateway, cfg config.Mirror, opts ...MirrorOption) *Mirror {
	m := &Mirror{
		gw:  gw,
		cfg: cfg,
		log: zerolog.Nop(),
		bus: authority.NewEventBus[authority.Notification](authority.DefaultBuffer),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.writer = NewWriter(gw, cfg.ConfirmInterval, cfg.ConfirmTimeout, m.log)
	m.writer.onStatus = m.publishWrite
	m.writer.onSuccess = m.afterWrite
	return m
}

var _ authority.Authority = (*Mirror)(nil)

func (m *Mirror) State() *domain.GameState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Mirror) Subscribe() (<-chan authority.Notification, func()) {
	return m.bus.Subscribe()
}

// Writes exposes the write pipeline.
func (m *Mirror) Writes() *Writer { return m.writer }

// Run polls until ctx ends. Failed reads back off exponentially up to the
// configured ceiling.
func (m *Mirror) Run(ctx context.Context) error {
	limiter := rate.NewLimiter(rate.Limit(m.cfg.NotifyRate), m.cfg.NotifyBurst)
	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = m.cfg.PollInterval
	retry.MaxInterval = m.cfg.MaxBackoff

	pushes := m.subscribe(ctx)
	delay := m.next(m.Refresh(ctx), retry)
	timer := time.NewTimer(delay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			if pushes == nil {
				pushes = m.subscribe(ctx)
			}
			timer.Reset(m.next(m.Refresh(ctx), retry))
		case _, ok := <-pushes:
			if !ok {
				m.log.Info().Msg("event feed closed; polling only")
				pushes = nil
				continue
			}
			if !limiter.Allow() {
				continue
			}
			if err := m.Refresh(ctx); err == nil {
				retry.Reset()
			}
		}
	}
}

func (m *Mirror) next(err error, retry *backoff.ExponentialBackOff) time.Duration {
	if err == nil {
		retry.Reset()
		return m.cfg.PollInterval
	}
	return retry.NextBackOff()
}

func (m *Mirror) subscribe(ctx context.Context) <-chan struct{} {
	if m.notifier == nil || !m.cfg.Subscribe {
		return nil
	}
	ch, err := m.notifier.Subscribe(ctx)
	if err != nil {
		m.log.Warn().Err(err).Msg("event feed unavailable")
		return nil
	}
	return ch
}

// Refresh reads and decodes the current snapshot once.
func (m *Mirror) Refresh(ctx context.Context) error {
	snap, err := m.gw.Snapshot(ctx)
	if err != nil {
		m.log.Warn().Err(err).Msg("read snapshot")
		return err
	}
	next, err := Decode(snap)
	if err != nil {
		m.log.Warn().Err(err).Msg("decode snapshot")
		return err
	}
	fp := snap.Fingerprint()

	m.mu.Lock()
	if m.state != nil && fp == m.fingerprint {
		m.mu.Unlock()
		return nil
	}
	prev := m.state
	m.state = next
	m.fingerprint = fp
	m.mu.Unlock()

	m.log.Debug().Str("phase", string(next.Phase)).Int("turn", next.Turn).Int("current", next.Current).Msg("state replaced")
	m.publish(prev, next)
	return nil
}

func (m *Mirror) publish(prev, next *domain.GameState) {
	if prev == nil {
		m.bus.Publish(authority.Notification{Kind: authority.NotifySessionStarted, State: next})
	}
	// The dice become visible once the reveal is settled; announce them
	// before the state that moved the token.
	if prev != nil && prev.Phase == domain.PhaseRevealDice && next.Phase != domain.PhaseRevealDice && next.LastDice != nil {
		roll := *next.LastDice
		m.bus.Publish(authority.Notification{Kind: authority.NotifyDice, Dice: &roll, Seat: prev.Current})
	}
	m.bus.Publish(authority.Notification{Kind: authority.NotifyState, State: next})
	if next.Over {
		m.bus.Publish(authority.Notification{Kind: authority.NotifyGameOver, State: next})
		return
	}
	if next.Phase == domain.PhaseWaitingForPlayers {
		return
	}
	if prev == nil || prev.Current != next.Current || prev.Turn != next.Turn || prev.Phase == domain.PhaseWaitingForPlayers {
		m.bus.Publish(authority.Notification{Kind: authority.NotifyYourTurn, Seat: next.Current})
	}
}

// Submit turns an action into a write. A roll becomes the commit or the
// reveal, depending on the published phase. Nothing is applied locally.
func (m *Mirror) Submit(ctx context.Context, action domain.Action) error {
	if action.Kind == domain.ActionRoll {
		return m.roll(ctx)
	}
	call, err := m.callFor(action)
	if err != nil {
		return err
	}
	_, err = m.writer.Submit(ctx, call)
	return err
}

// Join claims a seat in a game still waiting for players.
func (m *Mirror) Join(ctx context.Context) error {
	_, err := m.writer.Submit(ctx, JoinCall())
	return err
}

func (m *Mirror) callFor(action domain.Action) (Call, error) {
	switch action.Kind {
	case domain.ActionOrient:
		return OrientCall(action.Direction)
	case domain.ActionChooseBorder:
		return ChooseBorderCall(action.Direction)
	case domain.ActionAcknowledgeTribute:
		return AcknowledgeTributeCall(), nil
	case domain.ActionPlace:
		return PlaceCarpetCall(action.Placement.CellA, action.Placement.CellB), nil
	}
	return Call{}, fmt.Errorf("%w: %s", domain.ErrUnknownAction, action.Kind)
}

// roll keeps the commitment only once the writer has taken the commit, so a
// rejected submit never replaces the secret behind an earlier hash.
func (m *Mirror) roll(ctx context.Context) error {
	m.rollMu.Lock()
	defer m.rollMu.Unlock()
	call, c, err := m.diceCall()
	if err != nil {
		return err
	}
	if _, err := m.writer.Submit(ctx, call); err != nil {
		return err
	}
	if call.Name == CallCommitDice {
		m.mu.Lock()
		m.commitment = c
		m.mu.Unlock()
	}
	return nil
}

// diceCall reuses an unrevealed commitment rather than drawing a new secret.
func (m *Mirror) diceCall() (Call, *Commitment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != nil && m.state.Phase == domain.PhaseRevealDice {
		if m.commitment == nil {
			return Call{}, nil, errNoCommitment
		}
		return RevealCall(m.commitment), m.commitment, nil
	}
	if m.commitment != nil {
		return CommitCall(m.commitment), m.commitment, nil
	}
	c, err := NewCommitment()
	if err != nil {
		return Call{}, nil, gameerr.Wrap(gameerr.CodeExternalTransactionFailure, "dice commitment", err)
	}
	return CommitCall(c), c, nil
}

func (m *Mirror) afterWrite(ctx context.Context, call Call) {
	if call.Name == CallRevealDice {
		m.mu.Lock()
		m.commitment = nil
		m.mu.Unlock()
	}
	if err := m.Refresh(ctx); err != nil {
		m.log.Debug().Err(err).Msg("refresh after write")
	}
}

func (m *Mirror) publishWrite(status authority.WriteStatus) {
	st := status
	m.bus.Publish(authority.Notification{Kind: authority.NotifyWrite, Write: &st})
	if st.Stage == authority.WriteError {
		m.bus.Publish(authority.Notification{Kind: authority.NotifyError, Err: st.Err})
	}
}
