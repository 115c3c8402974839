package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"marrakech/internal/authority"
	"marrakech/internal/config"
	"marrakech/internal/domain"
	"marrakech/internal/gameerr"
)

func testConfig() config.Mirror {
	cfg := config.DefaultMirror()
	cfg.Gateway = "http://ledger.test"
	cfg.Address = "0xgame"
	cfg.PollInterval = 10 * time.Millisecond
	cfg.MaxBackoff = 40 * time.Millisecond
	cfg.ConfirmInterval = time.Millisecond
	cfg.ConfirmTimeout = time.Second
	return cfg
}

func drain(ch <-chan authority.Notification) []authority.Notification {
	var out []authority.Notification
	for {
		select {
		case n := <-ch:
			out = append(out, n)
		default:
			return out
		}
	}
}

func kinds(ns []authority.Notification) []authority.NotificationKind {
	out := make([]authority.NotificationKind, len(ns))
	for i, n := range ns {
		out[i] = n.Kind
	}
	return out
}

func waitWrite(t *testing.T, m *Mirror) authority.WriteStatus {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, m.Writes().Wait(ctx))
	return m.Writes().Status()
}

func TestMirrorRefreshIsIdempotent(t *testing.T) {
	gw := &fakeGateway{snap: blankSnapshot(2)}
	m := NewMirror(gw, testConfig())
	events, cancel := m.Subscribe()
	defer cancel()
	ctx := context.Background()

	require.NoError(t, m.Refresh(ctx))
	first := m.State()
	require.Equal(t, []authority.NotificationKind{
		authority.NotifySessionStarted, authority.NotifyState, authority.NotifyYourTurn,
	}, kinds(drain(events)))

	require.NoError(t, m.Refresh(ctx))
	require.Same(t, first, m.State())
	require.Empty(t, drain(events))

	gw.set(func(s *Snapshot) { s.TokenDir = 2 })
	require.NoError(t, m.Refresh(ctx))
	require.Equal(t, domain.East, m.State().Token.Facing)
	require.Equal(t, []authority.NotificationKind{authority.NotifyState}, kinds(drain(events)))
}

func TestMirrorKeepsStateOnDecodeFailure(t *testing.T) {
	gw := &fakeGateway{snap: blankSnapshot(2)}
	m := NewMirror(gw, testConfig())
	ctx := context.Background()
	require.NoError(t, m.Refresh(ctx))
	before := m.State()

	gw.set(func(s *Snapshot) { s.JoinedCount = 4 })
	err := m.Refresh(ctx)
	require.ErrorIs(t, err, gameerr.ErrTransientDecodeInconsistency)
	require.Same(t, before, m.State())
}

func TestMirrorAnnouncesDiceBeforeState(t *testing.T) {
	gw := &fakeGateway{snap: blankSnapshot(2)}
	gw.snap.Phase = CodeRevealDice
	m := NewMirror(gw, testConfig())
	events, cancel := m.Subscribe()
	defer cancel()
	ctx := context.Background()
	require.NoError(t, m.Refresh(ctx))
	drain(events)

	gw.set(func(s *Snapshot) {
		s.Phase = CodePlace
		s.LastDice = 3
		s.TokenRow = 0
	})
	require.NoError(t, m.Refresh(ctx))
	got := drain(events)
	require.Equal(t, []authority.NotificationKind{authority.NotifyDice, authority.NotifyState}, kinds(got))
	require.Equal(t, 3, got[0].Dice.Value)
}

func TestMirrorWritesDoNotTouchState(t *testing.T) {
	gw := &fakeGateway{snap: blankSnapshot(2)}
	m := NewMirror(gw, testConfig())
	ctx := context.Background()
	require.NoError(t, m.Refresh(ctx))
	before := m.State()

	require.NoError(t, m.Submit(ctx, domain.Orient(domain.West)))
	status := waitWrite(t, m)
	require.Equal(t, authority.WriteSuccess, status.Stage)
	require.Equal(t, "0xfeed", status.TxHash)
	require.NotEmpty(t, status.ID)

	calls := gw.sent()
	require.Len(t, calls, 1)
	require.Equal(t, CallOrient, calls[0].Name)
	require.Equal(t, uint8(3), calls[0].Args["direction"])
	// The program has not published a change, so neither has the mirror.
	require.Same(t, before, m.State())
}

func TestMirrorRejectsSecondOutstandingWrite(t *testing.T) {
	gate := make(chan struct{})
	gw := &fakeGateway{snap: blankSnapshot(2), gate: gate}
	m := NewMirror(gw, testConfig())
	events, cancel := m.Subscribe()
	defer cancel()
	ctx := context.Background()

	require.NoError(t, m.Submit(ctx, domain.AcknowledgeTribute()))
	require.True(t, m.Writes().Busy())
	err := m.Submit(ctx, domain.Orient(domain.North))
	require.ErrorIs(t, err, ErrWriteOutstanding)
	require.ErrorIs(t, err, gameerr.ErrInvalidAction)

	close(gate)
	require.Equal(t, authority.WriteSuccess, waitWrite(t, m).Stage)
	require.False(t, m.Writes().Busy())

	var stages []authority.WriteStage
	for _, n := range drain(events) {
		if n.Kind == authority.NotifyWrite {
			stages = append(stages, n.Write.Stage)
		}
	}
	require.Equal(t, []authority.WriteStage{authority.WritePending, authority.WriteConfirming, authority.WriteSuccess}, stages)
}

func TestMirrorSurfacesFailedWrites(t *testing.T) {
	cases := []struct {
		name string
		gw   *fakeGateway
	}{
		{"send fails", &fakeGateway{snap: blankSnapshot(2), sendErr: errors.New("nonce too low")}},
		{"reverted", &fakeGateway{snap: blankSnapshot(2), receipt: TxReverted}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := NewMirror(tc.gw, testConfig())
			events, cancel := m.Subscribe()
			defer cancel()

			require.NoError(t, m.Submit(context.Background(), domain.Place(domain.Position{Row: 2, Col: 3}, domain.Position{Row: 1, Col: 3})))
			status := waitWrite(t, m)
			require.Equal(t, authority.WriteError, status.Stage)
			require.ErrorIs(t, status.Err, gameerr.ErrExternalTransactionFailure)
			require.Nil(t, m.State())

			got := drain(events)
			require.Equal(t, authority.NotifyError, got[len(got)-1].Kind)
		})
	}
}

func TestMirrorRollCommitsThenReveals(t *testing.T) {
	gw := &fakeGateway{snap: blankSnapshot(2)}
	gw.snap.Phase = CodeCommitDice
	m := NewMirror(gw, testConfig())
	ctx := context.Background()
	require.NoError(t, m.Refresh(ctx))

	require.NoError(t, m.Submit(ctx, domain.Roll(domain.DiceRoll{})))
	require.Equal(t, authority.WriteSuccess, waitWrite(t, m).Stage)

	gw.set(func(s *Snapshot) { s.Phase = CodeRevealDice })
	require.NoError(t, m.Refresh(ctx))
	require.Equal(t, domain.PhaseRevealDice, m.State().Phase)

	require.NoError(t, m.Submit(ctx, domain.Roll(domain.DiceRoll{})))
	require.Equal(t, authority.WriteSuccess, waitWrite(t, m).Stage)

	calls := gw.sent()
	require.Len(t, calls, 2)
	require.Equal(t, CallCommitDice, calls[0].Name)
	require.Equal(t, CallRevealDice, calls[1].Name)
	secret, err := uint256.FromDecimal(calls[1].Args["salt"].(string))
	require.NoError(t, err)
	require.Equal(t, calls[0].Args["commit_hash"], CommitmentFor(secret).HashHex())

	// The secret is spent; a second reveal has nothing to send.
	require.ErrorIs(t, m.Submit(ctx, domain.Roll(domain.DiceRoll{})), gameerr.ErrInvalidAction)
}

func TestMirrorRejectedRollKeepsCommittedSecret(t *testing.T) {
	gate := make(chan struct{})
	gw := &fakeGateway{snap: blankSnapshot(2), gate: gate}
	gw.snap.Phase = CodeCommitDice
	m := NewMirror(gw, testConfig())
	ctx := context.Background()
	require.NoError(t, m.Refresh(ctx))

	require.NoError(t, m.Submit(ctx, domain.Roll(domain.DiceRoll{})))
	err := m.Submit(ctx, domain.Roll(domain.DiceRoll{}))
	require.ErrorIs(t, err, ErrWriteOutstanding)

	close(gate)
	require.Equal(t, authority.WriteSuccess, waitWrite(t, m).Stage)

	// Still committing on the ledger: a retry resends the same hash.
	require.NoError(t, m.Submit(ctx, domain.Roll(domain.DiceRoll{})))
	require.Equal(t, authority.WriteSuccess, waitWrite(t, m).Stage)

	gw.set(func(s *Snapshot) { s.Phase = CodeRevealDice })
	require.NoError(t, m.Refresh(ctx))
	require.NoError(t, m.Submit(ctx, domain.Roll(domain.DiceRoll{})))
	require.Equal(t, authority.WriteSuccess, waitWrite(t, m).Stage)

	calls := gw.sent()
	require.Len(t, calls, 3)
	require.Equal(t, CallCommitDice, calls[0].Name)
	require.Equal(t, CallCommitDice, calls[1].Name)
	require.Equal(t, calls[0].Args["commit_hash"], calls[1].Args["commit_hash"])
	require.Equal(t, CallRevealDice, calls[2].Name)
	secret, err := uint256.FromDecimal(calls[2].Args["salt"].(string))
	require.NoError(t, err)
	require.Equal(t, calls[0].Args["commit_hash"], CommitmentFor(secret).HashHex())
}

func TestMirrorRunPollsAndFollowsPushes(t *testing.T) {
	gw := &fakeGateway{snap: blankSnapshot(2)}
	notifier := &fakeNotifier{ch: make(chan struct{}, 1)}
	cfg := testConfig()
	cfg.PollInterval = time.Hour
	cfg.MaxBackoff = time.Hour
	m := NewMirror(gw, cfg, WithNotifier(notifier))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	require.Eventually(t, func() bool { return m.State() != nil }, time.Second, 5*time.Millisecond)

	gw.set(func(s *Snapshot) { s.Phase = CodeCommitDice })
	notifier.ch <- struct{}{}
	require.Eventually(t, func() bool {
		s := m.State()
		return s != nil && s.Phase == domain.PhaseCommitDice
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestMirrorRunBacksOffOnReadErrors(t *testing.T) {
	gw := &fakeGateway{readErr: errors.New("gateway down")}
	m := NewMirror(gw, testConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, m.Run(ctx), context.DeadlineExceeded)

	gw.mu.Lock()
	reads := gw.reads
	gw.mu.Unlock()
	// Fixed 10ms polling would read about 15 times; backing off to 40ms reads fewer.
	require.GreaterOrEqual(t, reads, 2)
	require.Less(t, reads, 12)
}
