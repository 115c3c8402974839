package ledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"marrakech/internal/authority"
	"marrakech/internal/gameerr"
)

// ErrWriteOutstanding rejects a write while another is unconfirmed. The
// program cannot reorder or cancel a submitted write.
var ErrWriteOutstanding = gameerr.New(gameerr.CodeInvalidAction, "a write is already outstanding")

// Writer submits calls one at a time and follows each through
// pending, confirming and success or error.
type Writer struct {
	gw        Gateway
	interval  time.Duration
	timeout   time.Duration
	log       zerolog.Logger
	onStatus  func(authority.WriteStatus)
	onSuccess func(ctx context.Context, call Call)

	mu     sync.Mutex
	status authority.WriteStatus
	busy   bool
	done   chan struct{}
}

// NewWriter builds a writer polling receipts every interval, giving up after
// timeout.
func NewWriter(gw Gateway, interval, timeout time.Duration, log zerolog.Logger) *Writer {
	return &Writer{
		gw:        gw,
		interval:  interval,
		timeout:   timeout,
		log:       log,
		onStatus:  func(authority.WriteStatus) {},
		onSuccess: func(context.Context, Call) {},
		status:    authority.WriteStatus{Stage: authority.WriteIdle},
	}
}

// Status is the latest write's progress.
func (w *Writer) Status() authority.WriteStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// Busy reports whether a write is unconfirmed.
func (w *Writer) Busy() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.busy
}

// Submit starts a write and returns its id. Confirmation continues in the
// background and survives cancellation of ctx.
func (w *Writer) Submit(ctx context.Context, call Call) (string, error) {
	w.mu.Lock()
	if w.busy {
		w.mu.Unlock()
		return "", ErrWriteOutstanding
	}
	w.busy = true
	w.done = make(chan struct{})
	id := uuid.NewString()
	w.mu.Unlock()

	w.update(authority.WriteStatus{ID: id, Call: call.Name, Stage: authority.WritePending})
	go w.run(context.WithoutCancel(ctx), id, call)
	return id, nil
}

// Wait blocks until the outstanding write finishes or ctx ends.
func (w *Writer) Wait(ctx context.Context) error {
	w.mu.Lock()
	done := w.done
	w.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Writer) run(ctx context.Context, id string, call Call) {
	w.mu.Lock()
	done := w.done
	w.mu.Unlock()
	defer close(done)

	status := authority.WriteStatus{ID: id, Call: call.Name}
	hash, err := w.gw.Send(ctx, call)
	if err != nil {
		w.fail(status, gameerr.Wrap(gameerr.CodeExternalTransactionFailure, "submit "+call.Name, err))
		return
	}
	status.TxHash = hash
	status.Stage = authority.WriteConfirming
	w.update(status)

	if err := w.confirm(ctx, hash); err != nil {
		w.fail(status, gameerr.Wrap(gameerr.CodeExternalTransactionFailure, "confirm "+call.Name, err))
		return
	}
	w.log.Info().Str("call", call.Name).Str("tx", hash).Msg("write confirmed")
	// Clear busy before the refresh so listeners reacting to the new state
	// may write again.
	status.Stage = authority.WriteSuccess
	w.finish(status)
	w.onSuccess(ctx, call)
}

var errReverted = errors.New("transaction reverted")

func (w *Writer) confirm(ctx context.Context, hash string) error {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		st, err := w.gw.Receipt(ctx, hash)
		switch {
		case err != nil:
			w.log.Debug().Err(err).Str("tx", hash).Msg("receipt lookup failed")
		case st == TxSuccess:
			return nil
		case st == TxReverted:
			return errReverted
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *Writer) fail(status authority.WriteStatus, err error) {
	w.log.Warn().Err(err).Str("call", status.Call).Msg("write failed")
	status.Stage = authority.WriteError
	status.Err = err
	w.finish(status)
}

func (w *Writer) finish(status authority.WriteStatus) {
	w.mu.Lock()
	w.busy = false
	w.mu.Unlock()
	w.update(status)
}

func (w *Writer) update(status authority.WriteStatus) {
	w.mu.Lock()
	w.status = status
	w.mu.Unlock()
	w.onStatus(status)
}
