package authority

import (
	"sync"

	"marrakech/internal/domain"
)

// AnimationBuffer holds back state updates while a dice reveal plays. It is
// either Idle, where states apply at once, or Animating with at most one
// pending state; newer states replace older ones.
type AnimationBuffer struct {
	mu        sync.Mutex
	animating bool
	pending   *domain.GameState
}

// Animating reports whether a reveal is in progress.
func (b *AnimationBuffer) Animating() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.animating
}

// Begin enters Animating. A state still pending from an earlier animation is kept.
func (b *AnimationBuffer) Begin() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.animating = true
}

// Offer hands a new state to the buffer. It returns the state when it should
// be applied now, or nil when it was buffered.
func (b *AnimationBuffer) Offer(s *domain.GameState) *domain.GameState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.animating {
		return s
	}
	b.pending = s
	return nil
}

// Flush returns to Idle and yields the most recent buffered state, if any.
func (b *AnimationBuffer) Flush() *domain.GameState {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.pending
	b.animating = false
	b.pending = nil
	return s
}
