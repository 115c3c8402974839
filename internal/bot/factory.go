package bot

import (
	"fmt"

	"golang.org/x/exp/rand"
)

// Level selects a strategy.
type Level int

const (
	LevelRandom Level = iota
	LevelGreedy
)

// ParseLevel maps a config string to a Level.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "random", "easy":
		return LevelRandom, nil
	case "greedy", "", "good":
		return LevelGreedy, nil
	}
	return 0, fmt.Errorf("unknown bot level %q", s)
}

// NewBrain creates a new AI brain based on the specified level.
func NewBrain(level Level, seed uint64) (Brain, error) {
	switch level {
	case LevelRandom:
		return &RandomBot{rng: rand.New(rand.NewSource(seed))}, nil
	case LevelGreedy:
		return &GreedyBot{Tuning: DefaultTuning, Rules: DefaultRules()}, nil
	default:
		return nil, fmt.Errorf("unknown bot level: %d", level)
	}
}
