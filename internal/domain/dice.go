package domain

import (
	"time"

	"golang.org/x/exp/rand"
)

// DiceFaces is the weighted six-sided die: one 1, two 2s, two 3s, one 4.
var DiceFaces = [...]int{1, 2, 2, 3, 3, 4}

// revealFrames is how many intermediate faces precede the final value.
const revealFrames = 10

// DiceRoll is the outcome of one throw. Faces are the reveal frames for
// animation and always end with Value.
type DiceRoll struct {
	Value int   `json:"value"`
	Faces []int `json:"faces"`
}

// Valid reports whether the value is a face of the die.
func (d DiceRoll) Valid() bool {
	return d.Value >= 1 && d.Value <= 4
}

// FixedRoll builds a roll with a known value and a single frame. Ledger reads
// and tests use it; nothing random is involved.
func FixedRoll(value int) DiceRoll {
	return DiceRoll{Value: value, Faces: []int{value}}
}

// Dice draws weighted rolls. It is not safe for concurrent use; each session
// owns its own.
type Dice struct {
	rng *rand.Rand
}

// NewDice seeds a die. A zero seed uses the clock.
func NewDice(seed uint64) *Dice {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Dice{rng: rand.New(rand.NewSource(seed))}
}

// Roll throws the die once.
func (d *Dice) Roll() DiceRoll {
	faces := make([]int, 0, revealFrames+1)
	for i := 0; i < revealFrames; i++ {
		faces = append(faces, d.face())
	}
	value := d.face()
	faces = append(faces, value)
	return DiceRoll{Value: value, Faces: faces}
}

func (d *Dice) face() int {
	return DiceFaces[d.rng.Intn(len(DiceFaces))]
}
