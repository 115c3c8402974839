package domain

import (
	"fmt"
	"strings"
)

// Direction is a compass facing. Values are ordered clockwise so that turning
// is modular arithmetic.
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

var directionNames = [...]string{"N", "E", "S", "W"}

var directionVectors = [...]Position{
	North: {Row: -1, Col: 0},
	East:  {Row: 0, Col: 1},
	South: {Row: 1, Col: 0},
	West:  {Row: 0, Col: -1},
}

// Directions lists every facing in clockwise order.
var Directions = []Direction{North, East, South, West}

func (d Direction) Valid() bool {
	return d >= North && d <= West
}

func (d Direction) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionNames[d]
}

// Vector returns the unit row/column offset of one step.
func (d Direction) Vector() Position {
	return directionVectors[d]
}

func (d Direction) Opposite() Direction { return (d + 2) % 4 }

// Left is the facing after a quarter turn counter-clockwise.
func (d Direction) Left() Direction { return (d + 3) % 4 }

// Right is the facing after a quarter turn clockwise.
func (d Direction) Right() Direction { return (d + 1) % 4 }

// Perpendicular reports whether the two directions are at right angles.
func (d Direction) Perpendicular(o Direction) bool {
	return d.Left() == o || d.Right() == o
}

// Orientations returns the legal new facings for an orient action: straight,
// left and right. The opposite facing is never legal.
func Orientations(facing Direction) []Direction {
	return []Direction{facing, facing.Left(), facing.Right()}
}

// ParseDirection accepts "N", "E", "S", "W" in any case.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "N", "NORTH":
		return North, nil
	case "E", "EAST":
		return East, nil
	case "S", "SOUTH":
		return South, nil
	case "W", "WEST":
		return West, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid direction %d", int(d))
	}
	return []byte(directionNames[d]), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
