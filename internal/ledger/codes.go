package ledger

import "marrakech/internal/domain"

// Owner sentinels in the published board arrays.
const (
	OwnerEmpty   = 0xFF
	OwnerNeutral = 0xFE
)

// Phase codes as published by the game program.
const (
	CodeWaitingForPlayers uint8 = iota
	CodeOrient
	CodeCommitDice
	CodeRevealDice
	CodeBorderChoice
	CodeTribute
	CodePlace
	CodeGameOver
)

var phaseByCode = map[uint8]domain.Phase{
	CodeWaitingForPlayers: domain.PhaseWaitingForPlayers,
	CodeOrient:            domain.PhaseOrient,
	CodeCommitDice:        domain.PhaseCommitDice,
	CodeRevealDice:        domain.PhaseRevealDice,
	CodeBorderChoice:      domain.PhaseBorderChoice,
	CodeTribute:           domain.PhaseTribute,
	CodePlace:             domain.PhasePlace,
	CodeGameOver:          domain.PhaseGameOver,
}

var codeByPhase = map[domain.Phase]uint8{
	domain.PhaseWaitingForPlayers: CodeWaitingForPlayers,
	domain.PhaseOrient:            CodeOrient,
	domain.PhaseRoll:              CodeCommitDice,
	domain.PhaseCommitDice:        CodeCommitDice,
	domain.PhaseRevealDice:        CodeRevealDice,
	domain.PhaseBorderChoice:      CodeBorderChoice,
	domain.PhaseTribute:           CodeTribute,
	domain.PhasePlace:             CodePlace,
	domain.PhaseGameOver:          CodeGameOver,
}

// The program orders directions N, S, E, W. The engine's order differs, so
// both ways go through these tables.
var directionByCode = map[uint8]domain.Direction{
	0: domain.North,
	1: domain.South,
	2: domain.East,
	3: domain.West,
}

var codeByDirection = map[domain.Direction]uint8{
	domain.North: 0,
	domain.South: 1,
	domain.East:  2,
	domain.West:  3,
}

// PhaseOf maps a published phase code.
func PhaseOf(code uint8) (domain.Phase, bool) {
	p, ok := phaseByCode[code]
	return p, ok
}

// PhaseCode maps an engine phase to its published code. The engine's single
// roll phase maps to the commit step.
func PhaseCode(p domain.Phase) (uint8, bool) {
	c, ok := codeByPhase[p]
	return c, ok
}

// DirectionOf maps a published direction code.
func DirectionOf(code uint8) (domain.Direction, bool) {
	d, ok := directionByCode[code]
	return d, ok
}

// DirectionCode maps an engine direction to its published code.
func DirectionCode(d domain.Direction) (uint8, bool) {
	c, ok := codeByDirection[d]
	return c, ok
}
