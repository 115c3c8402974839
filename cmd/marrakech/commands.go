package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"marrakech/internal/domain"
)

var errEmptyCommand = errors.New("empty command")

// parseCommand reads one typed action:
//
//	orient N | roll | border E | pay | place r1 c1 r2 c2
func parseCommand(line string) (domain.Action, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return domain.Action{}, errEmptyCommand
	}
	switch fields[0] {
	case "orient", "o":
		d, err := oneDirection(fields)
		if err != nil {
			return domain.Action{}, err
		}
		return domain.Orient(d), nil
	case "roll", "r":
		return domain.Roll(domain.DiceRoll{}), nil
	case "border", "b":
		d, err := oneDirection(fields)
		if err != nil {
			return domain.Action{}, err
		}
		return domain.ChooseBorder(d), nil
	case "pay", "ack":
		return domain.AcknowledgeTribute(), nil
	case "place", "p":
		if len(fields) != 5 {
			return domain.Action{}, errors.New("place needs four numbers: r1 c1 r2 c2")
		}
		var n [4]int
		for i, f := range fields[1:] {
			v, err := strconv.Atoi(f)
			if err != nil {
				return domain.Action{}, fmt.Errorf("place: %q is not a number", f)
			}
			n[i] = v
		}
		return domain.Place(domain.Position{Row: n[0], Col: n[1]}, domain.Position{Row: n[2], Col: n[3]}), nil
	}
	return domain.Action{}, fmt.Errorf("unknown command %q", fields[0])
}

func oneDirection(fields []string) (domain.Direction, error) {
	if len(fields) != 2 {
		return 0, fmt.Errorf("%s needs a direction (N, E, S or W)", fields[0])
	}
	return domain.ParseDirection(fields[1])
}

var tokenGlyph = map[domain.Direction]string{
	domain.North: "^",
	domain.East:  ">",
	domain.South: "v",
	domain.West:  "<",
}

// renderBoard draws owners by seat number, neutral cells as x and the token
// as an arrow.
func renderBoard(s *domain.GameState) string {
	var b strings.Builder
	b.WriteString("   0 1 2 3 4 5 6\n")
	for r := 0; r < domain.BoardSize; r++ {
		fmt.Fprintf(&b, "%d ", r)
		for c := 0; c < domain.BoardSize; c++ {
			pos := domain.Position{Row: r, Col: c}
			cell := s.Board.At(pos)
			glyph := "."
			switch {
			case pos == s.Token.Position:
				glyph = tokenGlyph[s.Token.Facing]
			case cell.Empty():
			case cell.Neutral():
				glyph = "x"
			default:
				glyph = strconv.Itoa(cell.Owner)
			}
			b.WriteString(" " + glyph)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// describe summarizes whose move it is and what is expected.
func describe(s *domain.GameState) string {
	if s.Over {
		var b strings.Builder
		b.WriteString("game over\n")
		for i, sc := range s.Scores {
			fmt.Fprintf(&b, "  %d. %s: %d (%d dirhams + %d cells)\n", i+1, sc.Name, sc.Total, sc.Balance, sc.VisibleCells)
		}
		return b.String()
	}
	p := s.CurrentPlayer()
	line := fmt.Sprintf("turn %d, %s (seat %d, %d dirhams, %d carpets): %s", s.Turn, p.Name, p.ID, p.Balance, p.CarpetsRemaining, s.Phase)
	switch s.Phase {
	case domain.PhaseBorderChoice:
		line += fmt.Sprintf(" %v", s.Pause.Choices)
	case domain.PhaseTribute:
		if s.Tribute != nil {
			line += fmt.Sprintf(" (pay %d to seat %d)", s.Tribute.Amount, s.Tribute.Payee)
		}
	case domain.PhasePlace:
		line += fmt.Sprintf(" (%d options)", len(s.Candidates))
	}
	return line
}
