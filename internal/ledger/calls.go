package ledger

import (
	"fmt"

	"marrakech/internal/domain"
	"marrakech/internal/gameerr"
)

func directionArg(d domain.Direction) (uint8, error) {
	code, ok := DirectionCode(d)
	if !ok {
		return 0, fmt.Errorf("%w: %d", domain.ErrIllegalDirection, d)
	}
	return code, nil
}

// OrientCall turns the token.
func OrientCall(d domain.Direction) (Call, error) {
	code, err := directionArg(d)
	if err != nil {
		return Call{}, err
	}
	return Call{Name: CallOrient, Args: map[string]any{"direction": code}}, nil
}

// ChooseBorderCall answers a border pause.
func ChooseBorderCall(d domain.Direction) (Call, error) {
	code, err := directionArg(d)
	if err != nil {
		return Call{}, err
	}
	return Call{Name: CallChooseBorder, Args: map[string]any{"direction": code}}, nil
}

func CommitCall(c *Commitment) Call {
	return Call{Name: CallCommitDice, Args: map[string]any{"commit_hash": c.HashHex()}}
}

func RevealCall(c *Commitment) Call {
	return Call{Name: CallRevealDice, Args: map[string]any{"salt": c.SecretDecimal()}}
}

func AcknowledgeTributeCall() Call {
	return Call{Name: CallAcknowledgeTribute, Args: map[string]any{}}
}

func PlaceCarpetCall(a, b domain.Position) Call {
	return Call{Name: CallPlaceCarpet, Args: map[string]any{
		"row1": a.Row, "col1": a.Col,
		"row2": b.Row, "col2": b.Col,
	}}
}

func JoinCall() Call {
	return Call{Name: CallJoin, Args: map[string]any{}}
}

var errNoCommitment = gameerr.New(gameerr.CodeInvalidAction, "no dice commitment to reveal")
