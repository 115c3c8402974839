package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"marrakech/internal/domain"
	"marrakech/internal/gameerr"
)

// DirectionRequest is the body of orient and choose_border.
type DirectionRequest struct {
	Direction domain.Direction `json:"direction"`
}

// PlaceRequest is the body of place.
type PlaceRequest struct {
	CellA domain.Position `json:"cell_a"`
	CellB domain.Position `json:"cell_b"`
}

// ErrorMessage is sent to the caller of a rejected request.
type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MatchLabel is advertised on every room match for listing and lookup.
type MatchLabel struct {
	Code     string `json:"code"`
	Open     int    `json:"open"`
	Capacity int    `json:"capacity"`
	State    string `json:"state"`
}

// EncodeLabel renders the label as JSON via protojson.
func EncodeLabel(l MatchLabel) (string, error) {
	st, err := toStruct(l)
	if err != nil {
		return "", err
	}
	b, err := (&protojson.MarshalOptions{EmitUnpopulated: true}).Marshal(st)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeLabel parses a label produced by EncodeLabel.
func DecodeLabel(s string) (MatchLabel, error) {
	var l MatchLabel
	st := &structpb.Struct{}
	if err := protojson.Unmarshal([]byte(s), st); err != nil {
		return l, fmt.Errorf("decode label: %w", err)
	}
	err := fromStruct(st, &l)
	return l, err
}

// DecodeAction turns a client turn message into an engine action. Roll
// carries no dice; the server draws them.
func DecodeAction(opCode int64, data []byte) (domain.Action, error) {
	switch opCode {
	case OpOrient, OpChooseBorder:
		// A missing direction must not fall through to North.
		var req struct {
			Direction *domain.Direction `json:"direction"`
		}
		if err := Unmarshal(data, &req); err != nil {
			return domain.Action{}, gameerr.Wrap(gameerr.CodeInvalidAction, "malformed direction request", err)
		}
		if req.Direction == nil || !req.Direction.Valid() {
			return domain.Action{}, gameerr.New(gameerr.CodeInvalidAction, "direction request without a direction")
		}
		if opCode == OpOrient {
			return domain.Orient(*req.Direction), nil
		}
		return domain.ChooseBorder(*req.Direction), nil
	case OpRoll:
		return domain.Roll(domain.DiceRoll{}), nil
	case OpAcknowledgeTribute:
		return domain.AcknowledgeTribute(), nil
	case OpPlace:
		var req struct {
			CellA *domain.Position `json:"cell_a"`
			CellB *domain.Position `json:"cell_b"`
		}
		if err := Unmarshal(data, &req); err != nil {
			return domain.Action{}, gameerr.Wrap(gameerr.CodeInvalidAction, "malformed place request", err)
		}
		if req.CellA == nil || req.CellB == nil {
			return domain.Action{}, gameerr.New(gameerr.CodeInvalidAction, "place request without both cells")
		}
		return domain.Place(*req.CellA, *req.CellB), nil
	}
	return domain.Action{}, gameerr.New(gameerr.CodeInvalidAction, fmt.Sprintf("unknown op code %d", opCode))
}

// EncodeAction is the client-side inverse of DecodeAction.
func EncodeAction(a domain.Action) (int64, []byte, error) {
	var (
		op   int64
		body any
	)
	switch a.Kind {
	case domain.ActionOrient:
		op, body = OpOrient, DirectionRequest{Direction: a.Direction}
	case domain.ActionChooseBorder:
		op, body = OpChooseBorder, DirectionRequest{Direction: a.Direction}
	case domain.ActionRoll:
		return OpRoll, nil, nil
	case domain.ActionAcknowledgeTribute:
		return OpAcknowledgeTribute, nil, nil
	case domain.ActionPlace:
		op, body = OpPlace, PlaceRequest{CellA: a.Placement.CellA, CellB: a.Placement.CellB}
	default:
		return 0, nil, fmt.Errorf("%w: %q", domain.ErrUnknownAction, a.Kind)
	}
	data, err := Marshal(body)
	return op, data, err
}
