package nakama

import (
	"context"
	"testing"

	"marrakech/internal/app"
	"marrakech/internal/bot"
	"marrakech/internal/domain"
	"marrakech/internal/gameerr"
	"marrakech/internal/wire"

	"github.com/heroiclabs/nakama-common/runtime"
)

func newTestMatch(t *testing.T, registry *app.RoomRegistry, capacity int, env map[string]string) (*matchHandler, *MatchState) {
	t.Helper()
	if env == nil {
		env = map[string]string{}
	}
	if _, ok := env["marrakech_dice_seed"]; !ok {
		env["marrakech_dice_seed"] = "7"
	}
	ctx := context.WithValue(context.Background(), runtime.RUNTIME_CTX_ENV, env)
	mh := newMatchHandler(registry)
	state, tickRate, label := mh.MatchInit(ctx, noopLogger{}, nil, nil, map[string]interface{}{
		ParamCode:     "ROOM42",
		ParamCapacity: capacity,
	})
	if state == nil {
		t.Fatalf("MatchInit returned nil state")
	}
	if tickRate != 5 {
		t.Fatalf("tick rate = %d, want 5", tickRate)
	}
	decoded, err := wire.DecodeLabel(label)
	if err != nil {
		t.Fatalf("DecodeLabel: %v", err)
	}
	if decoded.Code != "ROOM42" || decoded.Open != capacity || decoded.State != string(app.RoomLobby) {
		t.Fatalf("unexpected initial label %+v", decoded)
	}
	return mh, state.(*MatchState)
}

func join(t *testing.T, mh *matchHandler, state *MatchState, d *mockDispatcher, userID string) {
	t.Helper()
	p := testPresence{userID: userID, username: userID + "-name"}
	if _, ok, reason := mh.MatchJoinAttempt(context.Background(), noopLogger{}, nil, nil, d, 0, state, p, map[string]string{MetadataName: "Player " + userID}); !ok {
		t.Fatalf("join attempt for %s rejected: %s", userID, reason)
	}
	mh.MatchJoin(context.Background(), noopLogger{}, nil, nil, d, 0, state, []runtime.Presence{p})
}

func send(mh *matchHandler, state *MatchState, d *mockDispatcher, tick int64, userID string, opCode int64, body any) interface{} {
	var data []byte
	if body != nil {
		data, _ = wire.Marshal(body)
	}
	msg := testData{testPresence: testPresence{userID: userID}, opCode: opCode, data: data}
	return mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, d, tick, state, []runtime.MatchData{msg})
}

func equalOps(got, want []int64) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestJoinAndStartEmitEventsToTheRightPresences(t *testing.T) {
	mh, state := newTestMatch(t, nil, 3, nil)
	d := &mockDispatcher{}

	join(t, mh, state, d, "u1")
	if len(d.sent) != 1 || d.sent[0].opCode != wire.OpRoomCreated || d.sent[0].recipients[0] != "u1" {
		t.Fatalf("first join sent %+v, want private room_created", d.sent)
	}
	var created app.RoomCreatedPayload
	if err := wire.Unmarshal(d.sent[0].data, &created); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if created.Code != "ROOM42" || created.Seat != 0 {
		t.Fatalf("room_created = %+v", created)
	}

	d.reset()
	join(t, mh, state, d, "u2")
	if !equalOps(d.opCodes(), []int64{wire.OpJoinResult, wire.OpSeatJoined}) {
		t.Fatalf("second join ops = %v", d.opCodes())
	}
	if d.sent[0].recipients[0] != "u2" || d.sent[1].recipients[0] != "u1" {
		t.Fatalf("join events went to the wrong presences: %+v", d.sent)
	}
	label, _ := wire.DecodeLabel(d.lastLabel)
	if label.Open != 1 {
		t.Fatalf("label open = %d, want 1", label.Open)
	}

	d.reset()
	send(mh, state, d, 1, "u1", wire.OpStart, nil)
	if !equalOps(d.opCodes(), []int64{wire.OpSessionStarted, wire.OpYourTurn}) {
		t.Fatalf("start ops = %v", d.opCodes())
	}
	if d.sent[0].recipients != nil {
		t.Fatalf("session_started should be broadcast")
	}
	if d.sent[1].recipients[0] != "u1" {
		t.Fatalf("your_turn sent to %v, want u1", d.sent[1].recipients)
	}
	label, _ = wire.DecodeLabel(d.lastLabel)
	if label.State != string(app.RoomInProgress) || label.Open != 0 {
		t.Fatalf("label after start = %+v", label)
	}
}

func TestRollSendsDiceBeforeState(t *testing.T) {
	mh, state := newTestMatch(t, nil, 2, nil)
	d := &mockDispatcher{}
	join(t, mh, state, d, "u1")
	join(t, mh, state, d, "u2")
	send(mh, state, d, 1, "u1", wire.OpStart, nil)

	d.reset()
	send(mh, state, d, 2, "u1", wire.OpOrient, wire.DirectionRequest{Direction: domain.East})
	if !equalOps(d.opCodes(), []int64{wire.OpStateUpdated}) {
		t.Fatalf("orient ops = %v", d.opCodes())
	}
	var updated app.StateUpdatedPayload
	if err := wire.Unmarshal(d.sent[0].data, &updated); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if updated.State.Token.Facing != domain.East || updated.State.Phase != domain.PhaseRoll {
		t.Fatalf("state after orient: facing %s phase %s", updated.State.Token.Facing, updated.State.Phase)
	}

	d.reset()
	send(mh, state, d, 3, "u1", wire.OpRoll, nil)
	ops := d.opCodes()
	if len(ops) < 2 || ops[0] != wire.OpDiceValue || ops[1] != wire.OpStateUpdated {
		t.Fatalf("roll ops = %v, want dice_value then state_updated", ops)
	}
	var dice app.DiceValuePayload
	if err := wire.Unmarshal(d.sent[0].data, &dice); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !dice.Roll.Valid() || dice.Roll.Faces[len(dice.Roll.Faces)-1] != dice.Roll.Value {
		t.Fatalf("invalid roll %+v", dice.Roll)
	}
}

func TestOutOfTurnActionGetsPrivateError(t *testing.T) {
	mh, state := newTestMatch(t, nil, 2, nil)
	d := &mockDispatcher{}
	join(t, mh, state, d, "u1")
	join(t, mh, state, d, "u2")
	send(mh, state, d, 1, "u1", wire.OpStart, nil)
	before := state.Room.State()

	d.reset()
	send(mh, state, d, 2, "u2", wire.OpOrient, wire.DirectionRequest{Direction: domain.West})
	if len(d.sent) != 1 || d.sent[0].opCode != wire.OpError || d.sent[0].recipients[0] != "u2" {
		t.Fatalf("sent %+v, want one private error", d.sent)
	}
	var msg wire.ErrorMessage
	if err := wire.Unmarshal(d.sent[0].data, &msg); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if msg.Code != string(gameerr.CodeInvalidAction) {
		t.Fatalf("error code = %q", msg.Code)
	}
	if state.Room.State() != before {
		t.Fatalf("rejected action changed the state")
	}

	d.reset()
	send(mh, state, d, 3, "u2", wire.OpStart, nil)
	if len(d.sent) != 1 || d.sent[0].opCode != wire.OpError {
		t.Fatalf("second start should be rejected, sent %+v", d.sent)
	}
}

func TestJoinAttemptRejections(t *testing.T) {
	mh, state := newTestMatch(t, nil, 2, nil)
	d := &mockDispatcher{}
	join(t, mh, state, d, "u1")

	if _, ok, _ := mh.MatchJoinAttempt(context.Background(), noopLogger{}, nil, nil, d, 0, state, testPresence{userID: "u1"}, nil); ok {
		t.Fatalf("already seated user was admitted")
	}

	join(t, mh, state, d, "u2")
	if _, ok, reason := mh.MatchJoinAttempt(context.Background(), noopLogger{}, nil, nil, d, 0, state, testPresence{userID: "u3"}, nil); ok || reason != app.ErrRoomFull.Message {
		t.Fatalf("full room: ok=%t reason=%q", ok, reason)
	}

	send(mh, state, d, 1, "u1", wire.OpStart, nil)
	if _, ok, reason := mh.MatchJoinAttempt(context.Background(), noopLogger{}, nil, nil, d, 0, state, testPresence{userID: "u3"}, nil); ok || reason != app.ErrRoomStarted.Message {
		t.Fatalf("started room: ok=%t reason=%q", ok, reason)
	}
}

func TestLeaveDuringGameEndsItAndLastLeaveReleasesCode(t *testing.T) {
	registry := app.NewRoomRegistry()
	code, err := registry.Reserve()
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if err := registry.Bind(code, "match-1"); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	mh, state := newTestMatch(t, registry, 2, nil)
	room, _ := app.NewRoom(code, 2, domain.NewDice(3))
	state.Room = room
	d := &mockDispatcher{}
	join(t, mh, state, d, "u1")
	join(t, mh, state, d, "u2")
	send(mh, state, d, 1, "u1", wire.OpStart, nil)

	d.reset()
	next := mh.MatchLeave(context.Background(), noopLogger{}, nil, nil, d, 2, state, []runtime.Presence{testPresence{userID: "u2"}})
	if next == nil {
		t.Fatalf("match terminated while a human remains")
	}
	if !equalOps(d.opCodes(), []int64{wire.OpSeatLeft, wire.OpStateUpdated, wire.OpGameOver}) {
		t.Fatalf("leave ops = %v", d.opCodes())
	}
	var over app.GameOverPayload
	if err := wire.Unmarshal(d.sent[2].data, &over); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if over.Winner == nil || *over.Winner != 0 {
		t.Fatalf("winner = %v, want seat 0", over.Winner)
	}
	if state.Room.Status() != app.RoomFinished {
		t.Fatalf("status = %s", state.Room.Status())
	}

	if next := mh.MatchLeave(context.Background(), noopLogger{}, nil, nil, d, 3, state, []runtime.Presence{testPresence{userID: "u1"}}); next != nil {
		t.Fatalf("empty match should terminate")
	}
	if registry.Len() != 0 {
		t.Fatalf("room code was not released")
	}
}

func TestMatchSignalReportsSeats(t *testing.T) {
	mh, state := newTestMatch(t, nil, 2, nil)
	d := &mockDispatcher{}
	join(t, mh, state, d, "u1")

	if _, reply := mh.MatchSignal(context.Background(), noopLogger{}, nil, nil, d, 0, state, "u1"); reply != signalSeated {
		t.Fatalf("u1 reply = %q", reply)
	}
	if _, reply := mh.MatchSignal(context.Background(), noopLogger{}, nil, nil, d, 0, state, "nobody"); reply != "" {
		t.Fatalf("stranger reply = %q", reply)
	}
}

func TestProcessBotsFillsSoloLobbyAndPlays(t *testing.T) {
	env := map[string]string{
		"marrakech_bots_enabled":   "true",
		"marrakech_bot_fill_delay": "1s",
		"marrakech_bot_min_delay":  "200ms",
		"marrakech_bot_max_delay":  "200ms",
	}
	mh, state := newTestMatch(t, nil, 3, env)
	d := &mockDispatcher{}
	join(t, mh, state, d, "u1")

	mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, d, 1, state, nil)
	mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, d, 3, state, nil)
	if len(state.Room.Seats()) != 1 {
		t.Fatalf("bots joined before the fill delay")
	}
	mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, d, 6, state, nil)
	if len(state.Room.Seats()) != 3 || len(state.Bots) != 2 {
		t.Fatalf("seats = %d bots = %d, want 3 and 2", len(state.Room.Seats()), len(state.Bots))
	}
	for _, seat := range state.Room.Seats()[1:] {
		if !bot.IsBot(seat.Conn) {
			t.Fatalf("seat %d is not a bot: %s", seat.ID, seat.Conn)
		}
	}

	send(mh, state, d, 7, "u1", wire.OpStart, nil)
	human := &bot.GreedyBot{Tuning: bot.DefaultTuning, Rules: bot.DefaultRules()}
	for tick := int64(8); tick < 500; tick++ {
		game := state.Room.State()
		if game.Over || game.Turn >= 4 {
			return
		}
		if game.Current != 0 {
			mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, d, tick, state, nil)
			continue
		}
		action, err := human.Decide(game, 0)
		if err != nil {
			t.Fatalf("Decide: %v", err)
		}
		op, data, err := wire.EncodeAction(action)
		if err != nil {
			t.Fatalf("EncodeAction: %v", err)
		}
		msg := testData{testPresence: testPresence{userID: "u1"}, opCode: op, data: data}
		mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, d, tick, state, []runtime.MatchData{msg})
	}
	t.Fatalf("bots did not take their turns")
}
