package nakama

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"

	"marrakech/internal/app"
	"marrakech/internal/bot"
	"marrakech/internal/config"
	"marrakech/internal/domain"
	"marrakech/internal/gameerr"
	"marrakech/internal/wire"

	"github.com/heroiclabs/nakama-common/runtime"
)

// MatchState holds the authoritative runtime state for one room.
type MatchState struct {
	Room         *app.Room                   // Seats, turn ownership and the game itself
	Presences    map[string]runtime.Presence // Map UserId -> Presence for targeted messaging
	Names        map[string]string           // Display names offered at join attempt
	Bots         map[string]*bot.Agent       // Bot agents keyed by their connection id
	Config       config.Plugin
	Tick         int64
	BotWaitUntil int64 // Tick when the current bot should act
	SoloSince    int64 // Tick when a single human started waiting alone
	released     bool
}

// HumanCount is the number of connected human presences.
func (ms *MatchState) HumanCount() int {
	return len(ms.Presences)
}

type matchHandler struct {
	registry *app.RoomRegistry
}

func newMatchHandler(registry *app.RoomRegistry) *matchHandler {
	return &matchHandler{registry: registry}
}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	code, _ := params[ParamCode].(string)
	capacity := intParam(params[ParamCapacity], domain.MaxPlayers)

	envMap, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	cfg, err := config.PluginFromEnv(envMap)
	if err != nil {
		logger.Error("MatchInit: Invalid plugin config: %v", err)
		return nil, 0, ""
	}

	room, err := app.NewRoom(code, capacity, domain.NewDice(cfg.DiceSeed))
	if err != nil {
		logger.Error("MatchInit: Failed to create room %s: %v", code, err)
		return nil, 0, ""
	}

	state := &MatchState{
		Room:      room,
		Presences: make(map[string]runtime.Presence),
		Names:     make(map[string]string),
		Bots:      make(map[string]*bot.Agent),
		Config:    cfg,
	}

	label, err := wire.EncodeLabel(labelFor(room))
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}

	logger.Debug("MatchInit: Room %s opened with capacity %d.", code, capacity)
	return state, cfg.TickRate, label
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}
	room := matchState.Room

	switch {
	case room.Status() != app.RoomLobby:
		return state, false, app.ErrRoomStarted.Message
	case room.OpenSeats() <= 0:
		return state, false, app.ErrRoomFull.Message
	}
	if _, seated := room.SeatOf(presence.GetUserId()); seated {
		return state, false, app.ErrAlreadySeated.Message
	}

	name := metadata[MetadataName]
	if name == "" {
		name = presence.GetUsername()
	}
	matchState.Names[presence.GetUserId()] = name
	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		matchState.Presences[userID] = p

		events, err := matchState.Room.Join(userID, matchState.Names[userID])
		delete(matchState.Names, userID)
		if err != nil {
			logger.Warn("MatchJoin: User %s joined but could not be seated: %v", userID, err)
			mh.sendError(matchState, dispatcher, logger, userID, err)
			continue
		}
		mh.dispatch(matchState, dispatcher, logger, events)
	}

	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

// MatchLeave is called when one or more players leave the match.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		delete(matchState.Presences, userID)

		events, err := matchState.Room.Disconnect(userID)
		if err != nil && !errors.Is(err, app.ErrUnknownSeat) {
			logger.Error("MatchLeave: Disconnect of %s failed: %v", userID, err)
		}
		mh.dispatch(matchState, dispatcher, logger, events)
		logger.Debug("MatchLeave: User %s left room %s.", userID, matchState.Room.Code())
	}

	if matchState.HumanCount() == 0 {
		logger.Info("MatchLeave: Terminating room %s with no humans.", matchState.Room.Code())
		mh.release(matchState)
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		switch op := msg.GetOpCode(); op {
		case wire.OpStart:
			mh.handleStart(matchState, dispatcher, logger, msg)
		case wire.OpOrient, wire.OpRoll, wire.OpChooseBorder, wire.OpAcknowledgeTribute, wire.OpPlace:
			mh.handleAction(matchState, dispatcher, logger, msg)
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", op)
			mh.sendError(matchState, dispatcher, logger, msg.GetUserId(), gameerr.New(gameerr.CodeInvalidAction, fmt.Sprintf("unknown op code %d", op)))
		}
	}

	if matchState.Config.BotsEnabled {
		mh.processBots(matchState, dispatcher, logger)
	}

	return matchState
}

func (mh *matchHandler) handleStart(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	events, err := state.Room.Start(senderID)
	if err != nil {
		logger.Warn("StartGame: User %s could not start room %s: %v", senderID, state.Room.Code(), err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}

	mh.dispatch(state, dispatcher, logger, events)
	mh.updateLabel(state, dispatcher, logger)
	logger.Info("StartGame: Room %s started with %d seats.", state.Room.Code(), len(state.Room.Seats()))
}

func (mh *matchHandler) handleAction(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	action, err := wire.DecodeAction(msg.GetOpCode(), msg.GetData())
	if err != nil {
		logger.Warn("handleAction: Malformed request from %s: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}
	mh.apply(state, dispatcher, logger, senderID, action)
}

func (mh *matchHandler) apply(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, conn string, action domain.Action) {
	events, err := state.Room.Apply(conn, action)
	if err != nil {
		logger.Warn("handleAction: %s by %s rejected: %v", action.Kind, conn, err)
		mh.sendError(state, dispatcher, logger, conn, err)
		return
	}
	mh.dispatch(state, dispatcher, logger, events)
	if state.Room.Status() == app.RoomFinished {
		mh.updateLabel(state, dispatcher, logger)
	}
}

// processBots tops up a solo lobby with bots and plays bot turns after a
// random delay.
func (mh *matchHandler) processBots(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	room := state.Room
	cfg := state.Config

	if room.Status() == app.RoomLobby {
		if state.HumanCount() != 1 {
			state.SoloSince = 0
			return
		}
		if state.SoloSince == 0 {
			state.SoloSince = state.Tick
			return
		}
		if state.Tick-state.SoloSince < cfg.Ticks(cfg.BotFillDelay) {
			return
		}
		state.SoloSince = 0
		level, err := bot.ParseLevel(cfg.BotLevel)
		if err != nil {
			logger.Error("processBots: %v", err)
			return
		}
		for i := 0; room.OpenSeats() > 0; i++ {
			identity := bot.NewIdentity(i)
			agent, err := bot.NewAgent(identity, -1, level, uint64(state.Tick)+uint64(i))
			if err != nil {
				logger.Error("processBots: Failed to create bot agent: %v", err)
				return
			}
			events, err := room.Join(identity.ID, identity.Name)
			if err != nil {
				logger.Error("processBots: Failed to seat %s: %v", identity.Name, err)
				return
			}
			state.Bots[identity.ID] = agent
			mh.dispatch(state, dispatcher, logger, events)
			logger.Info("processBots: Added bot %s to room %s", identity.Name, room.Code())
		}
		mh.updateLabel(state, dispatcher, logger)
		return
	}

	game := room.State()
	if room.Status() != app.RoomInProgress || game == nil {
		return
	}
	conn := room.Seats()[game.Current].Conn
	agent, isBot := state.Bots[conn]
	if !isBot {
		state.BotWaitUntil = 0
		return
	}

	if state.BotWaitUntil == 0 {
		lo, hi := cfg.Ticks(cfg.BotMinDelay), cfg.Ticks(cfg.BotMaxDelay)
		state.BotWaitUntil = state.Tick + lo + rand.Int63n(hi-lo+1)
		return
	}
	if state.Tick < state.BotWaitUntil {
		return
	}
	state.BotWaitUntil = 0

	agent.Seat = game.Current
	action, err := agent.Play(game)
	if err != nil {
		logger.Error("processBots: Bot %s failed to decide: %v", agent.Name, err)
		return
	}
	mh.apply(state, dispatcher, logger, conn, action)
}

// dispatch sends room events in emission order.
func (mh *matchHandler) dispatch(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	for _, ev := range events {
		mh.broadcastEvent(state, dispatcher, logger, ev)
	}
}

// broadcastEvent handles the conversion and dispatching of room events to Nakama.
func (mh *matchHandler) broadcastEvent(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	opCode, ok := wire.EventOpCode(string(ev.Kind))
	if !ok {
		logger.Warn("Unknown event kind: %v", ev.Kind)
		return
	}

	bytes, err := wire.Marshal(ev.Payload)
	if err != nil {
		logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
		return
	}

	// Determine recipients (default to broadcast)
	var recipients []runtime.Presence
	if len(ev.Recipients) > 0 {
		for _, uid := range ev.Recipients {
			if p, ok := state.Presences[uid]; ok {
				recipients = append(recipients, p)
			}
		}

		// Addressed only to bots or departed users; never widen to a broadcast.
		if len(recipients) == 0 {
			return
		}
	}

	if err := dispatcher.BroadcastMessage(opCode, bytes, recipients, nil, true); err != nil {
		logger.Error("Failed to broadcast %v: %v", ev.Kind, err)
	}
}

// sendError reports a rejected request to its sender only.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, cause error) {
	presence, ok := state.Presences[userID]
	if !ok {
		return
	}

	msg := wire.ErrorMessage{Code: string(gameerr.CodeInvalidAction), Message: cause.Error()}
	if code, ok := gameerr.CodeOf(cause); ok {
		msg.Code = string(code)
	}
	bytes, err := wire.Marshal(msg)
	if err != nil {
		logger.Error("Failed to marshal error message: %v", err)
		return
	}

	dispatcher.BroadcastMessage(wire.OpError, bytes, []runtime.Presence{presence}, nil, true)
}

func labelFor(room *app.Room) wire.MatchLabel {
	return wire.MatchLabel{
		Code:     room.Code(),
		Open:     room.OpenSeats(),
		Capacity: room.Capacity(),
		State:    string(room.Status()),
	}
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label, err := wire.EncodeLabel(labelFor(state.Room))
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) release(state *MatchState) {
	if state.released || mh.registry == nil {
		return
	}
	state.released = true
	mh.registry.Release(state.Room.Code())
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	if matchState, ok := state.(*MatchState); ok {
		mh.release(matchState)
		logger.Debug("MatchTerminate: Room %s terminated.", matchState.Room.Code())
	}
	return state
}

// MatchSignal answers seat lookups: the signal data is a user id and the
// reply is "seated" when that user holds a seat.
func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, ""
	}
	if _, seated := matchState.Room.SeatOf(data); seated {
		return state, signalSeated
	}
	return state, ""
}

const signalSeated = "seated"

func intParam(v interface{}, fallback int) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return fallback
}
