package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"marrakech/internal/app"
	"marrakech/internal/domain"
	"marrakech/internal/gameerr"

	"github.com/heroiclabs/nakama-common/runtime"
)

// RoomResponse is returned by create_room and join_room.
type RoomResponse struct {
	Code    string `json:"code"`
	MatchID string `json:"match_id"`
}

type createRoomRequest struct {
	Capacity int `json:"capacity"`
}

type joinRoomRequest struct {
	Code string `json:"code"`
}

type voiceTokenRequest struct {
	Code   string `json:"code"`
	Action string `json:"action"`
}

type voiceTokenResponse struct {
	Token string `json:"token"`
}

// RegisterRPCs registers the room and voice RPCs bound to one registry.
func RegisterRPCs(initializer runtime.Initializer, registry *app.RoomRegistry, voice *app.VoiceService) error {
	if err := initializer.RegisterRpc(RpcCreateRoom, newCreateRoomRPC(registry)); err != nil {
		return err
	}
	if err := initializer.RegisterRpc(RpcJoinRoom, newJoinRoomRPC(registry)); err != nil {
		return err
	}
	return initializer.RegisterRpc(RpcVoiceToken, newVoiceTokenRPC(registry, voice))
}

type rpcFunc func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error)

// newCreateRoomRPC reserves a code and creates the match hosting it. The
// caller joins the returned match to take seat 0.
//
// Payload: {"capacity": 2..4} (optional, default 4).
func newCreateRoomRPC(registry *app.RoomRegistry) rpcFunc {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)

		req := createRoomRequest{Capacity: domain.MaxPlayers}
		if strings.TrimSpace(payload) != "" {
			if err := json.Unmarshal([]byte(payload), &req); err != nil {
				return "", runtime.NewError("invalid payload", gameerr.StatusInvalidArgument)
			}
		}
		if req.Capacity < domain.MinPlayers || req.Capacity > domain.MaxPlayers {
			return "", runtime.NewError(app.ErrInvalidCapacity.Message, gameerr.StatusInvalidArgument)
		}

		code, err := registry.Reserve()
		if err != nil {
			logger.Error("RpcCreateRoom [User:%s]: %v", userID, err)
			return "", runtime.NewError("could not allocate room code", gameerr.StatusInternal)
		}

		matchID, err := nk.MatchCreate(ctx, MatchNameMarrakech, map[string]interface{}{
			ParamCode:     code,
			ParamCapacity: req.Capacity,
		})
		if err != nil {
			registry.Release(code)
			logger.Error("RpcCreateRoom [User:%s]: Failed to create match: %v", userID, err)
			return "", runtime.NewError("could not create room", gameerr.StatusInternal)
		}
		if err := registry.Bind(code, matchID); err != nil {
			return "", runtime.NewError(err.Error(), gameerr.StatusInternal)
		}

		logger.Info("RpcCreateRoom [User:%s]: Created room %s as match %s", userID, code, matchID)
		return marshalResponse(RoomResponse{Code: code, MatchID: matchID})
	}
}

// newJoinRoomRPC resolves a room code. Codes unknown to this node fall back
// to a label query so rooms created elsewhere in the cluster are found.
//
// Payload: {"code": "ABC123"}.
func newJoinRoomRPC(registry *app.RoomRegistry) rpcFunc {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		var req joinRoomRequest
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", runtime.NewError("invalid payload", gameerr.StatusInvalidArgument)
		}
		code := strings.ToUpper(strings.TrimSpace(req.Code))
		if !app.ValidRoomCode(code) {
			return "", runtime.NewError("invalid room code", gameerr.StatusInvalidArgument)
		}

		matchID, err := resolveRoom(ctx, nk, registry, code)
		if err != nil {
			return "", toRuntimeError(err)
		}
		return marshalResponse(RoomResponse{Code: code, MatchID: matchID})
	}
}

// newVoiceTokenRPC signs a voice token for a user seated in the room.
//
// Payload: {"code": "ABC123", "action": "login" | "join"}.
func newVoiceTokenRPC(registry *app.RoomRegistry, voice *app.VoiceService) rpcFunc {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
		if userID == "" {
			return "", runtime.NewError("user required", gameerr.StatusPermissionDenied)
		}
		if !voice.Configured() {
			return "", runtime.NewError("voice chat is not configured", gameerr.StatusFailedPrecondition)
		}

		var req voiceTokenRequest
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", runtime.NewError("invalid payload", gameerr.StatusInvalidArgument)
		}
		if req.Action != app.VoiceActionLogin && req.Action != app.VoiceActionJoin {
			return "", runtime.NewError(fmt.Sprintf("unknown voice action %q", req.Action), gameerr.StatusInvalidArgument)
		}
		code := strings.ToUpper(strings.TrimSpace(req.Code))

		matchID, err := resolveRoom(ctx, nk, registry, code)
		if err != nil {
			return "", toRuntimeError(err)
		}
		reply, err := nk.MatchSignal(ctx, matchID, userID)
		if err != nil {
			logger.Warn("RpcVoiceToken [User:%s]: Signal to %s failed: %v", userID, matchID, err)
			return "", runtime.NewError("room unavailable", gameerr.StatusNotFound)
		}
		if reply != signalSeated {
			return "", runtime.NewError("not seated in this room", gameerr.StatusPermissionDenied)
		}

		token, err := voice.Token(userID, req.Action, code)
		if err != nil {
			logger.Error("RpcVoiceToken [User:%s]: Failed to sign token: %v", userID, err)
			return "", runtime.NewError("internal error", gameerr.StatusInternal)
		}
		return marshalResponse(voiceTokenResponse{Token: token})
	}
}

func resolveRoom(ctx context.Context, nk runtime.NakamaModule, registry *app.RoomRegistry, code string) (string, error) {
	matchID, err := registry.Resolve(code)
	if err == nil {
		return matchID, nil
	}
	if !errors.Is(err, app.ErrRoomNotFound) {
		return "", err
	}

	query := fmt.Sprintf("+label.%s:%s", MatchLabelKey_Code, code)
	matches, listErr := nk.MatchList(ctx, 1, true, "", nil, nil, query)
	if listErr != nil {
		return "", listErr
	}
	if len(matches) == 0 {
		return "", err
	}
	return matches[0].MatchId, nil
}

func toRuntimeError(err error) error {
	return runtime.NewError(err.Error(), gameerr.RuntimeCode(err))
}

func marshalResponse(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", runtime.NewError("internal error", gameerr.StatusInternal)
	}
	return string(b), nil
}
