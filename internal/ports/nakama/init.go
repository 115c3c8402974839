package nakama

import (
	"context"
	"database/sql"

	"marrakech/internal/app"
	"marrakech/internal/config"

	"github.com/heroiclabs/nakama-common/runtime"
)

// InitModule wires RPCs and the room match handler for Nakama runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	envMap, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	cfg, err := config.PluginFromEnv(envMap)
	if err != nil {
		return err
	}

	registry := app.NewRoomRegistry()
	voice := app.NewVoiceService(cfg.VoiceSecret, cfg.VoiceIssuer, cfg.VoiceDomain, cfg.VoiceTTL)
	if !voice.Configured() {
		logger.Warn("Voice credentials missing from env, voice_token is disabled.")
	}

	if err := RegisterRPCs(initializer, registry, voice); err != nil {
		return err
	}

	if err := initializer.RegisterMatch(MatchNameMarrakech, func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
		return newMatchHandler(registry), nil
	}); err != nil {
		return err
	}

	logger.Info("Marrakech Go module loaded.")
	return nil
}
