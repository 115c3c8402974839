package main

import (
	"context"
	"flag"

	"github.com/rs/zerolog"

	"marrakech/internal/authority"
	"marrakech/internal/config"
	"marrakech/internal/ledger"
	"marrakech/internal/logging"
	"marrakech/internal/ports/ledgerhttp"
)

func runWatch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	path := fs.String("config", "", "mirror settings (TOML); MARRAKECH_* env overrides")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := config.LoadMirror(*path)
	if err != nil {
		return err
	}
	logCfg, err := config.LoggingFromEnv()
	if err != nil {
		return err
	}
	log, err := logging.Init("marrakech-watch", logCfg)
	if err != nil {
		return err
	}

	client := ledgerhttp.New(cfg)
	mirror := ledger.NewMirror(client, cfg, ledger.WithNotifier(client), ledger.WithLogger(log))
	events, cancel := mirror.Subscribe()
	defer cancel()
	go logNotifications(log, events)

	log.Info().Str("gateway", cfg.Gateway).Str("address", cfg.Address).Msg("watching game")
	return mirror.Run(ctx)
}

func logNotifications(log zerolog.Logger, events <-chan authority.Notification) {
	for n := range events {
		switch n.Kind {
		case authority.NotifyState:
			s := n.State
			log.Info().Str("phase", string(s.Phase)).Int("turn", s.Turn).Int("current", s.Current).
				Int("candidates", len(s.Candidates)).Msg("state")
		case authority.NotifyDice:
			log.Info().Int("seat", n.Seat).Int("value", n.Dice.Value).Msg("dice")
		case authority.NotifyGameOver:
			log.Info().Interface("winner", n.State.Winner).Interface("scores", n.State.Scores).Msg("game over")
		case authority.NotifyError:
			log.Warn().Err(n.Err).Msg("write failed")
		}
	}
}
