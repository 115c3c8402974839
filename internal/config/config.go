// Package config loads settings for the Nakama plugin, the ledger mirror and
// process logging.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// Plugin holds the knobs read from the Nakama runtime env map.
type Plugin struct {
	VoiceSecret string        `env:"marrakech_voice_secret"`
	VoiceIssuer string        `env:"marrakech_voice_issuer"`
	VoiceDomain string        `env:"marrakech_voice_domain" envDefault:"mt1s.vivox.com"`
	VoiceTTL    time.Duration `env:"marrakech_voice_ttl"    envDefault:"90s"`
	TickRate    int           `env:"marrakech_tick_rate"    envDefault:"5"`
	// DiceSeed fixes the dice of every room. Zero seeds from the clock.
	DiceSeed uint64 `env:"marrakech_dice_seed"`

	// A lobby with a single human is topped up with bots after BotFillDelay.
	BotsEnabled  bool          `env:"marrakech_bots_enabled"`
	BotLevel     string        `env:"marrakech_bot_level"      envDefault:"greedy"`
	BotFillDelay time.Duration `env:"marrakech_bot_fill_delay" envDefault:"10s"`
	BotMinDelay  time.Duration `env:"marrakech_bot_min_delay"  envDefault:"1s"`
	BotMaxDelay  time.Duration `env:"marrakech_bot_max_delay"  envDefault:"3s"`
}

// Ticks converts d to whole match ticks, at least one.
func (p Plugin) Ticks(d time.Duration) int64 {
	n := int64(d * time.Duration(p.TickRate) / time.Second)
	if n < 1 {
		return 1
	}
	return n
}

// PluginFromEnv parses the runtime env map. A nil map yields the defaults.
func PluginFromEnv(vars map[string]string) (Plugin, error) {
	if vars == nil {
		vars = map[string]string{}
	}
	var cfg Plugin
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Plugin{}, fmt.Errorf("parse plugin env: %w", err)
	}
	if cfg.TickRate <= 0 || cfg.TickRate > 60 {
		return Plugin{}, fmt.Errorf("tick rate %d out of range", cfg.TickRate)
	}
	if cfg.BotMaxDelay < cfg.BotMinDelay {
		return Plugin{}, fmt.Errorf("bot max delay %s below min delay %s", cfg.BotMaxDelay, cfg.BotMinDelay)
	}
	return cfg, nil
}

// Logging selects the zerolog level and console output.
type Logging struct {
	Level  string `env:"MARRAKECH_LOG_LEVEL"  envDefault:"info"`
	Pretty bool   `env:"MARRAKECH_LOG_PRETTY"`
}

// LoggingFromEnv reads Logging from the process environment.
func LoggingFromEnv() (Logging, error) {
	var cfg Logging
	if err := env.Parse(&cfg); err != nil {
		return Logging{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Mirror configures the ledger watcher. File values are overlaid by
// MARRAKECH_* environment variables.
type Mirror struct {
	Gateway  string `toml:"gateway"  env:"MARRAKECH_GATEWAY"`
	Address  string `toml:"address"  env:"MARRAKECH_GAME_ADDRESS"`
	Identity string `toml:"identity" env:"MARRAKECH_IDENTITY"`

	PollInterval    time.Duration `toml:"poll_interval"    env:"MARRAKECH_POLL_INTERVAL"`
	MaxBackoff      time.Duration `toml:"max_backoff"      env:"MARRAKECH_MAX_BACKOFF"`
	RequestTimeout  time.Duration `toml:"request_timeout"  env:"MARRAKECH_REQUEST_TIMEOUT"`
	ConfirmInterval time.Duration `toml:"confirm_interval" env:"MARRAKECH_CONFIRM_INTERVAL"`
	ConfirmTimeout  time.Duration `toml:"confirm_timeout"  env:"MARRAKECH_CONFIRM_TIMEOUT"`

	// NotifyRate caps push-triggered refreshes per second.
	NotifyRate  float64 `toml:"notify_rate"  env:"MARRAKECH_NOTIFY_RATE"`
	NotifyBurst int     `toml:"notify_burst" env:"MARRAKECH_NOTIFY_BURST"`
	// Subscribe enables the websocket event stream next to polling.
	Subscribe bool `toml:"subscribe" env:"MARRAKECH_SUBSCRIBE"`
}

// DefaultMirror returns the settings used when a key is absent.
func DefaultMirror() Mirror {
	return Mirror{
		PollInterval:    2 * time.Second,
		MaxBackoff:      30 * time.Second,
		RequestTimeout:  10 * time.Second,
		ConfirmInterval: time.Second,
		ConfirmTimeout:  2 * time.Minute,
		NotifyRate:      4,
		NotifyBurst:     2,
		Subscribe:       true,
	}
}

// LoadMirror reads path (optional) over the defaults, then applies env overrides.
func LoadMirror(path string) (Mirror, error) {
	cfg := DefaultMirror()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Mirror{}, fmt.Errorf("load mirror config: %w", err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return Mirror{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Gateway = strings.TrimRight(strings.TrimSpace(cfg.Gateway), "/")
	cfg.Address = strings.TrimSpace(cfg.Address)
	return cfg, cfg.Validate()
}

// Validate reports missing or nonsensical settings.
func (m Mirror) Validate() error {
	var errs []error
	if m.Gateway == "" {
		errs = append(errs, errors.New("gateway is required"))
	}
	if m.Address == "" {
		errs = append(errs, errors.New("address is required"))
	}
	if m.PollInterval <= 0 {
		errs = append(errs, errors.New("poll_interval must be positive"))
	}
	if m.NotifyRate <= 0 || m.NotifyBurst <= 0 {
		errs = append(errs, errors.New("notify_rate and notify_burst must be positive"))
	}
	if m.MaxBackoff < m.PollInterval {
		errs = append(errs, errors.New("max_backoff must not be below poll_interval"))
	}
	return errors.Join(errs...)
}
