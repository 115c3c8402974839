package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPluginFromEnvDefaults(t *testing.T) {
	cfg, err := PluginFromEnv(nil)
	require.NoError(t, err)
	require.Equal(t, 5, cfg.TickRate)
	require.Equal(t, 90*time.Second, cfg.VoiceTTL)
	require.Equal(t, "mt1s.vivox.com", cfg.VoiceDomain)
	require.Zero(t, cfg.DiceSeed)
	require.False(t, cfg.BotsEnabled)
	require.EqualValues(t, 50, cfg.Ticks(cfg.BotFillDelay))
	require.EqualValues(t, 1, cfg.Ticks(time.Millisecond))
}

func TestPluginFromEnvOverrides(t *testing.T) {
	cfg, err := PluginFromEnv(map[string]string{
		"marrakech_voice_secret": "s3cret",
		"marrakech_voice_issuer": "issuer",
		"marrakech_voice_ttl":    "2m",
		"marrakech_dice_seed":    "42",
	})
	require.NoError(t, err)
	require.Equal(t, "s3cret", cfg.VoiceSecret)
	require.Equal(t, "issuer", cfg.VoiceIssuer)
	require.Equal(t, 2*time.Minute, cfg.VoiceTTL)
	require.EqualValues(t, 42, cfg.DiceSeed)
}

func TestPluginFromEnvRejectsBadTickRate(t *testing.T) {
	_, err := PluginFromEnv(map[string]string{"marrakech_tick_rate": "0"})
	require.Error(t, err)

	_, err = PluginFromEnv(map[string]string{"marrakech_tick_rate": "fast"})
	require.Error(t, err)
}

func TestLoadMirrorFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mirror.toml")
	body := `
gateway = "http://localhost:8545/"
address = "0xabc"
poll_interval = "500ms"
notify_rate = 10.0
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("MARRAKECH_IDENTITY", "0xme")

	cfg, err := LoadMirror(path)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8545", cfg.Gateway)
	require.Equal(t, "0xabc", cfg.Address)
	require.Equal(t, "0xme", cfg.Identity)
	require.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	require.Equal(t, 10.0, cfg.NotifyRate)
	require.Equal(t, 2, cfg.NotifyBurst)
	require.True(t, cfg.Subscribe)
}

func TestLoadMirrorRequiresAddress(t *testing.T) {
	t.Setenv("MARRAKECH_GATEWAY", "http://gw")
	t.Setenv("MARRAKECH_GAME_ADDRESS", "")
	_, err := LoadMirror("")
	require.ErrorContains(t, err, "address is required")
}
