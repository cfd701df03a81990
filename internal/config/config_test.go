package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("SUGGESTION_MIN_QUERY", "")
	t.Setenv("TYPING_TIMEOUT", "")
	t.Setenv("TELEGRAM_MIRROR_CHATS", "")
	t.Setenv("USER_SUGGESTION_SCOPE", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 3, cfg.SuggestionMinQuery)
	assert.Equal(t, 10, cfg.SuggestionUserLimit)
	assert.Equal(t, "channel", cfg.UserSuggestionScope)
	assert.Equal(t, 5*time.Second, cfg.TypingTimeout)
	assert.Empty(t, cfg.TelegramMirrorChats)
	assert.False(t, cfg.MirrorEnabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SUGGESTION_MIN_QUERY", "1")
	t.Setenv("SUGGESTION_CACHE_TTL", "1m")
	t.Setenv("TYPING_TIMEOUT", "not-a-duration")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_MIRROR_CHATS", "general=-100123, random = 42 ,broken,=7")
	t.Setenv("LINK_BASE_URL", "https://chat.test/")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 1, cfg.SuggestionMinQuery)
	assert.Equal(t, time.Minute, cfg.SuggestionCacheTTL)
	assert.Equal(t, 5*time.Second, cfg.TypingTimeout)
	assert.Equal(t, map[string]int64{"general": -100123, "random": 42}, cfg.TelegramMirrorChats)
	assert.Equal(t, "https://chat.test", cfg.LinkBaseURL)
	assert.True(t, cfg.MirrorEnabled())
}

func TestLoadRejectsUnknownScope(t *testing.T) {
	t.Setenv("USER_SUGGESTION_SCOPE", "chanel")

	assert.PanicsWithValue(t, `USER_SUGGESTION_SCOPE must be "channel" or "global", got "chanel"`, func() { Load() })

	t.Setenv("USER_SUGGESTION_SCOPE", "global")
	assert.Equal(t, "global", Load().UserSuggestionScope)
}

func TestLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{Env: "production", LogLevel: "warn"}

	logger := cfg.newLogger(&buf)
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"message":"shown"`)

	buf.Reset()
	cfg.LogLevel = "loud"
	logger = cfg.newLogger(&buf)
	logger.Debug().Msg("hidden")
	logger.Info().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
