package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the draft server.
type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseDSN   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Suggestions
	// UserSuggestionScope is "channel" (members only) or "global".
	UserSuggestionScope    string
	SuggestionUserLimit    int
	SuggestionChannelLimit int
	SuggestionMinQuery     int
	SuggestionCacheTTL     time.Duration
	SuggestionWait         time.Duration

	TypingTimeout time.Duration

	// Telegram mirror
	TelegramBotToken string
	// TelegramMirrorChats maps a channel ID to the Telegram chat it is mirrored to.
	TelegramMirrorChats map[string]int64
	LinkBaseURL         string
}

// Load reads configuration from environment variables, loading a .env file
// first if one exists.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseDSN:   getEnv("DATABASE_DSN", "host=localhost user=user password=password dbname=chatdraft port=5432 sslmode=disable"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		UserSuggestionScope:    getEnv("USER_SUGGESTION_SCOPE", "channel"),
		SuggestionUserLimit:    getEnvInt("SUGGESTION_USER_LIMIT", 10),
		SuggestionChannelLimit: getEnvInt("SUGGESTION_CHANNEL_LIMIT", 10),
		SuggestionMinQuery:     getEnvInt("SUGGESTION_MIN_QUERY", 3),
		SuggestionCacheTTL:     getEnvDuration("SUGGESTION_CACHE_TTL", 30*time.Second),
		SuggestionWait:         getEnvDuration("SUGGESTION_WAIT", 2*time.Second),

		TypingTimeout: getEnvDuration("TYPING_TIMEOUT", 5*time.Second),

		TelegramBotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramMirrorChats: parseMirrorChats(os.Getenv("TELEGRAM_MIRROR_CHATS")),
		LinkBaseURL:         strings.TrimRight(getEnv("LINK_BASE_URL", "https://chat.example.com"), "/"),
	}

	switch cfg.UserSuggestionScope {
	case "channel", "global":
	default:
		panic("USER_SUGGESTION_SCOPE must be \"channel\" or \"global\", got " + strconv.Quote(cfg.UserSuggestionScope))
	}

	if cfg.Env == "production" {
		if os.Getenv("DATABASE_DSN") == "" {
			panic("DATABASE_DSN is required in production")
		}
		if os.Getenv("REDIS_ADDR") == "" {
			panic("REDIS_ADDR is required in production")
		}
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// MirrorEnabled reports whether messages should be mirrored to Telegram.
func (c *Config) MirrorEnabled() bool {
	return c.TelegramBotToken != "" && len(c.TelegramMirrorChats) > 0
}

// parseMirrorChats parses "channel=chatID,channel2=chatID2". Malformed
// entries are skipped.
func parseMirrorChats(raw string) map[string]int64 {
	chats := make(map[string]int64)
	for _, entry := range strings.Split(raw, ",") {
		channel, chat, ok := strings.Cut(strings.TrimSpace(entry), "=")
		if !ok || channel == "" {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(chat), 10, 64)
		if err != nil {
			continue
		}
		chats[strings.TrimSpace(channel)] = id
	}
	return chats
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}
