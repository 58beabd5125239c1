package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type Config struct {
	RAWGAPIKey  string
	RAWGBaseURL string
	SiteBaseURL string
	DBPath      string
	ServerPort  string
	LogLevel    string
	CacheTTL    time.Duration

	SessionSecret          string
	EphemeralSecret        bool
	GoogleCredentialSecret string

	RedisURL string
	Timezone string
	Location *time.Location

	dotenvMissing bool
}

func Load() (*Config, error) {
	dotenvErr := godotenv.Load()

	cfg := &Config{
		RAWGAPIKey:             getEnv("RAWG_API_KEY", ""),
		RAWGBaseURL:            getEnv("RAWG_BASE_URL", "https://api.rawg.io/api"),
		SiteBaseURL:            getEnv("BASE_URL", ""),
		DBPath:                 getEnv("DB_PATH", "happygame.db"),
		ServerPort:             getEnv("SERVER_PORT", "8080"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		CacheTTL:               getDuration("CATALOG_CACHE_TTL", time.Hour),
		SessionSecret:          getEnv("SESSION_SECRET", ""),
		GoogleCredentialSecret: getEnv("GOOGLE_CREDENTIAL_SECRET", ""),
		RedisURL:               getEnv("REDIS_URL", ""),
		Timezone:               getEnv("TIMEZONE", "America/Sao_Paulo"),
		dotenvMissing:          dotenvErr != nil,
	}

	if cfg.SessionSecret == "" {
		secret, err := gonanoid.New(48)
		if err != nil {
			return nil, err
		}
		cfg.SessionSecret = secret
		cfg.EphemeralSecret = true
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		// Brasília time without tzdata on the host
		loc = time.FixedZone("BRT", -3*60*60)
	}
	cfg.Location = loc

	return cfg, nil
}

// Log writes the effective configuration, leaving secrets out.
func (c *Config) Log(logger zerolog.Logger) {
	if c.dotenvMissing {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}
	if c.RAWGAPIKey == "" {
		logger.Warn().Msg("RAWG_API_KEY is not set, catalog pages will be empty")
	}
	if c.EphemeralSecret {
		logger.Warn().Msg("SESSION_SECRET is not set, sessions will not survive a restart")
	}

	logger.Info().
		Str("db_path", c.DBPath).
		Str("server_port", c.ServerPort).
		Str("log_level", c.LogLevel).
		Str("catalog_base_url", c.RAWGBaseURL).
		Str("timezone", c.Location.String()).
		Bool("redis_cache", c.RedisURL != "").
		Bool("google_login", c.GoogleCredentialSecret != "").
		Dur("cache_ttl", c.CacheTTL).
		Msg("configuration loaded")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
