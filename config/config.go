package config

import (
	"os"
	"time"

	"tonotes/utils"

	"github.com/joho/godotenv"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type Config struct {
	Port            string
	Store           string
	Database        DatabaseConfig
	RedisURL        string
	CacheTTL        time.Duration
	Heartbeat       time.Duration
	SendBuffer      int
	AllowedOrigins  []string
	MaxRequestBytes int64
	ShutdownTimeout time.Duration
	Log             utils.LogConfig
}

// Load reads .env (when present) and then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && os.Getenv("GO_ENV") != "test" {
		utils.Debug().Err(err).Msg("no .env file loaded")
	}

	return Config{
		Port:            utils.GetEnvAsString("PORT", "8080"),
		Store:           utils.GetEnvAsString("NOTES_STORE", StoreMongo),
		Database:        LoadDatabaseConfig(),
		RedisURL:        utils.GetEnvAsString("REDIS_URL", ""),
		CacheTTL:        utils.GetEnvAsDuration("NOTES_CACHE_TTL", 5*time.Minute),
		Heartbeat:       utils.GetEnvAsDuration("HEARTBEAT_INTERVAL", time.Second),
		SendBuffer:      utils.GetEnvAsInt("WS_SEND_BUFFER", 256),
		AllowedOrigins:  utils.GetEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:4200", "http://127.0.0.1:4200"}),
		MaxRequestBytes: int64(utils.GetEnvAsInt("MAX_REQUEST_BYTES", 1<<20)),
		ShutdownTimeout: utils.GetEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		Log: utils.LogConfig{
			Level:  utils.GetEnvAsString("LOG_LEVEL", "info"),
			Format: utils.GetEnvAsString("LOG_FORMAT", "json"),
		},
	}
}
