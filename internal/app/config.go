package app

import (
	"time"

	"github.com/joho/godotenv"

	"github.com/yungbote/casetree-backend/internal/data/db"
	"github.com/yungbote/casetree-backend/internal/platform/envutil"
	"github.com/yungbote/casetree-backend/internal/platform/logger"
)

const defaultJWTSecret = "defaultsecret"

type Config struct {
	Port        string
	Environment string
	Version     string

	DB db.Config

	JWTSecretKey   string
	AccessTokenTTL time.Duration
	AllowedOrigins []string
}

// LoadEnvFile pre-loads .env (or the given files) without overriding
// variables already set in the process environment.
func LoadEnvFile(files ...string) error {
	return godotenv.Load(files...)
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:        envutil.String("PORT", "8080"),
		Environment: envutil.String("APP_ENV", "development"),
		Version:     envutil.String("APP_VERSION", ""),
		DB: db.Config{
			Driver:           envutil.String("DB_DRIVER", db.DriverSQLite),
			SQLitePath:       envutil.String("SQLITE_PATH", "casetree.db"),
			PostgresHost:     envutil.String("POSTGRES_HOST", "localhost"),
			PostgresPort:     envutil.String("POSTGRES_PORT", "5432"),
			PostgresUser:     envutil.String("POSTGRES_USER", "postgres"),
			PostgresPassword: envutil.String("POSTGRES_PASSWORD", ""),
			PostgresName:     envutil.String("POSTGRES_NAME", "casetree"),
			PostgresSSLMode:  envutil.String("POSTGRES_SSLMODE", "disable"),
		},
		JWTSecretKey:   envutil.String("JWT_SECRET_KEY", defaultJWTSecret),
		AccessTokenTTL: time.Duration(envutil.Int("ACCESS_TOKEN_TTL", 3600)) * time.Second,
		AllowedOrigins: envutil.List("CORS_ALLOWED_ORIGINS", nil),
	}
	if log != nil && cfg.JWTSecretKey == defaultJWTSecret {
		log.Warn("JWT_SECRET_KEY not set; using the development default")
	}
	return cfg
}
