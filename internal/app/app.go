package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/casetree-backend/internal/data/db"
	"github.com/yungbote/casetree-backend/internal/http"
	"github.com/yungbote/casetree-backend/internal/observability"
	"github.com/yungbote/casetree-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services

	store        *db.Service
	shutdownOtel func(context.Context) error
}

// Bootstrap loads .env, builds the logger and reads the config. It is shared
// by the server and the maintenance commands.
func Bootstrap() (*logger.Logger, Config, error) {
	if err := LoadEnvFile(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, Config{}, fmt.Errorf("init logger: %w", err)
	}
	if strings.EqualFold(logMode, "production") || strings.EqualFold(logMode, "prod") {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Info("Loading environment variables...")
	return log, LoadConfig(log), nil
}

func openStore(log *logger.Logger, cfg Config) (*db.Service, error) {
	store, err := db.NewService(cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrateAll(store.DB()); err != nil {
		store.Close()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	return store, nil
}

// Migrate brings the schema up to date and exits.
func Migrate() error {
	log, cfg, err := Bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()
	store, err := openStore(log, cfg)
	if err != nil {
		return err
	}
	store.Close()
	log.Info("Schema migrated", "driver", cfg.DB.Driver)
	return nil
}

func New(ctx context.Context) (*App, error) {
	log, cfg, err := Bootstrap()
	if err != nil {
		return nil, err
	}

	shutdownOtel := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})
	metrics := observability.Init(log)

	store, err := openStore(log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}
	theDB := store.DB()

	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, reposet)
	handlerset := wireHandlers(log, theDB, serviceset)
	middleware := wireMiddleware(log, serviceset)
	router := wireRouter(log, cfg, metrics, handlerset, middleware)

	return &App{
		Log:          log,
		DB:           theDB,
		Router:       router,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		store:        store,
		shutdownOtel: shutdownOtel,
	}, nil
}

// Run serves until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := ":" + a.Cfg.Port
	a.Log.Info("Server listening", "addr", addr)
	return (&http.Server{Engine: a.Router}).Run(ctx, addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.shutdownOtel != nil {
		if err := a.shutdownOtel(context.Background()); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		a.shutdownOtel = nil
	}
	if a.store != nil {
		a.store.Close()
		a.store = nil
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
