package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/meenakshiar/looplist/internal"
	"github.com/meenakshiar/looplist/internal/api"
	"github.com/meenakshiar/looplist/internal/auth"
	"github.com/meenakshiar/looplist/internal/config"
	"github.com/meenakshiar/looplist/internal/service"
	"github.com/meenakshiar/looplist/internal/storage"
)

type app struct {
	logger      internal.Logger
	loopRepo    storage.LoopRepository
	checkInRepo storage.CheckInRepository
}

func (a *app) Logger() internal.Logger                { return a.logger }
func (a *app) LoopRepo() storage.LoopRepository       { return a.loopRepo }
func (a *app) CheckInRepo() storage.CheckInRepository { return a.checkInRepo }

var _ api.App = (*app)(nil)

func newLogger(cfg *config.Config) (internal.Logger, func()) {
	zapCfg := zap.NewProductionConfig()
	if cfg.Env == "development" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	if lvl, err := zap.ParseAtomicLevel(cfg.LogLevel); err == nil {
		zapCfg.Level = lvl
	}
	z, err := zapCfg.Build()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	return internal.NewZapLogger(z.Sugar()), func() { _ = z.Sync() }
}

func newRepositories(cfg *config.Config, logger internal.Logger) (storage.LoopRepository, storage.CheckInRepository) {
	switch cfg.DBType {
	case "postgres":
		loops, checkIns, err := storage.NewPostgresRepositories(cfg.DBDSN, logger)
		if err != nil {
			logger.Fatalf("failed to init postgres storage: %v", err)
		}
		return loops, checkIns
	default:
		if dir := filepath.Dir(cfg.FileLoops); dir != "." {
			_ = os.MkdirAll(dir, 0755)
		}
		loops, checkIns, err := storage.NewFileRepositories(cfg.FileLoops, cfg.FileCheckIns, logger)
		if err != nil {
			logger.Fatalf("failed to init file storage: %v", err)
		}
		return loops, checkIns
	}
}

func newAuthProvider(cfg *config.Config, logger internal.Logger) auth.Provider {
	if cfg.Env == "development" {
		return auth.NewLocalAuthProvider(cfg.LocalToken, logger)
	}
	return auth.NewRemoteAuthProvider(cfg.AuthURL, logger)
}

// runSweeper periodically backfills missed check-ins. The HTTP sweep
// endpoint shares the same job, so an external cron can replace this.
func runSweeper(a *app, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		if _, err := service.SweepMissed(context.Background(), a.loopRepo, a.checkInRepo, a.logger, time.Now()); err != nil {
			a.logger.Errorf("scheduled sweep failed: %v", err)
		}
	}
}

func main() {
	cfg := config.Load()
	logger, flush := newLogger(cfg)
	defer flush()

	loopRepo, checkInRepo := newRepositories(cfg, logger)
	a := &app{logger: logger, loopRepo: loopRepo, checkInRepo: checkInRepo}

	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(api.RequestIDMiddleware())

	provider := newAuthProvider(cfg, logger)
	protected := r.Group("/api", auth.AuthMiddleware(provider, cfg))
	protected.POST("/loops", api.PostLoop(a))
	protected.GET("/loops", api.GetLoops(a))
	protected.GET("/loops/:id", api.GetLoop(a))
	protected.DELETE("/loops/:id", api.DeleteLoop(a))
	protected.POST("/loops/:id/checkin", api.PostCheckIn(a))
	protected.GET("/loops/:id/checkin", api.GetCheckIns(a))
	protected.DELETE("/loops/:id/checkin/:date", api.DeleteCheckIn(a))
	protected.GET("/loops/:id/stats", api.GetLoopStats(a))

	r.POST("/internal/sweep", api.SweepAuthMiddleware(cfg.SweepToken), api.PostSweep(a))

	go runSweeper(a, cfg.SweepInterval)

	logger.Infof("Server running on %s (storage=%s)", cfg.ListenAddr, cfg.DBType)
	if err := r.Run(cfg.ListenAddr); err != nil {
		logger.Fatalf("failed to start server: %v", err)
	}
}
