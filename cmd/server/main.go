package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/messagely/internal/config"
	"github.com/iliyamo/messagely/internal/database"
	"github.com/iliyamo/messagely/internal/handler"
	"github.com/iliyamo/messagely/internal/logging"
	"github.com/iliyamo/messagely/internal/middleware"
	"github.com/iliyamo/messagely/internal/queue"
	"github.com/iliyamo/messagely/internal/repository"
	"github.com/iliyamo/messagely/internal/router"
	"github.com/iliyamo/messagely/internal/service"
)

func main() {
	cfg := config.Load()                                  // Load environment config
	logging.Setup(cfg.LogLevel, cfg.LogFormat, os.Stdout) // Configure logrus

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logrus.WithError(err).Fatal("open database")
	}
	defer db.Close()
	if cfg.DBMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			logrus.WithError(err).Fatal("migrate database")
		}
	}

	rdb := config.NewRedisClient() // nil when Redis is not configured or unreachable
	if rdb != nil {
		defer rdb.Close()
	}
	rlCfg := config.LoadRateLimitConfig()
	cacheCfg := config.LoadCacheConfig()

	var notifier service.Notifier = queue.Discard{}
	qCfg := config.LoadQueueConfig()
	if qCfg.Enabled {
		pub := queue.NewPublisher(qCfg.URL, qCfg.Queue)
		defer pub.Close()
		notifier = pub
		if qCfg.RunConsumer {
			go func() {
				err := queue.StartNotificationConsumer(ctx, qCfg.URL, qCfg.Queue, qCfg.LogDir)
				if err != nil && !errors.Is(err, context.Canceled) {
					logrus.WithError(err).Error("notification consumer stopped")
				}
			}()
		}
	}

	users := repository.NewUserRepo(db)
	messages := repository.NewMessageRepo(db)

	gateway, err := service.NewAuthGateway(cfg.JWTSecret, time.Duration(cfg.TokenTTLMin)*time.Minute)
	if err != nil {
		logrus.WithError(err).Fatal("auth gateway")
	}
	creds := service.NewCredentialStore(users, cfg.BcryptCost)
	dir := service.NewDirectory(users, messages)
	ledger := service.NewLedger(users, messages, notifier)

	authH := handler.NewAuthHandler(creds, gateway, dir)
	authH.UsersChanged = func(ctx context.Context) error {
		return middleware.PurgeCache(ctx, cacheCfg, rdb, "/users")
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger())

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, authH, gateway, middleware.NewTokenBucket(rlCfg, rdb))
	router.RegisterUsers(e, handler.NewUserHandler(dir), gateway, middleware.NewRedisCache(cacheCfg, rdb))
	router.RegisterMessages(e, handler.NewMessageHandler(ledger), gateway)

	addr := ":" + cfg.Port
	go func() {
		logrus.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logrus.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("graceful shutdown")
	}
}
