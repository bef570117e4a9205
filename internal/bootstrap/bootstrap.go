package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	alertinadapter "meetingd/internal/modules/alert/adapter/in"
	alertoutadapter "meetingd/internal/modules/alert/adapter/out"
	alertservice "meetingd/internal/modules/alert/service"
	alertusecase "meetingd/internal/modules/alert/usecase"
	cataloginadapter "meetingd/internal/modules/catalog/adapter/in"
	catalogoutadapter "meetingd/internal/modules/catalog/adapter/out"
	catalogservice "meetingd/internal/modules/catalog/service"
	catalogusecase "meetingd/internal/modules/catalog/usecase"
	sessioninadapter "meetingd/internal/modules/session/adapter/in"
	sessionoutadapter "meetingd/internal/modules/session/adapter/out"
	sessiondomain "meetingd/internal/modules/session/domain"
	sessionout "meetingd/internal/modules/session/port/out"
	sessionservice "meetingd/internal/modules/session/service"
	sessionusecase "meetingd/internal/modules/session/usecase"
	"meetingd/internal/platform/clock"
	"meetingd/internal/platform/config"
	"meetingd/internal/platform/httpapi"
	"meetingd/internal/platform/id"
	"meetingd/internal/platform/otel"
	"meetingd/internal/platform/sqlite"
	"meetingd/internal/platform/tx"
)

type App struct {
	SessionCLI sessioninadapter.CLIHandler
	CatalogCLI cataloginadapter.CLIHandler
	AlertCLI   alertinadapter.CLIHandler
	Router     *gin.Engine
	Logger     logrus.FieldLogger
	Config     config.Config

	closers []func(context.Context) error
}

func New(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) (_ *App, err error) {
	app := &App{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			_ = app.Close(context.WithoutCancel(ctx))
		}
	}()

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	shutdownTracing, err := otel.Setup(ctx, cfg.OTel.ServiceName, cfg.OTel.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}
	app.closers = append(app.closers, shutdownTracing)

	db, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, func(context.Context) error { return db.Close() })

	locker, err := newLocker(ctx, cfg, app)
	if err != nil {
		return nil, err
	}

	clk := clock.SystemClock{}
	ids := id.UUID{}

	alertUC := alertusecase.NewInteractor(alertservice.NewAlertService(alertservice.Options{
		Store:    alertoutadapter.NewFileManifestStore(cfg.Alert.ManifestPath),
		Host:     alertoutadapter.NewGRPCHost(),
		Log:      alertoutadapter.NewSQLiteAlertLog(db),
		Throttle: alertservice.NewOrgThrottle(cfg.Alert.ThrottlePerOrgPerHour),
		Clock:    clk,
		IDs:      ids,
		Logger:   logger.WithField("module", "alert"),
	}))

	catalogUC := catalogusecase.NewInteractor(catalogservice.NewCatalogService(catalogoutadapter.NewYAMLConfigStore(cfg.DataDir)))

	policy := sessiondomain.PacePolicy{
		CriticalAbovePct: cfg.Pace.CriticalAbovePct,
		BehindAbovePct:   cfg.Pace.BehindAbovePct,
		AheadBelowPct:    cfg.Pace.AheadBelowPct,
	}
	sessionLogger := logger.WithField("module", "session")
	sessionUC := sessionusecase.NewInteractor(sessionusecase.Dependencies{
		Service:   sessionservice.NewSessionService(clk, ids, policy, loc),
		Sessions:  sessionoutadapter.NewSQLiteSessionStore(db, sessionLogger),
		Pauses:    sessionoutadapter.NewSQLitePauseLedger(db),
		Snapshots: newSnapshotStore(cfg, db),
		Catalog:   sessionoutadapter.NewCatalogAdapter(catalogUC),
		Locker:    locker,
		Tx:        tx.NewSQLManager(db),
		Alerter:   sessionoutadapter.NewAlertAdapter(alertUC, sessionLogger),
		Logger:    sessionLogger,
	})

	router := httpapi.NewRouter(logger)
	router.GET("/healthz", httpapi.Health)
	api := router.Group("/api/v1")
	sessioninadapter.NewHTTPHandler(sessionUC).Register(api)
	cataloginadapter.NewHTTPHandler(catalogUC).Register(api)

	app.SessionCLI = sessioninadapter.NewCLIHandler(sessionUC)
	app.CatalogCLI = cataloginadapter.NewCLIHandler(catalogUC)
	app.AlertCLI = alertinadapter.NewCLIHandler(alertUC)
	app.Router = router
	return app, nil
}

func newLocker(ctx context.Context, cfg config.Config, app *App) (sessionout.Locker, error) {
	if cfg.Lock.Backend != "redis" {
		return sessionoutadapter.NewMemoryLocker(), nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Lock.Redis.Addr,
		Password: cfg.Lock.Redis.Password,
		DB:       cfg.Lock.Redis.DB,
	})
	app.closers = append(app.closers, func(context.Context) error { return rdb.Close() })
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Lock.Redis.Addr, err)
	}
	return sessionoutadapter.NewRedisLocker(rdb,
		sessionoutadapter.WithLockPrefix(cfg.Lock.Redis.Prefix),
		sessionoutadapter.WithLockTTL(cfg.Lock.Redis.TTL),
	), nil
}

func newSnapshotStore(cfg config.Config, db *sql.DB) sessionout.SnapshotStore {
	if cfg.Snapshot.Store == "vault" {
		return sessionoutadapter.NewVaultSnapshotStore(cfg.Snapshot.VaultPath)
	}
	return sessionoutadapter.NewSQLiteSnapshotStore(db)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
