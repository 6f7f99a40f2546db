package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aussiebroadwan/learn/internal/learn/content"
	httpapi "github.com/aussiebroadwan/learn/internal/learn/http"
	"github.com/aussiebroadwan/learn/internal/learn/service"
	"github.com/aussiebroadwan/learn/internal/learn/session"
	"github.com/aussiebroadwan/learn/internal/learn/store"
	"github.com/aussiebroadwan/learn/internal/learn/store/drivers/postgres"
	"github.com/aussiebroadwan/learn/internal/learn/store/drivers/redis"
	"github.com/aussiebroadwan/learn/internal/learn/store/drivers/sqlite"
	"github.com/aussiebroadwan/learn/pkg/authsdk"
	"github.com/aussiebroadwan/learn/pkg/jwtx"
	"github.com/aussiebroadwan/learn/pkg/metricsx"
	"github.com/aussiebroadwan/learn/pkg/slogx"
)

// BuildVersion is overridden at build time with
// -ldflags "-X github.com/aussiebroadwan/learn/internal/learn/app.BuildVersion=..."
var BuildVersion = "v0.1.0"

// Application holds the learn service and all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db          store.Store
	redisStore  *redis.Verifiers // nil unless LEARN_REDIS_URL is set
	verifiers   store.Verifiers
	courseStore *content.Store
	idp         *authsdk.Client
	cookies     *session.Manager
	metrics     *metricsx.Metrics

	progressService     *service.ProgressService
	authService         *service.AuthService
	sessionService      *service.SessionService
	oauthService        *service.OAuthFlowService
	courseService       *service.CourseService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// NewLogger builds the service logger from cfg.
func NewLogger(cfg Config) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: "learn",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
}

// New opens the stores and wires services and routes. Nothing listens
// until Run.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{cfg: cfg, logger: NewLogger(cfg)}
	ctx := context.Background()

	db, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.db = db
	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}
	app.logger.Info("database migrations applied successfully", "driver", cfg.DBDriver)

	if err := app.initVerifiers(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := app.initSessions(); err != nil {
		app.closeStores()
		return nil, err
	}

	app.initServices()
	app.initHTTP()
	return app, nil
}

// OpenStore opens the progress database selected by cfg without migrating
// it.
func OpenStore(ctx context.Context, cfg Config) (store.Store, error) {
	switch cfg.DBDriver {
	case "postgres":
		db, err := postgres.NewStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return db, nil
	default:
		db, err := sqlite.NewStore(sqlite.FileDSN(cfg.DBPath))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return db, nil
	}
}

// NewCourseStore reads courses from cfg.ContentDir.
func NewCourseStore(cfg Config, logger *slog.Logger) *content.Store {
	return content.NewStore(cfg.ContentDir, logger)
}

func (app *Application) initVerifiers(ctx context.Context) error {
	if app.cfg.RedisURL == "" {
		app.verifiers = app.db.Verifiers()
		return nil
	}

	rs, err := redis.NewVerifiers(ctx, app.cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to initialize verifier store: %w", err)
	}
	app.redisStore = rs
	app.verifiers = rs
	app.logger.Info("oauth verifiers stored in redis")
	return nil
}

func (app *Application) initSessions() error {
	key, generated, err := app.cfg.SessionKey()
	if err != nil {
		return err
	}
	if generated {
		app.logger.Warn("LEARN_SESSION_SECRET not set, using a random secret; sessions end on restart")
	}

	codec, err := jwtx.NewHS256(key, session.Issuer)
	if err != nil {
		return fmt.Errorf("failed to initialize session signing: %w", err)
	}
	app.cookies = session.NewManager(codec, app.cfg.SessionTTL, app.cfg.Production())
	return nil
}

func (app *Application) initServices() {
	app.idp = authsdk.NewClient(app.cfg.IdPURL, app.cfg.IdPAnonKey)
	app.idp.ServiceKey = app.cfg.IdPServiceKey
	if app.cfg.IdPURL == "" || app.cfg.IdPAnonKey == "" {
		app.logger.Warn("identity provider not configured; sign in requests will fail")
	}

	app.metrics = metricsx.New("learn")
	app.courseStore = NewCourseStore(app.cfg, app.logger)

	app.progressService = service.NewProgressService(app.db)
	app.authService = service.NewAuthService(app.idp, app.progressService)
	app.sessionService = service.NewSessionService(app.idp)
	app.oauthService = service.NewOAuthFlowService(app.idp, app.verifiers, app.cfg.SiteURL, app.cfg.VerifierTTL)
	app.courseService = &service.CourseService{Source: app.courseStore}

	// Redis expires verifier keys on its own.
	if app.redisStore == nil {
		app.housekeepingService = service.NewHousekeepingService(
			app.verifiers,
			app.logger,
			app.cfg.HousekeepingInterval,
		)
	}
}

func (app *Application) startHousekeeping() {
	if app.housekeepingService != nil {
		app.housekeepingService.Start()
	}
}

func (app *Application) stopHousekeeping() {
	if app.housekeepingService != nil {
		app.housekeepingService.Stop()
	}
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		BuildVersion,
		app.cfg.ProtectedPrefixes,
		app.cookies,
		app.sessionService,
		app.metrics,
		app.logger,
	)

	router.DB = app.db
	if app.redisStore != nil {
		router.VerifierStore = app.redisStore
	}
	router.AuthService = app.authService
	router.OAuthService = app.oauthService
	router.ProgressService = app.progressService
	router.CourseService = app.courseService
	router.OAuthProviders = app.cfg.OAuthProviders
	router.ApplyRoutes()

	app.router = router
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// Handler is the fully wired HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.startHousekeeping()

	app.logger.Info("learn service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.stopHousekeeping()
			app.closeStores()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains the server and closes the stores.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down learn service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.stopHousekeeping()

	if err := app.closeStores(); err != nil {
		return err
	}

	app.logger.Info("learn service stopped")
	return nil
}

func (app *Application) closeStores() error {
	var errs []error
	if app.redisStore != nil {
		if err := app.redisStore.Close(); err != nil {
			app.logger.Error("error closing redis", "error", err)
			errs = append(errs, err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
