package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-todos/api"
	"github.com/goliatone/go-todos/auth"
	"github.com/goliatone/go-todos/config"
	"github.com/goliatone/go-todos/repository"
	"github.com/uptrace/bun"
)

type App struct {
	settings config.Settings
	logger   *glog.BaseLogger
	db       *bun.DB
	repo     auth.RepositoryManager
	auther   *auth.Auther
	hasher   *auth.BcryptHasher
	metrics  *api.Metrics
	srv      router.Server[*fiber.App]
	engine   *fiber.App
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func newLogger(level string) *glog.BaseLogger {
	return glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(level),
		glog.WithName("todos"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)
}

func main() {
	settings, err := config.Load()
	if err != nil {
		newLogger(glog.Error).GetLogger("config").Error("failed to load settings", "error", err)
		os.Exit(1)
	}

	app := &App{
		settings: settings,
		logger:   newLogger(settings.LogLevel),
	}

	if settings.IsDebug() {
		fmt.Println(print.MaybeHighlightJSON(redacted(settings)))
	}

	ctx := context.Background()

	if err := WithPersistence(ctx, app); err != nil {
		app.GetLogger("persistence").Error("failed to set up persistence", "error", err)
		os.Exit(1)
	}
	defer app.db.Close()

	if err := WithAuth(ctx, app); err != nil {
		app.GetLogger("auth").Error("failed to set up auth", "error", err)
		os.Exit(1)
	}

	WithHTTPServer(ctx, app)

	go func() {
		app.GetLogger("http").Info("listening", "addr", settings.HTTPAddr)
		if err := app.srv.Serve(settings.HTTPAddr); err != nil {
			app.GetLogger("http").Error("server stopped", "error", err)
		}
	}()

	sig := WaitExitSignal()
	app.GetLogger("http").Info("shutting down", "signal", sig.String())

	if err := app.engine.ShutdownWithTimeout(10 * time.Second); err != nil {
		app.GetLogger("http").Error("shutdown error", "error", err)
	}
}

func WithPersistence(ctx context.Context, app *App) error {
	client, err := repository.Open(app.settings.DatabaseURL,
		repository.WithPersistenceLogger(app.GetLogger("persistence")),
		repository.WithDebug(app.settings.LogLevel == "trace"),
	)
	if err != nil {
		return err
	}

	db := client.DB()
	if err := repository.Migrate(ctx, client); err != nil {
		_ = db.Close()
		return err
	}

	repo := repository.NewRepositoryManager(db,
		repository.WithLogger(app.GetLogger("repository")),
	)
	if err := repo.Validate(); err != nil {
		_ = db.Close()
		return err
	}

	app.db = db
	app.repo = repo
	return nil
}

func WithAuth(_ context.Context, app *App) error {
	tokens, err := auth.NewTokenService(app.settings,
		auth.WithTokenLogger(app.GetLogger("auth:tokens")),
	)
	if err != nil {
		return err
	}

	app.hasher = auth.NewBcryptHasher(app.settings.GetPasswordHashCost())
	app.metrics = api.NewMetrics()

	app.auther = auth.NewAuthenticator(app.repo.Users(), tokens, app.hasher).
		WithLogger(app.GetLogger("auth:authz")).
		WithActivitySink(auth.ActivitySinks(
			auth.LoggerActivitySink{Logger: app.GetLogger("auth:activity")},
			app.metrics,
		))

	return nil
}

func WithHTTPServer(_ context.Context, app *App) {
	server := api.NewServer(
		api.WithLogger(app.GetLogger("http")),
		api.WithRepository(app.repo),
		api.WithAuther(app.auther),
		api.WithHasher(app.hasher),
		api.WithMetrics(app.metrics),
		api.WithLoginRateLimit(app.settings.LoginRateLimit, app.settings.LoginRateBurst),
		api.WithTokenLookup(app.settings.TokenLookup),
		api.WithDebug(app.settings.IsDebug()),
	)
	app.srv, app.engine = server.Adapter()
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}

func redacted(s config.Settings) config.Settings {
	if s.SecretKey != "" {
		s.SecretKey = "********"
	}
	return s
}
