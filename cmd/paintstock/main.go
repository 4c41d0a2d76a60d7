package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/paintstock/internal/analytics"
	"github.com/erazemk/paintstock/internal/api"
	"github.com/erazemk/paintstock/internal/auth"
	"github.com/erazemk/paintstock/internal/config"
	"github.com/erazemk/paintstock/internal/db"
	"github.com/erazemk/paintstock/internal/export"
	"github.com/erazemk/paintstock/internal/inventory"
	"github.com/erazemk/paintstock/internal/model"
	"github.com/erazemk/paintstock/internal/store"
)

// levelRouter is a slog.Handler that routes records below ERROR to stdout
// and ERROR+ to stderr.
type levelRouter struct {
	min    slog.Level
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= lr.min
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		min:    lr.min,
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		min:    lr.min,
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

// setupLogger configures structured logging. If logPath is non-empty, all
// levels are also written to that file. Returns a cleanup function that
// closes the log file (if opened).
func setupLogger(logPath string, level slog.Level) (*slog.Logger, func(), error) {
	opts := &slog.HandlerOptions{Level: level}

	cleanup := func() {}
	stdoutW := io.Writer(os.Stdout)
	stderrW := io.Writer(os.Stderr)

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdoutW = io.MultiWriter(os.Stdout, f)
		stderrW = io.MultiWriter(os.Stderr, f)
	}

	logger := slog.New(&levelRouter{
		min:    level,
		stdout: slog.NewTextHandler(stdoutW, opts),
		stderr: slog.NewTextHandler(stderrW, opts),
	})
	slog.SetDefault(logger)
	return logger, cleanup, nil
}

func main() {
	fs := flag.NewFlagSet("paintstock", flag.ContinueOnError)

	var configPath, envFile string
	fs.StringVar(&configPath, "config", "", "")
	fs.StringVar(&configPath, "c", "", "")
	fs.StringVar(&envFile, "env", ".env", "")

	var dbPath, addr, logPath string
	fs.StringVar(&dbPath, "db", "", "")
	fs.StringVar(&dbPath, "d", "", "")
	fs.StringVar(&addr, "addr", "", "")
	fs.StringVar(&addr, "a", "", "")
	fs.StringVar(&logPath, "log", "", "")
	fs.StringVar(&logPath, "l", "", "")

	var exportNow bool
	fs.BoolVar(&exportNow, "export", false, "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: paintstock [flags]

Flags:
  -c, -config <path>      YAML config file (default: none)
  -env <path>             dotenv file (default: .env, ignored if missing)
  -d, -db <path>          SQLite database path (default: paintstock.db)
  -a, -addr <host:port>   listen address (default: :8080)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -export                 write one inventory snapshot to the export dir and exit
  -h, -help               show this help and exit

Environment variables PAINTSTOCK_* override the config file; flags override both.
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if logPath != "" {
		cfg.LogPath = logPath
	}

	level, _ := config.ParseLevel(cfg.LogLevel)
	logger, closeLog, err := setupLogger(cfg.LogPath, level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg, logger, exportNow); err != nil {
		logger.Error("fatal", "error", err)
		closeLog()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, exportNow bool) error {
	ctx := context.Background()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	version, _, err := db.Version(database)
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	logger.Info("database ready", "path", cfg.DBPath, "schema_version", version)

	// The configured default only seeds the setting; admins change it at runtime.
	if _, err := store.EnsureSetting(ctx, database, store.SettingMinQuantity, fmt.Sprint(cfg.MinQuantity)); err != nil {
		return err
	}

	jwtSecret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		return fmt.Errorf("loading JWT secret: %w", err)
	}
	resolver, err := auth.LoadResolver(ctx, database, cfg.AdminSecret, bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("loading admin secret: %w", err)
	}
	if cfg.AdminSecret == auth.DefaultAdminSecret {
		logger.Warn("using the default admin secret; set PAINTSTOCK_ADMIN_SECRET")
	}

	svc := inventory.NewService(database, logger)

	scheduler, err := export.NewScheduler(svc, cfg.ExportDir, cfg.ExportSchedule, logger)
	if err != nil {
		return err
	}
	if exportNow {
		path, err := scheduler.Run(model.WithActor(ctx, model.System), "manual")
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	}

	opts := analytics.DefaultOptions
	opts.MinQuantity = cfg.MinQuantity
	opts.StaleDays = cfg.StaleDays

	handler := api.NewRouter(api.Config{
		Service:   svc,
		Resolver:  resolver,
		JWTSecret: jwtSecret,
		Logger:    logger,
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
		Analytics: opts,
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	scheduler.Start()

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		logger.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		scheduler.Stop(ctx)
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server forced to shutdown", "error", err)
		}
	}()

	logger.Info("server started", "addr", cfg.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("server stopped, closing database")
	return nil
}
