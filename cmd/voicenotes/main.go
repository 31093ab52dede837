package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voicenotes/internal/auth"
	"voicenotes/internal/config"
	"voicenotes/internal/db"
	"voicenotes/internal/diary"
	httpx "voicenotes/internal/http"
	"voicenotes/internal/lecture"
	"voicenotes/internal/logger"
	"voicenotes/internal/metrics"
	"voicenotes/internal/note"
	"voicenotes/internal/task"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type command string

const (
	cmdServe   command = "serve"
	cmdMigrate command = "migrate"
	cmdToken   command = "token"
)

// parseCommand picks the subcommand; no argument or an unknown one means serve.
func parseCommand(args []string) (command, []string) {
	if len(args) == 0 {
		return cmdServe, nil
	}
	switch command(args[0]) {
	case cmdMigrate, cmdToken, cmdServe:
		return command(args[0]), args[1:]
	default:
		return cmdServe, args
	}
}

func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		slog.Error("fatal", logger.Err(err))
		os.Exit(1)
	}
}

func run(w io.Writer, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	cmd, rest := parseCommand(args)
	switch cmd {
	case cmdMigrate:
		return runMigrate(cfg, log)
	case cmdToken:
		return runToken(cfg, w, rest)
	default:
		return runServe(cfg, log)
	}
}

func runMigrate(cfg config.Config, log *slog.Logger) error {
	log.Info("running database migrations", slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)))
	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info("database migrations complete")
	return nil
}

// runToken prints a session token for subject, for local testing of the
// session path without the identity provider.
func runToken(cfg config.Config, w io.Writer, args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: voicenotes token [-ttl 24h] <external-user-id>")
	}

	token, err := auth.NewJWT(cfg.SessionSecret).Sign(fs.Arg(0), *ttl)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}
	_, err = fmt.Fprintln(w, token)
	return err
}

func runServe(cfg config.Config, log *slog.Logger) error {
	if cfg.MigrateOnStart {
		if err := runMigrate(cfg, log); err != nil {
			return err
		}
	}

	gdb, err := db.Connect(cfg.DatabaseURL, db.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = db.Close(gdb) }()

	pinger := db.Pinger{DB: gdb}
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	err = pinger.Ping(pingCtx)
	cancelPing()
	if err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	log.Info("database connection established")

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewCollector(reg)

	if !cfg.AuthHeaderFallback {
		log.Info("X-User-Id header fallback disabled")
	}
	jwtSvc := auth.NewJWT(cfg.SessionSecret)
	users := auth.NewProvisioner(&auth.GormUserStore{DB: gdb}, log, m)

	r := httpx.NewRouter(httpx.Deps{
		Logger:   log,
		Resolver: auth.NewResolver(jwtSvc, cfg.SessionCookie, cfg.AuthHeaderFallback),
		Users:    users,
		DB:       pinger,

		Notes:    note.NewService(note.NewRepo(gdb), log, m),
		Tasks:    task.NewService(task.NewRepo(gdb), log, m),
		Lectures: lecture.NewService(lecture.NewRepo(gdb), log, m),
		Diary:    diary.NewService(diary.NewRepo(gdb), log, m),

		Metrics:  m,
		Gatherer: reg,

		CORSAllowedOrigins:   cfg.CORSAllowedOrigins,
		CORSAllowCredentials: cfg.CORSAllowCredentials,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", slog.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-ch:
		log.Info("shutting down", slog.String("signal", sig.String()))
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

// maskDatabaseURL hides the password before the URL is logged.
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
