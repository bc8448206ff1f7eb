package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	api "github.com/mind-engage/ielts-studio/internal/api/http"
	auth "github.com/mind-engage/ielts-studio/internal/auth/middleware"
	"github.com/mind-engage/ielts-studio/internal/config"
	"github.com/mind-engage/ielts-studio/internal/db"
	"github.com/mind-engage/ielts-studio/internal/editor"
	"github.com/mind-engage/ielts-studio/internal/eventlog"
	"github.com/mind-engage/ielts-studio/internal/passage"
	"github.com/mind-engage/ielts-studio/internal/storage"
	"github.com/mind-engage/ielts-studio/pkg/logutils"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG"), "path to YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// run wires the gateway and blocks until the server stops.
func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closeLog, err := logutils.New(logutils.Options{
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
		Service: "gateway",
		Mode:    string(cfg.Mode),
	})
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer closeLog()
	log.Logger = logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	var (
		store  passage.Store
		events api.EventLister
		audit  eventlog.Appender = eventlog.Discard{}
	)
	if cfg.DBDriver == "memory" {
		store = passage.NewInMemoryStore()
		log.Warn().Msg("using in-memory passage store; nothing is persisted")
	} else {
		openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		dbh, err := db.Open(openCtx, db.Driver(cfg.DBDriver), cfg.DBDSN)
		cancel()
		if err != nil {
			return fmt.Errorf("open %s database: %w", cfg.DBDriver, err)
		}
		defer dbh.Close()
		store = passage.NewSQLStore(dbh, cfg.DBDriver)
		repo := eventlog.NewRepo(dbh)
		events, audit = repo, repo
	}

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		return fmt.Errorf("blob store: %w", err)
	}

	// --- Editor sessions ---
	mgr := editor.NewManager(store,
		editor.WithTTL(cfg.SessionTTL),
		editor.WithEvents(audit),
		editor.WithLogger(log.With().Str("component", "editor").Logger()),
	)
	go mgr.Sweep(ctx, cfg.SweepEvery)

	// --- Router ---
	login := auth.LoginOptions{
		AdminUser:     cfg.AdminUser,
		AdminPassHash: cfg.AdminPassHash,
		AllowDev:      cfg.EnableLocalAuth,
	}
	r := api.NewRouter(api.Deps{
		Store:        store,
		Editor:       mgr,
		Blobs:        bs,
		Events:       events,
		Auth:         auth.NewAuthService(cfg.AuthHMACSecret),
		Login:        login,
		Log:          log.Logger,
		CORSOrigins:  cfg.CORSOrigins(),
		PublicURL:    cfg.PublicURL,
		MaxAudioSize: cfg.MaxAudioSize,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown")
		}
	}()

	log.Info().
		Str("addr", cfg.HTTPAddr).
		Str("db", cfg.DBDriver).
		Str("public_url", cfg.PublicURL).
		Msg("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	if n := mgr.Len(); n > 0 {
		log.Warn().Int("sessions", n).Msg("shutting down with open editor sessions")
	}
	return nil
}
