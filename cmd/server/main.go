package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/cheat-yahtzee-backend/internal/archive"
	"github.com/DoyleJ11/cheat-yahtzee-backend/internal/config"
	"github.com/DoyleJ11/cheat-yahtzee-backend/internal/httpapi"
	"github.com/DoyleJ11/cheat-yahtzee-backend/internal/match"
	"github.com/DoyleJ11/cheat-yahtzee-backend/internal/relay"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		// No logger yet.
		_, _ = os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := newLogger(cfg)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zc := zap.NewDevelopmentConfig()
	if cfg.Production() {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := match.Options{
		Rules:  cfg.Rules,
		Logger: log,
	}

	if cfg.NatsURL != "" {
		r, err := relay.Connect(cfg.NatsURL, cfg.NatsSubject, log)
		if err != nil {
			return err
		}
		defer func() {
			if err := r.Close(); err != nil {
				log.Warn("close relay", zap.Error(err))
			}
		}()
		opts.Mirror = r
		log.Info("relaying broadcasts", zap.String("subject", cfg.NatsSubject))
	}

	if cfg.DatabaseURL != "" {
		store, err := archive.Open(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Warn("close archive", zap.Error(err))
			}
		}()
		opts.Recorder = store
		log.Info("archiving match results")
	}

	m := match.New(ctx, opts)

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: httpapi.SetupRoutes(m, httpapi.Options{
			PublicURL:      cfg.PublicURL,
			AllowedOrigins: cfg.AllowedOrigins,
			Logger:         log,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("listening",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Env),
			zap.Int("maxPlayers", cfg.Rules.MaxPlayers),
			zap.String("join", cfg.PublicURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		m.Send(context.Background(), match.Shutdown{})
		<-m.Done()

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	return g.Wait()
}
