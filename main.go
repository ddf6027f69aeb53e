package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	setupLogging(cfg.Log)

	arena := DefaultArena()
	if cfg.ArenaFile != "" {
		if arena, err = LoadArena(cfg.ArenaFile); err != nil {
			log.Fatal().Err(err).Msg("load arena")
		}
	}

	if cfg.ClientDir == "" {
		exe, _ := os.Executable()
		cfg.ClientDir = filepath.Join(filepath.Dir(exe), "..", "client")
		// Fallback for development
		if _, err := os.Stat(cfg.ClientDir); os.IsNotExist(err) {
			cfg.ClientDir = "../client"
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := NewHub(cfg, arena)
	server := &http.Server{Addr: cfg.Addr, Handler: SetupRoutes(hub, cfg.ClientDir)}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return hub.Run(ctx)
	})
	eg.Go(func() error {
		log.Info().
			Str("addr", cfg.Addr).
			Str("client", cfg.ClientDir).
			Str("arena", arena.Name).
			Int("tick_rate", cfg.TickRate).
			Msg("server starting")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(sctx)
	})

	if err := eg.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func setupLogging(cfg LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}
	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
