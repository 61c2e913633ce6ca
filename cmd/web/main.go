package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"thirdcoast.systems/screencast/cmd/web/auth"
	"thirdcoast.systems/screencast/cmd/web/internal/accesscode"
	"thirdcoast.systems/screencast/cmd/web/internal/screen"
	"thirdcoast.systems/screencast/cmd/web/internal/web"
	"thirdcoast.systems/screencast/internal/config"
	"thirdcoast.systems/screencast/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting web service")

	conf, err := config.LoadConfig(ctx)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Init(conf.LogLevel, conf.LogFormat)

	clock := clockwork.NewRealClock()
	authority := accesscode.NewAuthority(clock, conf.AccessCodeTTL)
	registry := screen.NewRegistry(clock, screen.Options{
		KeepaliveInterval: conf.KeepaliveInterval,
		MaxViewers:        conf.MaxViewers,
	})

	if conf.SessionSecret == "" {
		slog.Warn("SESSION_SECRET not set; presenter sessions will not survive a restart")
	}
	sessionMgr := auth.NewSessionManager(conf.SessionSecret)

	e, err := web.NewWebserver(conf, clock, authority, registry, sessionMgr)
	if err != nil {
		slog.Error("failed to create webserver", "error", err)
		os.Exit(1)
	}

	addr := ":" + strconv.Itoa(conf.WebServerPort)

	go func() {
		<-ctx.Done()
		// Closing the registry ends every open viewer stream so Shutdown
		// does not wait on them.
		registry.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = e.Shutdown(shutdownCtx)
	}()

	slog.Info("Listening", "addr", addr)
	if err := e.Start(addr); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		// Echo returns an error on Shutdown; treat it as normal if context is done.
		if ctx.Err() != nil {
			return
		}
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
