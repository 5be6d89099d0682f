package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vovakirdan/konnect-cli/internal/log"
	"github.com/vovakirdan/konnect-cli/internal/stub"
)

func main() {
	var (
		addr        string
		dbPath      string
		jwtSecret   string
		tokenTTL    time.Duration
		logLevel    string
		quirkDup400 bool
	)

	flag.StringVar(&addr, "addr", ":3000", "HTTP listen address")
	flag.StringVar(&dbPath, "db", "konnect-stub.db", "path to the sqlite database")
	flag.StringVar(&jwtSecret, "jwt-secret", "dev-secret-change-me", "token signing secret")
	flag.DurationVar(&tokenTTL, "token-ttl", 24*time.Hour, "token lifetime")
	flag.StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	flag.BoolVar(&quirkDup400, "quirk-dup-400", false, "report duplicate usernames as 400 instead of 409")
	flag.Parse()

	logger := log.New(logLevel)

	store, err := stub.NewStore(dbPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("open store")
	}
	defer store.Close()

	server := stub.NewServer(store, &stub.JWTConfig{
		Secret: []byte(jwtSecret),
		Issuer: "konnect-stub",
		TTL:    tokenTTL,
	}, stub.Options{QuirkDuplicateAs400: quirkDup400}, logger)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- httpServer.ListenAndServe()
	}()

	logger.Info().Str("addr", addr).Msg("konnect stub listening")

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited")
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		logger.Info().Msg("shutting down")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown")
		}
	}
}
