package main

import (
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"fundpulse/internal/cache"
	"fundpulse/internal/config"
	"fundpulse/internal/handlers"
	internalhttp "fundpulse/internal/http"
	"fundpulse/internal/upstream"
)

func main() {
	_ = godotenv.Load(".env", ".env.local")

	cfg := config.Load()
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	store := cache.New(cfg)
	up := upstream.New(cfg, logger)
	api := handlers.New(cfg, store, up, logger)
	h := internalhttp.NewRouter(cfg, api, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info().Str("addr", srv.Addr).Msg("fundpulse gateway listening")
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}
