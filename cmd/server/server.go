// cmd/server/server.go
package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/themestudio/internal/api"
	"github.com/codr1/themestudio/internal/api/themes"
	"github.com/codr1/themestudio/internal/config"
	"github.com/codr1/themestudio/internal/ratelimit"
)

func newServer(cfg *config.Config, sessions themes.Sessions, limiter *ratelimit.Limiter) *http.Server {
	router := http.NewServeMux()

	// Setup middleware chain
	handler := api.ChainMiddleware(
		router,
		api.WithRateLimit(limiter, cfg.RateLimit.TrustProxy),
		api.WithTenant,
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
		api.WithContentType,
	)

	registerRoutes(router, sessions)

	return &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux, sessions themes.Sessions) {
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write health response")
		}
	})

	themes.NewHandlers(sessions).Register(mux)
}
