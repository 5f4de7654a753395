package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"fundpulse/internal/config"
	"fundpulse/internal/handlers"
)

func NewRouter(cfg config.Config, api *handlers.API, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(withRecovery(log))
	r.Use(withLogging(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	gateway := gatewayHandler(cfg, api)
	r.Get("/", gateway)
	r.Post("/", gateway)
	r.Get("/api", gateway)
	r.Post("/api", gateway)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})
	return r
}

// gatewayHandler decodes the flat parameter set, dispatches the
// operation and stamps the handling latency. Application-level failures
// still answer 200; success=false carries the message.
func gatewayHandler(cfg config.Config, api *handlers.API) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		env := api.Dispatch(r.Context(), r.URL.Query())
		env.Ms = time.Since(start).Milliseconds()

		w.Header().Set("Cache-Control", cfg.CacheControl)
		writeJSON(w, env)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}
