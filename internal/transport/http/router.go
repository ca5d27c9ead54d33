package http

import (
	"net/http"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// NewRouter mounts the health check, the REST API and the websocket endpoint behind
// CORS and request logging.
func NewRouter(api *CourseHandler, ws *WSHandler, allowedOrigins []string, log zerolog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", ws.ServeWS)
	api.RegisterRoutes(mux)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return requestLogger(log, c.Handler(mux))
}

func requestLogger(log zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.RequestURI()).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}
