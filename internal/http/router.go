// Package http constructs the service HTTP router.
package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ai-interpretation-service/internal/observability"
	"ai-interpretation-service/internal/store"
	"ai-interpretation-service/internal/ws"
)

// NewRouter constructs the HTTP router: health endpoints, the review queue
// read API and the interpretation WebSocket.
func NewRouter(wsHandler *ws.Handler, st store.Store) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(observability.RequestLogger)

	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	r.Get("/v1/reviews", func(w http.ResponseWriter, req *http.Request) {
		pending, err := st.PendingReviews(req.Context())
		if err != nil {
			http.Error(w, "failed to list reviews", http.StatusInternalServerError)
			return
		}
		if pending == nil {
			pending = []store.ReviewTaskRecord{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"reviews": pending})
	})

	wsHandler.Register(r)

	return r
}
